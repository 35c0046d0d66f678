// Package web provides the HTTP server: HTML pages for browsing species and
// their comments, the JSON API used by the CLI, the chat relay, and the
// species speed chart.
package web

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/evcraddock/species-catalog/internal/auth"
	"github.com/evcraddock/species-catalog/internal/chart"
	"github.com/evcraddock/species-catalog/internal/chat"
	"github.com/evcraddock/species-catalog/internal/comment"
	"github.com/evcraddock/species-catalog/internal/logging"
	"github.com/evcraddock/species-catalog/internal/profile"
	"github.com/evcraddock/species-catalog/internal/species"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// Options configures a Server.
type Options struct {
	Auth auth.Config

	// Completer answers chat messages. Nil means chat is not configured.
	Completer   chat.Completer
	ChatTimeout time.Duration

	// Animals feeds the speed chart. Nil means the embedded sample data.
	Animals []chart.Animal

	// Now is the clock used for relative comment times. Defaults to time.Now.
	Now func() time.Time
}

// Server is the web application.
type Server struct {
	species  *species.Repository
	comments *comment.Repository
	profiles *profile.Repository
	manager  *comment.Manager
	chat     *chat.Service
	animals  []chart.Animal
	versions *versions

	config   auth.Config
	sessions *auth.SessionStore
	tokens   *auth.TokenStore
	apiKeys  *auth.APIKeyStore
	passkeys *auth.PasskeyStore
	mailer   *auth.Mailer
	guard    *auth.Guard

	templates *template.Template
	router    chi.Router
	now       func() time.Time
}

// NewServer wires the repositories and routes for the given database.
func NewServer(db *sql.DB, opts Options) (*Server, error) {
	animals := opts.Animals
	if animals == nil {
		var err error
		animals, err = chart.LoadSample()
		if err != nil {
			return nil, fmt.Errorf("loading chart data: %w", err)
		}
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	s := &Server{
		species:  species.NewRepository(db),
		comments: comment.NewRepository(db),
		profiles: profile.NewRepository(db),
		chat:     chat.NewService(opts.Completer, opts.ChatTimeout),
		animals:  animals,
		versions: newVersions(),
		config:   opts.Auth,
		sessions: auth.NewSessionStore(db),
		tokens:   auth.NewTokenStore(db),
		apiKeys:  auth.NewAPIKeyStore(db),
		passkeys: auth.NewPasskeyStore(db),
		mailer:   auth.NewMailer(opts.Auth),
		now:      now,
	}
	s.guard = auth.NewGuard(s.sessions, s.apiKeys)
	s.manager = comment.NewManager(s.comments, s.profiles, noticeCollector{}, s.versions)

	tmpl, err := template.New("").Funcs(s.funcMap()).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	s.templates = tmpl

	if err := s.routes(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Server) routes() error {
	staticContent, err := fs.Sub(staticFS, "static")
	if err != nil {
		return fmt.Errorf("creating static sub-fs: %w", err)
	}

	ph, err := newPasskeyHandlers(s.config, s.passkeys, s.sessions, s.profiles)
	if err != nil {
		return fmt.Errorf("creating passkey handlers: %w", err)
	}
	ah := &authHandlers{tokens: s.tokens, sessions: s.sessions, profiles: s.profiles, mailer: s.mailer, render: s.render}
	ch := &cliAuthHandlers{tokens: s.tokens, sessions: s.sessions, apiKeys: s.apiKeys, profiles: s.profiles, mailer: s.mailer, render: s.render}
	kh := &apikeyHandlers{apiKeys: s.apiKeys}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer,
		logging.RequestID,
		middleware.RealIP,
		logging.RequestLogger,
		s.guard.Session,
	)

	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticContent))))
	r.Get("/health", handleHealth)

	// Public pages.
	r.Get("/login", ah.handleLoginPage)
	r.Post("/auth/login", ah.handleLoginSubmit)
	r.Get("/auth/verify", ah.handleVerify)
	r.HandleFunc("/auth/logout", ah.handleLogout)
	r.Post("/passkey/login/begin", ph.handleBeginLogin)
	r.Post("/passkey/login/finish", ph.handleFinishLogin)
	r.Get("/cli/auth", ch.showLoginForm)
	r.Post("/cli/auth", ch.submitEmail)
	r.Get("/cli/auth/verify", ch.handleVerify)
	r.Get("/chat", s.handleChatPage)
	r.Get("/species-speed", s.handleSpeedPage)
	r.Get("/species-speed/chart.svg", s.handleSpeedChart)

	// Pages that need a signed-in viewer.
	r.Group(func(r chi.Router) {
		r.Use(s.guard.RequireSession)

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/species", http.StatusSeeOther)
		})
		r.Get("/cli/auth/complete", ch.handleComplete)
		r.Get("/settings", s.handleSettings)
		r.Post("/settings/passkeys/delete", s.handlePasskeyDelete)
		r.Post("/passkey/register/begin", ph.handleBeginRegistration)
		r.Post("/passkey/register/finish", ph.handleFinishRegistration)

		r.Get("/species", s.handleList)
		r.Get("/species/new", s.handleNewForm)
		r.Post("/species", s.handleCreate)
		r.Route("/species/{id}", func(r chi.Router) {
			r.Get("/", s.handleDetail)
			r.Get("/edit", s.handleEditForm)
			r.Post("/edit", s.handleUpdate)
			r.Post("/delete", s.handleDelete)
			r.Get("/comments", s.handleThread)
			r.Post("/comments", s.handleCommentPost)
			r.Get("/comments/count", s.handleCommentCount)
			r.Post("/comments/{commentID}/delete", s.handleCommentDelete)
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/chat", s.handleChat)
		r.Get("/species-speed", s.apiSpeciesSpeed)

		// Key management is driven from the settings page.
		r.With(requireViewerJSON).Route("/keys", func(r chi.Router) {
			r.Get("/", kh.handleListKeys)
			r.Post("/", kh.handleCreateKey)
			r.Delete("/{id}", kh.handleDeleteKey)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.guard.RequireAPIKey)

			r.Get("/me", s.apiMe)
			r.Get("/species", s.apiListSpecies)
			r.Post("/species", s.apiCreateSpecies)
			r.Get("/species/{id}", s.apiGetSpecies)
			r.Patch("/species/{id}", s.apiUpdateSpecies)
			r.Delete("/species/{id}", s.apiDeleteSpecies)
			r.Get("/species/{id}/comments", s.apiListComments)
			r.Post("/species/{id}/comments", s.apiAddComment)
			r.Delete("/comments/{id}", s.apiDeleteComment)
		})
	})

	s.router = r
	return nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	slog.Info("server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	apiJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

// requireViewerJSON rejects anonymous requests with a JSON 401.
func requireViewerJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.ViewerFrom(r.Context()) == "" {
			apiError(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
