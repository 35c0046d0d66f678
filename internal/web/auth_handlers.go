package web

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/evcraddock/species-catalog/internal/auth"
	"github.com/evcraddock/species-catalog/internal/profile"
)

// loginSentMessage is shown for every submitted address so the form does
// not reveal which emails have profiles.
const loginSentMessage = "If that email is registered, a login link has been sent. Check your inbox."

// authHandlers holds the magic-link login handlers.
type authHandlers struct {
	tokens   *auth.TokenStore
	sessions *auth.SessionStore
	profiles *profile.Repository
	mailer   *auth.Mailer
	render   func(w http.ResponseWriter, name string, data any)
}

type loginData struct {
	page
	Message string
	Error   string
}

// handleLoginPage renders the login form.
func (h *authHandlers) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if auth.ViewerFrom(r.Context()) != "" {
		http.Redirect(w, r, "/species", http.StatusSeeOther)
		return
	}
	h.render(w, "login.html", loginData{})
}

// handleLoginSubmit emails a magic link when the address has a profile.
func (h *authHandlers) handleLoginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	email := strings.TrimSpace(strings.ToLower(r.FormValue("email")))
	if email == "" {
		h.render(w, "login.html", loginData{Error: "Email is required"})
		return
	}

	if _, err := h.profiles.GetByEmail(r.Context(), email); err == nil {
		token, err := h.tokens.Create(r.Context(), email)
		if err != nil {
			slog.Error("creating token", "error", err)
		} else if _, err := h.mailer.SendMagicLink(email, token); err != nil {
			slog.Error("sending magic link", "error", err)
		}
	} else {
		slog.Info("login requested for unknown email")
	}

	h.render(w, "login.html", loginData{Message: loginSentMessage})
}

// handleVerify consumes a magic link token and starts a session.
func (h *authHandlers) handleVerify(w http.ResponseWriter, r *http.Request) {
	p, ok := verifyToken(r, h.tokens, h.profiles)
	if !ok {
		h.render(w, "login.html", loginData{Error: "Invalid or expired login link. Please request a new one."})
		return
	}

	if err := h.sessions.Create(r.Context(), w, p.ID); err != nil {
		slog.Error("creating session", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	slog.Info("login success", "profile_id", p.ID, "method", "magic_link")
	http.Redirect(w, r, "/species", http.StatusSeeOther)
}

// handleLogout destroys the session and redirects to login.
func (h *authHandlers) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Destroy(w, r); err != nil {
		slog.Error("destroying session", "error", err)
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// verifyToken consumes the ?token= parameter and resolves its profile.
func verifyToken(r *http.Request, tokens *auth.TokenStore, profiles *profile.Repository) (*profile.Profile, bool) {
	token := r.URL.Query().Get("token")
	if token == "" {
		return nil, false
	}

	email, err := tokens.Consume(r.Context(), token)
	if err != nil {
		slog.Info("rejected login token", "error", err)
		return nil, false
	}

	p, err := profiles.GetByEmail(r.Context(), email)
	if err != nil {
		slog.Warn("token for missing profile", "error", err)
		return nil, false
	}
	return p, true
}
