package web

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/evcraddock/species-catalog/internal/auth"
	"github.com/evcraddock/species-catalog/internal/profile"
)

// cliAuthHandlers runs the browser half of `sc login`: the user signs in and
// is shown a freshly issued API key to paste into the terminal.
type cliAuthHandlers struct {
	tokens   *auth.TokenStore
	sessions *auth.SessionStore
	apiKeys  *auth.APIKeyStore
	profiles *profile.Repository
	mailer   *auth.Mailer
	render   func(w http.ResponseWriter, name string, data any)
}

type cliAuthData struct {
	page
	APIKey  string
	Message string
	Error   string
}

func (h *cliAuthHandlers) showLoginForm(w http.ResponseWriter, r *http.Request) {
	if auth.ViewerFrom(r.Context()) != "" {
		http.Redirect(w, r, "/cli/auth/complete", http.StatusSeeOther)
		return
	}
	h.render(w, "cli_auth.html", cliAuthData{})
}

func (h *cliAuthHandlers) submitEmail(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	email := strings.TrimSpace(strings.ToLower(r.FormValue("email")))
	if email == "" {
		h.render(w, "cli_auth.html", cliAuthData{Error: "Email is required"})
		return
	}

	if _, err := h.profiles.GetByEmail(r.Context(), email); err == nil {
		token, err := h.tokens.Create(r.Context(), email)
		if err != nil {
			slog.Error("creating token", "error", err)
		} else if _, err := h.mailer.SendCLIMagicLink(email, token); err != nil {
			slog.Error("sending magic link", "error", err)
		}
	}

	h.render(w, "cli_auth.html", cliAuthData{Message: loginSentMessage})
}

// handleVerify consumes the emailed token, starts a session, and continues
// to handleComplete.
func (h *cliAuthHandlers) handleVerify(w http.ResponseWriter, r *http.Request) {
	p, ok := verifyToken(r, h.tokens, h.profiles)
	if !ok {
		h.render(w, "cli_auth.html", cliAuthData{Error: "Invalid or expired login link. Please try again."})
		return
	}

	if err := h.sessions.Create(r.Context(), w, p.ID); err != nil {
		slog.Error("creating session", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/cli/auth/complete", http.StatusSeeOther)
}

// handleComplete issues an API key for the signed-in viewer and shows it once.
func (h *cliAuthHandlers) handleComplete(w http.ResponseWriter, r *http.Request) {
	rawKey, _, err := h.apiKeys.Create(r.Context(), auth.ViewerFrom(r.Context()), "CLI")
	if err != nil {
		slog.Error("creating api key", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	h.render(w, "cli_auth.html", cliAuthData{APIKey: rawKey})
}
