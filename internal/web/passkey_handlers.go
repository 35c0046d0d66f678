package web

import (
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"

	"github.com/evcraddock/species-catalog/internal/auth"
	"github.com/evcraddock/species-catalog/internal/profile"
)

const (
	passkeyCookie   = "sc_passkey"
	ceremonyTimeout = 5 * time.Minute
)

// passkeyHandlers holds WebAuthn registration and login handlers.
type passkeyHandlers struct {
	wan      *webauthn.WebAuthn
	passkeys *auth.PasskeyStore
	sessions *auth.SessionStore
	profiles *profile.Repository

	// In-flight ceremonies. Registrations are keyed by profile ID, logins by
	// a random ID carried in the passkeyCookie.
	mu            sync.Mutex
	registrations map[string]*webauthn.SessionData
	logins        map[string]*webauthn.SessionData
}

func newPasskeyHandlers(cfg auth.Config, passkeys *auth.PasskeyStore, sessions *auth.SessionStore, profiles *profile.Repository) (*passkeyHandlers, error) {
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	wan, err := webauthn.New(&webauthn.Config{
		RPDisplayName: "Species Catalog",
		RPID:          parsed.Hostname(),
		RPOrigins:     []string{strings.TrimRight(cfg.BaseURL, "/")},
	})
	if err != nil {
		return nil, err
	}

	return &passkeyHandlers{
		wan:           wan,
		passkeys:      passkeys,
		sessions:      sessions,
		profiles:      profiles,
		registrations: make(map[string]*webauthn.SessionData),
		logins:        make(map[string]*webauthn.SessionData),
	}, nil
}

// handleBeginRegistration starts registering a passkey for the viewer.
func (h *passkeyHandlers) handleBeginRegistration(w http.ResponseWriter, r *http.Request) {
	user, ok := h.viewerUser(w, r)
	if !ok {
		return
	}

	creds := user.WebAuthnCredentials()
	exclude := make([]protocol.CredentialDescriptor, len(creds))
	for i, c := range creds {
		exclude[i] = c.Descriptor()
	}

	creation, session, err := h.wan.BeginRegistration(user,
		webauthn.WithExclusions(exclude),
		webauthn.WithResidentKeyRequirement(protocol.ResidentKeyRequirementRequired),
	)
	if err != nil {
		slog.Error("beginning registration", "error", err)
		apiError(w, "Internal error", http.StatusInternalServerError)
		return
	}

	h.mu.Lock()
	h.registrations[user.ProfileID()] = session
	h.mu.Unlock()

	apiJSON(w, creation, http.StatusOK)
}

// handleFinishRegistration stores the new credential under the name given in
// the ?name= query parameter.
func (h *passkeyHandlers) handleFinishRegistration(w http.ResponseWriter, r *http.Request) {
	user, ok := h.viewerUser(w, r)
	if !ok {
		return
	}

	h.mu.Lock()
	session, found := h.registrations[user.ProfileID()]
	delete(h.registrations, user.ProfileID())
	h.mu.Unlock()

	if !found {
		apiError(w, "No registration in progress", http.StatusBadRequest)
		return
	}

	credential, err := h.wan.FinishRegistration(user, *session, r)
	if err != nil {
		slog.Warn("finishing registration", "error", err)
		apiError(w, "Registration failed", http.StatusBadRequest)
		return
	}

	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		name = "Passkey"
	}

	if err := h.passkeys.Save(r.Context(), user.ProfileID(), name, credential); err != nil {
		slog.Error("saving credential", "error", err)
		apiError(w, "Internal error", http.StatusInternalServerError)
		return
	}

	apiJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

// handleBeginLogin starts a discoverable passkey login.
func (h *passkeyHandlers) handleBeginLogin(w http.ResponseWriter, r *http.Request) {
	assertion, session, err := h.wan.BeginDiscoverableLogin()
	if err != nil {
		slog.Error("beginning passkey login", "error", err)
		apiError(w, "Internal error", http.StatusInternalServerError)
		return
	}

	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		slog.Error("generating ceremony id", "error", err)
		apiError(w, "Internal error", http.StatusInternalServerError)
		return
	}
	id := hex.EncodeToString(b)

	h.mu.Lock()
	h.pruneLogins()
	h.logins[id] = session
	h.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     passkeyCookie,
		Value:    id,
		Path:     "/passkey/",
		MaxAge:   int(ceremonyTimeout.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	apiJSON(w, assertion, http.StatusOK)
}

// handleFinishLogin verifies the assertion and starts a session for the
// profile whose ID is the credential's user handle.
func (h *passkeyHandlers) handleFinishLogin(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(passkeyCookie)
	if err != nil {
		apiError(w, "No login in progress", http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	session, found := h.logins[c.Value]
	delete(h.logins, c.Value)
	h.mu.Unlock()

	if !found {
		apiError(w, "No login in progress", http.StatusBadRequest)
		return
	}

	lookup := func(rawID, userHandle []byte) (webauthn.User, error) {
		p, err := h.profiles.GetByID(r.Context(), string(userHandle))
		if err != nil {
			return nil, protocol.ErrBadRequest.WithDetails("unknown user")
		}
		creds, err := h.passkeys.Credentials(r.Context(), p.ID)
		if err != nil {
			return nil, err
		}
		return auth.NewPasskeyUser(p, creds), nil
	}

	user, _, err := h.wan.FinishPasskeyLogin(lookup, *session, r)
	if err != nil {
		slog.Warn("finishing passkey login", "error", err)
		apiError(w, "Login failed", http.StatusUnauthorized)
		return
	}

	profileID := string(user.WebAuthnID())
	if err := h.sessions.Create(r.Context(), w, profileID); err != nil {
		slog.Error("creating session", "error", err)
		apiError(w, "Internal error", http.StatusInternalServerError)
		return
	}

	slog.Info("login success", "profile_id", profileID, "method", "passkey")
	apiJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

// viewerUser loads the signed-in viewer as a webauthn user.
func (h *passkeyHandlers) viewerUser(w http.ResponseWriter, r *http.Request) (*auth.PasskeyUser, bool) {
	p, err := h.profiles.GetByID(r.Context(), auth.ViewerFrom(r.Context()))
	if err != nil {
		apiError(w, "Unauthorized", http.StatusUnauthorized)
		return nil, false
	}

	creds, err := h.passkeys.Credentials(r.Context(), p.ID)
	if err != nil {
		slog.Error("loading credentials", "error", err)
		apiError(w, "Internal error", http.StatusInternalServerError)
		return nil, false
	}

	return auth.NewPasskeyUser(p, creds), true
}

// pruneLogins drops abandoned login ceremonies. Callers hold mu.
func (h *passkeyHandlers) pruneLogins() {
	now := time.Now()
	for id, s := range h.logins {
		if !s.Expires.IsZero() && s.Expires.Before(now) {
			delete(h.logins, id)
		}
	}
}
