package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

type viewerKey struct{}

// WithViewer returns a context carrying the signed-in profile ID.
func WithViewer(ctx context.Context, profileID string) context.Context {
	return context.WithValue(ctx, viewerKey{}, profileID)
}

// ViewerFrom returns the signed-in profile ID, or "" for anonymous requests.
func ViewerFrom(ctx context.Context) string {
	id, _ := ctx.Value(viewerKey{}).(string)
	return id
}

const (
	rateLimitWindow  = time.Minute
	rateLimitMaxFail = 10
)

// rateLimiter tracks failed API key attempts per client IP.
type rateLimiter struct {
	mu       sync.Mutex
	attempts map[string][]time.Time
	now      func() time.Time
}

func newRateLimiter() *rateLimiter {
	return &rateLimiter{attempts: make(map[string][]time.Time), now: time.Now}
}

// prune drops attempts outside the window and returns what remains.
// Callers hold mu.
func (rl *rateLimiter) prune(ip string) []time.Time {
	cutoff := rl.now().Add(-rateLimitWindow)
	valid := rl.attempts[ip][:0]
	for _, t := range rl.attempts[ip] {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	if len(valid) == 0 {
		delete(rl.attempts, ip)
		return nil
	}
	rl.attempts[ip] = valid
	return valid
}

func (rl *rateLimiter) blocked(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.prune(ip)) >= rateLimitMaxFail
}

func (rl *rateLimiter) recordFailure(ip string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.attempts[ip] = append(rl.prune(ip), rl.now())
}

// Guard resolves the viewer for web and API requests.
type Guard struct {
	sessions *SessionStore
	apiKeys  *APIKeyStore
	limiter  *rateLimiter
}

// NewGuard creates a Guard.
func NewGuard(sessions *SessionStore, apiKeys *APIKeyStore) *Guard {
	return &Guard{sessions: sessions, apiKeys: apiKeys, limiter: newRateLimiter()}
}

// Session attaches the session's viewer when there is one and never blocks.
func (g *Guard) Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, err := g.sessions.Validate(r); err == nil {
			r = r.WithContext(WithViewer(r.Context(), id))
		} else if !errors.Is(err, ErrNoSession) {
			slog.Error("validating session", "error", err)
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSession sends anonymous visitors to the login page. HTMX requests
// get a 401 with an HX-Redirect header so the whole page navigates.
// It expects Session to have run first.
func (g *Guard) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ViewerFrom(r.Context()) == "" {
			if r.Header.Get("HX-Request") == "true" {
				w.Header().Set("HX-Redirect", "/login")
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAPIKey authenticates a Bearer API key and attaches its profile as
// the viewer. Clients with too many recent failures get 429.
func (g *Guard) RequireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		key, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || key == "" {
			writeError(w, http.StatusUnauthorized, "Authorization required")
			return
		}

		ip := clientIP(r)
		if g.limiter.blocked(ip) {
			writeError(w, http.StatusTooManyRequests, "Too many requests")
			return
		}

		profileID, err := g.apiKeys.Validate(r.Context(), key)
		if errors.Is(err, ErrInvalidAPIKey) {
			g.limiter.recordFailure(ip)
			writeError(w, http.StatusUnauthorized, "Invalid API key")
			return
		}
		if err != nil {
			slog.Error("validating api key", "error", err)
			writeError(w, http.StatusInternalServerError, "Internal error")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithViewer(r.Context(), profileID)))
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": msg}); err != nil {
		slog.Warn("writing auth error", "error", err)
	}
}
