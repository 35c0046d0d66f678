package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func viewerEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(ViewerFrom(r.Context())))
	})
}

func TestViewerContext(t *testing.T) {
	if got := ViewerFrom(context.Background()); got != "" {
		t.Errorf("empty context viewer = %q", got)
	}
	if got := ViewerFrom(WithViewer(context.Background(), "p1")); got != "p1" {
		t.Errorf("viewer = %q, want p1", got)
	}
}

func TestRequireSessionRedirectsAnonymous(t *testing.T) {
	g := NewGuard(NewSessionStore(testDB(t)), nil)
	handler := g.Session(g.RequireSession(viewerEcho()))

	r := httptest.NewRequest("GET", "/species", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", w.Code, http.StatusSeeOther)
	}
	if w.Header().Get("Location") != "/login" {
		t.Errorf("location = %q, want /login", w.Header().Get("Location"))
	}
}

func TestRequireSessionHTMX(t *testing.T) {
	g := NewGuard(NewSessionStore(testDB(t)), nil)
	handler := g.Session(g.RequireSession(viewerEcho()))

	r := httptest.NewRequest("POST", "/species/1/comments", nil)
	r.Header.Set("HX-Request", "true")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
	if w.Header().Get("HX-Redirect") != "/login" {
		t.Errorf("HX-Redirect = %q", w.Header().Get("HX-Redirect"))
	}
}

func TestRequireSessionAttachesViewer(t *testing.T) {
	d := testDB(t)
	p := testProfile(t, d, "ada@example.com")
	sessions := NewSessionStore(d)
	g := NewGuard(sessions, nil)

	w := httptest.NewRecorder()
	if err := sessions.Create(context.Background(), w, p.ID); err != nil {
		t.Fatalf("create session: %v", err)
	}

	r := httptest.NewRequest("GET", "/species", nil)
	r.AddCookie(sessionCookie(t, w))
	w2 := httptest.NewRecorder()
	g.Session(g.RequireSession(viewerEcho())).ServeHTTP(w2, r)

	if w2.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w2.Code)
	}
	if w2.Body.String() != p.ID {
		t.Errorf("viewer = %q, want %q", w2.Body.String(), p.ID)
	}
}

func TestRequireAPIKey(t *testing.T) {
	d := testDB(t)
	p := testProfile(t, d, "ada@example.com")
	keys := NewAPIKeyStore(d)
	raw, _, err := keys.Create(context.Background(), p.ID, "test")
	if err != nil {
		t.Fatalf("create key: %v", err)
	}
	handler := NewGuard(NewSessionStore(d), keys).RequireAPIKey(viewerEcho())

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"wrong key", "Bearer sc_wrong", http.StatusUnauthorized},
		{"valid", "Bearer " + raw, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/api/species", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)

			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
			if tt.want == http.StatusOK && w.Body.String() != p.ID {
				t.Errorf("viewer = %q, want %q", w.Body.String(), p.ID)
			}
		})
	}
}

func TestRequireAPIKeyRateLimit(t *testing.T) {
	d := testDB(t)
	p := testProfile(t, d, "ada@example.com")
	keys := NewAPIKeyStore(d)
	raw, _, err := keys.Create(context.Background(), p.ID, "test")
	if err != nil {
		t.Fatalf("create key: %v", err)
	}
	handler := NewGuard(NewSessionStore(d), keys).RequireAPIKey(viewerEcho())

	call := func(key, addr string) int {
		r := httptest.NewRequest("GET", "/api/species", nil)
		r.RemoteAddr = addr
		r.Header.Set("Authorization", "Bearer "+key)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		return w.Code
	}

	// Successful requests never count toward the limit.
	for i := 0; i < rateLimitMaxFail+5; i++ {
		if code := call(raw, "10.0.0.1:1234"); code != http.StatusOK {
			t.Fatalf("valid request %d: status %d", i, code)
		}
	}

	for i := 0; i < rateLimitMaxFail; i++ {
		if code := call("sc_wrong", "10.0.0.2:1234"); code != http.StatusUnauthorized {
			t.Fatalf("failure %d: status %d, want 401", i, code)
		}
	}
	if code := call(raw, "10.0.0.2:5678"); code != http.StatusTooManyRequests {
		t.Errorf("after failures status = %d, want 429", code)
	}
	if code := call(raw, "10.0.0.3:1234"); code != http.StatusOK {
		t.Errorf("other client status = %d, want 200", code)
	}
}
