package web

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func countTokens(t *testing.T, d *sql.DB) int {
	t.Helper()
	var n int
	if err := d.QueryRow("SELECT COUNT(*) FROM auth_tokens").Scan(&n); err != nil {
		t.Fatalf("count tokens: %v", err)
	}
	return n
}

func sessionFrom(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == "sc_session" && c.MaxAge >= 0 {
			return c
		}
	}
	return nil
}

func TestLoginPage(t *testing.T) {
	srv := testServer(t)

	w := do(srv, "GET", "/login", nil, nil)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	body := w.Body.String()
	if !strings.Contains(body, `action="/auth/login"`) {
		t.Error("expected email form")
	}
	if !strings.Contains(body, "passkey-login") {
		t.Error("expected passkey button")
	}
}

func TestLoginPageRedirectsSignedIn(t *testing.T) {
	srv := testServer(t)
	p := testProfile(t, srv, "ann@example.com", "Ann")

	w := do(srv, "GET", "/login", loginAs(t, srv, p), nil)

	if w.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", w.Code, http.StatusSeeOther)
	}
}

func TestLoginSubmitKnownEmail(t *testing.T) {
	srv, d := testServerWithDB(t)
	testProfile(t, srv, "ann@example.com", "Ann")

	w := do(srv, "POST", "/auth/login", nil, url.Values{"email": {" Ann@Example.com "}})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), "login link has been sent") {
		t.Error("expected sent message")
	}
	if n := countTokens(t, d); n != 1 {
		t.Errorf("tokens = %d, want 1", n)
	}
}

func TestLoginSubmitUnknownEmail(t *testing.T) {
	srv, d := testServerWithDB(t)

	w := do(srv, "POST", "/auth/login", nil, url.Values{"email": {"nobody@example.com"}})

	if !strings.Contains(w.Body.String(), "login link has been sent") {
		t.Error("unknown email should get the same message")
	}
	if n := countTokens(t, d); n != 0 {
		t.Errorf("tokens = %d, want 0", n)
	}
}

func TestLoginSubmitMissingEmail(t *testing.T) {
	srv := testServer(t)

	w := do(srv, "POST", "/auth/login", nil, url.Values{"email": {""}})

	if !strings.Contains(w.Body.String(), "Email is required") {
		t.Error("expected required message")
	}
}

func TestVerifyStartsSession(t *testing.T) {
	srv := testServer(t)
	testProfile(t, srv, "ann@example.com", "Ann")
	token, err := srv.tokens.Create(context.Background(), "ann@example.com")
	if err != nil {
		t.Fatalf("create token: %v", err)
	}

	w := do(srv, "GET", "/auth/verify?token="+token, nil, nil)

	if w.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusSeeOther)
	}
	if loc := w.Header().Get("Location"); loc != "/species" {
		t.Errorf("location = %q, want /species", loc)
	}
	cookie := sessionFrom(w)
	if cookie == nil {
		t.Fatal("expected session cookie")
	}

	w = do(srv, "GET", "/species", cookie, nil)
	if w.Code != http.StatusOK {
		t.Errorf("species with new session: status = %d, want %d", w.Code, http.StatusOK)
	}

	w = do(srv, "GET", "/auth/verify?token="+token, nil, nil)
	if !strings.Contains(w.Body.String(), "Invalid or expired login link") {
		t.Error("token should be single use")
	}
}

func TestVerifyInvalidToken(t *testing.T) {
	srv := testServer(t)

	for _, path := range []string{"/auth/verify", "/auth/verify?token=bogus"} {
		w := do(srv, "GET", path, nil, nil)
		if !strings.Contains(w.Body.String(), "Invalid or expired login link") {
			t.Errorf("%s: expected error message", path)
		}
		if sessionFrom(w) != nil {
			t.Errorf("%s: unexpected session cookie", path)
		}
	}
}

func TestLogout(t *testing.T) {
	srv := testServer(t)
	p := testProfile(t, srv, "ann@example.com", "Ann")
	cookie := loginAs(t, srv, p)

	w := do(srv, "GET", "/auth/logout", cookie, nil)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusSeeOther)
	}

	w = do(srv, "GET", "/species", cookie, nil)
	if w.Code != http.StatusSeeOther {
		t.Errorf("old session still valid: status = %d", w.Code)
	}
}

func TestCLIAuthFlow(t *testing.T) {
	srv, d := testServerWithDB(t)
	testProfile(t, srv, "ann@example.com", "Ann")

	w := do(srv, "POST", "/cli/auth", nil, url.Values{"email": {"ann@example.com"}})
	if !strings.Contains(w.Body.String(), "login link has been sent") {
		t.Fatal("expected sent message")
	}
	if n := countTokens(t, d); n != 1 {
		t.Fatalf("tokens = %d, want 1", n)
	}

	token, err := srv.tokens.Create(context.Background(), "ann@example.com")
	if err != nil {
		t.Fatalf("create token: %v", err)
	}
	w = do(srv, "GET", "/cli/auth/verify?token="+token, nil, nil)
	if loc := w.Header().Get("Location"); loc != "/cli/auth/complete" {
		t.Fatalf("location = %q, want /cli/auth/complete", loc)
	}

	w = do(srv, "GET", "/cli/auth/complete", sessionFrom(w), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if cc := w.Header().Get("Cache-Control"); cc != "no-store" {
		t.Errorf("cache-control = %q, want no-store", cc)
	}
	body := w.Body.String()
	_, rest, ok := strings.Cut(body, `<pre class="api-key">`)
	if !ok {
		t.Fatal("expected api key in page")
	}
	key, _, _ := strings.Cut(rest, "</pre>")
	if !strings.HasPrefix(key, "sc_") {
		t.Fatalf("key = %q, want sc_ prefix", key)
	}

	w = apiRequest(t, srv, "GET", "/api/me", key, nil)
	if w.Code != http.StatusOK {
		t.Errorf("issued key rejected: status = %d", w.Code)
	}
}

func TestAPIKeyManagement(t *testing.T) {
	srv := testServer(t)
	p := testProfile(t, srv, "ann@example.com", "Ann")
	cookie := loginAs(t, srv, p)

	r := httptest.NewRequest("POST", "/api/keys", strings.NewReader(`{"name":"laptop"}`))
	r.AddCookie(cookie)
	w := serve(srv, r)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want %d", w.Code, http.StatusCreated)
	}
	var created apiKeyCreateResponse
	if err := json.NewDecoder(w.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.HasPrefix(created.Key, "sc_") {
		t.Errorf("key = %q, want sc_ prefix", created.Key)
	}

	w = serve(srv, httptestRequest("GET", "/api/keys", cookie))
	if !strings.Contains(w.Body.String(), "laptop") {
		t.Error("expected key in list")
	}
	if strings.Contains(w.Body.String(), created.Key) {
		t.Error("list must not expose raw keys")
	}

	w = serve(srv, httptestRequest("DELETE", "/api/keys/"+itoa(created.APIKey.ID), cookie))
	if w.Code != http.StatusNoContent {
		t.Errorf("delete status = %d, want %d", w.Code, http.StatusNoContent)
	}

	w = apiRequest(t, srv, "GET", "/api/me", created.Key, nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("revoked key: status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestAPIKeyManagementRequiresSession(t *testing.T) {
	srv := testServer(t)

	w := do(srv, "GET", "/api/keys", nil, nil)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestPasskeyBeginLogin(t *testing.T) {
	srv := testServer(t)

	w := do(srv, "POST", "/passkey/login/begin", nil, nil)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), `"challenge"`) {
		t.Error("expected challenge in options")
	}
	found := false
	for _, c := range w.Result().Cookies() {
		if c.Name == passkeyCookie {
			found = true
		}
	}
	if !found {
		t.Error("expected ceremony cookie")
	}
}

func TestPasskeyFinishLoginWithoutCeremony(t *testing.T) {
	srv := testServer(t)

	w := do(srv, "POST", "/passkey/login/finish", nil, nil)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestPasskeyBeginRegistration(t *testing.T) {
	srv := testServer(t)
	p := testProfile(t, srv, "ann@example.com", "Ann")

	w := do(srv, "POST", "/passkey/register/begin", nil, nil)
	if w.Code != http.StatusSeeOther {
		t.Errorf("anonymous: status = %d, want %d", w.Code, http.StatusSeeOther)
	}

	w = do(srv, "POST", "/passkey/register/begin", loginAs(t, srv, p), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	body := w.Body.String()
	if !strings.Contains(body, "ann@example.com") {
		t.Error("expected user name in options")
	}
	if !strings.Contains(body, `"residentKey":"required"`) {
		t.Error("expected discoverable credential requirement")
	}
}
