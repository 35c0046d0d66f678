package cli

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Body   map[string]any
}

// fakeAPI serves canned responses by "METHOD /path" and records requests.
type fakeAPI struct {
	mu        sync.Mutex
	requests  []recordedRequest
	responses map[string]any
}

func newFakeAPI(t *testing.T, responses map[string]any) *fakeAPI {
	t.Helper()
	f := &fakeAPI{responses: responses}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	t.Setenv("HOME", t.TempDir())
	t.Setenv("SC_SERVER_URL", srv.URL)
	t.Setenv("SC_API_KEY", "sc_test")
	return f
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rec := recordedRequest{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery}
	if data, _ := io.ReadAll(r.Body); len(data) > 0 {
		_ = json.Unmarshal(data, &rec.Body)
	}
	f.mu.Lock()
	f.requests = append(f.requests, rec)
	f.mu.Unlock()

	if r.Header.Get("Authorization") != "Bearer sc_test" {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"Unauthorized"}`))
		return
	}

	resp, ok := f.responses[r.Method+" "+r.URL.Path]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"not found"}`))
		return
	}
	if resp == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (f *fakeAPI) last(t *testing.T) recordedRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		t.Fatal("no request was sent")
	}
	return f.requests[len(f.requests)-1]
}

var lion = map[string]any{
	"id":               1,
	"scientific_name":  "Panthera leo",
	"common_name":      "Lion",
	"total_population": 20000,
	"kingdom":          "Animalia",
	"author":           "p1",
	"created_at":       time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
}

func TestListCommand(t *testing.T) {
	api := newFakeAPI(t, map[string]any{"GET /api/species": []any{lion}})

	if _, err := executeCommand("list", "--kingdom", "Animalia", "-q", "leo"); err != nil {
		t.Fatalf("list: %v", err)
	}

	req := api.last(t)
	if req.Query != "kingdom=Animalia&q=leo" {
		t.Errorf("query = %q, want kingdom and q", req.Query)
	}
}

func TestShowCommand(t *testing.T) {
	newFakeAPI(t, map[string]any{
		"GET /api/species/1": map[string]any{
			"species": lion,
			"comments": []any{map[string]any{
				"id": 3, "species_id": 1, "author": "p2", "content": "Majestic",
				"created_at": time.Now().Add(-2 * time.Hour),
				"profile":    nil,
			}},
		},
	})

	if _, err := executeCommand("show", "1", "--format", "json"); err != nil {
		t.Fatalf("show: %v", err)
	}
}

func TestShowNotFound(t *testing.T) {
	newFakeAPI(t, map[string]any{})

	_, err := executeCommand("show", "42")
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestAddCommandSendsOnlySetFields(t *testing.T) {
	api := newFakeAPI(t, map[string]any{"POST /api/species": lion})

	if _, err := executeCommand("add", "Panthera", "leo", "--common-name", " Lion ", "--population", "20000"); err != nil {
		t.Fatalf("add: %v", err)
	}

	body := api.last(t).Body
	if body["scientific_name"] != "Panthera leo" {
		t.Errorf("scientific_name = %v", body["scientific_name"])
	}
	if body["common_name"] != "Lion" {
		t.Errorf("common_name = %v, want trimmed Lion", body["common_name"])
	}
	if body["kingdom"] != "Animalia" {
		t.Errorf("kingdom = %v, want default Animalia", body["kingdom"])
	}
	if body["total_population"] != float64(20000) {
		t.Errorf("total_population = %v", body["total_population"])
	}
	if _, ok := body["description"]; ok {
		t.Error("description sent although not set")
	}
}

func TestEditCommandPatchesChangedFields(t *testing.T) {
	api := newFakeAPI(t, map[string]any{"PATCH /api/species/1": lion})

	if _, err := executeCommand("edit", "1", "--description", "Big cat"); err != nil {
		t.Fatalf("edit: %v", err)
	}

	req := api.last(t)
	if req.Method != http.MethodPatch {
		t.Errorf("method = %s, want PATCH", req.Method)
	}
	if len(req.Body) != 1 || req.Body["description"] != "Big cat" {
		t.Errorf("body = %v, want only description", req.Body)
	}
}

func TestRemoveCommand(t *testing.T) {
	api := newFakeAPI(t, map[string]any{"DELETE /api/species/1": nil})

	if _, err := executeCommand("remove", "1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if req := api.last(t); req.Method != http.MethodDelete || req.Path != "/api/species/1" {
		t.Errorf("request = %s %s", req.Method, req.Path)
	}
}

func TestRemoveNotAuthor(t *testing.T) {
	newFakeAPI(t, map[string]any{})

	if _, err := executeCommand("remove", "7"); err == nil {
		t.Fatal("expected error")
	}
}

func TestCommentCommands(t *testing.T) {
	api := newFakeAPI(t, map[string]any{
		"POST /api/species/1/comments": map[string]any{
			"id": 9, "species_id": 1, "author": "p1", "content": "Roars loudly",
			"created_at": time.Now(),
			"profile":    map[string]any{"id": "p1", "display_name": "Ada", "email": "ada@example.com"},
		},
		"GET /api/species/1/comments": []any{},
		"DELETE /api/comments/9":      nil,
	})

	if _, err := executeCommand("comment", "1", "Roars", "loudly"); err != nil {
		t.Fatalf("comment: %v", err)
	}
	if got := api.last(t).Body["content"]; got != "Roars loudly" {
		t.Errorf("content = %v, want joined text", got)
	}

	if _, err := executeCommand("comments", "1"); err != nil {
		t.Fatalf("comments: %v", err)
	}

	if _, err := executeCommand("uncomment", "9"); err != nil {
		t.Fatalf("uncomment: %v", err)
	}
	if req := api.last(t); req.Method != http.MethodDelete || req.Path != "/api/comments/9" {
		t.Errorf("request = %s %s", req.Method, req.Path)
	}
}

func TestAskCommand(t *testing.T) {
	api := newFakeAPI(t, map[string]any{
		"POST /api/chat": map[string]string{"response": "Bamboo, mostly."},
	})

	if _, err := executeCommand("ask", "What", "do", "pandas", "eat?"); err != nil {
		t.Fatalf("ask: %v", err)
	}
	if got := api.last(t).Body["message"]; got != "What do pandas eat?" {
		t.Errorf("message = %v", got)
	}
}

func TestSpeedsCommandWritesSVG(t *testing.T) {
	newFakeAPI(t, map[string]any{
		"GET /api/species-speed": []map[string]any{
			{"name": "Cheetah", "speed": 120, "diet": "carnivore"},
			{"name": "Pronghorn", "speed": 88.5, "diet": "herbivore"},
			{"name": "Ostrich", "speed": 70, "diet": "omnivore"},
		},
	})

	out := filepath.Join(t.TempDir(), "speeds.svg")
	if _, err := executeCommand("speeds", "--svg", out); err != nil {
		t.Fatalf("speeds: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("reading svg: %v", err)
	}
	if !strings.Contains(string(data), "<svg") || !strings.Contains(string(data), "Cheetah") {
		t.Error("expected an SVG chart naming Cheetah")
	}
}

func TestSpeedsCommandNoData(t *testing.T) {
	newFakeAPI(t, map[string]any{"GET /api/species-speed": []any{}})

	out := filepath.Join(t.TempDir(), "speeds.svg")
	if _, err := executeCommand("speeds", "--svg", out); err != nil {
		t.Fatalf("speeds: %v", err)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("no chart file expected without data")
	}
}

func TestProfileCommands(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dbPath := filepath.Join(t.TempDir(), "test.db")

	if _, err := executeCommand("profile", "add", "Ada@Example.com", "Ada", "Lovelace", "--bio", "Mathematician", "--db", dbPath); err != nil {
		t.Fatalf("profile add: %v", err)
	}
	if _, err := executeCommand("profile", "add", "ada@example.com", "Someone", "--db", dbPath); err == nil {
		t.Fatal("expected duplicate email error")
	}
	if _, err := executeCommand("profile", "list", "--db", dbPath); err != nil {
		t.Fatalf("profile list: %v", err)
	}
	if _, err := executeCommand("profile", "remove", "ada@example.com", "--db", dbPath); err != nil {
		t.Fatalf("profile remove: %v", err)
	}
	if _, err := executeCommand("profile", "remove", "ada@example.com", "--db", dbPath); err == nil {
		t.Fatal("expected error removing a missing profile")
	}
}

func TestLoadSpeedData(t *testing.T) {
	animals, err := loadSpeedData("")
	if err != nil || animals != nil {
		t.Fatalf("empty path = %v, %v; want nil, nil", animals, err)
	}

	path := filepath.Join(t.TempDir(), "speeds.csv")
	csv := "Animal,Top Speed (km/h),Diet\nCheetah,120,Carnivore\nSnail,slow,Herbivore\n"
	if err := os.WriteFile(path, []byte(csv), 0o600); err != nil {
		t.Fatalf("writing csv: %v", err)
	}

	animals, err = loadSpeedData(path)
	if err != nil {
		t.Fatalf("loadSpeedData: %v", err)
	}
	if len(animals) != 1 || animals[0].Name != "Cheetah" {
		t.Errorf("animals = %+v, want only Cheetah", animals)
	}

	if _, err := loadSpeedData(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Error("expected error for missing file")
	}
}
