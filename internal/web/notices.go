package web

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/evcraddock/species-catalog/internal/comment"
)

const flashCookie = "sc_flash"

// noticeBox collects the notices raised while handling one request.
type noticeBox struct {
	mu   sync.Mutex
	list []comment.Notice
}

func (b *noticeBox) add(n comment.Notice) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.list = append(b.list, n)
}

func (b *noticeBox) all() []comment.Notice {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]comment.Notice(nil), b.list...)
}

// lastError returns the most recent destructive notice formatted for an
// API error body.
func (b *noticeBox) lastError() (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := len(b.list) - 1; i >= 0; i-- {
		n := b.list[i]
		if n.Variant != comment.VariantDestructive {
			continue
		}
		if n.Description == "" {
			return n.Title, true
		}
		return n.Title + ": " + n.Description, true
	}
	return "", false
}

type noticeBoxKey struct{}

func withNoticeBox(ctx context.Context) (context.Context, *noticeBox) {
	b := &noticeBox{}
	return context.WithValue(ctx, noticeBoxKey{}, b), b
}

// noticeCollector routes comment notices into the request's noticeBox.
type noticeCollector struct{}

func (noticeCollector) Notify(ctx context.Context, n comment.Notice) {
	b, ok := ctx.Value(noticeBoxKey{}).(*noticeBox)
	if !ok {
		slog.Debug("notice outside request", "title", n.Title)
		return
	}
	b.add(n)
}

// setFlash stores notices in a short-lived cookie so they survive a redirect.
func setFlash(w http.ResponseWriter, notices []comment.Notice) {
	if len(notices) == 0 {
		return
	}
	data, err := json.Marshal(notices)
	if err != nil {
		slog.Warn("encoding flash", "error", err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    base64.RawURLEncoding.EncodeToString(data),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// takeFlash reads and clears the flash cookie.
func takeFlash(w http.ResponseWriter, r *http.Request) []comment.Notice {
	c, err := r.Cookie(flashCookie)
	if err != nil {
		return nil
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Path: "/", MaxAge: -1})

	data, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return nil
	}
	var notices []comment.Notice
	if err := json.Unmarshal(data, &notices); err != nil {
		return nil
	}
	return notices
}

// versions tracks a per-species counter that changes whenever the rendered
// comment views of that species go stale.
type versions struct {
	mu   sync.Mutex
	boot string
	byID map[int64]uint64
}

func newVersions() *versions {
	return &versions{
		boot: fmt.Sprintf("%x", time.Now().UnixNano()),
		byID: make(map[int64]uint64),
	}
}

// Refresh implements comment.Refresher.
func (v *versions) Refresh(speciesID int64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.byID[speciesID]++
}

// etag identifies the current version of a species' views for viewerID.
func (v *versions) etag(speciesID int64, viewerID string) string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return fmt.Sprintf(`W/"%s-%d-%d-%s"`, v.boot, speciesID, v.byID[speciesID], viewerID)
}

// notModified sets the ETag and reports whether the client copy is current.
func notModified(w http.ResponseWriter, r *http.Request, etag string) bool {
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	for _, tag := range strings.Split(r.Header.Get("If-None-Match"), ",") {
		if strings.TrimSpace(tag) == etag {
			w.WriteHeader(http.StatusNotModified)
			return true
		}
	}
	return false
}
