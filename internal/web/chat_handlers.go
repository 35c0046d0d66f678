package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/evcraddock/species-catalog/internal/logging"
)

const maxChatBody = 64 << 10

type chatPageData struct {
	page
	Configured bool
}

// handleChatPage renders the species assistant.
func (s *Server) handleChatPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, "chat.html", chatPageData{page: s.newPage(w, r), Configured: s.chat.Configured()})
}

// handleChat relays one message to the completion provider.
//
//	400 {"error":"Invalid request body"}        body is not JSON
//	400 {"error":"Invalid or missing message"}  no usable "message" string
//	200 {"response":"..."}                      answer or fixed fallback
//	502 {"error":"Service temporarily unavailable"}
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxChatBody)

	var body any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		apiError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	obj, ok := body.(map[string]any)
	if !ok {
		apiError(w, "Invalid or missing message", http.StatusBadRequest)
		return
	}
	message, ok := obj["message"].(string)
	if !ok || strings.TrimSpace(message) == "" {
		apiError(w, "Invalid or missing message", http.StatusBadRequest)
		return
	}

	reply, err := s.chat.Reply(r.Context(), message)
	if err != nil {
		slog.Error("chat relay failed",
			"request_id", logging.RequestIDFrom(r.Context()),
			"error", err,
		)
		apiError(w, "Service temporarily unavailable", http.StatusBadGateway)
		return
	}

	apiJSON(w, map[string]string{"response": reply}, http.StatusOK)
}
