package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/evcraddock/species-catalog/internal/auth"
)

// apikeyHandlers manages the viewer's API keys from the settings page.
type apikeyHandlers struct {
	apiKeys *auth.APIKeyStore
}

type apiKeyCreateResponse struct {
	Key    string       `json:"key"` // raw key, shown once
	APIKey *auth.APIKey `json:"api_key"`
}

// handleListKeys returns the viewer's keys without their secrets.
func (h *apikeyHandlers) handleListKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := h.apiKeys.List(r.Context(), auth.ViewerFrom(r.Context()))
	if err != nil {
		slog.Error("listing api keys", "error", err)
		apiError(w, "Internal error", http.StatusInternalServerError)
		return
	}
	if keys == nil {
		keys = []auth.APIKey{}
	}
	apiJSON(w, keys, http.StatusOK)
}

// handleCreateKey issues a new key for the viewer.
func (h *apikeyHandlers) handleCreateKey(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		apiError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	name := strings.TrimSpace(body.Name)
	if name == "" {
		name = "API Key"
	}

	rawKey, key, err := h.apiKeys.Create(r.Context(), auth.ViewerFrom(r.Context()), name)
	if err != nil {
		slog.Error("creating api key", "error", err)
		apiError(w, "Internal error", http.StatusInternalServerError)
		return
	}

	apiJSON(w, apiKeyCreateResponse{Key: rawKey, APIKey: key}, http.StatusCreated)
}

// handleDeleteKey revokes one of the viewer's keys.
func (h *apikeyHandlers) handleDeleteKey(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		apiError(w, "Invalid key ID", http.StatusBadRequest)
		return
	}

	if err := h.apiKeys.Delete(r.Context(), id, auth.ViewerFrom(r.Context())); err != nil {
		if errors.Is(err, auth.ErrAPIKeyNotFound) {
			apiError(w, "Key not found", http.StatusNotFound)
			return
		}
		slog.Error("deleting api key", "error", err)
		apiError(w, "Internal error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
