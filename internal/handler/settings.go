package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"pos-edge-sync/internal/service"
	"pos-edge-sync/internal/store"
	"pos-edge-sync/pkg/apierror"
	"pos-edge-sync/pkg/response"

	"github.com/go-chi/chi/v5"
)

// SettingsHandler handles terminal settings HTTP requests.
type SettingsHandler struct {
	settings *service.SettingsService
}

// NewSettingsHandler creates a new settings handler.
func NewSettingsHandler(settings *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// Get handles GET /api/v1/settings/{name}
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	value, err := h.settings.Get(r.Context(), name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, apierror.NotFound("setting not found"))
			return
		}
		response.Error(w, apierror.StorageUnavailable(""))
		return
	}

	response.OK(w, map[string]interface{}{
		"name":  name,
		"value": json.RawMessage(value),
	})
}

// Put handles PUT /api/v1/settings/{name}
func (h *SettingsHandler) Put(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		response.Error(w, apierror.BadRequest("failed to read request body"))
		return
	}
	defer r.Body.Close()

	var value json.RawMessage
	if err := json.Unmarshal(body, &value); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON"))
		return
	}

	if err := h.settings.Put(r.Context(), name, body); err != nil {
		response.Error(w, apierror.StorageUnavailable(""))
		return
	}

	response.OK(w, map[string]interface{}{
		"name": name,
	})
}
