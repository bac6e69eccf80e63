package handler

import (
	"encoding/json"
	"net/http"

	"pos-edge-sync/internal/service"
	"pos-edge-sync/pkg/apierror"
	"pos-edge-sync/pkg/response"

	"pos-edge-sync/internal/model"
)

// ProductHandler handles catalog HTTP requests.
type ProductHandler struct {
	catalog *service.CatalogService
}

// NewProductHandler creates a new product handler.
func NewProductHandler(catalog *service.CatalogService) *ProductHandler {
	return &ProductHandler{catalog: catalog}
}

// List handles GET /api/v1/products. Always answers, from cache or the
// local partition, even when the remote and the store are both down.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	response.OK(w, h.catalog.List(r.Context()))
}

// Create handles POST /api/v1/products (admin product editor).
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var product model.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON body"))
		return
	}
	defer r.Body.Close()

	created, err := h.catalog.Create(r.Context(), product)
	if err != nil {
		response.Error(w, apierror.BadRequest(err.Error()))
		return
	}

	response.Created(w, created)
}

// Refresh handles POST /api/v1/products/refresh — wholesale catalog pull
// from the remote into the local partition.
func (h *ProductHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Refresh(r.Context()); err != nil {
		response.Error(w, apierror.ServiceUnavailable("catalog refresh failed; serving cached products"))
		return
	}
	response.OK(w, map[string]interface{}{
		"status": "refreshed",
	})
}
