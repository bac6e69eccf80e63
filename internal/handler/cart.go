package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"pos-edge-sync/internal/model"
	"pos-edge-sync/internal/service"
	"pos-edge-sync/pkg/apierror"
	"pos-edge-sync/pkg/response"

	"github.com/go-chi/chi/v5"
)

// CartHandler handles active-cart HTTP requests.
type CartHandler struct {
	cart *service.CartService
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(cart *service.CartService) *CartHandler {
	return &CartHandler{cart: cart}
}

// List handles GET /api/v1/cart
func (h *CartHandler) List(w http.ResponseWriter, r *http.Request) {
	lines, err := h.cart.Lines(r.Context())
	if err != nil {
		response.Error(w, apierror.StorageUnavailable(""))
		return
	}

	total := 0.0
	for _, line := range lines {
		total += line.Subtotal()
	}

	response.OK(w, map[string]interface{}{
		"items": lines,
		"total": total,
	})
}

// SetLine handles POST /api/v1/cart — upsert one line by product id.
func (h *CartHandler) SetLine(w http.ResponseWriter, r *http.Request) {
	var line model.CartLine
	if err := json.NewDecoder(r.Body).Decode(&line); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON body"))
		return
	}
	defer r.Body.Close()

	if err := h.cart.SetLine(r.Context(), line); err != nil {
		response.Error(w, apierror.BadRequest(err.Error()))
		return
	}
	response.OK(w, line)
}

// RemoveLine handles DELETE /api/v1/cart/{product_id}
func (h *CartHandler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "product_id"), 10, 64)
	if err != nil {
		response.Error(w, apierror.BadRequest("product_id must be an integer"))
		return
	}

	if err := h.cart.RemoveLine(r.Context(), productID); err != nil {
		response.Error(w, apierror.StorageUnavailable(""))
		return
	}
	response.NoContent(w)
}

// Clear handles DELETE /api/v1/cart
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.cart.Clear(r.Context()); err != nil {
		response.Error(w, apierror.StorageUnavailable(""))
		return
	}
	response.NoContent(w)
}
