package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"pos-edge-sync/internal/model"
	"pos-edge-sync/internal/service"
	"pos-edge-sync/internal/store"
	possync "pos-edge-sync/internal/sync"
	"pos-edge-sync/pkg/apierror"
	"pos-edge-sync/pkg/response"
)

// SaleHandler handles checkout and sales-history HTTP requests.
type SaleHandler struct {
	cart       *service.CartService
	reconciler *possync.Reconciler
}

// NewSaleHandler creates a new sale handler.
func NewSaleHandler(cart *service.CartService, reconciler *possync.Reconciler) *SaleHandler {
	return &SaleHandler{
		cart:       cart,
		reconciler: reconciler,
	}
}

// CheckoutRequest is the body for POST /api/v1/checkout.
type CheckoutRequest struct {
	PaymentMethod string              `json:"payment_method"`
	CustomerInfo  *model.CustomerInfo `json:"customer_info,omitempty"`
}

// Checkout handles POST /api/v1/checkout. The checkout succeeds once the
// sale is durably recorded, online or not; only local-storage failure is
// surfaced as an error, because below local durability there is no
// fallback.
func (h *SaleHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON body"))
		return
	}
	defer r.Body.Close()

	sale, err := h.cart.Checkout(r.Context(), req.PaymentMethod, req.CustomerInfo)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyCart):
			response.Error(w, apierror.BadRequest("cart is empty"))
		case errors.Is(err, store.ErrUnavailable):
			response.Error(w, apierror.StorageUnavailable("sale could not be recorded"))
		default:
			response.Error(w, apierror.BadRequest(err.Error()))
		}
		return
	}

	response.Created(w, sale)
}

// History handles GET /api/v1/sales — the single source of truth for
// "did this actually reach the server", pending and synced merged, newest
// first.
func (h *SaleHandler) History(w http.ResponseWriter, r *http.Request) {
	response.OK(w, h.reconciler.History(r.Context()))
}
