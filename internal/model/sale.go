package model

import "time"

// Payment methods accepted at checkout.
const (
	PaymentCash    = "cash"
	PaymentCard    = "card"
	PaymentDigital = "digital"
)

// CustomerInfo is optional contact data captured at checkout.
type CustomerInfo struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`
	Phone string `json:"phone,omitempty"`
}

// Sale is a checkout snapshot. The id is client-generated
// ("offline_<timestamp>_<random>"), assigned once at creation and never
// reused; it is passed to the remote create call as the correlation token
// for server-side dedup. A sale is append-only after creation: the Synced
// flag is the only field ever mutated, and only by the reconciler.
type Sale struct {
	ID            string        `json:"id" validate:"required"`
	TotalAmount   float64       `json:"total_amount" validate:"gte=0"`
	Items         []CartLine    `json:"items" validate:"required,min=1,dive"`
	PaymentMethod string        `json:"payment_method" validate:"required,payment_method"`
	CustomerInfo  *CustomerInfo `json:"customer_info,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	Synced        bool          `json:"synced"`
}

// RemoteSaleRecord is the server-of-record representation of a sale. The
// OfflineID field correlates back to the client Sale.ID.
type RemoteSaleRecord struct {
	ID        int64     `json:"id"`
	OfflineID string    `json:"offline_id,omitempty"`
	Total     float64   `json:"total_amount"`
	CreatedAt time.Time `json:"created_at"`
}

// SalePayload is the request body for the remote POST /sales call.
type SalePayload struct {
	TotalAmount   float64       `json:"total_amount"`
	Items         []CartLine    `json:"items"`
	PaymentMethod string        `json:"payment_method"`
	CustomerInfo  *CustomerInfo `json:"customer_info,omitempty"`
	OfflineID     string        `json:"offline_id,omitempty"`
}

// Payload builds the remote submission body for this sale, carrying the
// sale id as the dedup correlation token.
func (s *Sale) Payload() SalePayload {
	return SalePayload{
		TotalAmount:   s.TotalAmount,
		Items:         s.Items,
		PaymentMethod: s.PaymentMethod,
		CustomerInfo:  s.CustomerInfo,
		OfflineID:     s.ID,
	}
}
