package model

// Product is a catalog entry. The products partition is refreshed wholesale
// from the remote catalog when online and served read-only from the local
// cache otherwise.
type Product struct {
	// ID is assigned by the remote catalog; zero until created there.
	ID       int64   `json:"id"`
	Name     string  `json:"name" validate:"required"`
	Price    float64 `json:"price" validate:"gte=0"`
	Stock    int     `json:"stock" validate:"gte=0"`
	Category string  `json:"category" validate:"required"`
	Barcode  string  `json:"barcode,omitempty"`
	ImageURL string  `json:"image_url,omitempty"`
}

// CartLine is a product plus the quantity being purchased. The cart maps
// product id to at most one line.
type CartLine struct {
	Product
	Quantity int `json:"quantity" validate:"gte=1"`
}

// Subtotal returns price times quantity for this line.
func (l CartLine) Subtotal() float64 {
	return l.Price * float64(l.Quantity)
}
