package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"strconv"
	"time"

	"pos-edge-sync/internal/model"
	"pos-edge-sync/internal/store"
	possync "pos-edge-sync/internal/sync"
	"pos-edge-sync/pkg/uid"
	"pos-edge-sync/pkg/validate"
)

// ErrEmptyCart is returned when checkout runs against an empty cart.
var ErrEmptyCart = errors.New("cart is empty")

// CartService owns the active cart: one persisted line per product id,
// written through after every mutation so the cart survives a restart.
// Checkout snapshots the lines into an immutable sale and hands it to the
// reconciler.
type CartService struct {
	store      store.Store
	reconciler *possync.Reconciler
}

// NewCartService creates a cart service.
func NewCartService(st store.Store, reconciler *possync.Reconciler) *CartService {
	return &CartService{
		store:      st,
		reconciler: reconciler,
	}
}

// Lines returns the current cart sorted by product name.
func (s *CartService) Lines(ctx context.Context) ([]model.CartLine, error) {
	docs, err := s.store.GetAll(ctx, store.PartitionCart)
	if err != nil {
		return nil, fmt.Errorf("failed to read cart: %w", err)
	}

	lines := make([]model.CartLine, 0, len(docs))
	for key, doc := range docs {
		var line model.CartLine
		if err := json.Unmarshal(doc, &line); err != nil {
			log.Printf("[CartService] Skipping undecodable cart line %s: %v", key, err)
			continue
		}
		lines = append(lines, line)
	}

	sort.Slice(lines, func(i, j int) bool {
		return lines[i].Name < lines[j].Name
	})
	return lines, nil
}

// SetLine upserts the line for a product. A quantity of zero removes it.
func (s *CartService) SetLine(ctx context.Context, line model.CartLine) error {
	key := strconv.FormatInt(line.ID, 10)

	if line.Quantity == 0 {
		return s.store.Delete(ctx, store.PartitionCart, key)
	}
	if errs := validate.Struct(line); errs != nil {
		return fmt.Errorf("invalid cart line: %s failed %s", errs[0].Field, errs[0].Tag)
	}

	doc, err := json.Marshal(line)
	if err != nil {
		return fmt.Errorf("failed to marshal cart line: %w", err)
	}
	return s.store.Put(ctx, store.PartitionCart, key, doc)
}

// RemoveLine deletes the line for a product id.
func (s *CartService) RemoveLine(ctx context.Context, productID int64) error {
	return s.store.Delete(ctx, store.PartitionCart, strconv.FormatInt(productID, 10))
}

// Clear empties the cart.
func (s *CartService) Clear(ctx context.Context) error {
	return s.store.Clear(ctx, store.PartitionCart)
}

// Checkout snapshots the cart into a sale, records it through the
// reconciler and clears the cart. The cart is cleared only after the sale
// is durably placed, so an interrupted checkout loses nothing. The
// returned sale reflects where it landed: Synced true when the immediate
// attempt went through, false when it was queued.
func (s *CartService) Checkout(ctx context.Context, paymentMethod string, customer *model.CustomerInfo) (*model.Sale, error) {
	lines, err := s.Lines(ctx)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	total := 0.0
	for _, line := range lines {
		total += line.Subtotal()
	}

	sale := model.Sale{
		ID:            uid.OfflineSaleID(),
		TotalAmount:   total,
		Items:         lines,
		PaymentMethod: paymentMethod,
		CustomerInfo:  customer,
		CreatedAt:     time.Now().UTC(),
	}
	if errs := validate.Struct(sale); errs != nil {
		return nil, fmt.Errorf("invalid sale: %s failed %s", errs[0].Field, errs[0].Tag)
	}

	if err := s.reconciler.RecordSale(ctx, sale); err != nil {
		return nil, err
	}

	if err := s.Clear(ctx); err != nil {
		// The sale is safely recorded; a stale cart is an inconvenience,
		// not a correctness problem.
		log.Printf("[CartService] Failed to clear cart after checkout: %v", err)
	}

	recorded := sale
	if history := s.reconciler.History(ctx); len(history) > 0 {
		for _, h := range history {
			if h.ID == sale.ID {
				recorded = h
				break
			}
		}
	}
	return &recorded, nil
}
