package gateway

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"pos-edge-sync/internal/model"

	"resty.dev/v3"
)

// Gateway is the contract wrapper over the remote system of record. A
// timeout is classified as a TransportError, never a DuplicateError, so
// the conservative leave-pending policy applies to ambiguous outcomes.
type Gateway interface {
	// FetchCatalog retrieves the full product catalog.
	FetchCatalog(ctx context.Context) ([]model.Product, error)

	// CreateProduct creates a catalog entry on the remote (admin editor path).
	CreateProduct(ctx context.Context, p model.Product) (*model.Product, error)

	// CreateSale submits a sale. correlationID is the client sale id; the
	// remote rejects a repeated correlation id with a 409, surfaced here as
	// a *DuplicateError.
	CreateSale(ctx context.Context, payload model.SalePayload, correlationID string) (*model.RemoteSaleRecord, error)

	// FetchSales retrieves the remote sales ledger (reporting view only).
	FetchSales(ctx context.Context) ([]model.RemoteSaleRecord, error)

	// Ping performs a cheap reachability probe.
	Ping(ctx context.Context) error

	// RegisterSyncWebhook asks the remote to deliver wake signals to
	// callbackURL. Best-effort: callers treat failure as non-fatal.
	RegisterSyncWebhook(ctx context.Context, callbackURL string) error
}

// HTTPGateway implements Gateway over the remote HTTP API.
type HTTPGateway struct {
	client *resty.Client
}

// NewHTTPGateway creates a gateway for the remote API at baseURL. Every
// call carries the bounded timeout.
func NewHTTPGateway(baseURL string, timeout time.Duration) *HTTPGateway {
	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json")
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	return &HTTPGateway{client: client}
}

// FetchCatalog retrieves the full product catalog from GET /products.
func (g *HTTPGateway) FetchCatalog(ctx context.Context) ([]model.Product, error) {
	var products []model.Product

	resp, err := g.client.R().
		SetContext(ctx).
		SetResult(&products).
		Get("/products")
	if err != nil {
		return nil, &TransportError{Op: "fetch catalog", Err: err}
	}
	if resp.IsError() {
		return nil, &TransportError{Op: "fetch catalog", StatusCode: resp.StatusCode()}
	}

	return products, nil
}

// CreateProduct creates a catalog entry via POST /products.
func (g *HTTPGateway) CreateProduct(ctx context.Context, p model.Product) (*model.Product, error) {
	var created model.Product

	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(p).
		SetResult(&created).
		Post("/products")
	if err != nil {
		return nil, &TransportError{Op: "create product", Err: err}
	}
	if resp.IsError() {
		return nil, &TransportError{Op: "create product", StatusCode: resp.StatusCode()}
	}

	return &created, nil
}

// CreateSale submits a sale via POST /sales with the client sale id as the
// dedup correlation token.
func (g *HTTPGateway) CreateSale(ctx context.Context, payload model.SalePayload, correlationID string) (*model.RemoteSaleRecord, error) {
	payload.OfflineID = correlationID

	var record model.RemoteSaleRecord
	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(&record).
		Post("/sales")
	if err != nil {
		return nil, &TransportError{Op: "create sale", Err: err}
	}

	switch {
	case resp.StatusCode() == http.StatusConflict:
		// The remote already recorded this correlation id.
		return nil, &DuplicateError{OfflineID: correlationID}
	case resp.IsError():
		return nil, &TransportError{Op: "create sale", StatusCode: resp.StatusCode()}
	}

	return &record, nil
}

// FetchSales retrieves the remote sales ledger via GET /sales.
func (g *HTTPGateway) FetchSales(ctx context.Context) ([]model.RemoteSaleRecord, error) {
	var records []model.RemoteSaleRecord

	resp, err := g.client.R().
		SetContext(ctx).
		SetResult(&records).
		Get("/sales")
	if err != nil {
		return nil, &TransportError{Op: "fetch sales", Err: err}
	}
	if resp.IsError() {
		return nil, &TransportError{Op: "fetch sales", StatusCode: resp.StatusCode()}
	}

	return records, nil
}

// Ping probes remote reachability via GET /health.
func (g *HTTPGateway) Ping(ctx context.Context) error {
	resp, err := g.client.R().
		SetContext(ctx).
		Get("/health")
	if err != nil {
		return &TransportError{Op: "ping", Err: err}
	}
	if resp.IsError() {
		return &TransportError{Op: "ping", StatusCode: resp.StatusCode()}
	}
	return nil
}

// RegisterSyncWebhook registers callbackURL for remote wake signals via
// POST /webhooks/sync. Failure here only delays sync; the periodic timer
// remains the guaranteed fallback.
func (g *HTTPGateway) RegisterSyncWebhook(ctx context.Context, callbackURL string) error {
	if callbackURL == "" {
		return fmt.Errorf("register sync webhook: empty callback URL")
	}

	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(map[string]string{"url": callbackURL}).
		Post("/webhooks/sync")
	if err != nil {
		return &TransportError{Op: "register sync webhook", Err: err}
	}
	if resp.IsError() {
		return &TransportError{Op: "register sync webhook", StatusCode: resp.StatusCode()}
	}

	log.Printf("[HTTPGateway] Sync webhook registered: %s", callbackURL)
	return nil
}

// Ensure HTTPGateway implements Gateway
var _ Gateway = (*HTTPGateway)(nil)
