package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"pos-edge-sync/internal/connectivity"
	"pos-edge-sync/internal/model"
	"pos-edge-sync/internal/store"
	possync "pos-edge-sync/internal/sync"
)

// stubGateway is a configurable test double for the remote API.
type stubGateway struct {
	catalog     []model.Product
	catalogErr  error
	createSale  func(ctx context.Context, payload model.SalePayload, correlationID string) (*model.RemoteSaleRecord, error)
	createCalls atomic.Int64
}

func (g *stubGateway) FetchCatalog(ctx context.Context) ([]model.Product, error) {
	if g.catalogErr != nil {
		return nil, g.catalogErr
	}
	return g.catalog, nil
}

func (g *stubGateway) CreateProduct(ctx context.Context, p model.Product) (*model.Product, error) {
	created := p
	if created.ID == 0 {
		created.ID = 99
	}
	return &created, nil
}

func (g *stubGateway) CreateSale(ctx context.Context, payload model.SalePayload, correlationID string) (*model.RemoteSaleRecord, error) {
	g.createCalls.Add(1)
	if g.createSale != nil {
		return g.createSale(ctx, payload, correlationID)
	}
	return &model.RemoteSaleRecord{ID: g.createCalls.Load(), OfflineID: correlationID, Total: payload.TotalAmount}, nil
}

func (g *stubGateway) FetchSales(ctx context.Context) ([]model.RemoteSaleRecord, error) {
	return nil, nil
}

func (g *stubGateway) Ping(ctx context.Context) error { return nil }

func (g *stubGateway) RegisterSyncWebhook(ctx context.Context, callbackURL string) error { return nil }

func onlineMonitor() *connectivity.Monitor {
	m := connectivity.NewMonitor(nil, 0)
	m.ReportSuccess()
	return m
}

func offlineMonitor() *connectivity.Monitor {
	return connectivity.NewMonitor(nil, 0)
}

var errUnreachable = errors.New("remote unreachable")

func partitionIDs(t *testing.T, st store.Store, partition string) []string {
	t.Helper()
	docs, err := st.GetAll(context.Background(), partition)
	if err != nil {
		t.Fatalf("GetAll(%s): %v", partition, err)
	}
	ids := make([]string, 0, len(docs))
	for key := range docs {
		ids = append(ids, key)
	}
	return ids
}

func newReconciler(st store.Store, gw *stubGateway, m *connectivity.Monitor) *possync.Reconciler {
	return possync.NewReconciler(st, gw, m, possync.NewBroadcaster())
}
