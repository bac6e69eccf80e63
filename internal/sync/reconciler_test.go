package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"pos-edge-sync/internal/connectivity"
	"pos-edge-sync/internal/gateway"
	"pos-edge-sync/internal/model"
	"pos-edge-sync/internal/store"
	"pos-edge-sync/pkg/uid"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubGateway scripts the remote's responses per correlation id.
type stubGateway struct {
	createSale func(ctx context.Context, payload model.SalePayload, correlationID string) (*model.RemoteSaleRecord, error)
	calls      []string
}

func (g *stubGateway) CreateSale(ctx context.Context, payload model.SalePayload, correlationID string) (*model.RemoteSaleRecord, error) {
	g.calls = append(g.calls, correlationID)
	if g.createSale != nil {
		return g.createSale(ctx, payload, correlationID)
	}
	return &model.RemoteSaleRecord{ID: 1, OfflineID: correlationID}, nil
}

func (g *stubGateway) FetchCatalog(ctx context.Context) ([]model.Product, error) { return nil, nil }
func (g *stubGateway) CreateProduct(ctx context.Context, p model.Product) (*model.Product, error) {
	return &p, nil
}
func (g *stubGateway) FetchSales(ctx context.Context) ([]model.RemoteSaleRecord, error) {
	return nil, nil
}
func (g *stubGateway) Ping(ctx context.Context) error                                 { return nil }
func (g *stubGateway) RegisterSyncWebhook(ctx context.Context, callbackURL string) error { return nil }

func onlineMonitor() *connectivity.Monitor {
	m := connectivity.NewMonitor(nil, 0)
	m.ReportSuccess()
	return m
}

func offlineMonitor() *connectivity.Monitor {
	return connectivity.NewMonitor(nil, 0)
}

func testSale(id string) model.Sale {
	if id == "" {
		id = uid.OfflineSaleID()
	}
	return model.Sale{
		ID:          id,
		TotalAmount: 7.00,
		Items: []model.CartLine{
			{
				Product:  model.Product{ID: 1, Name: "Coffee", Price: 3.50, Stock: 100, Category: "Beverages"},
				Quantity: 2,
			},
		},
		PaymentMethod: model.PaymentCash,
		CreatedAt:     time.Now().UTC(),
	}
}

func enqueueSale(t *testing.T, st store.Store, sale model.Sale) {
	t.Helper()
	doc, err := json.Marshal(sale)
	require.NoError(t, err)
	require.NoError(t, st.Put(context.Background(), store.PartitionPendingSales, sale.ID, doc))
}

func partitionIDs(t *testing.T, st store.Store, partition string) []string {
	t.Helper()
	docs, err := st.GetAll(context.Background(), partition)
	require.NoError(t, err)
	ids := make([]string, 0, len(docs))
	for id := range docs {
		ids = append(ids, id)
	}
	return ids
}

func TestDrainOfflineIsNoop(t *testing.T) {
	st := store.NewMemoryStore()
	gw := &stubGateway{}
	r := NewReconciler(st, gw, offlineMonitor(), nil)

	enqueueSale(t, st, testSale("offline_1_aaaa"))

	require.NoError(t, r.Drain(context.Background()))

	assert.Empty(t, gw.calls, "no remote call while offline")
	assert.Len(t, partitionIDs(t, st, store.PartitionPendingSales), 1)
}

func TestDrainSyncsPendingSale(t *testing.T) {
	st := store.NewMemoryStore()
	gw := &stubGateway{}
	events := NewBroadcaster()
	r := NewReconciler(st, gw, onlineMonitor(), events)

	ch, cancel := events.Subscribe()
	defer cancel()

	sale := testSale("offline_2_bbbb")
	enqueueSale(t, st, sale)

	require.NoError(t, r.Drain(context.Background()))

	assert.Empty(t, partitionIDs(t, st, store.PartitionPendingSales))
	require.Equal(t, []string{sale.ID}, partitionIDs(t, st, store.PartitionSyncedSales))

	doc, err := st.Get(context.Background(), store.PartitionSyncedSales, sale.ID)
	require.NoError(t, err)
	var synced model.Sale
	require.NoError(t, json.Unmarshal(doc, &synced))
	assert.True(t, synced.Synced)
	assert.Equal(t, 7.00, synced.TotalAmount)
	assert.Equal(t, model.PaymentCash, synced.PaymentMethod)

	// Exactly one SALE_SYNCED for this sale.
	var saleSynced int
	for done := false; !done; {
		select {
		case ev := <-ch:
			if ev.Type == EventSaleSynced && ev.SaleID == sale.ID {
				saleSynced++
			}
		default:
			done = true
		}
	}
	assert.Equal(t, 1, saleSynced)
}

func TestDrainDuplicateResponseRelocates(t *testing.T) {
	st := store.NewMemoryStore()
	gw := &stubGateway{
		createSale: func(ctx context.Context, payload model.SalePayload, correlationID string) (*model.RemoteSaleRecord, error) {
			return nil, &gateway.DuplicateError{OfflineID: correlationID}
		},
	}
	r := NewReconciler(st, gw, onlineMonitor(), nil)

	sale := testSale("offline_3_cccc")
	enqueueSale(t, st, sale)

	require.NoError(t, r.Drain(context.Background()))

	assert.Empty(t, partitionIDs(t, st, store.PartitionPendingSales),
		"a 409 is confirmation of a prior delivery, not a retryable failure")
	assert.Equal(t, []string{sale.ID}, partitionIDs(t, st, store.PartitionSyncedSales))
}

func TestDrainTransportErrorLeavesPending(t *testing.T) {
	st := store.NewMemoryStore()
	gw := &stubGateway{
		createSale: func(ctx context.Context, payload model.SalePayload, correlationID string) (*model.RemoteSaleRecord, error) {
			return nil, &gateway.TransportError{Op: "create sale", StatusCode: 500}
		},
	}
	monitor := onlineMonitor()
	r := NewReconciler(st, gw, monitor, nil)

	sale := testSale("offline_4_dddd")
	enqueueSale(t, st, sale)

	require.NoError(t, r.Drain(context.Background()))

	assert.Equal(t, []string{sale.ID}, partitionIDs(t, st, store.PartitionPendingSales))
	assert.Empty(t, partitionIDs(t, st, store.PartitionSyncedSales))
	assert.False(t, monitor.Online(), "transport failure is authoritative over the cached flag")
}

func TestDrainIsolation(t *testing.T) {
	st := store.NewMemoryStore()
	gw := &stubGateway{
		createSale: func(ctx context.Context, payload model.SalePayload, correlationID string) (*model.RemoteSaleRecord, error) {
			if correlationID == "offline_5_fail" {
				return nil, &gateway.TransportError{Op: "create sale", Err: context.DeadlineExceeded}
			}
			return &model.RemoteSaleRecord{ID: 9, OfflineID: correlationID}, nil
		},
	}
	r := NewReconciler(st, gw, onlineMonitor(), nil)

	enqueueSale(t, st, testSale("offline_5_fail"))
	enqueueSale(t, st, testSale("offline_5_okay"))

	require.NoError(t, r.Drain(context.Background()))

	assert.Equal(t, []string{"offline_5_fail"}, partitionIDs(t, st, store.PartitionPendingSales),
		"one sale's failure must not roll back another's success")
	assert.Equal(t, []string{"offline_5_okay"}, partitionIDs(t, st, store.PartitionSyncedSales))
	assert.Len(t, gw.calls, 2, "both sales attempted in the same pass")
}

func TestDrainTwiceIsIdempotent(t *testing.T) {
	st := store.NewMemoryStore()
	gw := &stubGateway{}
	r := NewReconciler(st, gw, onlineMonitor(), nil)

	sale := testSale("offline_6_eeee")
	enqueueSale(t, st, sale)

	require.NoError(t, r.Drain(context.Background()))
	require.NoError(t, r.Drain(context.Background()))

	assert.Empty(t, partitionIDs(t, st, store.PartitionPendingSales))
	assert.Equal(t, []string{sale.ID}, partitionIDs(t, st, store.PartitionSyncedSales))
	assert.Len(t, gw.calls, 1, "second drain has nothing to send")
}

func TestDrainReentrancyGuard(t *testing.T) {
	st := store.NewMemoryStore()

	started := make(chan struct{})
	release := make(chan struct{})
	gw := &stubGateway{
		createSale: func(ctx context.Context, payload model.SalePayload, correlationID string) (*model.RemoteSaleRecord, error) {
			close(started)
			<-release
			return &model.RemoteSaleRecord{ID: 1, OfflineID: correlationID}, nil
		},
	}
	r := NewReconciler(st, gw, onlineMonitor(), nil)

	enqueueSale(t, st, testSale("offline_7_ffff"))

	firstDone := make(chan error, 1)
	go func() { firstDone <- r.Drain(context.Background()) }()

	<-started
	assert.True(t, r.InFlight())

	// Second caller returns immediately without starting a second pass.
	require.NoError(t, r.Drain(context.Background()))
	assert.Len(t, gw.calls, 1, "no sale processed twice in the overlapping window")

	close(release)
	require.NoError(t, <-firstDone)
	assert.False(t, r.InFlight())
}

// downStore reports every partition as unreadable.
type downStore struct {
	store.Store
}

func (downStore) GetAll(ctx context.Context, partition string) (map[string][]byte, error) {
	return nil, fmt.Errorf("failed to list partition %s: %w", partition, store.ErrUnavailable)
}

func TestDrainSkipsWhenStoreUnavailable(t *testing.T) {
	gw := &stubGateway{}
	r := NewReconciler(downStore{Store: store.NewMemoryStore()}, gw, onlineMonitor(), nil)

	require.NoError(t, r.Drain(context.Background()),
		"an unreadable store is a degraded state, not a drain failure")
	assert.Empty(t, gw.calls)
}

func TestRecordSaleOfflineQueues(t *testing.T) {
	st := store.NewMemoryStore()
	gw := &stubGateway{}
	r := NewReconciler(st, gw, offlineMonitor(), nil)

	sale := testSale("")
	require.NoError(t, r.RecordSale(context.Background(), sale))

	assert.Empty(t, gw.calls, "offline checkout never touches the remote")
	assert.Equal(t, []string{sale.ID}, partitionIDs(t, st, store.PartitionPendingSales))
	assert.Equal(t, 1, r.PendingCount(context.Background()))
}

func TestRecordSaleOnlineImmediate(t *testing.T) {
	st := store.NewMemoryStore()
	gw := &stubGateway{}
	r := NewReconciler(st, gw, onlineMonitor(), nil)

	sale := testSale("")
	require.NoError(t, r.RecordSale(context.Background(), sale))

	assert.Equal(t, []string{sale.ID}, gw.calls)
	assert.Empty(t, partitionIDs(t, st, store.PartitionPendingSales))
	assert.Equal(t, []string{sale.ID}, partitionIDs(t, st, store.PartitionSyncedSales))
}

func TestRecordSaleFallsBackToPending(t *testing.T) {
	st := store.NewMemoryStore()
	gw := &stubGateway{
		createSale: func(ctx context.Context, payload model.SalePayload, correlationID string) (*model.RemoteSaleRecord, error) {
			return nil, &gateway.TransportError{Op: "create sale", Err: context.DeadlineExceeded}
		},
	}
	r := NewReconciler(st, gw, onlineMonitor(), nil)

	sale := testSale("")
	require.NoError(t, r.RecordSale(context.Background(), sale),
		"checkout completes for the cashier once the sale is durably queued")

	assert.Len(t, gw.calls, 1, "exactly one immediate attempt, no inline retries")
	assert.Equal(t, []string{sale.ID}, partitionIDs(t, st, store.PartitionPendingSales))
}

func TestCheckoutAndDrainRaceOnSameID(t *testing.T) {
	// The immediate-attempt path won the race; the drain path then sees a
	// duplicate response and must still land the sale in synced.
	st := store.NewMemoryStore()

	delivered := map[string]bool{}
	gw := &stubGateway{
		createSale: func(ctx context.Context, payload model.SalePayload, correlationID string) (*model.RemoteSaleRecord, error) {
			if delivered[correlationID] {
				return nil, &gateway.DuplicateError{OfflineID: correlationID}
			}
			delivered[correlationID] = true
			return &model.RemoteSaleRecord{ID: 1, OfflineID: correlationID}, nil
		},
	}
	r := NewReconciler(st, gw, onlineMonitor(), nil)

	sale := testSale("offline_8_gggg")

	// Simulate the crash-between-send-and-update window: the sale was sent
	// once already but is still sitting in pending.
	_, err := gw.CreateSale(context.Background(), sale.Payload(), sale.ID)
	require.NoError(t, err)
	enqueueSale(t, st, sale)

	require.NoError(t, r.Drain(context.Background()))

	assert.Empty(t, partitionIDs(t, st, store.PartitionPendingSales))
	assert.Equal(t, []string{sale.ID}, partitionIDs(t, st, store.PartitionSyncedSales))
	assert.Len(t, delivered, 1, "exactly one server-side record")
}

func TestHistoryMergesAndSorts(t *testing.T) {
	st := store.NewMemoryStore()
	r := NewReconciler(st, &stubGateway{}, offlineMonitor(), nil)

	older := testSale("offline_9_old")
	older.CreatedAt = time.Now().UTC().Add(-time.Hour)
	newer := testSale("offline_9_new")

	enqueueSale(t, st, older)

	syncedDoc, err := json.Marshal(newer)
	require.NoError(t, err)
	require.NoError(t, st.Put(context.Background(), store.PartitionSyncedSales, newer.ID, syncedDoc))

	history := r.History(context.Background())
	require.Len(t, history, 2)
	assert.Equal(t, newer.ID, history[0].ID, "newest first")
	assert.Equal(t, older.ID, history[1].ID)
}

func TestHistoryDedupesMidRelocation(t *testing.T) {
	// A crash between the synced put and the pending delete leaves the sale
	// in both partitions; observers must see it exactly once, as synced.
	st := store.NewMemoryStore()
	r := NewReconciler(st, &stubGateway{}, offlineMonitor(), nil)

	sale := testSale("offline_10_hhhh")
	enqueueSale(t, st, sale)

	sale.Synced = true
	doc, err := json.Marshal(sale)
	require.NoError(t, err)
	require.NoError(t, st.Put(context.Background(), store.PartitionSyncedSales, sale.ID, doc))

	history := r.History(context.Background())
	require.Len(t, history, 1)
	assert.True(t, history[0].Synced)
}
