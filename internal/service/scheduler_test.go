package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"pos-edge-sync/internal/model"
	"pos-edge-sync/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func enqueuePending(t *testing.T, st store.Store, id string) {
	t.Helper()
	sale := model.Sale{
		ID:          id,
		TotalAmount: 7.00,
		Items: []model.CartLine{
			{Product: model.Product{ID: 1, Name: "Coffee", Price: 3.50, Category: "Beverages"}, Quantity: 2},
		},
		PaymentMethod: model.PaymentCash,
		CreatedAt:     time.Now().UTC(),
	}
	doc, err := json.Marshal(sale)
	require.NoError(t, err)
	require.NoError(t, st.Put(context.Background(), store.PartitionPendingSales, id, doc))
}

func TestWakeTriggersDrain(t *testing.T) {
	st := store.NewMemoryStore()
	gw := &stubGateway{}
	rec := newReconciler(st, gw, onlineMonitor())
	enqueuePending(t, st, "offline_1_abcd")

	sched := NewSyncScheduler(rec, SchedulerConfig{Interval: time.Hour, DrainTimeout: time.Minute})
	sched.Start()
	defer sched.Stop()

	sched.Wake()

	require.Eventually(t, func() bool {
		docs, err := st.GetAll(context.Background(), store.PartitionPendingSales)
		return err == nil && len(docs) == 0
	}, 2*time.Second, 10*time.Millisecond, "wake never drained the queue")
	assert.Equal(t, int64(1), gw.createCalls.Load())
}

func TestWakeCoalesces(t *testing.T) {
	sched := NewSyncScheduler(newReconciler(store.NewMemoryStore(), &stubGateway{}, offlineMonitor()), SchedulerConfig{Interval: time.Hour})

	// Not started: signals must never block the caller.
	for i := 0; i < 10; i++ {
		sched.Wake()
	}
}

func TestTickerTriggersDrain(t *testing.T) {
	st := store.NewMemoryStore()
	gw := &stubGateway{}
	rec := newReconciler(st, gw, onlineMonitor())
	enqueuePending(t, st, "offline_2_efgh")

	sched := NewSyncScheduler(rec, SchedulerConfig{Interval: 20 * time.Millisecond, DrainTimeout: time.Minute})
	sched.Start()
	defer sched.Stop()

	require.Eventually(t, func() bool {
		docs, err := st.GetAll(context.Background(), store.PartitionPendingSales)
		return err == nil && len(docs) == 0
	}, 2*time.Second, 10*time.Millisecond, "ticker never drained the queue")
}

func TestRunNow(t *testing.T) {
	st := store.NewMemoryStore()
	gw := &stubGateway{}
	rec := newReconciler(st, gw, onlineMonitor())
	enqueuePending(t, st, "offline_3_ijkl")

	sched := NewSyncScheduler(rec, DefaultSchedulerConfig())

	require.NoError(t, sched.RunNow(context.Background()))
	assert.Empty(t, partitionIDs(t, st, store.PartitionPendingSales))
	assert.Len(t, partitionIDs(t, st, store.PartitionSyncedSales), 1)
}

func TestStopIsIdempotent(t *testing.T) {
	sched := NewSyncScheduler(newReconciler(store.NewMemoryStore(), &stubGateway{}, offlineMonitor()), DefaultSchedulerConfig())
	sched.Start()
	sched.Stop()
	sched.Stop()
}
