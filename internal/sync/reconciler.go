package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	gosync "sync"

	"pos-edge-sync/internal/connectivity"
	"pos-edge-sync/internal/gateway"
	"pos-edge-sync/internal/model"
	"pos-edge-sync/internal/store"
)

// Reconciler moves sales from the pending to the synced partition with
// at-least-once delivery. The remote enforces at-most-one application per
// correlation id, so the reconciler is safe to invoke repeatedly and from
// any trigger (user action, connectivity transition, timer, wake signal).
type Reconciler struct {
	store   store.Store
	gateway gateway.Gateway
	monitor *connectivity.Monitor
	events  *Broadcaster

	mu      gosync.Mutex
	inDrain bool
}

// NewReconciler creates a reconciler. events may be nil when no UI surface
// is attached.
func NewReconciler(st store.Store, gw gateway.Gateway, monitor *connectivity.Monitor, events *Broadcaster) *Reconciler {
	return &Reconciler{
		store:   st,
		gateway: gw,
		monitor: monitor,
		events:  events,
	}
}

// Drain attempts to deliver every currently pending sale. It is a no-op
// when the monitor reports offline or when another drain is in flight; the
// second concurrent caller returns immediately without error. Each sale is
// processed independently: one failure never rolls back or aborts the
// others. Transport errors are swallowed after logging — the pending queue
// itself is the durable record of the failure.
func (r *Reconciler) Drain(ctx context.Context) error {
	if !r.monitor.Online() {
		return nil
	}

	// Reentrancy guard. Set synchronously before the first suspension
	// point so overlapping triggers cannot start a second pass.
	r.mu.Lock()
	if r.inDrain {
		r.mu.Unlock()
		return nil
	}
	r.inDrain = true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.inDrain = false
		r.mu.Unlock()
	}()

	pending, err := r.loadSales(ctx, store.PartitionPendingSales)
	if err != nil {
		if errors.Is(err, store.ErrUnavailable) {
			log.Printf("[Reconciler] Local store unavailable, skipping drain")
			return nil
		}
		return fmt.Errorf("failed to load pending sales: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	log.Printf("[Reconciler] Draining %d pending sales", len(pending))

	synced := 0
	for _, sale := range pending {
		if r.deliver(ctx, sale) {
			synced++
		}
	}

	if synced > 0 {
		r.publishPendingCount(ctx)
	}

	log.Printf("[Reconciler] Drain complete: %d synced, %d still pending", synced, len(pending)-synced)
	return nil
}

// deliver submits one sale and relocates it on a definitive outcome.
// Returns true when the sale reached the synced partition. A transport
// error without a definitive response leaves the sale pending for the next
// pass.
func (r *Reconciler) deliver(ctx context.Context, sale model.Sale) bool {
	_, err := r.gateway.CreateSale(ctx, sale.Payload(), sale.ID)

	var dup *gateway.DuplicateError
	switch {
	case err == nil:
		r.monitor.ReportSuccess()
	case errors.As(err, &dup):
		// The remote confirmed a prior delivery of this sale, e.g. after a
		// crash between send and local relocation. Treat as synced.
		log.Printf("[Reconciler] Sale %s already recorded remotely, marking synced", sale.ID)
		r.monitor.ReportSuccess()
	default:
		log.Printf("[Reconciler] Failed to sync sale %s: %v", sale.ID, err)
		r.monitor.ReportFailure()
		return false
	}

	if err := r.relocate(ctx, sale); err != nil {
		log.Printf("[Reconciler] Failed to relocate sale %s: %v", sale.ID, err)
		return false
	}

	if r.events != nil {
		r.events.Publish(Event{Type: EventSaleSynced, SaleID: sale.ID})
	}
	return true
}

// relocate moves a sale from the pending to the synced partition. The
// synced write happens first: if the process dies between the two steps
// the sale shows up in both partitions and the next drain resolves it via
// the duplicate path. History reads dedupe by id with synced winning, so
// the relocation appears atomic to observers.
func (r *Reconciler) relocate(ctx context.Context, sale model.Sale) error {
	sale.Synced = true

	doc, err := json.Marshal(sale)
	if err != nil {
		return fmt.Errorf("failed to marshal sale %s: %w", sale.ID, err)
	}
	if err := r.store.Put(ctx, store.PartitionSyncedSales, sale.ID, doc); err != nil {
		return err
	}
	return r.store.Delete(ctx, store.PartitionPendingSales, sale.ID)
}

// RecordSale is the checkout-time path, separate from Drain. When online
// it attempts one direct remote creation; any failure falls back to the
// pending partition without inline retries — the next triggered drain
// picks it up. The returned error is non-nil only when the sale could not
// even be queued locally; in every other case the checkout completes from
// the cashier's perspective.
func (r *Reconciler) RecordSale(ctx context.Context, sale model.Sale) error {
	if r.monitor.Online() {
		_, err := r.gateway.CreateSale(ctx, sale.Payload(), sale.ID)

		var dup *gateway.DuplicateError
		switch {
		case err == nil, errors.As(err, &dup):
			r.monitor.ReportSuccess()
			if relocErr := r.relocate(ctx, sale); relocErr != nil {
				return fmt.Errorf("failed to record synced sale %s: %w", sale.ID, relocErr)
			}
			if r.events != nil {
				r.events.Publish(Event{Type: EventSaleSynced, SaleID: sale.ID})
			}
			return nil
		default:
			log.Printf("[Reconciler] Immediate sync of sale %s failed, queueing: %v", sale.ID, err)
			r.monitor.ReportFailure()
		}
	}

	if err := r.enqueue(ctx, sale); err != nil {
		return err
	}
	r.publishPendingCount(ctx)
	return nil
}

// enqueue durably places a sale in the pending partition.
func (r *Reconciler) enqueue(ctx context.Context, sale model.Sale) error {
	sale.Synced = false

	doc, err := json.Marshal(sale)
	if err != nil {
		return fmt.Errorf("failed to marshal sale %s: %w", sale.ID, err)
	}
	if err := r.store.Put(ctx, store.PartitionPendingSales, sale.ID, doc); err != nil {
		return fmt.Errorf("failed to queue sale %s: %w", sale.ID, err)
	}

	log.Printf("[Reconciler] Sale %s queued for sync", sale.ID)
	return nil
}

// PendingCount returns the number of sales awaiting delivery. Degrades to
// zero when the store is unavailable.
func (r *Reconciler) PendingCount(ctx context.Context) int {
	docs, err := r.store.GetAll(ctx, store.PartitionPendingSales)
	if err != nil {
		return 0
	}
	return len(docs)
}

// InFlight reports whether a drain pass is currently running.
func (r *Reconciler) InFlight() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inDrain
}

// History returns all recorded sales, pending and synced merged, newest
// first. A sale caught mid-relocation appears once, as synced. Store
// unavailability degrades to an empty history.
func (r *Reconciler) History(ctx context.Context) []model.Sale {
	seen := make(map[string]bool)
	var sales []model.Sale

	if synced, err := r.loadSales(ctx, store.PartitionSyncedSales); err == nil {
		for _, s := range synced {
			seen[s.ID] = true
			sales = append(sales, s)
		}
	}
	if pending, err := r.loadSales(ctx, store.PartitionPendingSales); err == nil {
		for _, s := range pending {
			if !seen[s.ID] {
				sales = append(sales, s)
			}
		}
	}

	sort.Slice(sales, func(i, j int) bool {
		return sales[i].CreatedAt.After(sales[j].CreatedAt)
	})
	return sales
}

// loadSales reads and decodes every sale in a partition. Undecodable
// documents are skipped with a log line rather than poisoning the queue.
func (r *Reconciler) loadSales(ctx context.Context, partition string) ([]model.Sale, error) {
	docs, err := r.store.GetAll(ctx, partition)
	if err != nil {
		return nil, err
	}

	sales := make([]model.Sale, 0, len(docs))
	for key, doc := range docs {
		var sale model.Sale
		if err := json.Unmarshal(doc, &sale); err != nil {
			log.Printf("[Reconciler] Skipping undecodable sale %s/%s: %v", partition, key, err)
			continue
		}
		sales = append(sales, sale)
	}
	return sales, nil
}

// publishPendingCount emits the advisory queue-depth event.
func (r *Reconciler) publishPendingCount(ctx context.Context) {
	if r.events == nil {
		return
	}
	r.events.Publish(Event{Type: EventPendingCount, PendingCount: r.PendingCount(ctx)})
}
