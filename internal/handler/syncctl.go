package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"pos-edge-sync/internal/connectivity"
	"pos-edge-sync/internal/service"
	possync "pos-edge-sync/internal/sync"
	"pos-edge-sync/pkg/apierror"
	"pos-edge-sync/pkg/response"
)

// SyncHandler exposes the sync control surface: status polling, the
// external wake signal and the UI event stream.
type SyncHandler struct {
	reconciler *possync.Reconciler
	scheduler  *service.SyncScheduler
	monitor    *connectivity.Monitor
	events     *possync.Broadcaster
}

// NewSyncHandler creates a new sync handler.
func NewSyncHandler(reconciler *possync.Reconciler, scheduler *service.SyncScheduler, monitor *connectivity.Monitor, events *possync.Broadcaster) *SyncHandler {
	return &SyncHandler{
		reconciler: reconciler,
		scheduler:  scheduler,
		monitor:    monitor,
		events:     events,
	}
}

// Status handles GET /api/v1/sync/status — consumed by the UI status
// indicator.
func (h *SyncHandler) Status(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]interface{}{
		"online":           h.monitor.Online(),
		"pending_count":    h.reconciler.PendingCount(r.Context()),
		"sync_in_progress": h.reconciler.InFlight(),
	})
}

// Wake handles POST /api/v1/sync/wake — the externally delivered wake
// signal (remote webhook callback or platform push). The drain itself runs
// in the scheduler's background loop; the caller gets an immediate ack.
func (h *SyncHandler) Wake(w http.ResponseWriter, r *http.Request) {
	h.scheduler.Wake()
	response.OK(w, map[string]interface{}{
		"status": "scheduled",
	})
}

// Events handles GET /api/v1/sync/events — a server-sent-events stream of
// advisory sync events for the UI layer.
func (h *SyncHandler) Events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		response.Error(w, apierror.InternalError("streaming not supported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch, cancel := h.events.Subscribe()
	defer cancel()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, open := <-ch:
			if !open {
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data)
			flusher.Flush()
		}
	}
}
