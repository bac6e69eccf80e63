package connectivity

import (
	"context"
	"log"
	"sync"
	"time"
)

// Status is the last known reachability of the remote system.
type Status int

const (
	// Offline is the default until a probe proves otherwise.
	Offline Status = iota
	Online
)

func (s Status) String() string {
	if s == Online {
		return "online"
	}
	return "offline"
}

// ProbeFunc checks remote reachability. A nil return marks the monitor
// online; any error marks it offline.
type ProbeFunc func(ctx context.Context) error

// Monitor is the single source of truth for "can we reach the remote
// right now". The flag is a signal, not a guarantee: a call may still fail
// while Status reports Online, so remote-calling code reports outcomes
// back via ReportSuccess/ReportFailure and treats transport failure as
// authoritative.
type Monitor struct {
	probe    ProbeFunc
	interval time.Duration

	mu     sync.RWMutex
	status Status
	subs   map[int]chan Status
	nextID int

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewMonitor creates a monitor that starts offline. probe may be nil, in
// which case only ReportSuccess/ReportFailure drive transitions.
func NewMonitor(probe ProbeFunc, interval time.Duration) *Monitor {
	return &Monitor{
		probe:    probe,
		interval: interval,
		status:   Offline,
		subs:     make(map[int]chan Status),
		stopCh:   make(chan struct{}),
	}
}

// Status returns the last known status. Cheap and non-blocking.
func (m *Monitor) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Online reports whether the last known status is online.
func (m *Monitor) Online() bool {
	return m.Status() == Online
}

// Subscribe registers for status transitions. The returned cancel func
// must be called to release the subscription. Notifications are
// best-effort: a slow subscriber misses intermediate transitions.
func (m *Monitor) Subscribe() (<-chan Status, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	ch := make(chan Status, 4)
	m.subs[id] = ch

	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if _, ok := m.subs[id]; ok {
			delete(m.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}

// ReportSuccess records a successful remote call.
func (m *Monitor) ReportSuccess() {
	m.set(Online)
}

// ReportFailure records a failed remote call. The failed call itself is
// authoritative over whatever the cached flag said.
func (m *Monitor) ReportFailure() {
	m.set(Offline)
}

// set transitions the status and fans out the change to subscribers.
func (m *Monitor) set(status Status) {
	m.mu.Lock()
	if m.status == status {
		m.mu.Unlock()
		return
	}
	m.status = status
	subs := make([]chan Status, 0, len(m.subs))
	for _, ch := range m.subs {
		subs = append(subs, ch)
	}
	m.mu.Unlock()

	log.Printf("[Monitor] Connectivity changed: %s", status)

	for _, ch := range subs {
		select {
		case ch <- status:
		default:
		}
	}
}

// Start begins the periodic probe loop. No-op when no probe is configured.
func (m *Monitor) Start() {
	if m.probe == nil || m.interval <= 0 {
		return
	}
	go m.run()
}

// run is the probe loop.
func (m *Monitor) run() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	// Probe once at startup so the status does not stay at the offline
	// default until the first tick.
	m.runProbe()

	for {
		select {
		case <-ticker.C:
			m.runProbe()
		case <-m.stopCh:
			log.Printf("[Monitor] Stopped")
			return
		}
	}
}

// runProbe performs one reachability check.
func (m *Monitor) runProbe() {
	ctx, cancel := context.WithTimeout(context.Background(), m.interval)
	defer cancel()

	if err := m.probe(ctx); err != nil {
		m.set(Offline)
		return
	}
	m.set(Online)
}

// Stop stops the probe loop.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCh)
	})
}
