package connectivity

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitorDefaultsToOffline(t *testing.T) {
	m := NewMonitor(nil, 0)
	assert.Equal(t, Offline, m.Status())
	assert.False(t, m.Online())
}

func TestReportTransitions(t *testing.T) {
	m := NewMonitor(nil, 0)

	m.ReportSuccess()
	assert.True(t, m.Online())

	m.ReportFailure()
	assert.False(t, m.Online())
}

func TestSubscribeReceivesTransitions(t *testing.T) {
	m := NewMonitor(nil, 0)

	ch, cancel := m.Subscribe()
	defer cancel()

	m.ReportSuccess()
	select {
	case status := <-ch:
		assert.Equal(t, Online, status)
	case <-time.After(time.Second):
		t.Fatal("no transition delivered")
	}

	// Same status again is not a transition.
	m.ReportSuccess()
	select {
	case status := <-ch:
		t.Fatalf("unexpected notification: %v", status)
	default:
	}
}

func TestSubscribeCancelCloses(t *testing.T) {
	m := NewMonitor(nil, 0)

	ch, cancel := m.Subscribe()
	cancel()
	cancel() // safe to call twice

	_, open := <-ch
	assert.False(t, open)
}

func TestProbeLoopDrivesStatus(t *testing.T) {
	var healthy atomic.Bool
	probe := func(ctx context.Context) error {
		if healthy.Load() {
			return nil
		}
		return errors.New("unreachable")
	}

	m := NewMonitor(probe, 10*time.Millisecond)
	ch, cancel := m.Subscribe()
	defer cancel()

	m.Start()
	defer m.Stop()

	healthy.Store(true)
	select {
	case status := <-ch:
		require.Equal(t, Online, status)
	case <-time.After(time.Second):
		t.Fatal("probe never marked the monitor online")
	}

	healthy.Store(false)
	select {
	case status := <-ch:
		require.Equal(t, Offline, status)
	case <-time.After(time.Second):
		t.Fatal("probe never marked the monitor offline")
	}
}
