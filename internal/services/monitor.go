package services

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// HeartbeatMonitor is the only component allowed to declare a participant
// disconnected. It sweeps the presence registry on a fixed tick; the tick
// interval must be strictly shorter than the grace period, otherwise an
// expired participant could sit undetected for a full extra tick.
type HeartbeatMonitor struct {
	presence *PresenceService
	interval time.Duration
	clock    Clock

	started  atomic.Bool
	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

func NewHeartbeatMonitor(presence *PresenceService, tickInterval, gracePeriod time.Duration, clock Clock) (*HeartbeatMonitor, error) {
	if tickInterval <= 0 {
		return nil, fmt.Errorf("tick interval must be positive, got %s", tickInterval)
	}
	if tickInterval >= gracePeriod {
		return nil, fmt.Errorf("tick interval (%s) must be shorter than grace period (%s)", tickInterval, gracePeriod)
	}

	return &HeartbeatMonitor{
		presence: presence,
		interval: tickInterval,
		clock:    clock,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start launches the sweep loop in a background goroutine.
func (m *HeartbeatMonitor) Start() {
	m.started.Store(true)
	go m.run()
}

func (m *HeartbeatMonitor) run() {
	defer close(m.doneCh)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	log.Printf("Heartbeat monitor started (tick=%s)", m.interval)

	for {
		select {
		case <-ticker.C:
			m.presence.Sweep(m.clock.Now())
		case <-m.stopCh:
			log.Printf("Heartbeat monitor stopped")
			return
		}
	}
}

// Stop halts the sweep loop and waits for any in-flight sweep to finish,
// so no record is left mid-transition. Safe to call more than once.
func (m *HeartbeatMonitor) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCh)
	})
	if m.started.Load() {
		<-m.doneCh
	}
}
