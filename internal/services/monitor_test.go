package services_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rosejohnson3923/pathfinity-app-sub011/internal/models"
	"github.com/rosejohnson3923/pathfinity-app-sub011/internal/services"
)

func TestNewHeartbeatMonitor_ValidatesTiming(t *testing.T) {
	f := newPresenceFixture(10*time.Second, false)

	tests := []struct {
		name    string
		tick    time.Duration
		grace   time.Duration
		wantErr bool
	}{
		{"tick shorter than grace", 5 * time.Second, 10 * time.Second, false},
		{"tick equal to grace", 10 * time.Second, 10 * time.Second, true},
		{"tick longer than grace", 15 * time.Second, 10 * time.Second, true},
		{"zero tick", 0, 10 * time.Second, true},
		{"negative tick", -time.Second, 10 * time.Second, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := services.NewHeartbeatMonitor(f.presence, tt.tick, tt.grace, f.clock)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSweep_IsolatesPerRecordFailures(t *testing.T) {
	f := newPresenceFixture(10*time.Second, false)
	f.store.addParticipant("p1", "Alice")
	f.store.addParticipant("p2", "Bob")
	f.presence.RegisterParticipant("room1", "p1")
	f.presence.RegisterParticipant("room1", "p2")

	// The first disconnect persist fails; records are swept in map order,
	// so make every persist in this sweep fail to hit both orderings
	f.store.failDisconnect = 2

	f.clock.Advance(11 * time.Second)
	f.presence.Sweep(f.clock.Now())

	// Both rolled back, neither dropped from monitoring
	assert.Equal(t, models.StateConnected, f.presence.GetConnectionStatus("p1").State)
	assert.Equal(t, models.StateConnected, f.presence.GetConnectionStatus("p2").State)
	assert.Zero(t, f.bus.count(models.MsgTypeParticipantDisconnected))

	// Next tick retries and succeeds for both
	f.clock.Advance(5 * time.Second)
	f.presence.Sweep(f.clock.Now())

	assert.Equal(t, models.StateDisconnected, f.presence.GetConnectionStatus("p1").State)
	assert.Equal(t, models.StateDisconnected, f.presence.GetConnectionStatus("p2").State)
	assert.Equal(t, 2, f.bus.count(models.MsgTypeParticipantDisconnected))
}

func TestSweep_PartialFailureStillProcessesOtherRecords(t *testing.T) {
	f := newPresenceFixture(10*time.Second, false)
	f.store.addParticipant("p1", "Alice")
	f.store.addParticipant("p2", "Bob")
	f.presence.RegisterParticipant("room1", "p1")
	f.presence.RegisterParticipant("room1", "p2")

	// Exactly one persist fails this sweep; the other record must still
	// be processed
	f.store.failDisconnect = 1

	f.clock.Advance(11 * time.Second)
	f.presence.Sweep(f.clock.Now())

	assert.Equal(t, 1, f.bus.count(models.MsgTypeParticipantDisconnected))
	assert.Equal(t, 1, f.store.disconnectCalls)

	f.clock.Advance(5 * time.Second)
	f.presence.Sweep(f.clock.Now())

	assert.Equal(t, 2, f.bus.count(models.MsgTypeParticipantDisconnected))
	assert.Equal(t, models.StateDisconnected, f.presence.GetConnectionStatus("p1").State)
	assert.Equal(t, models.StateDisconnected, f.presence.GetConnectionStatus("p2").State)
}

func TestHeartbeatMonitor_StartStop(t *testing.T) {
	f := newPresenceFixture(10*time.Second, false)

	monitor, err := services.NewHeartbeatMonitor(f.presence, 5*time.Millisecond, 10*time.Second, f.clock)
	require.NoError(t, err)

	monitor.Start()
	time.Sleep(20 * time.Millisecond)
	monitor.Stop()

	// Stop is safe to call twice
	monitor.Stop()
}

func TestHeartbeatMonitor_StopWithoutStart(t *testing.T) {
	f := newPresenceFixture(10*time.Second, false)

	monitor, err := services.NewHeartbeatMonitor(f.presence, 5*time.Millisecond, 10*time.Second, f.clock)
	require.NoError(t, err)

	// Never started: Stop must return instead of waiting on a sweep loop
	// that does not exist
	done := make(chan struct{})
	go func() {
		monitor.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked with no running monitor")
	}
}
