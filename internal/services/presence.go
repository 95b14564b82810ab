package services

import (
	"log"
	"sync"
	"time"

	"github.com/rosejohnson3923/pathfinity-app-sub011/internal/models"
)

// connectionRecord is the in-memory liveness record for one monitored
// participant. All fields are guarded by PresenceService.mu.
type connectionRecord struct {
	participantID    string
	roomID           string
	lastPingAt       time.Time
	graceDeadline    time.Time
	state            models.ConnectionState
	aiTakeoverActive bool

	// Disconnection episode markers, valid while state is disconnected or
	// reconnecting. disconnectedSeq is the event-log cursor captured when
	// the disconnect committed; reconnection replays everything after it.
	disconnectedAt  time.Time
	disconnectedSeq int64

	// pingPending records a ping that arrived while a sweep was
	// mid-transition for this record. The sweep honors it after the
	// disconnect commits instead of dropping it.
	pingPending bool
}

// PresenceService is the single source of truth for which participants are
// currently considered connected and by when each must ping again. Pings
// mutate it from the transport side; the heartbeat monitor sweeps it on a
// fixed tick. All I/O (store writes, broadcasts) happens outside the
// registry lock, and record state is re-validated after every I/O call
// before being committed.
type PresenceService struct {
	mu      sync.Mutex
	records map[string]*connectionRecord

	gracePeriod  time.Duration
	clock        Clock
	notifier     *DisconnectionNotifier
	synchronizer *ReconnectionSynchronizer
	metrics      *Metrics

	// sender delivers a sync payload to a participant whose reconnecting
	// ping was consumed by an in-flight sweep. Optional.
	sender DirectSender
}

// DirectSender delivers a message to a single participant's connection.
// Hub implements it.
type DirectSender interface {
	SendToParticipant(participantID string, message *models.WSMessage) bool
}

func NewPresenceService(gracePeriod time.Duration, clock Clock, notifier *DisconnectionNotifier, synchronizer *ReconnectionSynchronizer, metrics *Metrics) *PresenceService {
	return &PresenceService{
		records:      make(map[string]*connectionRecord),
		gracePeriod:  gracePeriod,
		clock:        clock,
		notifier:     notifier,
		synchronizer: synchronizer,
		metrics:      metrics,
	}
}

// SetDirectSender wires the hub in after construction (the hub and the
// presence service reference each other).
func (p *PresenceService) SetDirectSender(sender DirectSender) {
	p.sender = sender
}

// RegisterParticipant starts monitoring a participant. Idempotent: a
// participant that is already tracked is left untouched.
func (p *PresenceService) RegisterParticipant(roomID, participantID string) {
	now := p.clock.Now()

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.records[participantID]; ok {
		return
	}

	p.records[participantID] = &connectionRecord{
		participantID: participantID,
		roomID:        roomID,
		lastPingAt:    now,
		graceDeadline: now.Add(p.gracePeriod),
		state:         models.StateConnected,
	}
}

// UnregisterParticipant removes a participant from monitoring
// unconditionally. Used for clean departures; no disconnection event is
// emitted, even if the grace deadline had already elapsed.
func (p *PresenceService) UnregisterParticipant(participantID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.records, participantID)
}

// ReceivePing ingests a liveness signal. An unknown participant is
// registered. A connected participant has its deadline refreshed. A
// disconnected participant is reconnected: the synchronizer runs
// synchronously and its missed-event payload is returned so the transport
// layer can hand it to the reconnecting client. The returned payload is
// nil for every non-reconnecting ping.
func (p *PresenceService) ReceivePing(roomID, participantID string) (*models.SyncPayload, error) {
	now := p.clock.Now()

	p.mu.Lock()
	rec, ok := p.records[participantID]
	if !ok {
		p.records[participantID] = &connectionRecord{
			participantID: participantID,
			roomID:        roomID,
			lastPingAt:    now,
			graceDeadline: now.Add(p.gracePeriod),
			state:         models.StateConnected,
		}
		p.mu.Unlock()
		return nil, nil
	}

	switch rec.state {
	case models.StateConnected, models.StateReconnecting:
		rec.lastPingAt = now
		rec.graceDeadline = now.Add(p.gracePeriod)
		p.mu.Unlock()
		return nil, nil

	case models.StateExpiring:
		// A sweep is mid-transition for this participant. The notifier's
		// store write is the authoritative boundary: the ping cannot
		// resurrect the record, but it must not be dropped either. The
		// sweep replays it as a reconnection once the disconnect commits.
		rec.lastPingAt = now
		rec.pingPending = true
		p.mu.Unlock()
		return nil, nil

	case models.StateDisconnected:
		rec.state = models.StateReconnecting
		p.mu.Unlock()
		return p.reconnect(participantID)
	}

	p.mu.Unlock()
	return nil, nil
}

// GetConnectionStatus returns a read-only snapshot of a participant's
// record. Tracked is false for a participant that was never registered;
// that is not an error.
func (p *PresenceService) GetConnectionStatus(participantID string) models.ConnectionStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	rec, ok := p.records[participantID]
	if !ok {
		return models.ConnectionStatus{ParticipantID: participantID, Tracked: false}
	}

	return models.ConnectionStatus{
		ParticipantID:    rec.participantID,
		RoomID:           rec.roomID,
		Tracked:          true,
		State:            rec.state,
		LastPingAt:       rec.lastPingAt,
		GraceDeadline:    rec.graceDeadline,
		AITakeoverActive: rec.aiTakeoverActive,
	}
}

// Sweep scans every tracked record and expires the ones whose grace
// deadline has elapsed. The heartbeat monitor calls it once per tick;
// tests call it directly with a controlled now. A failure on one record
// never aborts processing of the others.
func (p *PresenceService) Sweep(now time.Time) {
	p.mu.Lock()
	var due []string
	for _, rec := range p.records {
		if rec.state == models.StateConnected && !now.Before(rec.graceDeadline) {
			rec.state = models.StateExpiring
			due = append(due, rec.participantID)
		}
	}
	p.mu.Unlock()

	for _, participantID := range due {
		p.expire(participantID, now)
	}
}

// expire runs the disconnection notifier for one record and commits the
// result. The record only becomes disconnected after the notifier's store
// write succeeds; on failure it rolls back to connected with its original
// deadline so the next sweep retries.
func (p *PresenceService) expire(participantID string, now time.Time) {
	p.mu.Lock()
	rec, ok := p.records[participantID]
	if !ok || rec.state != models.StateExpiring {
		p.mu.Unlock()
		return
	}
	roomID := rec.roomID
	p.mu.Unlock()

	lastSeq, aiActive, err := p.notifier.Notify(roomID, participantID, now)

	p.mu.Lock()
	rec, ok = p.records[participantID]
	if !ok || rec.state != models.StateExpiring {
		// Unregistered (or otherwise moved on) while the notify was in
		// flight; nothing to commit.
		p.mu.Unlock()
		return
	}

	if err != nil {
		rec.state = models.StateConnected
		if rec.pingPending {
			// The participant proved itself alive while the failed notify
			// was in flight; abandon the episode entirely.
			rec.pingPending = false
			rec.graceDeadline = rec.lastPingAt.Add(p.gracePeriod)
		}
		p.mu.Unlock()
		p.metrics.IncrementSweepErrors()
		log.Printf("⚠️  Disconnect notify failed (room=%s, participant=%s), retrying next sweep: %v", roomID, participantID, err)
		return
	}

	rec.state = models.StateDisconnected
	rec.disconnectedAt = now
	rec.disconnectedSeq = lastSeq
	rec.aiTakeoverActive = aiActive
	pending := rec.pingPending
	rec.pingPending = false
	if pending {
		rec.state = models.StateReconnecting
	}
	p.mu.Unlock()

	p.metrics.IncrementDisconnectsDeclared()
	log.Printf("✓ Participant disconnected (room=%s, participant=%s, lastSeq=%d)", roomID, participantID, lastSeq)

	if pending {
		// A ping raced the expiry; replay it as a reconnection now so the
		// participant is not left disconnected until its next ping.
		payload, err := p.reconnect(participantID)
		if err != nil {
			log.Printf("⚠️  Reconnect after raced ping failed (participant=%s): %v", participantID, err)
			return
		}
		if payload != nil && p.sender != nil {
			p.sender.SendToParticipant(participantID, &models.WSMessage{
				Type:    models.MsgTypeSyncState,
				RoomID:  roomID,
				Payload: payload,
			})
		}
	}
}

// reconnect runs the synchronizer for a record in the reconnecting state
// and commits the result. On synchronizer failure the record falls back to
// disconnected and the next ping retries.
func (p *PresenceService) reconnect(participantID string) (*models.SyncPayload, error) {
	p.mu.Lock()
	rec, ok := p.records[participantID]
	if !ok || rec.state != models.StateReconnecting {
		p.mu.Unlock()
		return nil, nil
	}
	roomID := rec.roomID
	afterSeq := rec.disconnectedSeq
	aiActive := rec.aiTakeoverActive
	p.mu.Unlock()

	payload, err := p.synchronizer.Synchronize(roomID, participantID, afterSeq, aiActive)

	now := p.clock.Now()
	p.mu.Lock()
	rec, ok = p.records[participantID]
	if !ok || rec.state != models.StateReconnecting {
		p.mu.Unlock()
		return nil, err
	}

	if err != nil {
		rec.state = models.StateDisconnected
		p.mu.Unlock()
		log.Printf("⚠️  Reconnection sync failed (room=%s, participant=%s), will retry on next ping: %v", roomID, participantID, err)
		return nil, err
	}

	rec.state = models.StateConnected
	rec.lastPingAt = now
	rec.graceDeadline = now.Add(p.gracePeriod)
	rec.aiTakeoverActive = false
	p.mu.Unlock()

	p.metrics.IncrementReconnections()
	p.metrics.AddMissedEventsServed(len(payload.MissedEvents))
	log.Printf("✓ Participant reconnected (room=%s, participant=%s, missed=%d)", roomID, participantID, len(payload.MissedEvents))

	return payload, nil
}
