package services

import "fmt"

// TakeoverManager flags a disconnected participant as AI-controlled so the
// gameplay loop (external to this service) can generate actions on their
// behalf, and clears the flag when they return. Both operations are
// idempotent: the flag is read before it is written, so redundant calls
// never double-register automated play.
type TakeoverManager struct {
	store   SessionStore
	enabled bool
}

func NewTakeoverManager(store SessionStore, enabled bool) *TakeoverManager {
	return &TakeoverManager{
		store:   store,
		enabled: enabled,
	}
}

// Enabled reports whether the feature is active for this deployment.
func (t *TakeoverManager) Enabled() bool {
	return t.enabled
}

// Enable marks the participant's persisted record as AI-controlled.
// No-op when the feature is disabled or the flag is already set.
func (t *TakeoverManager) Enable(participantID string) error {
	if !t.enabled {
		return nil
	}

	controlled, err := t.store.AIControlled(participantID)
	if err != nil {
		return fmt.Errorf("failed to read AI takeover flag: %w", err)
	}
	if controlled {
		return nil
	}

	if err := t.store.SetAIControlled(participantID, true); err != nil {
		return fmt.Errorf("failed to enable AI takeover: %w", err)
	}
	return nil
}

// Disable clears the AI-controlled flag. No-op when it is already clear.
func (t *TakeoverManager) Disable(participantID string) error {
	if !t.enabled {
		return nil
	}

	controlled, err := t.store.AIControlled(participantID)
	if err != nil {
		return fmt.Errorf("failed to read AI takeover flag: %w", err)
	}
	if !controlled {
		return nil
	}

	if err := t.store.SetAIControlled(participantID, false); err != nil {
		return fmt.Errorf("failed to disable AI takeover: %w", err)
	}
	return nil
}
