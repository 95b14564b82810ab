package security

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Input length constraints
const (
	MaxRoomNameLength        = 100
	MaxParticipantNameLength = 50
	MaxAnswerLength          = 500
	MinNameLength            = 1
)

var (
	// PocketBase record IDs are 15 alphanumeric characters
	pocketbaseIDRegex = regexp.MustCompile(`^[a-zA-Z0-9]{15}$`)
	uuidRegex         = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
	// Unicode letters and digits plus a small set of name punctuation
	nameRegex = regexp.MustCompile(`^[\p{L}\p{N}\s'\-_.]+$`)
	// Characters with injection potential
	dangerousCharsRegex = regexp.MustCompile(`[<>{}[\]\\;|&$()` + "`" + `]`)
)

// ValidateID accepts either a PocketBase record ID or a UUID.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("ID cannot be empty")
	}

	if pocketbaseIDRegex.MatchString(id) {
		return nil
	}

	if uuidRegex.MatchString(strings.ToLower(id)) {
		if _, err := uuid.Parse(id); err != nil {
			return fmt.Errorf("malformed UUID: %w", err)
		}
		return nil
	}

	return fmt.Errorf("invalid ID format (expected 15-character PocketBase ID or UUID)")
}

// ValidateName trims, bounds, and character-checks a display name.
// Returns the sanitized name.
func ValidateName(name string, maxLen int) (string, error) {
	name = strings.TrimSpace(name)

	if name == "" {
		return "", fmt.Errorf("name cannot be empty")
	}
	if len(name) < MinNameLength {
		return "", fmt.Errorf("name too short (min %d characters)", MinNameLength)
	}
	if len(name) > maxLen {
		return "", fmt.Errorf("name too long (max %d characters)", maxLen)
	}

	if !nameRegex.MatchString(name) {
		return "", fmt.Errorf("name contains invalid characters (allowed: letters, numbers, spaces, apostrophes, hyphens, underscores, dots)")
	}
	if dangerousCharsRegex.MatchString(name) {
		return "", fmt.Errorf("name contains potentially dangerous characters")
	}
	for _, r := range name {
		if r < 32 || r == 127 {
			return "", fmt.Errorf("name contains control characters")
		}
	}

	return name, nil
}

// ValidateRoomName validates a room name
func ValidateRoomName(name string) (string, error) {
	return ValidateName(name, MaxRoomNameLength)
}

// ValidateParticipantName validates a participant name
func ValidateParticipantName(name string) (string, error) {
	return ValidateName(name, MaxParticipantNameLength)
}

// SanitizeErrorMessage replaces errors that leak storage internals with a
// generic message safe to return to clients.
func SanitizeErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	errStr := strings.ToLower(err.Error())

	sensitivePatterns := []string{
		"sql",
		"database",
		"record",
		"collection",
		"pocketbase",
		"constraint",
		"foreign key",
		"unique",
		"duplicate key",
		"no rows",
	}

	for _, pattern := range sensitivePatterns {
		if strings.Contains(errStr, pattern) {
			return "An error occurred while processing your request"
		}
	}

	return err.Error()
}
