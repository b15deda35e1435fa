package security

import (
	"fmt"
	"regexp"
	"strings"
)

// Input length constraints
const (
	MaxRoomIDLength   = 64
	MaxUsernameLength = 50
	MinNameLength     = 1
)

var (
	// Room identifiers are caller-supplied opaque strings; anything URL- and
	// log-safe is accepted, including the UUIDs this server mints.
	roomIDRegex = regexp.MustCompile(`^[a-zA-Z0-9\-_]+$`)
	// Name validation regex - Unicode letters, digits, spaces, apostrophes, hyphens, underscores, dots
	nameRegex = regexp.MustCompile(`^[\p{L}\p{N}\s'\-_.]+$`)
	// Dangerous characters that could be used for injection attacks
	dangerousCharsRegex = regexp.MustCompile(`[<>{}[\]\\;|&$()` + "`" + `]`)
)

// ValidateRoomID validates a caller-supplied room identifier.
// Returns the trimmed identifier or an error.
func ValidateRoomID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("room ID cannot be empty")
	}
	if len(id) > MaxRoomIDLength {
		return "", fmt.Errorf("room ID too long (max %d characters)", MaxRoomIDLength)
	}
	if !roomIDRegex.MatchString(id) {
		return "", fmt.Errorf("room ID contains invalid characters")
	}
	return id, nil
}

// ValidateUsername validates a display name with length and character
// constraints. Returns the sanitized name and an error if validation fails.
func ValidateUsername(name string) (string, error) {
	name = strings.TrimSpace(name)

	if name == "" {
		return "", fmt.Errorf("username cannot be empty")
	}
	if len(name) < MinNameLength {
		return "", fmt.Errorf("username too short (min %d characters)", MinNameLength)
	}
	if len(name) > MaxUsernameLength {
		return "", fmt.Errorf("username too long (max %d characters)", MaxUsernameLength)
	}
	if !nameRegex.MatchString(name) {
		return "", fmt.Errorf("username contains invalid characters (allowed: letters, numbers, spaces, apostrophes, hyphens, underscores, dots)")
	}
	if dangerousCharsRegex.MatchString(name) {
		return "", fmt.Errorf("username contains potentially dangerous characters")
	}
	for _, r := range name {
		if r < 32 || r == 127 {
			return "", fmt.Errorf("username contains control characters")
		}
	}

	return name, nil
}

// SanitizeErrorMessage removes sensitive information from error messages
// before they reach a client.
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
