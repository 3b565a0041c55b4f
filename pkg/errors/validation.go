package errors

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// Limits applied to user-supplied names and value lists.
const (
	MaxNameLength = 256
	MaxValues     = 10000
)

// ValidateName validates a user-supplied name such as a node set or
// network name. kind names the field in the error message.
//
// Rules:
//   - not empty or blank
//   - at most MaxNameLength bytes
//   - no control characters
func ValidateName(kind, name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeInvalidInput, "%s cannot be empty", kind)
	}
	if len(name) > MaxNameLength {
		return New(ErrCodeInvalidInput, "%s too long (max %d characters)", kind, MaxNameLength)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "%s contains invalid control characters", kind)
		}
	}
	return nil
}

// ValidateValues validates the property values used to match a node set.
func ValidateValues(set string, values []string) error {
	if len(values) == 0 {
		return New(ErrCodeInvalidNodeSet, "node set %q has no values", set)
	}
	if len(values) > MaxValues {
		return New(ErrCodeInvalidNodeSet, "node set %q has too many values (max %d)", set, MaxValues)
	}
	for i, v := range values {
		if v == "" {
			return New(ErrCodeInvalidNodeSet, "node set %q: value %d is empty", set, i+1)
		}
		if strings.ContainsRune(v, '\x00') {
			return New(ErrCodeInvalidNodeSet, "node set %q: value %d contains a null byte", set, i+1)
		}
	}
	return nil
}

// ValidateRunID checks that id is a canonical UUID as issued by the API
// server.
func ValidateRunID(id string) error {
	u, err := uuid.Parse(id)
	if err != nil || u.String() != strings.ToLower(id) {
		return New(ErrCodeRunNotFound, "invalid run id %q", id)
	}
	return nil
}
