package common

import (
	"strings"

	"github.com/google/uuid"
)

// NewScanID generates a unique scan ID.
// The scan ID doubles as the queue task ID so the API hands a single
// identifier back to the caller.
func NewScanID() string {
	return uuid.New().String()
}

// NewFlowID generates a unique flow ID
func NewFlowID() string {
	return uuid.New().String()
}

// NewVaultEntryID generates a unique vault entry ID with the "vlt_" prefix
func NewVaultEntryID() string {
	return "vlt_" + uuid.New().String()
}

// IsVaultEntryID reports whether a parameter value looks like a vault entry
// identifier rather than a logical secret name.
func IsVaultEntryID(value string) bool {
	if strings.HasPrefix(value, "vlt_") {
		_, err := uuid.Parse(strings.TrimPrefix(value, "vlt_"))
		return err == nil
	}
	_, err := uuid.Parse(value)
	return err == nil
}
