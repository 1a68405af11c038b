package inventory

import (
	"strings"

	"github.com/google/uuid"
)

// LocalIDPrefix marks ids synthesized by the store when the remote catalog rejected an insert.
const LocalIDPrefix = "local-"

// NewLocalID returns a fresh id carrying the local provenance marker.
func NewLocalID() string {
	return LocalIDPrefix + uuid.NewString()
}

// IsLocalID reports whether id was synthesized locally.
func IsLocalID(id string) bool {
	return strings.HasPrefix(id, LocalIDPrefix)
}
