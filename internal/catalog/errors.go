package catalog

import (
	"errors"
	"fmt"
)

// ErrNotInCatalog is returned when an update or delete matched no remote row.
var ErrNotInCatalog = errors.New("product not present in remote catalog")

// StatusError is a non-2xx answer from the HTTP catalog.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("catalog responded with status %d", e.StatusCode)
	}
	return fmt.Sprintf("catalog responded with status %d: %s", e.StatusCode, e.Body)
}
