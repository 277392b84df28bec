package catalog

import "errors"

// Error kinds returned by the catalog and the refresh service. Callers match
// them with errors.Is; the wrapped message carries the detail.
var (
	ErrValidation      = errors.New("invalid input")
	ErrNotFound        = errors.New("source not found")
	ErrImmutableOrigin = errors.New("source comes from configuration and cannot be modified")
	ErrDisabledSource  = errors.New("source is disabled")
)
