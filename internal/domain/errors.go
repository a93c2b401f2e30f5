package domain

import (
	"errors"
)

// Error taxonomy shared by every layer. Adapters map these to transport codes
// with errors.Is, so wrap them with fmt.Errorf("%w: ...") to add detail.
var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrNotFound            = errors.New("not found")
	ErrInsufficientShares  = errors.New("insufficient shares")
	ErrExternalUnavailable = errors.New("external service unavailable")
	ErrPersistence         = errors.New("persistence failure")
)

// ErrorKind returns the taxonomy name of err, or "Internal" when err does not
// wrap one of the domain sentinels
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return "InvalidInput"
	case errors.Is(err, ErrNotFound):
		return "NotFound"
	case errors.Is(err, ErrInsufficientShares):
		return "InsufficientShares"
	case errors.Is(err, ErrExternalUnavailable):
		return "ExternalUnavailable"
	case errors.Is(err, ErrPersistence):
		return "PersistenceFailure"
	default:
		return "Internal"
	}
}
