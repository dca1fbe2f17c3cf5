package device

import (
	"errors"
	"fmt"
)

// Error kinds returned by the device package.
//
// Every error produced by the Service wraps exactly one of these kinds and
// can be classified with errors.Is():
//
//	if errors.Is(err, device.ErrNotFound) {
//	    // handle not found case
//	}
var (
	// ErrValidation is returned for bad input: field lengths, pagination
	// bounds or an unknown state in a filter.
	ErrValidation = errors.New("device: validation failed")

	// ErrNotFound is returned when a device ID does not exist.
	ErrNotFound = errors.New("device: not found")

	// ErrUpdate is returned when an update is refused, such as changing the
	// name or brand of a device that is in use, or an unknown target state.
	ErrUpdate = errors.New("device: update rejected")

	// ErrDeletion is returned when deleting a device that is not AVAILABLE.
	ErrDeletion = errors.New("device: deletion rejected")

	// ErrStoreUnavailable wraps storage and connectivity failures.
	// The Service never retries these itself.
	ErrStoreUnavailable = errors.New("device: store unavailable")
)

// Validation causes. Each wraps ErrValidation.
var (
	// ErrInvalidName is returned when a name is empty or too long.
	ErrInvalidName = fmt.Errorf("%w: invalid name", ErrValidation)

	// ErrInvalidBrand is returned when a brand is empty or too long.
	ErrInvalidBrand = fmt.Errorf("%w: invalid brand", ErrValidation)

	// ErrInvalidState is returned when a state literal is not recognised.
	ErrInvalidState = fmt.Errorf("%w: invalid state", ErrValidation)

	// ErrInvalidPage is returned when page or size are out of range.
	ErrInvalidPage = fmt.Errorf("%w: invalid pagination", ErrValidation)
)

// transient marks a store failure as ErrStoreUnavailable unless it already
// carries a domain kind the caller should see directly.
func transient(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}
