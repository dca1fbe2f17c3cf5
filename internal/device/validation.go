package device

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Validation constants.
const (
	maxNameLength  = 100
	maxBrandLength = 50

	// DefaultPageSize is used when a listing does not specify a size.
	DefaultPageSize = 20

	// MaxPageSize is the largest page a listing may request.
	MaxPageSize = 100
)

// ValidateName checks that a device name is non-blank and at most 100 characters.
func ValidateName(name string) error {
	return validateText(name, maxNameLength, ErrInvalidName, "name")
}

// ValidateBrand checks that a brand is non-blank and at most 50 characters.
func ValidateBrand(brand string) error {
	return validateText(brand, maxBrandLength, ErrInvalidBrand, "brand")
}

func validateText(value string, maxLen int, kind error, field string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s cannot be empty", kind, field)
	}
	if utf8.RuneCountInString(value) > maxLen {
		return fmt.Errorf("%w: %s exceeds %d characters", kind, field, maxLen)
	}
	return nil
}

// ValidateState checks that a state is one of the known values.
func ValidateState(state DeviceState) error {
	if state.IsValid() {
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidState, state)
}

// ValidatePage checks listing bounds: page >= 0 and 1 <= size <= MaxPageSize.
func ValidatePage(page, size int) error {
	if page < 0 {
		return fmt.Errorf("%w: page must be >= 0, got %d", ErrInvalidPage, page)
	}
	if size < 1 || size > MaxPageSize {
		return fmt.Errorf("%w: size must be between 1 and %d, got %d", ErrInvalidPage, MaxPageSize, size)
	}
	return nil
}
