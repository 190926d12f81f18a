package domain

import (
	"errors"
	"fmt"
)

// ErrUnknownDistrict is returned when a district ID is absent from the registry.
// It is always surfaced to the caller; no component substitutes a default.
var ErrUnknownDistrict = errors.New("unknown district")

// UnknownDistrict wraps ErrUnknownDistrict with the offending ID.
func UnknownDistrict(id string) error {
	return fmt.Errorf("%w: %q", ErrUnknownDistrict, id)
}
