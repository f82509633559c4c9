package leads

import (
	"errors"
	"fmt"
)

var (
	// ErrNicheRequired is returned when the niche is blank
	ErrNicheRequired = errors.New("niche is required")

	// ErrRegionRequired is returned when the region is blank
	ErrRegionRequired = errors.New("region is required")

	// ErrQuantityOutOfRange is matched by every QuantityError
	ErrQuantityOutOfRange = errors.New("quantity out of range")

	// ErrMalformedPayload is returned when a lead payload cannot be decoded
	ErrMalformedPayload = errors.New("malformed lead payload")
)

// QuantityError reports a quantity outside the configured bounds.
type QuantityError struct {
	Quantity int
	Bounds   Bounds
}

func (e *QuantityError) Error() string {
	return fmt.Sprintf("quantity %d outside [%d, %d]", e.Quantity, e.Bounds.Min, e.Bounds.Max)
}

func (e *QuantityError) Is(target error) bool {
	return target == ErrQuantityOutOfRange
}

// IsValidation reports whether err is a pre-dispatch validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrNicheRequired) ||
		errors.Is(err, ErrRegionRequired) ||
		errors.Is(err, ErrQuantityOutOfRange)
}
