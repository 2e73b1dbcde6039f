package engine

import "errors"

var (
	// Rejections surfaced before any book mutation.
	ErrInvalidQuantity   = errors.New("order quantity must be positive")
	ErrInvalidPrice      = errors.New("order price must not be negative")
	ErrUnknownInstrument = errors.New("unknown instrument")
	ErrDuplicateOrderID  = errors.New("order id already resting")

	// ErrBookCrossed means a post-match consistency check failed; the
	// instrument's processing is aborted rather than matching on a
	// corrupted book.
	ErrBookCrossed = errors.New("order book crossed at rest")

	ErrEngineStopped = errors.New("engine stopped")
)

// IsInvalidOrder reports whether err is a rejection of the incoming order
// itself, as opposed to an engine or infrastructure failure.
func IsInvalidOrder(err error) bool {
	return errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrInvalidPrice) ||
		errors.Is(err, ErrUnknownInstrument) ||
		errors.Is(err, ErrDuplicateOrderID)
}
