package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the booking core. Handlers map these to
// transport status codes; the core never deals in HTTP.
var (
	ErrInvalidRange   = errors.New("start date must be before end date")
	ErrInvalidDeposit = errors.New("deposit must not be negative")
	ErrInvalidAmount  = errors.New("payment amount must be positive")
	ErrNotFound       = errors.New("not found")
	ErrBusy           = errors.New("asset is busy, try again")
	ErrDuplicate      = errors.New("already exists")
	ErrInvalidInput   = errors.New("invalid input")
)

// ConflictError is returned when a candidate booking overlaps an existing
// active contract. It carries the colliding contract so callers can present
// an actionable message.
type ConflictError struct {
	ContractID int64
	Range      DateRange
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("asset already booked by contract #%d from %s to %s",
		e.ContractID, e.Range.Start, e.Range.End)
}

// StoreError wraps a persistence failure surfaced mid-operation. The
// enclosing transaction is rolled back before this is returned.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store failure during %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError wraps err with the failing operation name, passing through
// domain errors untouched so errors.Is checks keep working.
func NewStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	var conflict *ConflictError
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidRange) ||
		errors.Is(err, ErrInvalidDeposit) || errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrBusy) || errors.Is(err, ErrDuplicate) ||
		errors.Is(err, ErrInvalidInput) || errors.As(err, &conflict) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}
