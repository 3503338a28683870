package service

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/Freeeeeet/artist_scheduler/internal/model"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)

func notFound(kind string, id int64) error {
	return fmt.Errorf("%s %d: %w", kind, id, ErrNotFound)
}

// ValidationError collects per-field problems with a request.
type ValidationError struct {
	FieldErrors map[string]string
}

func (e *ValidationError) Error() string {
	fields := slices.Sorted(maps.Keys(e.FieldErrors))
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+e.FieldErrors[f])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records a problem with field.
func (e *ValidationError) Add(field, msg string) {
	if e.FieldErrors == nil {
		e.FieldErrors = make(map[string]string)
	}
	if _, ok := e.FieldErrors[field]; !ok {
		e.FieldErrors[field] = msg
	}
}

// Err returns nil when no field failed.
func (e *ValidationError) Err() error {
	if len(e.FieldErrors) == 0 {
		return nil
	}
	return e
}

func invalid(field, msg string) error {
	return &ValidationError{FieldErrors: map[string]string{field: msg}}
}

// StateViolationError rejects an operation because of data that depends on
// the target. Dependents lists whatever blocked it.
type StateViolationError struct {
	Reason          string
	AvailabilityIDs []int64
	Bookings        []*model.Booking
}

func (e *StateViolationError) Error() string {
	switch {
	case len(e.Bookings) > 0:
		return fmt.Sprintf("%s (%d bookings)", e.Reason, len(e.Bookings))
	case len(e.AvailabilityIDs) > 0:
		return fmt.Sprintf("%s (%d availability rows)", e.Reason, len(e.AvailabilityIDs))
	default:
		return e.Reason
	}
}

// FailureCode classifies one failed item of a batch.
type FailureCode string

const (
	FailureAlreadyExists      FailureCode = "ALREADY_EXISTS"
	FailureBooked             FailureCode = "BOOKED"
	FailureInsufficientNotice FailureCode = "INSUFFICIENT_NOTICE"
	FailureNotFound           FailureCode = "NOT_FOUND"
	FailureInternal           FailureCode = "INTERNAL"
)

// BatchFailure is one rejected batch item.
type BatchFailure[K any] struct {
	Item  K           `json:"item"`
	Code  FailureCode `json:"code"`
	Error string      `json:"error"`
}

// BatchResult reports a partially successful batch. Processed items are
// committed even when others failed.
type BatchResult[K any] struct {
	Processed []K               `json:"processed"`
	Failed    []BatchFailure[K] `json:"failed"`
}

func (b *BatchResult[K]) ok(item K) {
	b.Processed = append(b.Processed, item)
}

func (b *BatchResult[K]) fail(item K, code FailureCode, err error) {
	b.Failed = append(b.Failed, BatchFailure[K]{Item: item, Code: code, Error: err.Error()})
}

// DateBatch is the result of applying a template across dates.
type DateBatch = BatchResult[time.Time]
