package models

import (
	"fmt"
	"time"
)

// MalformedRowError reports a raw input row that could not be parsed into an
// Observation. It is recoverable: the row is dropped and counted, the load
// continues.
type MalformedRowError struct {
	Line    int
	Field   string
	Value   string
	Message string
}

func (e *MalformedRowError) Error() string {
	return fmt.Sprintf("row %d: field %q value %q: %s", e.Line, e.Field, e.Value, e.Message)
}

// IsTransient returns false as malformed input is permanent
func (e *MalformedRowError) IsTransient() bool {
	return false
}

// InvalidRangeError reports a range query whose start date is after its end
// date. The query is rejected with no partial result.
type InvalidRangeError struct {
	Start time.Time
	End   time.Time
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid date range: start %s is after end %s",
		e.Start.Format("2006-01-02"), e.End.Format("2006-01-02"))
}

func (e *InvalidRangeError) IsTransient() bool {
	return false
}

// InvariantViolationError indicates a pipeline ordering bug, such as the
// date indexer receiving an observation without a valid date. It should
// never occur when the stages run in order.
type InvariantViolationError struct {
	Message string
}

func (e *InvariantViolationError) Error() string {
	return e.Message
}

func (e *InvariantViolationError) IsTransient() bool {
	return false
}

// NotFoundError represents a resource not found error
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.Key)
}

func (e *NotFoundError) IsTransient() bool {
	return false
}
