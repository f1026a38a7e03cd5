package types

import "fmt"

// PlanningError means the model produced output no plan could be built from.
// Raw holds the unmodified model reply for diagnostics.
type PlanningError struct {
	Reason string
	Raw    string
	Err    error
}

func (e *PlanningError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("planning failed: %s: %v", e.Reason, e.Err)
	}
	return "planning failed: " + e.Reason
}

func (e *PlanningError) Unwrap() error {
	return e.Err
}

// CoercionError is a single-field validation failure. It is recoverable by asking again.
type CoercionError struct {
	Field    string
	RawInput string
	Reason   string
	Err      error
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("cannot use %q for %s: %s", e.RawInput, e.Field, e.Reason)
}

func (e *CoercionError) Unwrap() error {
	return e.Err
}

// SummaryGenerationFailure is logged when the deterministic summary replaces the model's.
type SummaryGenerationFailure struct {
	TicketType string
	Err        error
}

func (e *SummaryGenerationFailure) Error() string {
	return fmt.Sprintf("summary generation for %q failed: %v", e.TicketType, e.Err)
}

func (e *SummaryGenerationFailure) Unwrap() error {
	return e.Err
}
