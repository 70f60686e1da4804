/*
errors.go - Centralized error types for the timesheet engine

PURPOSE:
  All engine error types in one place. The reconciliation layer wraps these
  with flow context; callers branch with errors.Is / errors.As.

ERROR CATEGORIES:
  1. Precondition failures - local, no network call is made
  2. Reconciliation failures - matching/invariant violations
  3. Flow failures - lookup/submission problems surfaced for retry
*/
package timesheet

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrMissingSelection is returned when jobseeker, position or week is
	// unset at submission time. Reported locally; submission is aborted
	// before any network call.
	ErrMissingSelection = errors.New("jobseeker, position and week must all be selected")

	// ErrDuplicateMatch is returned when more than one persisted timesheet
	// matches a (position, week-start) key. The store invariant allows at
	// most one.
	ErrDuplicateMatch = errors.New("multiple persisted timesheets match the same position and week")

	// ErrStaleSelection is returned when a fetched result arrives for a
	// selection that has since been replaced. The result is discarded.
	ErrStaleSelection = errors.New("selection changed while request was in flight")

	// ErrSubmissionInFlight is returned when a submit is attempted while a
	// previous submit for the same sheet has not completed.
	ErrSubmissionInFlight = errors.New("submission already in flight")

	// ErrDayOutOfWeek is returned when an hour edit targets a date outside
	// the sheet's week.
	ErrDayOutOfWeek = errors.New("date is outside the selected week")

	// ErrNegativeHours is returned when an hour edit carries a negative value.
	ErrNegativeHours = errors.New("hours must be non-negative")

	// ErrLookupFailed marks a failed existing-timesheet fetch. Retryable:
	// the working sheet falls back to an empty seed so entry can proceed.
	ErrLookupFailed = errors.New("existing timesheet lookup failed")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// SubmitError reports a failed create or update for one sheet. The in-memory
// sheet is preserved unchanged so the user can retry without re-entering
// hours.
type SubmitError struct {
	Key    Key
	Update bool // true when the update path failed, false for create
	Err    error
}

func (e *SubmitError) Error() string {
	op := "create"
	if e.Update {
		op = "update"
	}
	return fmt.Sprintf("timesheet %s failed for position %s week %s: %v",
		op, e.Key.PositionID, e.Key.WeekStart, e.Err)
}

func (e *SubmitError) Unwrap() error { return e.Err }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable reports whether the operation might succeed if repeated.
func IsRetryable(err error) bool {
	var se *SubmitError
	return errors.Is(err, ErrLookupFailed) || errors.As(err, &se)
}

// IsClientError reports whether the error is due to invalid local input
// rather than a gateway failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrMissingSelection) ||
		errors.Is(err, ErrDayOutOfWeek) ||
		errors.Is(err, ErrNegativeHours) ||
		errors.Is(err, ErrSubmissionInFlight)
}
