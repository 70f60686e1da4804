/*
session.go - Selection lifecycle and stale-response guarding

PURPOSE:
  Owns one editor's working state: the current (jobseeker, position, week)
  selection, the sheet seeded for it, and the records fetched for the
  jobseeker's week. Selection changes discard the previous sheet; a
  late-arriving lookup for a superseded selection is ignored on arrival,
  not cancelled.

CONCURRENCY MODEL:
  All computation is synchronous relative to one session. Network calls
  (lookup, submit) may suspend; the session holds a loading flag for the
  duration of each so duplicate concurrent submissions are rejected.
  No cross-user locking: two editors of the same position and week race,
  and the later successful write wins. Documented, not solved, here.
*/
package reconcile

import (
	"context"
	"time"

	"github.com/crewdesk/staffing-engine/timesheet"
)

// Session is one editor's working state. Not safe for concurrent use by
// multiple goroutines; one session per editor.
type Session struct {
	rec *Reconciler

	selection timesheet.Selection
	sheet     *timesheet.WeeklyTimesheet
	fetched   []Record

	loading bool
	notice  timesheet.Notice

	now func() time.Time
}

func NewSession(rec *Reconciler) *Session {
	return &Session{rec: rec, now: time.Now}
}

// Sheet returns the current working sheet, nil before the first selection.
func (s *Session) Sheet() *timesheet.WeeklyTimesheet { return s.sheet }

// Loading reports whether a network call for this session is in flight.
func (s *Session) Loading() bool { return s.loading }

// Notice returns the current status message when still active.
func (s *Session) Notice() (timesheet.Notice, bool) {
	if s.notice.ActiveAt(s.now()) {
		return s.notice, true
	}
	return timesheet.Notice{}, false
}

// =============================================================================
// SELECTION
// =============================================================================

// Select installs a new selection, discarding any in-progress sheet for the
// previous one. The returned selection must be echoed back to ApplyLookup
// so stale responses can be detected.
func (s *Session) Select(sel timesheet.Selection, profile timesheet.RateProfile) timesheet.Selection {
	s.selection = sel
	s.sheet = timesheet.NewSheet(sel, profile)
	s.fetched = nil
	s.loading = true
	return sel
}

// ApplyLookup applies a lookup result to the session. The result is dropped
// with ErrStaleSelection when the selection changed while the request was
// in flight. A failed lookup is surfaced as retryable and the sheet falls
// back to an empty seed so entry can proceed.
func (s *Session) ApplyLookup(ctx context.Context, sel timesheet.Selection, records []Record, lookupErr error) error {
	if sel != s.selection {
		return timesheet.ErrStaleSelection
	}
	s.loading = false

	if lookupErr != nil {
		s.fetched = nil
		if err := s.rec.Seed(ctx, s.sheet, nil); err != nil {
			return err
		}
		s.notice = timesheet.NewNotice(timesheet.NoticeError,
			"could not load existing timesheets, starting empty", s.now())
		return lookupErr
	}

	s.fetched = records
	return s.rec.Seed(ctx, s.sheet, records)
}

// Load runs the lookup and applies it, preserving the stale-selection guard
// for callers that do not manage the fetch themselves.
func (s *Session) Load(ctx context.Context) error {
	sel := s.selection
	records, err := s.rec.Lookup(ctx, sel.JobseekerUserID, sel.Week)
	return s.ApplyLookup(ctx, sel, records, err)
}

// =============================================================================
// SUBMISSION
// =============================================================================

// Submit persists the working sheet and, on success, re-fetches the
// jobseeker's week so subsequent edits see the now-existing record.
func (s *Session) Submit(ctx context.Context) (Record, error) {
	if s.sheet == nil {
		return Record{}, timesheet.ErrMissingSelection
	}
	if s.loading {
		return Record{}, timesheet.ErrSubmissionInFlight
	}

	s.loading = true
	defer func() { s.loading = false }()

	persisted, err := s.rec.Submit(ctx, s.sheet)
	if err != nil {
		s.notice = timesheet.NewNotice(timesheet.NoticeError, err.Error(), s.now())
		return Record{}, err
	}

	s.notice = timesheet.NewNotice(timesheet.NoticeSuccess,
		"timesheet saved, invoice "+persisted.InvoiceNumber, s.now())

	// Refresh: ignore errors here, the write already succeeded and the
	// fetched set is only an optimization for the next edit.
	if records, lookupErr := s.rec.Lookup(ctx, s.selection.JobseekerUserID, s.selection.Week); lookupErr == nil {
		s.fetched = records
	}
	return persisted, nil
}
