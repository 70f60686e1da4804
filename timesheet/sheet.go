/*
sheet.go - The WeeklyTimesheet aggregate

PURPOSE:
  The core mutable aggregate: seven daily entries plus the derived weekly
  totals and money amounts for one (jobseeker, position, week) selection.

LIFECYCLE:
  A sheet is constructed whenever jobseeker, position and week are all
  selected. It is seeded from a matching persisted record when one exists
  (SeedExisting) or initialized to zeros with a fresh invoice number
  (SeedNew). It is discarded when any selector changes, and persisted only
  on explicit submission.

STATE MACHINE:
  Uninitialized -> SeededExisting | SeededNew   on selection
               -> Edited                        on any entry/bonus/deduction change
               -> Submitting                    on user-initiated submit
               -> Persisted                     on gateway success
               -> Edited                        on gateway failure (values retained)

DERIVATION CONTRACT:
  TotalRegularHours, TotalOvertimeHours, JobseekerPay and ClientBill are
  recomputed on every mutation and are never independently settable.
*/
package timesheet

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// STATE
// =============================================================================

type State string

const (
	StateUninitialized  State = "uninitialized"
	StateSeededNew      State = "seeded_new"
	StateSeededExisting State = "seeded_existing"
	StateEdited         State = "edited"
	StateSubmitting     State = "submitting"
	StatePersisted      State = "persisted"
)

// =============================================================================
// WEEKLY TIMESHEET
// =============================================================================

// WeeklyTimesheet is the working aggregate for one selection. All derived
// fields are owned by Recompute.
type WeeklyTimesheet struct {
	Selection Selection
	Profile   RateProfile

	Entries []DailyEntry // always exactly 7, in date order

	TotalRegularHours  decimal.Decimal
	TotalOvertimeHours decimal.Decimal

	BonusAmount     decimal.Decimal
	DeductionAmount decimal.Decimal

	JobseekerPay decimal.Decimal
	ClientBill   decimal.Decimal

	// InvoiceNumber is assigned once per (position, week, jobseeker) unit
	// and reused on subsequent updates.
	InvoiceNumber string

	// ExistingTimesheetID set => update path; empty => create path.
	ExistingTimesheetID TimesheetID

	// SendEmail signals the external notification pipeline on submission.
	// Never affects computed totals.
	SendEmail bool

	state State
}

// SeedData carries the persisted values copied into a working sheet when a
// matching record exists for the selection's key.
type SeedData struct {
	TimesheetID     TimesheetID
	InvoiceNumber   string
	Days            []PersistedDay
	BonusAmount     decimal.Decimal
	DeductionAmount decimal.Decimal
}

// NewSheet constructs an unseeded sheet for a selection.
func NewSheet(sel Selection, profile RateProfile) *WeeklyTimesheet {
	return &WeeklyTimesheet{
		Selection: sel,
		Profile:   profile,
		Entries:   EmptyEntries(sel.Week),
		state:     StateUninitialized,
	}
}

// SeedNew initializes an empty sheet with a freshly generated invoice number.
func (s *WeeklyTimesheet) SeedNew(invoiceNumber string) {
	s.Entries = EmptyEntries(s.Selection.Week)
	s.BonusAmount = decimal.Zero
	s.DeductionAmount = decimal.Zero
	s.InvoiceNumber = invoiceNumber
	s.ExistingTimesheetID = ""
	s.state = StateSeededNew
	s.Recompute()
}

// SeedExisting pre-fills the sheet from a matching persisted record.
// Per-day overtime is NOT copied from storage; it is recomputed.
func (s *WeeklyTimesheet) SeedExisting(seed SeedData) {
	s.Entries = SeedEntries(s.Selection.Week, seed.Days)
	s.BonusAmount = clampNonNegative(seed.BonusAmount)
	s.DeductionAmount = clampNonNegative(seed.DeductionAmount)
	s.InvoiceNumber = seed.InvoiceNumber
	s.ExistingTimesheetID = seed.TimesheetID
	s.state = StateSeededExisting
	s.Recompute()
}

// =============================================================================
// MUTATIONS - Every mutation triggers a full synchronous recompute
// =============================================================================

// SetHours replaces one day's worked hours. Overtime is a property of the
// week, so the whole week is recomputed.
func (s *WeeklyTimesheet) SetHours(day Date, hours decimal.Decimal) error {
	if hours.IsNegative() {
		return ErrNegativeHours
	}
	if !s.Selection.Week.Contains(day) {
		return ErrDayOutOfWeek
	}
	for i := range s.Entries {
		if s.Entries[i].Date.Equal(day) {
			s.Entries[i].Hours = hours
			break
		}
	}
	s.markEdited()
	s.Recompute()
	return nil
}

// SetBonus stores the bonus, clamped to >= 0 at the point of entry.
func (s *WeeklyTimesheet) SetBonus(amount decimal.Decimal) {
	s.BonusAmount = clampNonNegative(amount)
	s.markEdited()
	s.Recompute()
}

// SetDeduction stores the deduction, clamped to >= 0 at the point of entry.
// The resulting net pay is NOT floored; see pay.go.
func (s *WeeklyTimesheet) SetDeduction(amount decimal.Decimal) {
	s.DeductionAmount = clampNonNegative(amount)
	s.markEdited()
	s.Recompute()
}

// SetSendEmail toggles the notification flag. Not a computed-state edit.
func (s *WeeklyTimesheet) SetSendEmail(v bool) { s.SendEmail = v }

// Recompute re-derives the weekly split and money totals from the entries.
func (s *WeeklyTimesheet) Recompute() {
	split := AllocateOvertime(s.Entries, s.Profile)
	s.TotalRegularHours = split.Regular
	s.TotalOvertimeHours = split.Overtime

	totals := ComputeTotals(split, s.Profile, s.BonusAmount, s.DeductionAmount)
	s.JobseekerPay = totals.JobseekerPay
	s.ClientBill = totals.ClientBill
}

// =============================================================================
// SUBMISSION TRANSITIONS
// =============================================================================

// BeginSubmit guards the transition into Submitting. Fails locally when a
// submit is already in flight or the selection is incomplete.
func (s *WeeklyTimesheet) BeginSubmit() error {
	if s.state == StateSubmitting {
		return ErrSubmissionInFlight
	}
	if !s.Selection.Complete() {
		return ErrMissingSelection
	}
	s.state = StateSubmitting
	return nil
}

// CompleteSubmit records a successful create or update. After a create the
// sheet carries the new record's identity, closing the create->update loop.
func (s *WeeklyTimesheet) CompleteSubmit(id TimesheetID, invoiceNumber string) {
	if id != "" {
		s.ExistingTimesheetID = id
	}
	if invoiceNumber != "" {
		s.InvoiceNumber = invoiceNumber
	}
	s.state = StatePersisted
}

// FailSubmit returns to Edited. No in-memory values are lost; the user may
// retry without re-entering hours.
func (s *WeeklyTimesheet) FailSubmit() {
	s.state = StateEdited
}

// IsUpdate reports whether submission takes the update path.
func (s *WeeklyTimesheet) IsUpdate() bool { return s.ExistingTimesheetID != "" }

// State returns the current lifecycle state.
func (s *WeeklyTimesheet) State() State { return s.state }

func (s *WeeklyTimesheet) markEdited() {
	if s.state != StateSubmitting {
		s.state = StateEdited
	}
}

func clampNonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
