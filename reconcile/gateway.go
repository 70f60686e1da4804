/*
Package reconcile implements timesheet reconciliation against the
persistence gateway.

PURPOSE:
  Matching a working WeeklyTimesheet against a possibly-already-persisted
  record for the same position and week, deciding create vs. update,
  assigning invoice numbers, and closing the create->update loop after a
  successful write.

KEY CONCEPTS IN THIS FILE (gateway.go):
  - Record: the persisted timesheet shape exchanged with the gateway.
    Field names are normalized ONCE here, at the persistence boundary;
    nothing downstream ever probes alternate spellings.
  - Gateway: the external create/read/update surface. Transactionality,
    timeouts and retries belong to implementations, not to this layer.
  - Match/Seed/Payload: the pure conversions between Record and the
    working sheet.

SEE ALSO:
  - reconciler.go: submission flow
  - session.go: selection lifecycle and stale-response guarding
  - store/sqlite: production gateway implementation
*/
package reconcile

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/crewdesk/staffing-engine/timesheet"
)

// InvoicePlaceholder is used when the invoice number generator fails.
// Generation must never be fatal to timesheet entry; gateways assign a real
// number on create when they see the placeholder.
const InvoicePlaceholder = "TBD"

// =============================================================================
// RECORD - Persisted timesheet shape
// =============================================================================

// Record is the read and write shape exchanged with the persistence
// gateway. Rates are a snapshot taken at submission time so historical
// records do not drift when a position is repriced.
type Record struct {
	ID timesheet.TimesheetID

	JobseekerProfileID timesheet.JobseekerProfileID
	JobseekerUserID    timesheet.JobseekerUserID
	PositionID         timesheet.PositionID

	WeekStart timesheet.Date
	WeekEnd   timesheet.Date

	DailyHours []timesheet.PersistedDay // 7 entries, date order

	TotalRegularHours  decimal.Decimal
	TotalOvertimeHours decimal.Decimal

	RegularPayRate   decimal.Decimal
	OvertimePayRate  decimal.Decimal
	RegularBillRate  decimal.Decimal
	OvertimeBillRate decimal.Decimal

	TotalJobseekerPay decimal.Decimal
	TotalClientBill   decimal.Decimal

	BonusAmount     decimal.Decimal
	DeductionAmount decimal.Decimal

	OvertimeEnabled bool
	Markup          decimal.Decimal

	EmailSent     bool
	InvoiceNumber string
}

// Key returns the reconciliation key of a persisted record.
func (r Record) Key() timesheet.Key {
	return timesheet.Key{PositionID: r.PositionID, WeekStart: r.WeekStart}
}

// =============================================================================
// GATEWAY - External persistence surface
// =============================================================================

// Gateway is the transactional record store reachable through
// create/read/update calls. Implementations own timeout policy.
type Gateway interface {
	// LookupByJobseekerAndWeek returns all persisted timesheets for a
	// jobseeker in [weekStart, weekEnd].
	LookupByJobseekerAndWeek(ctx context.Context, userID timesheet.JobseekerUserID, weekStart, weekEnd timesheet.Date) ([]Record, error)

	// GenerateInvoiceNumber returns a fresh stable invoice identifier.
	GenerateInvoiceNumber(ctx context.Context) (string, error)

	// Create persists a new record and returns it with its assigned ID.
	Create(ctx context.Context, payload Record) (Record, error)

	// Update replaces an existing record in full. Not a patch.
	Update(ctx context.Context, id timesheet.TimesheetID, payload Record) (Record, error)
}

// =============================================================================
// CONVERSIONS
// =============================================================================

// Match finds the persisted record for a key. At most one may match; more
// than one violates the store invariant and is reported as an error rather
// than silently picking a winner.
func Match(records []Record, key timesheet.Key) (*Record, error) {
	var found *Record
	for i := range records {
		if records[i].Key() == key {
			if found != nil {
				return nil, timesheet.ErrDuplicateMatch
			}
			found = &records[i]
		}
	}
	return found, nil
}

// SeedFromRecord converts a persisted record into the seed copied into a
// working sheet. Per-day overtime is deliberately absent: the allocator
// recomputes it from hours.
func SeedFromRecord(r Record) timesheet.SeedData {
	days := make([]timesheet.PersistedDay, len(r.DailyHours))
	copy(days, r.DailyHours)
	return timesheet.SeedData{
		TimesheetID:     r.ID,
		InvoiceNumber:   r.InvoiceNumber,
		Days:            days,
		BonusAmount:     r.BonusAmount,
		DeductionAmount: r.DeductionAmount,
	}
}

// Payload builds the full-replace write shape for a sheet. Every derived
// figure is taken from the sheet's current recomputation; rates are
// snapshotted from the profile in force now.
func Payload(s *timesheet.WeeklyTimesheet) Record {
	days := make([]timesheet.PersistedDay, len(s.Entries))
	for i, e := range s.Entries {
		days[i] = timesheet.PersistedDay{Date: e.Date, Hours: e.Hours}
	}

	return Record{
		ID:                 s.ExistingTimesheetID,
		JobseekerProfileID: s.Selection.JobseekerProfileID,
		JobseekerUserID:    s.Selection.JobseekerUserID,
		PositionID:         s.Selection.PositionID,
		WeekStart:          s.Selection.Week.Start,
		WeekEnd:            s.Selection.Week.End,
		DailyHours:         days,
		TotalRegularHours:  s.TotalRegularHours,
		TotalOvertimeHours: s.TotalOvertimeHours,
		RegularPayRate:     s.Profile.RegularPayRate,
		OvertimePayRate:    s.Profile.EffectiveOvertimePayRate(),
		RegularBillRate:    s.Profile.RegularBillRate,
		OvertimeBillRate:   s.Profile.EffectiveOvertimeBillRate(),
		TotalJobseekerPay:  s.JobseekerPay,
		TotalClientBill:    s.ClientBill,
		BonusAmount:        s.BonusAmount,
		DeductionAmount:    s.DeductionAmount,
		OvertimeEnabled:    s.Profile.OvertimeEnabled,
		Markup:             s.Profile.Markup,
		EmailSent:          s.SendEmail,
		InvoiceNumber:      s.InvoiceNumber,
	}
}
