/*
reconciler.go - Create-or-update submission flow

PURPOSE:
  Drives one WeeklyTimesheet through submission: precondition checks,
  create vs. update decision, gateway write, and the post-success refresh
  that lets subsequent edits see the now-existing record.

ERROR CONTRACT:
  - Precondition failures abort locally; no network call is made.
  - Gateway failures return a *timesheet.SubmitError and leave the sheet's
    in-memory values untouched for retry.
  - Batch submission never rolls back prior successes; each unit reports
    its own outcome.
*/
package reconcile

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/crewdesk/staffing-engine/timesheet"
)

// Reconciler matches working sheets against persisted records and submits
// them through the gateway.
type Reconciler struct {
	gw  Gateway
	log zerolog.Logger
}

func New(gw Gateway, log zerolog.Logger) *Reconciler {
	return &Reconciler{gw: gw, log: log}
}

// =============================================================================
// LOOKUP AND SEEDING
// =============================================================================

// Lookup fetches the persisted timesheets for a jobseeker and week.
func (r *Reconciler) Lookup(ctx context.Context, userID timesheet.JobseekerUserID, week timesheet.Week) ([]Record, error) {
	records, err := r.gw.LookupByJobseekerAndWeek(ctx, userID, week.Start, week.End)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", timesheet.ErrLookupFailed, err)
	}
	return records, nil
}

// Seed initializes a working sheet from previously fetched records. When a
// record matches the sheet's key, its values are copied in and the update
// path is armed. Otherwise the sheet starts empty with a fresh invoice
// number; generator failure falls back to the placeholder and is never
// fatal to timesheet entry.
func (r *Reconciler) Seed(ctx context.Context, sheet *timesheet.WeeklyTimesheet, fetched []Record) error {
	match, err := Match(fetched, sheet.Selection.Key())
	if err != nil {
		return err
	}

	if match != nil {
		sheet.SeedExisting(SeedFromRecord(*match))
		return nil
	}

	invoice, err := r.gw.GenerateInvoiceNumber(ctx)
	if err != nil {
		r.log.Warn().Err(err).
			Str("position", string(sheet.Selection.PositionID)).
			Str("week", sheet.Selection.Week.Start.String()).
			Msg("invoice number generation failed, using placeholder")
		invoice = InvoicePlaceholder
	}
	sheet.SeedNew(invoice)
	return nil
}

// =============================================================================
// SUBMISSION
// =============================================================================

// Submit persists one sheet: update when it carries an existing record ID,
// create otherwise. The write is a full replace of the recomputed payload.
// On success the sheet transitions to Persisted and carries the persisted
// identity; on failure it returns to Edited with all values retained.
func (r *Reconciler) Submit(ctx context.Context, sheet *timesheet.WeeklyTimesheet) (Record, error) {
	if err := sheet.BeginSubmit(); err != nil {
		return Record{}, err
	}

	key := sheet.Selection.Key()
	payload := Payload(sheet)

	var persisted Record
	var err error
	if sheet.IsUpdate() {
		persisted, err = r.gw.Update(ctx, sheet.ExistingTimesheetID, payload)
	} else {
		persisted, err = r.gw.Create(ctx, payload)
	}
	if err != nil {
		sheet.FailSubmit()
		return Record{}, &timesheet.SubmitError{Key: key, Update: sheet.IsUpdate(), Err: err}
	}

	sheet.CompleteSubmit(persisted.ID, persisted.InvoiceNumber)
	r.log.Info().
		Str("timesheet", string(persisted.ID)).
		Str("invoice", persisted.InvoiceNumber).
		Str("position", string(key.PositionID)).
		Str("week", key.WeekStart.String()).
		Bool("update", payload.ID != "").
		Msg("timesheet persisted")
	return persisted, nil
}

// =============================================================================
// BATCH SUBMISSION
// =============================================================================

// UnitResult is the outcome for one sheet within a batch.
type UnitResult struct {
	Key       timesheet.Key
	Persisted Record
	Err       error
}

// BatchResult reports per-unit outcomes. Successes stand even when later
// units fail; there is no implicit rollback.
type BatchResult struct {
	Units []UnitResult
}

// Failed returns the results that carry errors.
func (b BatchResult) Failed() []UnitResult {
	var failed []UnitResult
	for _, u := range b.Units {
		if u.Err != nil {
			failed = append(failed, u)
		}
	}
	return failed
}

// SubmitBatch submits every sheet, continuing past failures so that a
// partial failure never discards results already written.
func (r *Reconciler) SubmitBatch(ctx context.Context, sheets []*timesheet.WeeklyTimesheet) BatchResult {
	result := BatchResult{Units: make([]UnitResult, 0, len(sheets))}
	for _, sheet := range sheets {
		persisted, err := r.Submit(ctx, sheet)
		result.Units = append(result.Units, UnitResult{
			Key:       sheet.Selection.Key(),
			Persisted: persisted,
			Err:       err,
		})
	}
	return result
}
