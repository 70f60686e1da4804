package timesheet_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewdesk/staffing-engine/timesheet"
)

func testSelection() timesheet.Selection {
	return timesheet.Selection{
		JobseekerProfileID: "jp-1",
		JobseekerUserID:    "ju-1",
		PositionID:         "P1",
		Week:               testWeek(),
	}
}

func seededSheet(t *testing.T) *timesheet.WeeklyTimesheet {
	t.Helper()
	sheet := timesheet.NewSheet(testSelection(), overtimeProfile(40))
	sheet.SeedNew("INV-000001")
	return sheet
}

// =============================================================================
// LIFECYCLE
// =============================================================================

func TestSheet_SeedNew(t *testing.T) {
	sheet := seededSheet(t)

	assert.Equal(t, timesheet.StateSeededNew, sheet.State())
	assert.Equal(t, "INV-000001", sheet.InvoiceNumber)
	assert.Empty(t, sheet.ExistingTimesheetID)
	assert.False(t, sheet.IsUpdate())
	require.Len(t, sheet.Entries, 7)
	assert.True(t, sheet.TotalRegularHours.IsZero())
	assert.True(t, sheet.JobseekerPay.IsZero())
}

func TestSheet_SeedExisting_CopiesAndRecomputes(t *testing.T) {
	// GIVEN: A persisted record with hours, bonus and an identity
	// WHEN: Seeding a working sheet from it
	// THEN: Values are copied, totals recomputed, update path armed

	week := testWeek()
	sheet := timesheet.NewSheet(testSelection(), overtimeProfile(40))
	sheet.SeedExisting(timesheet.SeedData{
		TimesheetID:   "ts-7",
		InvoiceNumber: "INV-000042",
		Days: []timesheet.PersistedDay{
			{Date: week.Start, Hours: decimal.NewFromInt(10)},
			{Date: week.Start.AddDays(1), Hours: decimal.NewFromInt(10)},
			{Date: week.Start.AddDays(2), Hours: decimal.NewFromInt(10)},
			{Date: week.Start.AddDays(3), Hours: decimal.NewFromInt(10)},
			{Date: week.Start.AddDays(4), Hours: decimal.NewFromInt(10)},
		},
		BonusAmount: decimal.NewFromInt(25),
	})

	assert.Equal(t, timesheet.StateSeededExisting, sheet.State())
	assert.True(t, sheet.IsUpdate())
	assert.Equal(t, timesheet.TimesheetID("ts-7"), sheet.ExistingTimesheetID)
	assert.Equal(t, "INV-000042", sheet.InvoiceNumber)

	// 50 hours at threshold 40: 40 regular, 10 overtime
	assert.True(t, sheet.TotalRegularHours.Equal(decimal.NewFromInt(40)))
	assert.True(t, sheet.TotalOvertimeHours.Equal(decimal.NewFromInt(10)))
	assert.True(t, sheet.BonusAmount.Equal(decimal.NewFromInt(25)))
}

// =============================================================================
// EDITS AND RECOMPUTATION
// =============================================================================

func TestSheet_SetHours_RecomputesWholeWeek(t *testing.T) {
	sheet := seededSheet(t)
	week := testWeek()

	for i := 0; i < 6; i++ {
		require.NoError(t, sheet.SetHours(week.Start.AddDays(i), decimal.NewFromInt(8)))
	}

	// 48 hours: 40 regular, 8 overtime, redistributed across worked days
	assert.Equal(t, timesheet.StateEdited, sheet.State())
	assert.True(t, sheet.TotalRegularHours.Equal(decimal.NewFromInt(40)))
	assert.True(t, sheet.TotalOvertimeHours.Equal(decimal.NewFromInt(8)))
	assert.True(t, timesheet.ApproxEqual(
		timesheet.DistributedOvertime(sheet.Entries), sheet.TotalOvertimeHours))

	// Conservation under a single-day edit
	require.NoError(t, sheet.SetHours(week.Start, decimal.Zero))
	total := timesheet.WeeklyTotal(sheet.Entries)
	assert.True(t, sheet.TotalRegularHours.Add(sheet.TotalOvertimeHours).Equal(total))
}

func TestSheet_SetHours_Validation(t *testing.T) {
	sheet := seededSheet(t)

	err := sheet.SetHours(testWeek().Start, decimal.NewFromInt(-1))
	assert.ErrorIs(t, err, timesheet.ErrNegativeHours)

	err = sheet.SetHours(testWeek().Start.AddDays(10), decimal.NewFromInt(8))
	assert.ErrorIs(t, err, timesheet.ErrDayOutOfWeek)
	assert.True(t, timesheet.IsClientError(err))
}

func TestSheet_BonusDeduction_ClampedAtEntry(t *testing.T) {
	sheet := seededSheet(t)

	sheet.SetBonus(decimal.NewFromInt(-5))
	sheet.SetDeduction(decimal.NewFromInt(-5))
	assert.True(t, sheet.BonusAmount.IsZero())
	assert.True(t, sheet.DeductionAmount.IsZero())

	// But a legitimate deduction may push net pay negative
	sheet.SetDeduction(decimal.NewFromInt(500))
	assert.True(t, sheet.JobseekerPay.IsNegative())
	assert.True(t, sheet.ClientBill.IsZero(), "bill ignores adjustments")
}

// =============================================================================
// SUBMISSION STATE MACHINE
// =============================================================================

func TestSheet_SubmitTransitions(t *testing.T) {
	sheet := seededSheet(t)
	require.NoError(t, sheet.SetHours(testWeek().Start, decimal.NewFromInt(8)))

	// Begin: Edited -> Submitting; a second begin is rejected
	require.NoError(t, sheet.BeginSubmit())
	assert.Equal(t, timesheet.StateSubmitting, sheet.State())
	assert.ErrorIs(t, sheet.BeginSubmit(), timesheet.ErrSubmissionInFlight)

	// Failure: back to Edited, values retained
	sheet.FailSubmit()
	assert.Equal(t, timesheet.StateEdited, sheet.State())
	assert.True(t, sheet.Entries[0].Hours.Equal(decimal.NewFromInt(8)))

	// Success: Persisted, carries the new identity
	require.NoError(t, sheet.BeginSubmit())
	sheet.CompleteSubmit("ts-9", "INV-000002")
	assert.Equal(t, timesheet.StatePersisted, sheet.State())
	assert.True(t, sheet.IsUpdate())
	assert.Equal(t, "INV-000002", sheet.InvoiceNumber)
}

func TestSheet_BeginSubmit_RequiresCompleteSelection(t *testing.T) {
	sel := testSelection()
	sel.PositionID = ""
	sheet := timesheet.NewSheet(sel, overtimeProfile(40))
	sheet.SeedNew("INV-000001")

	err := sheet.BeginSubmit()
	assert.ErrorIs(t, err, timesheet.ErrMissingSelection)
	assert.True(t, timesheet.IsClientError(err))
}

// =============================================================================
// NOTICES
// =============================================================================

func TestNotice_ExpiresByValue(t *testing.T) {
	now := time.Date(2024, time.June, 5, 12, 0, 0, 0, time.UTC)
	n := timesheet.NewNotice(timesheet.NoticeSuccess, "saved", now)

	assert.True(t, n.ActiveAt(now))
	assert.True(t, n.ActiveAt(now.Add(timesheet.NoticeTTL-time.Millisecond)))
	assert.False(t, n.ActiveAt(now.Add(timesheet.NoticeTTL)))
	assert.False(t, timesheet.Notice{}.ActiveAt(now))
}
