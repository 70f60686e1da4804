/*
overtime.go - Weekly regular/overtime split and per-day redistribution

PURPOSE:
  Splits a week's total worked hours into regular and overtime at the
  position's threshold, then redistributes the overtime across the seven
  days proportionally to each day's share of the weekly total.

ALGORITHM:
  1. weeklyTotal = sum(entries[i].Hours)
  2. Overtime disabled: regular = weeklyTotal, overtime = 0, every per-day
     overtime figure is zeroed. Terminal.
  3. Overtime enabled: regular = min(weeklyTotal, threshold),
     overtime = max(0, weeklyTotal - threshold).
  4. overtime > 0: each entry gets overtime * (hours / weeklyTotal).
     Zero-hour days get zero.
  5. weeklyTotal == 0 or overtime == 0: all per-day overtime is zero.
     No division is ever attempted against a zero total.

INVARIANTS:
  - regular + overtime == weeklyTotal, exactly
  - sum(per-day overtime) == overtime within Tolerance whenever the weekly
    total is positive

NOTE:
  The proportional per-day redistribution exists only to present a per-day
  breakdown. The weekly regular/overtime totals are the authoritative
  figures; payroll and billing are computed from those, never from the
  per-day values.
*/
package timesheet

import (
	"github.com/shopspring/decimal"
)

// Split is the weekly regular/overtime division.
type Split struct {
	Total    decimal.Decimal
	Regular  decimal.Decimal
	Overtime decimal.Decimal
}

// AllocateOvertime computes the weekly split for the given entries and rate
// profile, and rewrites every entry's OvertimeHours in place.
func AllocateOvertime(entries []DailyEntry, profile RateProfile) Split {
	total := WeeklyTotal(entries)

	if !profile.OvertimeEnabled {
		for i := range entries {
			entries[i].OvertimeHours = decimal.Zero
		}
		return Split{Total: total, Regular: total, Overtime: decimal.Zero}
	}

	threshold := profile.Threshold()
	regular := decimal.Min(total, threshold)
	overtime := decimal.Max(decimal.Zero, total.Sub(threshold))

	if overtime.IsPositive() && total.IsPositive() {
		for i := range entries {
			if entries[i].Hours.IsPositive() {
				entries[i].OvertimeHours = overtime.Mul(entries[i].Hours.Div(total))
			} else {
				entries[i].OvertimeHours = decimal.Zero
			}
		}
	} else {
		for i := range entries {
			entries[i].OvertimeHours = decimal.Zero
		}
	}

	return Split{Total: total, Regular: regular, Overtime: overtime}
}

// DistributedOvertime sums the per-day overtime figures. Equal to the weekly
// overtime total within Tolerance whenever the weekly total is positive.
func DistributedOvertime(entries []DailyEntry) decimal.Decimal {
	sum := decimal.Zero
	for _, e := range entries {
		sum = sum.Add(e.OvertimeHours)
	}
	return sum
}
