/*
pay.go - Jobseeker pay and client bill derivation

PURPOSE:
  Pure derivation of money amounts from a weekly regular/overtime split,
  a position rate profile, and the user-entered bonus/deduction.

RULES:
  - Overtime rates fall back to the regular rates when absent or when the
    position has overtime disabled (RateProfile.Effective* methods).
  - Bonus and deduction are clamped to >= 0 at the point of entry
    (sheet.go setters). There is NO floor on net pay: a large deduction may
    legitimately produce a zero or negative jobseeker pay, which is
    surfaced as-is rather than silently clamped.
  - Bonus and deduction never affect the client bill.

Recomputed synchronously whenever entries, bonus or deduction change; there
is no cached or stale money state anywhere in the engine.
*/
package timesheet

import (
	"github.com/shopspring/decimal"
)

// Totals is the money outcome of one week.
type Totals struct {
	BasePay      decimal.Decimal // regular + overtime pay, before adjustments
	JobseekerPay decimal.Decimal // base pay + bonus - deduction
	ClientBill   decimal.Decimal
}

// ComputeTotals derives pay and bill from a weekly split.
func ComputeTotals(split Split, profile RateProfile, bonus, deduction decimal.Decimal) Totals {
	payRate := profile.RegularPayRate
	otPayRate := profile.EffectiveOvertimePayRate()
	billRate := profile.RegularBillRate
	otBillRate := profile.EffectiveOvertimeBillRate()

	basePay := split.Regular.Mul(payRate).Add(split.Overtime.Mul(otPayRate))

	return Totals{
		BasePay:      basePay,
		JobseekerPay: basePay.Add(bonus).Sub(deduction),
		ClientBill:   split.Regular.Mul(billRate).Add(split.Overtime.Mul(otBillRate)),
	}
}
