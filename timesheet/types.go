/*
Package timesheet provides the weekly timesheet computation engine.

PURPOSE:
  This package contains the core types and algorithms for turning per-day
  hour entries into a regulatory-correct regular/overtime split, and for
  deriving jobseeker pay and client billing amounts from that split.

KEY CONCEPTS IN THIS FILE (types.go):
  - PositionID / JobseekerProfileID / JobseekerUserID: type-safe identifiers
  - Key: the (position, week-start) reconciliation key as a value type
  - RateProfile: the position's pay/bill rates and overtime configuration
  - Selection: the (jobseeker, position, week) triple that scopes a sheet

DESIGN PRINCIPLES:
  1. Precision: uses decimal.Decimal for hours and money, never float math
  2. Type safety: strong typing for IDs prevents mixing position/jobseeker IDs
  3. Value keys: composite lookups use struct keys, never concatenated strings
  4. Derivation: totals and money amounts are always recomputed, never stored
     independently of the entries that produce them

SEE ALSO:
  - week.go: calendar week boundaries
  - overtime.go: the regular/overtime split and per-day redistribution
  - pay.go: pay and bill derivation
  - sheet.go: the WeeklyTimesheet aggregate
*/
package timesheet

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type PositionID string
type JobseekerProfileID string
type JobseekerUserID string
type TimesheetID string

// Key identifies a weekly timesheet for reconciliation purposes.
// Exactly one persisted record may exist per Key per jobseeker.
//
// This is deliberately a comparable struct, used directly for lookup and
// equality. Composite identity is never encoded by string concatenation.
type Key struct {
	PositionID PositionID
	WeekStart  Date
}

// Selection is the (jobseeker, position, week) triple that scopes one
// working WeeklyTimesheet. Changing any element discards the working sheet.
type Selection struct {
	JobseekerProfileID JobseekerProfileID
	JobseekerUserID    JobseekerUserID
	PositionID         PositionID
	Week               Week
}

// Complete reports whether all three selectors are set.
func (s Selection) Complete() bool {
	return s.JobseekerProfileID != "" && s.JobseekerUserID != "" &&
		s.PositionID != "" && !s.Week.Start.IsZero()
}

// Key returns the reconciliation key for this selection.
func (s Selection) Key() Key {
	return Key{PositionID: s.PositionID, WeekStart: s.Week.Start}
}

// =============================================================================
// RATE PROFILE - Read-only input owned by position management
// =============================================================================

// DefaultOvertimeThreshold is the weekly hour count beyond which hours are
// classified as overtime when a position enables overtime but does not set
// its own threshold.
var DefaultOvertimeThreshold = decimal.NewFromInt(40)

// RateProfile is the snapshot of a position's rates consumed by the engine.
// Zero-valued overtime rates fall back to the regular rates; a zero
// threshold falls back to DefaultOvertimeThreshold.
type RateProfile struct {
	RegularPayRate  decimal.Decimal
	RegularBillRate decimal.Decimal

	OvertimeEnabled        bool
	OvertimeThresholdHours decimal.Decimal
	OvertimePayRate        decimal.Decimal
	OvertimeBillRate       decimal.Decimal

	// Markup is a position-level margin figure carried through to persisted
	// records. The engine never computes with it.
	Markup decimal.Decimal
}

// Threshold returns the effective weekly overtime threshold.
func (p RateProfile) Threshold() decimal.Decimal {
	if p.OvertimeThresholdHours.IsPositive() {
		return p.OvertimeThresholdHours
	}
	return DefaultOvertimeThreshold
}

// EffectiveOvertimePayRate returns the overtime pay rate, falling back to
// the regular pay rate when overtime pricing is absent or disabled.
func (p RateProfile) EffectiveOvertimePayRate() decimal.Decimal {
	if p.OvertimeEnabled && p.OvertimePayRate.IsPositive() {
		return p.OvertimePayRate
	}
	return p.RegularPayRate
}

// EffectiveOvertimeBillRate returns the overtime bill rate with the same
// fallback rule as pay.
func (p RateProfile) EffectiveOvertimeBillRate() decimal.Decimal {
	if p.OvertimeEnabled && p.OvertimeBillRate.IsPositive() {
		return p.OvertimeBillRate
	}
	return p.RegularBillRate
}

// =============================================================================
// DECIMAL HELPERS
// =============================================================================

// Tolerance used when comparing derived hour totals. Redistribution divides
// and re-multiplies, so sums are exact only to within this epsilon.
var Tolerance = decimal.New(1, -6) // 1e-6

func NewHours(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ApproxEqual reports whether a and b differ by less than Tolerance.
func ApproxEqual(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThan(Tolerance)
}
