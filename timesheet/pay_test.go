package timesheet_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/crewdesk/staffing-engine/timesheet"
)

func split(regular, overtime int64) timesheet.Split {
	r := decimal.NewFromInt(regular)
	o := decimal.NewFromInt(overtime)
	return timesheet.Split{Total: r.Add(o), Regular: r, Overtime: o}
}

func TestComputeTotals_RegularAndOvertimeRates(t *testing.T) {
	// GIVEN: pay 20/30, regular=40, overtime=8, bonus=50, deduction=20
	// THEN: pay = 40*20 + 8*30 + 50 - 20 = 1070

	profile := timesheet.RateProfile{
		RegularPayRate:  decimal.NewFromInt(20),
		RegularBillRate: decimal.NewFromInt(35),
		OvertimeEnabled: true,
		OvertimePayRate: decimal.NewFromInt(30),
	}

	totals := timesheet.ComputeTotals(split(40, 8), profile,
		decimal.NewFromInt(50), decimal.NewFromInt(20))

	assert.True(t, totals.BasePay.Equal(decimal.NewFromInt(1040)), "base: %s", totals.BasePay)
	assert.True(t, totals.JobseekerPay.Equal(decimal.NewFromInt(1070)), "pay: %s", totals.JobseekerPay)
	// Bill: overtime bill rate absent, falls back to regular 35
	assert.True(t, totals.ClientBill.Equal(decimal.NewFromInt(48*35)), "bill: %s", totals.ClientBill)
}

func TestComputeTotals_OvertimeRateFallback(t *testing.T) {
	// Overtime enabled but no overtime pay rate set: regular rate applies
	profile := timesheet.RateProfile{
		RegularPayRate:  decimal.NewFromInt(20),
		RegularBillRate: decimal.NewFromInt(30),
		OvertimeEnabled: true,
	}

	totals := timesheet.ComputeTotals(split(40, 8), profile, decimal.Zero, decimal.Zero)
	assert.True(t, totals.JobseekerPay.Equal(decimal.NewFromInt(48*20)))
	assert.True(t, totals.ClientBill.Equal(decimal.NewFromInt(48*30)))
}

func TestComputeTotals_NegativeNetPaySurfaced(t *testing.T) {
	// A deduction larger than base pay must surface a negative total,
	// never a silent clamp to zero.
	profile := timesheet.RateProfile{
		RegularPayRate:  decimal.NewFromInt(10),
		RegularBillRate: decimal.NewFromInt(15),
	}

	totals := timesheet.ComputeTotals(split(4, 0), profile,
		decimal.Zero, decimal.NewFromInt(100))

	assert.True(t, totals.JobseekerPay.Equal(decimal.NewFromInt(-60)), "pay: %s", totals.JobseekerPay)
	// The bill never sees bonus or deduction
	assert.True(t, totals.ClientBill.Equal(decimal.NewFromInt(60)))
}

func TestEffectiveRates_DisabledOvertimeUsesRegular(t *testing.T) {
	// Overtime pricing configured but overtime disabled: regular rates win
	profile := timesheet.RateProfile{
		RegularPayRate:   decimal.NewFromInt(20),
		RegularBillRate:  decimal.NewFromInt(30),
		OvertimePayRate:  decimal.NewFromInt(99),
		OvertimeBillRate: decimal.NewFromInt(99),
	}

	assert.True(t, profile.EffectiveOvertimePayRate().Equal(decimal.NewFromInt(20)))
	assert.True(t, profile.EffectiveOvertimeBillRate().Equal(decimal.NewFromInt(30)))
}
