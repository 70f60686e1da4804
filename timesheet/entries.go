package timesheet

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// DAILY ENTRY - One day's worked hours within a week
// =============================================================================

// DailyEntry is a single day of a weekly timesheet. OvertimeHours is derived
// by the allocator (overtime.go) and is never read from storage past the
// initial seed pass. Overtime is a property of the week, not of a day.
type DailyEntry struct {
	Date          Date
	Hours         decimal.Decimal
	OvertimeHours decimal.Decimal
}

// PersistedDay is the stored per-day shape exchanged with the gateway.
type PersistedDay struct {
	Date  Date
	Hours decimal.Decimal
}

// SeedEntries produces exactly 7 entries for the week, in date order.
// Hours come from the matching persisted day when one exists, else zero.
// OvertimeHours always starts at zero; the allocator owns it.
func SeedEntries(week Week, persisted []PersistedDay) []DailyEntry {
	byDate := make(map[Date]decimal.Decimal, len(persisted))
	for _, p := range persisted {
		byDate[p.Date] = p.Hours
	}

	entries := make([]DailyEntry, 7)
	for i, day := range week.Days() {
		entries[i] = DailyEntry{Date: day, Hours: byDate[day]}
	}
	return entries
}

// EmptyEntries produces the 7 zero-hour entries for a week with no
// persisted record.
func EmptyEntries(week Week) []DailyEntry {
	return SeedEntries(week, nil)
}

// WeeklyTotal sums the worked hours across entries.
func WeeklyTotal(entries []DailyEntry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Hours)
	}
	return total
}
