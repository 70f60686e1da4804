package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/crewdesk/staffing-engine/timesheet"
)

// =============================================================================
// POSITIONS - Rate profile source
// =============================================================================

// Position is the stored position shape. The engine only consumes its rate
// profile; client/position management screens live outside this system.
type Position struct {
	ID         timesheet.PositionID
	Title      string
	ClientName string

	RegularPayRate  decimal.Decimal
	RegularBillRate decimal.Decimal

	OvertimeEnabled        bool
	OvertimeThresholdHours decimal.Decimal
	OvertimePayRate        decimal.Decimal
	OvertimeBillRate       decimal.Decimal

	Markup decimal.Decimal
}

// RateProfile returns the snapshot consumed by the computation engine.
func (p Position) RateProfile() timesheet.RateProfile {
	return timesheet.RateProfile{
		RegularPayRate:         p.RegularPayRate,
		RegularBillRate:        p.RegularBillRate,
		OvertimeEnabled:        p.OvertimeEnabled,
		OvertimeThresholdHours: p.OvertimeThresholdHours,
		OvertimePayRate:        p.OvertimePayRate,
		OvertimeBillRate:       p.OvertimeBillRate,
		Markup:                 p.Markup,
	}
}

// SavePosition inserts or replaces a position.
func (s *Store) SavePosition(ctx context.Context, p Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO positions
		(id, title, client_name,
		 regular_pay_rate, regular_bill_rate,
		 overtime_enabled, overtime_threshold_hours, overtime_pay_rate, overtime_bill_rate,
		 markup, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Title, p.ClientName,
		p.RegularPayRate.String(), p.RegularBillRate.String(),
		p.OvertimeEnabled, p.OvertimeThresholdHours.String(),
		p.OvertimePayRate.String(), p.OvertimeBillRate.String(),
		p.Markup.String(), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("save position: %w", err)
	}
	return nil
}

// GetPosition returns a position by ID.
func (s *Store) GetPosition(ctx context.Context, id timesheet.PositionID) (Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, selectPosition+` WHERE id = ?`, id)
	p, err := scanPosition(row)
	if err == sql.ErrNoRows {
		return Position{}, fmt.Errorf("position %s: not found", id)
	}
	if err != nil {
		return Position{}, fmt.Errorf("get position: %w", err)
	}
	return p, nil
}

// ListPositions returns all positions, ordered by title.
func (s *Store) ListPositions(ctx context.Context) ([]Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, selectPosition+` ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("list positions: %w", err)
	}
	defer rows.Close()

	var positions []Position
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

const selectPosition = `
	SELECT id, title, client_name,
	       regular_pay_rate, regular_bill_rate,
	       overtime_enabled, overtime_threshold_hours, overtime_pay_rate, overtime_bill_rate,
	       markup
	FROM positions`

func scanPosition(row rowScanner) (Position, error) {
	var p Position
	var clientName sql.NullString
	var payRate, billRate string
	var threshold, otPay, otBill, markup sql.NullString

	err := row.Scan(
		&p.ID, &p.Title, &clientName,
		&payRate, &billRate,
		&p.OvertimeEnabled, &threshold, &otPay, &otBill,
		&markup,
	)
	if err != nil {
		return Position{}, err
	}

	p.ClientName = clientName.String
	p.RegularPayRate = timesheet.MustParseDecimal(payRate)
	p.RegularBillRate = timesheet.MustParseDecimal(billRate)
	if threshold.Valid {
		p.OvertimeThresholdHours = timesheet.MustParseDecimal(threshold.String)
	}
	if otPay.Valid {
		p.OvertimePayRate = timesheet.MustParseDecimal(otPay.String)
	}
	if otBill.Valid {
		p.OvertimeBillRate = timesheet.MustParseDecimal(otBill.String)
	}
	if markup.Valid {
		p.Markup = timesheet.MustParseDecimal(markup.String)
	}
	return p, nil
}
