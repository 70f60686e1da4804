/*
Package sqlite provides a SQLite-backed implementation of the persistence
gateway.

PURPOSE:
  Implements reconcile.Gateway plus the position rate-profile read path
  using SQLite. In production the same patterns apply to PostgreSQL - only
  minor SQL dialect differences.

KEY TABLES:
  timesheets:            One row per (jobseeker, position, week)
  timesheet_daily_hours: Seven rows per timesheet, replaced on update
  positions:             Rate profile source for the engine
  invoice_sequence:      Monotonic source for invoice numbers

FIELD NORMALIZATION:
  Column names are mapped to Record fields exactly once, in scanTimesheet
  and the insert/update statements. Nothing outside this package ever
  probes alternate spellings of the same logical field.

UNIQUENESS:
  idx_timesheets_unique enforces at most one persisted timesheet per
  (jobseeker_user_id, position_id, week_start) - the reconciliation key.

PRECISION:
  Hours and money are stored as decimal strings, never as REAL. Dates are
  ISO (YYYY-MM-DD) TEXT.

WAL MODE:
  Opened with WAL for better concurrency; multiple readers don't block and
  crash recovery improves.

USAGE:
  gw, err := sqlite.New("./data/staffing.db")
  if err != nil { ... }
  defer gw.Close()
  rec := reconcile.New(gw, log)

SEE ALSO:
  - reconcile/gateway.go: interface and record shape
  - reconcile/store/memory.go: in-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/crewdesk/staffing-engine/reconcile"
	"github.com/crewdesk/staffing-engine/timesheet"
)

// Store implements reconcile.Gateway and the position read path using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection: writes are serialized by s.mu anyway, and a pooled
	// second connection to ":memory:" would see a different database.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Weekly timesheets (one per jobseeker/position/week)
	CREATE TABLE IF NOT EXISTS timesheets (
		id TEXT PRIMARY KEY,
		jobseeker_profile_id TEXT NOT NULL,
		jobseeker_user_id TEXT NOT NULL,
		position_id TEXT NOT NULL,
		week_start TEXT NOT NULL,
		week_end TEXT NOT NULL,
		total_regular_hours TEXT NOT NULL,
		total_overtime_hours TEXT NOT NULL,
		regular_pay_rate TEXT NOT NULL,
		overtime_pay_rate TEXT NOT NULL,
		regular_bill_rate TEXT NOT NULL,
		overtime_bill_rate TEXT NOT NULL,
		total_jobseeker_pay TEXT NOT NULL,
		total_client_bill TEXT NOT NULL,
		bonus_amount TEXT NOT NULL,
		deduction_amount TEXT NOT NULL,
		overtime_enabled BOOLEAN NOT NULL,
		markup TEXT,
		email_sent BOOLEAN DEFAULT FALSE,
		invoice_number TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- CRITICAL: at most one persisted timesheet per reconciliation key
	CREATE UNIQUE INDEX IF NOT EXISTS idx_timesheets_unique
		ON timesheets(jobseeker_user_id, position_id, week_start);

	CREATE INDEX IF NOT EXISTS idx_timesheets_user_week
		ON timesheets(jobseeker_user_id, week_start);
	CREATE INDEX IF NOT EXISTS idx_timesheets_position
		ON timesheets(position_id);

	-- Per-day hours, replaced wholesale on update
	CREATE TABLE IF NOT EXISTS timesheet_daily_hours (
		timesheet_id TEXT NOT NULL,
		date TEXT NOT NULL,
		hours TEXT NOT NULL,
		PRIMARY KEY (timesheet_id, date)
	);

	-- Positions (rate profile source; full CRUD lives elsewhere)
	CREATE TABLE IF NOT EXISTS positions (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		client_name TEXT,
		regular_pay_rate TEXT NOT NULL,
		regular_bill_rate TEXT NOT NULL,
		overtime_enabled BOOLEAN DEFAULT FALSE,
		overtime_threshold_hours TEXT,
		overtime_pay_rate TEXT,
		overtime_bill_rate TEXT,
		markup TEXT,
		created_at TEXT NOT NULL
	);

	-- Invoice number source
	CREATE TABLE IF NOT EXISTS invoice_sequence (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		created_at TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// GATEWAY (reconcile.Gateway interface)
// =============================================================================

// LookupByJobseekerAndWeek returns the jobseeker's persisted timesheets
// whose week starts within [weekStart, weekEnd].
func (s *Store) LookupByJobseekerAndWeek(ctx context.Context, userID timesheet.JobseekerUserID, weekStart, weekEnd timesheet.Date) ([]reconcile.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, selectTimesheet+`
		WHERE jobseeker_user_id = ? AND week_start >= ? AND week_start <= ?
		ORDER BY week_start, position_id`,
		userID, weekStart.String(), weekEnd.String())
	if err != nil {
		return nil, fmt.Errorf("lookup timesheets: %w", err)
	}
	defer rows.Close()

	return s.collectRecords(ctx, rows)
}

// GenerateInvoiceNumber returns a fresh invoice identifier backed by the
// sequence table.
func (s *Store) GenerateInvoiceNumber(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.nextInvoiceNumber(ctx)
}

func (s *Store) nextInvoiceNumber(ctx context.Context) (string, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO invoice_sequence (created_at) VALUES (?)`,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return "", fmt.Errorf("generate invoice number: %w", err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("generate invoice number: %w", err)
	}
	return fmt.Sprintf("INV-%06d", seq), nil
}

// Create persists a new timesheet with its daily hours. A placeholder
// invoice number is healed with a real one at this point.
func (s *Store) Create(ctx context.Context, payload reconcile.Record) (reconcile.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if payload.InvoiceNumber == "" || payload.InvoiceNumber == reconcile.InvoicePlaceholder {
		invoice, err := s.nextInvoiceNumber(ctx)
		if err != nil {
			return reconcile.Record{}, err
		}
		payload.InvoiceNumber = invoice
	}

	payload.ID = timesheet.TimesheetID(uuid.NewString())
	now := time.Now().UTC().Format(time.RFC3339)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return reconcile.Record{}, fmt.Errorf("create timesheet: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO timesheets
		(id, jobseeker_profile_id, jobseeker_user_id, position_id,
		 week_start, week_end,
		 total_regular_hours, total_overtime_hours,
		 regular_pay_rate, overtime_pay_rate, regular_bill_rate, overtime_bill_rate,
		 total_jobseeker_pay, total_client_bill,
		 bonus_amount, deduction_amount,
		 overtime_enabled, markup, email_sent, invoice_number,
		 created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		payload.ID,
		payload.JobseekerProfileID,
		payload.JobseekerUserID,
		payload.PositionID,
		payload.WeekStart.String(),
		payload.WeekEnd.String(),
		payload.TotalRegularHours.String(),
		payload.TotalOvertimeHours.String(),
		payload.RegularPayRate.String(),
		payload.OvertimePayRate.String(),
		payload.RegularBillRate.String(),
		payload.OvertimeBillRate.String(),
		payload.TotalJobseekerPay.String(),
		payload.TotalClientBill.String(),
		payload.BonusAmount.String(),
		payload.DeductionAmount.String(),
		payload.OvertimeEnabled,
		payload.Markup.String(),
		payload.EmailSent,
		payload.InvoiceNumber,
		now, now,
	)
	if err != nil {
		return reconcile.Record{}, fmt.Errorf("create timesheet: %w", err)
	}

	if err := insertDailyHours(ctx, tx, payload.ID, payload.DailyHours); err != nil {
		return reconcile.Record{}, err
	}

	if err := tx.Commit(); err != nil {
		return reconcile.Record{}, fmt.Errorf("create timesheet: %w", err)
	}
	return payload, nil
}

// Update replaces an existing timesheet in full. Identity and invoice
// number are stable across updates.
func (s *Store) Update(ctx context.Context, id timesheet.TimesheetID, payload reconcile.Record) (reconcile.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return reconcile.Record{}, fmt.Errorf("update timesheet: %w", err)
	}
	defer tx.Rollback()

	var invoice string
	err = tx.QueryRowContext(ctx,
		`SELECT invoice_number FROM timesheets WHERE id = ?`, id).Scan(&invoice)
	if err == sql.ErrNoRows {
		return reconcile.Record{}, fmt.Errorf("update timesheet %s: not found", id)
	}
	if err != nil {
		return reconcile.Record{}, fmt.Errorf("update timesheet: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE timesheets SET
			total_regular_hours = ?, total_overtime_hours = ?,
			regular_pay_rate = ?, overtime_pay_rate = ?,
			regular_bill_rate = ?, overtime_bill_rate = ?,
			total_jobseeker_pay = ?, total_client_bill = ?,
			bonus_amount = ?, deduction_amount = ?,
			overtime_enabled = ?, markup = ?, email_sent = ?,
			updated_at = ?
		WHERE id = ?`,
		payload.TotalRegularHours.String(),
		payload.TotalOvertimeHours.String(),
		payload.RegularPayRate.String(),
		payload.OvertimePayRate.String(),
		payload.RegularBillRate.String(),
		payload.OvertimeBillRate.String(),
		payload.TotalJobseekerPay.String(),
		payload.TotalClientBill.String(),
		payload.BonusAmount.String(),
		payload.DeductionAmount.String(),
		payload.OvertimeEnabled,
		payload.Markup.String(),
		payload.EmailSent,
		time.Now().UTC().Format(time.RFC3339),
		id,
	)
	if err != nil {
		return reconcile.Record{}, fmt.Errorf("update timesheet: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM timesheet_daily_hours WHERE timesheet_id = ?`, id); err != nil {
		return reconcile.Record{}, fmt.Errorf("update timesheet: %w", err)
	}
	if err := insertDailyHours(ctx, tx, id, payload.DailyHours); err != nil {
		return reconcile.Record{}, err
	}

	if err := tx.Commit(); err != nil {
		return reconcile.Record{}, fmt.Errorf("update timesheet: %w", err)
	}

	payload.ID = id
	payload.InvoiceNumber = invoice
	return payload, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertDailyHours(ctx context.Context, db execer, id timesheet.TimesheetID, days []timesheet.PersistedDay) error {
	for _, d := range days {
		_, err := db.ExecContext(ctx,
			`INSERT INTO timesheet_daily_hours (timesheet_id, date, hours) VALUES (?, ?, ?)`,
			id, d.Date.String(), d.Hours.String())
		if err != nil {
			return fmt.Errorf("insert daily hours: %w", err)
		}
	}
	return nil
}

// =============================================================================
// LIST QUERIES - Explicit filter builder, invoked by explicit search events
// =============================================================================

// ListQuery is the filter set for persisted timesheet listings. Zero-valued
// fields are not applied.
type ListQuery struct {
	JobseekerUserID timesheet.JobseekerUserID
	PositionID      timesheet.PositionID
	WeekStartFrom   timesheet.Date
	WeekStartTo     timesheet.Date
	Limit           int
}

func (q ListQuery) build() (string, []any) {
	var conds []string
	var args []any

	if q.JobseekerUserID != "" {
		conds = append(conds, "jobseeker_user_id = ?")
		args = append(args, q.JobseekerUserID)
	}
	if q.PositionID != "" {
		conds = append(conds, "position_id = ?")
		args = append(args, q.PositionID)
	}
	if !q.WeekStartFrom.IsZero() {
		conds = append(conds, "week_start >= ?")
		args = append(args, q.WeekStartFrom.String())
	}
	if !q.WeekStartTo.IsZero() {
		conds = append(conds, "week_start <= ?")
		args = append(args, q.WeekStartTo.String())
	}

	clause := ""
	if len(conds) > 0 {
		clause = " WHERE " + strings.Join(conds, " AND ")
	}
	clause += " ORDER BY week_start DESC, position_id"
	if q.Limit > 0 {
		clause += " LIMIT ?"
		args = append(args, q.Limit)
	}
	return clause, args
}

// List returns persisted timesheets matching the query, most recent first.
func (s *Store) List(ctx context.Context, q ListQuery) ([]reconcile.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	clause, args := q.build()
	rows, err := s.db.QueryContext(ctx, selectTimesheet+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("list timesheets: %w", err)
	}
	defer rows.Close()

	return s.collectRecords(ctx, rows)
}

// Get returns one persisted timesheet by ID.
func (s *Store) Get(ctx context.Context, id timesheet.TimesheetID) (reconcile.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, selectTimesheet+` WHERE id = ?`, id)
	rec, err := scanTimesheet(row)
	if err == sql.ErrNoRows {
		return reconcile.Record{}, fmt.Errorf("timesheet %s: not found", id)
	}
	if err != nil {
		return reconcile.Record{}, fmt.Errorf("get timesheet: %w", err)
	}

	rec.DailyHours, err = s.loadDailyHours(ctx, rec.ID)
	if err != nil {
		return reconcile.Record{}, err
	}
	return rec, nil
}

// =============================================================================
// ROW MAPPING - The single place column names meet Record fields
// =============================================================================

const selectTimesheet = `
	SELECT id, jobseeker_profile_id, jobseeker_user_id, position_id,
	       week_start, week_end,
	       total_regular_hours, total_overtime_hours,
	       regular_pay_rate, overtime_pay_rate, regular_bill_rate, overtime_bill_rate,
	       total_jobseeker_pay, total_client_bill,
	       bonus_amount, deduction_amount,
	       overtime_enabled, markup, email_sent, invoice_number
	FROM timesheets`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTimesheet(row rowScanner) (reconcile.Record, error) {
	var rec reconcile.Record
	var weekStart, weekEnd string
	var regular, overtime, payRate, otPayRate, billRate, otBillRate string
	var pay, bill, bonus, deduction string
	var markup sql.NullString

	err := row.Scan(
		&rec.ID, &rec.JobseekerProfileID, &rec.JobseekerUserID, &rec.PositionID,
		&weekStart, &weekEnd,
		&regular, &overtime,
		&payRate, &otPayRate, &billRate, &otBillRate,
		&pay, &bill,
		&bonus, &deduction,
		&rec.OvertimeEnabled, &markup, &rec.EmailSent, &rec.InvoiceNumber,
	)
	if err != nil {
		return reconcile.Record{}, err
	}

	if rec.WeekStart, err = timesheet.ParseDate(weekStart); err != nil {
		return reconcile.Record{}, fmt.Errorf("scan timesheet: %w", err)
	}
	if rec.WeekEnd, err = timesheet.ParseDate(weekEnd); err != nil {
		return reconcile.Record{}, fmt.Errorf("scan timesheet: %w", err)
	}

	rec.TotalRegularHours = timesheet.MustParseDecimal(regular)
	rec.TotalOvertimeHours = timesheet.MustParseDecimal(overtime)
	rec.RegularPayRate = timesheet.MustParseDecimal(payRate)
	rec.OvertimePayRate = timesheet.MustParseDecimal(otPayRate)
	rec.RegularBillRate = timesheet.MustParseDecimal(billRate)
	rec.OvertimeBillRate = timesheet.MustParseDecimal(otBillRate)
	rec.TotalJobseekerPay = timesheet.MustParseDecimal(pay)
	rec.TotalClientBill = timesheet.MustParseDecimal(bill)
	rec.BonusAmount = timesheet.MustParseDecimal(bonus)
	rec.DeductionAmount = timesheet.MustParseDecimal(deduction)
	if markup.Valid {
		rec.Markup = timesheet.MustParseDecimal(markup.String)
	}
	return rec, nil
}

func (s *Store) collectRecords(ctx context.Context, rows *sql.Rows) ([]reconcile.Record, error) {
	var records []reconcile.Record
	for rows.Next() {
		rec, err := scanTimesheet(rows)
		if err != nil {
			return nil, fmt.Errorf("scan timesheet: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range records {
		days, err := s.loadDailyHours(ctx, records[i].ID)
		if err != nil {
			return nil, err
		}
		records[i].DailyHours = days
	}
	return records, nil
}

func (s *Store) loadDailyHours(ctx context.Context, id timesheet.TimesheetID) ([]timesheet.PersistedDay, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT date, hours FROM timesheet_daily_hours WHERE timesheet_id = ? ORDER BY date`, id)
	if err != nil {
		return nil, fmt.Errorf("load daily hours: %w", err)
	}
	defer rows.Close()

	var days []timesheet.PersistedDay
	for rows.Next() {
		var dateStr, hoursStr string
		if err := rows.Scan(&dateStr, &hoursStr); err != nil {
			return nil, fmt.Errorf("load daily hours: %w", err)
		}
		date, err := timesheet.ParseDate(dateStr)
		if err != nil {
			return nil, fmt.Errorf("load daily hours: %w", err)
		}
		days = append(days, timesheet.PersistedDay{Date: date, Hours: timesheet.MustParseDecimal(hoursStr)})
	}
	return days, rows.Err()
}
