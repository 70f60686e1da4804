/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY AND HOURS:
  Serialized as JSON numbers. Precision is owned by the decimal types
  inside the engine; DTO conversion is the only float boundary.

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"github.com/shopspring/decimal"

	"github.com/crewdesk/staffing-engine/reconcile"
	"github.com/crewdesk/staffing-engine/store/sqlite"
	"github.com/crewdesk/staffing-engine/timesheet"
)

// =============================================================================
// WEEKS
// =============================================================================

type WeekDTO struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// =============================================================================
// POSITIONS
// =============================================================================

type PositionDTO struct {
	ID                     string  `json:"id"`
	Title                  string  `json:"title"`
	ClientName             string  `json:"client_name,omitempty"`
	RegularPayRate         float64 `json:"regular_pay_rate"`
	RegularBillRate        float64 `json:"regular_bill_rate"`
	OvertimeEnabled        bool    `json:"overtime_enabled"`
	OvertimeThresholdHours float64 `json:"overtime_threshold_hours,omitempty"`
	OvertimePayRate        float64 `json:"overtime_pay_rate,omitempty"`
	OvertimeBillRate       float64 `json:"overtime_bill_rate,omitempty"`
	Markup                 float64 `json:"markup,omitempty"`
}

type SavePositionRequest struct {
	ID                     string  `json:"id"`
	Title                  string  `json:"title"`
	ClientName             string  `json:"client_name"`
	RegularPayRate         float64 `json:"regular_pay_rate"`
	RegularBillRate        float64 `json:"regular_bill_rate"`
	OvertimeEnabled        bool    `json:"overtime_enabled"`
	OvertimeThresholdHours float64 `json:"overtime_threshold_hours"`
	OvertimePayRate        float64 `json:"overtime_pay_rate"`
	OvertimeBillRate       float64 `json:"overtime_bill_rate"`
	Markup                 float64 `json:"markup"`
}

func toPositionDTO(p sqlite.Position) PositionDTO {
	return PositionDTO{
		ID:                     string(p.ID),
		Title:                  p.Title,
		ClientName:             p.ClientName,
		RegularPayRate:         p.RegularPayRate.InexactFloat64(),
		RegularBillRate:        p.RegularBillRate.InexactFloat64(),
		OvertimeEnabled:        p.OvertimeEnabled,
		OvertimeThresholdHours: p.OvertimeThresholdHours.InexactFloat64(),
		OvertimePayRate:        p.OvertimePayRate.InexactFloat64(),
		OvertimeBillRate:       p.OvertimeBillRate.InexactFloat64(),
		Markup:                 p.Markup.InexactFloat64(),
	}
}

func (r SavePositionRequest) toPosition() sqlite.Position {
	return sqlite.Position{
		ID:                     timesheet.PositionID(r.ID),
		Title:                  r.Title,
		ClientName:             r.ClientName,
		RegularPayRate:         decimal.NewFromFloat(r.RegularPayRate),
		RegularBillRate:        decimal.NewFromFloat(r.RegularBillRate),
		OvertimeEnabled:        r.OvertimeEnabled,
		OvertimeThresholdHours: decimal.NewFromFloat(r.OvertimeThresholdHours),
		OvertimePayRate:        decimal.NewFromFloat(r.OvertimePayRate),
		OvertimeBillRate:       decimal.NewFromFloat(r.OvertimeBillRate),
		Markup:                 decimal.NewFromFloat(r.Markup),
	}
}

// =============================================================================
// TIMESHEETS
// =============================================================================

type DailyEntryDTO struct {
	Date          string  `json:"date"`
	Hours         float64 `json:"hours"`
	OvertimeHours float64 `json:"overtime_hours"`
}

type DailyHoursInput struct {
	Date  string  `json:"date"`
	Hours float64 `json:"hours"`
}

// TimesheetDTO is the computed working-sheet state returned by open and
// preview.
type TimesheetDTO struct {
	JobseekerProfileID  string          `json:"jobseeker_profile_id"`
	JobseekerUserID     string          `json:"jobseeker_user_id"`
	PositionID          string          `json:"position_id"`
	WeekStart           string          `json:"week_start"`
	WeekEnd             string          `json:"week_end"`
	Entries             []DailyEntryDTO `json:"entries"`
	TotalRegularHours   float64         `json:"total_regular_hours"`
	TotalOvertimeHours  float64         `json:"total_overtime_hours"`
	BonusAmount         float64         `json:"bonus_amount"`
	DeductionAmount     float64         `json:"deduction_amount"`
	JobseekerPay        float64         `json:"jobseeker_pay"`
	ClientBill          float64         `json:"client_bill"`
	InvoiceNumber       string          `json:"invoice_number"`
	ExistingTimesheetID string          `json:"existing_timesheet_id,omitempty"`
	State               string          `json:"state"`
}

func toTimesheetDTO(s *timesheet.WeeklyTimesheet) TimesheetDTO {
	entries := make([]DailyEntryDTO, len(s.Entries))
	for i, e := range s.Entries {
		entries[i] = DailyEntryDTO{
			Date:          e.Date.String(),
			Hours:         e.Hours.InexactFloat64(),
			OvertimeHours: e.OvertimeHours.InexactFloat64(),
		}
	}
	return TimesheetDTO{
		JobseekerProfileID:  string(s.Selection.JobseekerProfileID),
		JobseekerUserID:     string(s.Selection.JobseekerUserID),
		PositionID:          string(s.Selection.PositionID),
		WeekStart:           s.Selection.Week.Start.String(),
		WeekEnd:             s.Selection.Week.End.String(),
		Entries:             entries,
		TotalRegularHours:   s.TotalRegularHours.InexactFloat64(),
		TotalOvertimeHours:  s.TotalOvertimeHours.InexactFloat64(),
		BonusAmount:         s.BonusAmount.InexactFloat64(),
		DeductionAmount:     s.DeductionAmount.InexactFloat64(),
		JobseekerPay:        s.JobseekerPay.InexactFloat64(),
		ClientBill:          s.ClientBill.InexactFloat64(),
		InvoiceNumber:       s.InvoiceNumber,
		ExistingTimesheetID: string(s.ExistingTimesheetID),
		State:               string(s.State()),
	}
}

// OpenTimesheetRequest selects a jobseeker, position and week.
type OpenTimesheetRequest struct {
	JobseekerProfileID string `json:"jobseeker_profile_id"`
	JobseekerUserID    string `json:"jobseeker_user_id"`
	PositionID         string `json:"position_id"`
	WeekStart          string `json:"week_start"`
}

// SubmitTimesheetRequest carries a full week of edits for persistence.
type SubmitTimesheetRequest struct {
	JobseekerProfileID string            `json:"jobseeker_profile_id"`
	JobseekerUserID    string            `json:"jobseeker_user_id"`
	PositionID         string            `json:"position_id"`
	WeekStart          string            `json:"week_start"`
	DailyHours         []DailyHoursInput `json:"daily_hours"`
	BonusAmount        float64           `json:"bonus_amount"`
	DeductionAmount    float64           `json:"deduction_amount"`
	SendEmail          bool              `json:"send_email"`
}

// SubmitBatchRequest submits several weekly timesheets together.
type SubmitBatchRequest struct {
	Timesheets []SubmitTimesheetRequest `json:"timesheets"`
}

// RecordDTO is a persisted timesheet in API responses.
type RecordDTO struct {
	ID                 string          `json:"id"`
	JobseekerProfileID string          `json:"jobseeker_profile_id"`
	JobseekerUserID    string          `json:"jobseeker_user_id"`
	PositionID         string          `json:"position_id"`
	WeekStart          string          `json:"week_start"`
	WeekEnd            string          `json:"week_end"`
	DailyHours         []DailyEntryDTO `json:"daily_hours"`
	TotalRegularHours  float64         `json:"total_regular_hours"`
	TotalOvertimeHours float64         `json:"total_overtime_hours"`
	RegularPayRate     float64         `json:"regular_pay_rate"`
	OvertimePayRate    float64         `json:"overtime_pay_rate"`
	RegularBillRate    float64         `json:"regular_bill_rate"`
	OvertimeBillRate   float64         `json:"overtime_bill_rate"`
	TotalJobseekerPay  float64         `json:"total_jobseeker_pay"`
	TotalClientBill    float64         `json:"total_client_bill"`
	BonusAmount        float64         `json:"bonus_amount"`
	DeductionAmount    float64         `json:"deduction_amount"`
	OvertimeEnabled    bool            `json:"overtime_enabled"`
	Markup             float64         `json:"markup,omitempty"`
	EmailSent          bool            `json:"email_sent"`
	InvoiceNumber      string          `json:"invoice_number"`
}

func toRecordDTO(r reconcile.Record) RecordDTO {
	days := make([]DailyEntryDTO, len(r.DailyHours))
	for i, d := range r.DailyHours {
		days[i] = DailyEntryDTO{Date: d.Date.String(), Hours: d.Hours.InexactFloat64()}
	}
	return RecordDTO{
		ID:                 string(r.ID),
		JobseekerProfileID: string(r.JobseekerProfileID),
		JobseekerUserID:    string(r.JobseekerUserID),
		PositionID:         string(r.PositionID),
		WeekStart:          r.WeekStart.String(),
		WeekEnd:            r.WeekEnd.String(),
		DailyHours:         days,
		TotalRegularHours:  r.TotalRegularHours.InexactFloat64(),
		TotalOvertimeHours: r.TotalOvertimeHours.InexactFloat64(),
		RegularPayRate:     r.RegularPayRate.InexactFloat64(),
		OvertimePayRate:    r.OvertimePayRate.InexactFloat64(),
		RegularBillRate:    r.RegularBillRate.InexactFloat64(),
		OvertimeBillRate:   r.OvertimeBillRate.InexactFloat64(),
		TotalJobseekerPay:  r.TotalJobseekerPay.InexactFloat64(),
		TotalClientBill:    r.TotalClientBill.InexactFloat64(),
		BonusAmount:        r.BonusAmount.InexactFloat64(),
		DeductionAmount:    r.DeductionAmount.InexactFloat64(),
		OvertimeEnabled:    r.OvertimeEnabled,
		Markup:             r.Markup.InexactFloat64(),
		EmailSent:          r.EmailSent,
		InvoiceNumber:      r.InvoiceNumber,
	}
}

// UnitResultDTO is the per-sheet outcome of a batch submission.
type UnitResultDTO struct {
	PositionID string     `json:"position_id"`
	WeekStart  string     `json:"week_start"`
	Record     *RecordDTO `json:"record,omitempty"`
	Error      string     `json:"error,omitempty"`
}

type BatchResultDTO struct {
	Units []UnitResultDTO `json:"units"`
}

// NoticeDTO is a transient status message with an explicit expiry; clients
// hide it after expires_at rather than running their own timers.
type NoticeDTO struct {
	Level     string `json:"level"`
	Message   string `json:"message"`
	ExpiresAt string `json:"expires_at"`
}

type SubmitResponse struct {
	Record RecordDTO `json:"record"`
	Notice NoticeDTO `json:"notice"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
