/*
handlers.go - HTTP API handlers for the timesheet engine

PURPOSE:
  Exposes the weekly timesheet engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Weeks:
    GET    /api/weeks                      Selectable week options

  Positions:
    GET    /api/positions                  List positions
    POST   /api/positions                  Save a position (rate profile)
    GET    /api/positions/{id}             Get position details

  Timesheets:
    POST   /api/timesheets/open            Seed a working sheet for a selection
    POST   /api/timesheets/preview         Compute totals without persisting
    POST   /api/timesheets/submit          Create or update one week
    POST   /api/timesheets/submit-batch    Submit several weeks together
    GET    /api/timesheets                 List persisted timesheets (filtered)
    GET    /api/timesheets/{id}            Get one persisted timesheet
    GET    /api/timesheets/{id}/export     Download the week as xlsx

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Reconciliation invariant violations, submit already in flight
  - 502: Gateway (persistence) failures
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/crewdesk/staffing-engine/export"
	"github.com/crewdesk/staffing-engine/reconcile"
	"github.com/crewdesk/staffing-engine/store/sqlite"
	"github.com/crewdesk/staffing-engine/timesheet"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store      *sqlite.Store
	Reconciler *reconcile.Reconciler

	log zerolog.Logger
	now func() time.Time
}

// NewHandler creates a new handler with the given store.
func NewHandler(store *sqlite.Store, rec *reconcile.Reconciler, log zerolog.Logger) *Handler {
	return &Handler{
		Store:      store,
		Reconciler: rec,
		log:        log,
		now:        time.Now,
	}
}

// =============================================================================
// WEEK HANDLERS
// =============================================================================

// ListWeeks returns the selectable weeks, most recent first.
// GET /api/weeks?reference=YYYY-MM-DD&window=52
func (h *Handler) ListWeeks(w http.ResponseWriter, r *http.Request) {
	reference := timesheet.Today()
	if s := r.URL.Query().Get("reference"); s != "" {
		d, err := timesheet.ParseDate(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid reference date", err)
			return
		}
		reference = d
	}

	window := timesheet.DefaultWeekWindow
	if s := r.URL.Query().Get("window"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "Invalid window", err)
			return
		}
		window = n
	}

	weeks := timesheet.WeekOptions(reference, window)
	dtos := make([]WeekDTO, len(weeks))
	for i, wk := range weeks {
		dtos[i] = WeekDTO{Start: wk.Start.String(), End: wk.End.String()}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// POSITION HANDLERS
// =============================================================================

// ListPositions returns all positions.
func (h *Handler) ListPositions(w http.ResponseWriter, r *http.Request) {
	positions, err := h.Store.ListPositions(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list positions", err)
		return
	}

	dtos := make([]PositionDTO, len(positions))
	for i, p := range positions {
		dtos[i] = toPositionDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetPosition returns one position.
func (h *Handler) GetPosition(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, err := h.Store.GetPosition(r.Context(), timesheet.PositionID(id))
	if err != nil {
		writeError(w, http.StatusNotFound, "Position not found", err)
		return
	}
	writeJSON(w, http.StatusOK, toPositionDTO(p))
}

// SavePosition inserts or replaces a position rate profile.
func (h *Handler) SavePosition(w http.ResponseWriter, r *http.Request) {
	var req SavePositionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" || req.Title == "" {
		writeError(w, http.StatusBadRequest, "id and title are required", nil)
		return
	}

	p := req.toPosition()
	if err := h.Store.SavePosition(r.Context(), p); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save position", err)
		return
	}
	writeJSON(w, http.StatusCreated, toPositionDTO(p))
}

// =============================================================================
// TIMESHEET HANDLERS
// =============================================================================

// OpenTimesheet seeds a working sheet for a selection: pre-filled from the
// matching persisted record when one exists, empty with a fresh invoice
// number otherwise.
func (h *Handler) OpenTimesheet(w http.ResponseWriter, r *http.Request) {
	var req OpenTimesheetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	sheet, err := h.openSheet(r, req.JobseekerProfileID, req.JobseekerUserID, req.PositionID, req.WeekStart)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTimesheetDTO(sheet))
}

// PreviewTimesheet computes the overtime split and money totals for a full
// week of input without touching persistence.
func (h *Handler) PreviewTimesheet(w http.ResponseWriter, r *http.Request) {
	var req SubmitTimesheetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	sel, profile, err := h.resolveSelection(r, req.JobseekerProfileID, req.JobseekerUserID, req.PositionID, req.WeekStart)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	sheet := timesheet.NewSheet(sel, profile)
	sheet.SeedNew("")
	if err := applyEdits(sheet, req); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTimesheetDTO(sheet))
}

// SubmitTimesheet persists one week: update when a record already exists
// for the selection, create otherwise.
func (h *Handler) SubmitTimesheet(w http.ResponseWriter, r *http.Request) {
	var req SubmitTimesheetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	sheet, err := h.openSheet(r, req.JobseekerProfileID, req.JobseekerUserID, req.PositionID, req.WeekStart)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if err := applyEdits(sheet, req); err != nil {
		writeDomainError(w, err)
		return
	}

	persisted, err := h.Reconciler.Submit(r.Context(), sheet)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	notice := timesheet.NewNotice(timesheet.NoticeSuccess,
		fmt.Sprintf("timesheet saved, invoice %s", persisted.InvoiceNumber), h.now())
	writeJSON(w, http.StatusOK, SubmitResponse{
		Record: toRecordDTO(persisted),
		Notice: toNoticeDTO(notice),
	})
}

// SubmitBatch submits several weekly timesheets together. Successes stand
// even when later units fail; each unit reports its own outcome.
func (h *Handler) SubmitBatch(w http.ResponseWriter, r *http.Request) {
	var req SubmitBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if len(req.Timesheets) == 0 {
		writeError(w, http.StatusBadRequest, "No timesheets in batch", nil)
		return
	}

	result := BatchResultDTO{Units: make([]UnitResultDTO, 0, len(req.Timesheets))}
	for _, unit := range req.Timesheets {
		dto := UnitResultDTO{PositionID: unit.PositionID, WeekStart: unit.WeekStart}

		sheet, err := h.openSheet(r, unit.JobseekerProfileID, unit.JobseekerUserID, unit.PositionID, unit.WeekStart)
		if err == nil {
			err = applyEdits(sheet, unit)
		}
		if err == nil {
			var persisted reconcile.Record
			persisted, err = h.Reconciler.Submit(r.Context(), sheet)
			if err == nil {
				rec := toRecordDTO(persisted)
				dto.Record = &rec
			}
		}
		if err != nil {
			dto.Error = err.Error()
		}
		result.Units = append(result.Units, dto)
	}

	status := http.StatusOK
	for _, u := range result.Units {
		if u.Error != "" {
			status = http.StatusMultiStatus
			break
		}
	}
	writeJSON(w, status, result)
}

// ListTimesheets returns persisted timesheets matching explicit filters.
// GET /api/timesheets?jobseeker_user_id=&position_id=&from=&to=&limit=
func (h *Handler) ListTimesheets(w http.ResponseWriter, r *http.Request) {
	q := sqlite.ListQuery{
		JobseekerUserID: timesheet.JobseekerUserID(r.URL.Query().Get("jobseeker_user_id")),
		PositionID:      timesheet.PositionID(r.URL.Query().Get("position_id")),
	}
	if s := r.URL.Query().Get("from"); s != "" {
		d, err := timesheet.ParseDate(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid from date", err)
			return
		}
		q.WeekStartFrom = d
	}
	if s := r.URL.Query().Get("to"); s != "" {
		d, err := timesheet.ParseDate(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid to date", err)
			return
		}
		q.WeekStartTo = d
	}
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		q.Limit = n
	}

	records, err := h.Store.List(r.Context(), q)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list timesheets", err)
		return
	}

	dtos := make([]RecordDTO, len(records))
	for i, rec := range records {
		dtos[i] = toRecordDTO(rec)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetTimesheet returns one persisted timesheet.
func (h *Handler) GetTimesheet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := h.Store.Get(r.Context(), timesheet.TimesheetID(id))
	if err != nil {
		writeError(w, http.StatusNotFound, "Timesheet not found", err)
		return
	}
	writeJSON(w, http.StatusOK, toRecordDTO(rec))
}

// ExportTimesheet streams one persisted week as an xlsx workbook.
func (h *Handler) ExportTimesheet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := h.Store.Get(r.Context(), timesheet.TimesheetID(id))
	if err != nil {
		writeError(w, http.StatusNotFound, "Timesheet not found", err)
		return
	}

	book, err := export.WeekWorkbook(rec)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build workbook", err)
		return
	}

	filename := fmt.Sprintf("timesheet_%s_%s.xlsx", rec.PositionID, rec.WeekStart)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if _, err := book.WriteTo(w); err != nil {
		h.log.Error().Err(err).Str("timesheet", id).Msg("xlsx export write failed")
	}
}

// =============================================================================
// HELPERS
// =============================================================================

// resolveSelection validates the selectors and loads the position's rate
// profile. Missing selectors abort locally before any gateway call.
func (h *Handler) resolveSelection(r *http.Request, profileID, userID, positionID, weekStart string) (timesheet.Selection, timesheet.RateProfile, error) {
	if profileID == "" || userID == "" || positionID == "" || weekStart == "" {
		return timesheet.Selection{}, timesheet.RateProfile{}, timesheet.ErrMissingSelection
	}

	start, err := timesheet.ParseDate(weekStart)
	if err != nil {
		return timesheet.Selection{}, timesheet.RateProfile{}, fmt.Errorf("invalid week_start: %w", err)
	}

	position, err := h.Store.GetPosition(r.Context(), timesheet.PositionID(positionID))
	if err != nil {
		return timesheet.Selection{}, timesheet.RateProfile{}, err
	}

	sel := timesheet.Selection{
		JobseekerProfileID: timesheet.JobseekerProfileID(profileID),
		JobseekerUserID:    timesheet.JobseekerUserID(userID),
		PositionID:         timesheet.PositionID(positionID),
		Week:               timesheet.WeekOf(start),
	}
	return sel, position.RateProfile(), nil
}

// openSheet resolves the selection, fetches the jobseeker's persisted week
// and seeds a working sheet from it.
func (h *Handler) openSheet(r *http.Request, profileID, userID, positionID, weekStart string) (*timesheet.WeeklyTimesheet, error) {
	sel, profile, err := h.resolveSelection(r, profileID, userID, positionID, weekStart)
	if err != nil {
		return nil, err
	}

	ctx := r.Context()
	sheet := timesheet.NewSheet(sel, profile)

	fetched, err := h.Reconciler.Lookup(ctx, sel.JobseekerUserID, sel.Week)
	if err != nil {
		// Lookup failure is retryable, not fatal: fall back to an empty
		// seed so entry can proceed.
		h.log.Warn().Err(err).Str("jobseeker", userID).Msg("lookup failed, seeding empty sheet")
		fetched = nil
	}
	if err := h.Reconciler.Seed(ctx, sheet, fetched); err != nil {
		return nil, err
	}
	return sheet, nil
}

// applyEdits replays the request's hours and adjustments onto a seeded
// sheet. Each edit triggers a full recomputation.
func applyEdits(sheet *timesheet.WeeklyTimesheet, req SubmitTimesheetRequest) error {
	for _, d := range req.DailyHours {
		date, err := timesheet.ParseDate(d.Date)
		if err != nil {
			return fmt.Errorf("invalid daily hours date: %w", err)
		}
		if err := sheet.SetHours(date, decimal.NewFromFloat(d.Hours)); err != nil {
			return err
		}
	}
	sheet.SetBonus(decimal.NewFromFloat(req.BonusAmount))
	sheet.SetDeduction(decimal.NewFromFloat(req.DeductionAmount))
	sheet.SetSendEmail(req.SendEmail)
	return nil
}

func toNoticeDTO(n timesheet.Notice) NoticeDTO {
	return NoticeDTO{
		Level:     string(n.Level),
		Message:   n.Message,
		ExpiresAt: n.ExpiresAt.UTC().Format(time.RFC3339),
	}
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case timesheet.IsClientError(err):
		status := http.StatusBadRequest
		if errors.Is(err, timesheet.ErrSubmissionInFlight) {
			status = http.StatusConflict
		}
		writeError(w, status, "Invalid request", err)
	case errors.Is(err, timesheet.ErrDuplicateMatch):
		writeError(w, http.StatusConflict, "Multiple persisted timesheets match this week", err)
	case timesheet.IsRetryable(err):
		writeError(w, http.StatusBadGateway, "Persistence gateway error", err)
	case strings.Contains(err.Error(), "not found"):
		writeError(w, http.StatusNotFound, "Not found", err)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
