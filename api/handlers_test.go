package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewdesk/staffing-engine/reconcile"
	"github.com/crewdesk/staffing-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	rec := reconcile.New(store, zerolog.Nop())
	h := NewHandler(store, rec, zerolog.Nop())

	srv := httptest.NewServer(NewRouter(h))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, srv *httptest.Server, method, path string, body any) (*http.Response, []byte) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out bytes.Buffer
	_, err = out.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, out.Bytes()
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), "body: %s", raw)
	return v
}

func seedPosition(t *testing.T, srv *httptest.Server) {
	t.Helper()
	resp, _ := doJSON(t, srv, http.MethodPost, "/api/positions", SavePositionRequest{
		ID:                     "P1",
		Title:                  "Forklift Operator",
		ClientName:             "Acme Warehousing",
		RegularPayRate:         20,
		RegularBillRate:        30,
		OvertimeEnabled:        true,
		OvertimeThresholdHours: 40,
		OvertimePayRate:        30,
		OvertimeBillRate:       45,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func submitRequest(position string, weekStart string, hours []float64) SubmitTimesheetRequest {
	req := SubmitTimesheetRequest{
		JobseekerProfileID: "jp-1",
		JobseekerUserID:    "ju-1",
		PositionID:         position,
		WeekStart:          weekStart,
	}
	for i, h := range hours {
		req.DailyHours = append(req.DailyHours, DailyHoursInput{
			Date:  fmt.Sprintf("2024-06-%02d", 2+i),
			Hours: h,
		})
	}
	return req
}

// =============================================================================
// WEEKS
// =============================================================================

func TestListWeeks_SundayAnchoredDescending(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, srv, http.MethodGet, "/api/weeks?reference=2024-06-05&window=3", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	weeks := decode[[]WeekDTO](t, body)
	require.Len(t, weeks, 3)
	assert.Equal(t, "2024-06-02", weeks[0].Start)
	assert.Equal(t, "2024-06-08", weeks[0].End)
	assert.Equal(t, "2024-05-26", weeks[1].Start)
	assert.Equal(t, "2024-05-19", weeks[2].Start)
}

func TestListWeeks_InvalidReference(t *testing.T) {
	srv := newTestServer(t)
	resp, _ := doJSON(t, srv, http.MethodGet, "/api/weeks?reference=junk", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// =============================================================================
// POSITIONS
// =============================================================================

func TestPositions_SaveAndGet(t *testing.T) {
	srv := newTestServer(t)
	seedPosition(t, srv)

	resp, body := doJSON(t, srv, http.MethodGet, "/api/positions/P1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	p := decode[PositionDTO](t, body)
	assert.Equal(t, "Forklift Operator", p.Title)
	assert.Equal(t, 20.0, p.RegularPayRate)
	assert.True(t, p.OvertimeEnabled)

	resp, _ = doJSON(t, srv, http.MethodGet, "/api/positions/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSavePosition_RequiresIDAndTitle(t *testing.T) {
	srv := newTestServer(t)
	resp, _ := doJSON(t, srv, http.MethodPost, "/api/positions", SavePositionRequest{ID: "P1"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// =============================================================================
// OPEN AND PREVIEW
// =============================================================================

func TestOpenTimesheet_NewWeek_SevenEmptyDays(t *testing.T) {
	// GIVEN: Nothing persisted for the selection
	// WHEN: Opening the week
	// THEN: Seven zeroed entries, fresh invoice number, create path

	srv := newTestServer(t)
	seedPosition(t, srv)

	resp, body := doJSON(t, srv, http.MethodPost, "/api/timesheets/open", OpenTimesheetRequest{
		JobseekerProfileID: "jp-1",
		JobseekerUserID:    "ju-1",
		PositionID:         "P1",
		WeekStart:          "2024-06-02",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	sheet := decode[TimesheetDTO](t, body)
	assert.Equal(t, "2024-06-02", sheet.WeekStart)
	assert.Equal(t, "2024-06-08", sheet.WeekEnd)
	require.Len(t, sheet.Entries, 7)
	assert.Equal(t, "2024-06-02", sheet.Entries[0].Date)
	assert.Equal(t, "INV-000001", sheet.InvoiceNumber)
	assert.Empty(t, sheet.ExistingTimesheetID)
	assert.Equal(t, "seeded_new", sheet.State)
}

func TestOpenTimesheet_SnapsToWeekStart(t *testing.T) {
	// A mid-week date resolves to its containing Sunday-anchored week.
	srv := newTestServer(t)
	seedPosition(t, srv)

	resp, body := doJSON(t, srv, http.MethodPost, "/api/timesheets/open", OpenTimesheetRequest{
		JobseekerProfileID: "jp-1",
		JobseekerUserID:    "ju-1",
		PositionID:         "P1",
		WeekStart:          "2024-06-05",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "2024-06-02", decode[TimesheetDTO](t, body).WeekStart)
}

func TestOpenTimesheet_MissingSelector(t *testing.T) {
	srv := newTestServer(t)
	resp, _ := doJSON(t, srv, http.MethodPost, "/api/timesheets/open", OpenTimesheetRequest{
		PositionID: "P1",
		WeekStart:  "2024-06-02",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPreviewTimesheet_OvertimeSplitWithoutPersisting(t *testing.T) {
	// GIVEN: 48 worked hours at a 40 hour threshold
	// WHEN: Previewing
	// THEN: 40 regular + 8 overtime, correct money, nothing persisted

	srv := newTestServer(t)
	seedPosition(t, srv)

	req := submitRequest("P1", "2024-06-02", []float64{8, 8, 8, 8, 8, 8, 0})
	resp, body := doJSON(t, srv, http.MethodPost, "/api/timesheets/preview", req)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	sheet := decode[TimesheetDTO](t, body)
	assert.Equal(t, 40.0, sheet.TotalRegularHours)
	assert.Equal(t, 8.0, sheet.TotalOvertimeHours)
	// 40*20 + 8*30
	assert.Equal(t, 1040.0, sheet.JobseekerPay)
	// 40*30 + 8*45
	assert.Equal(t, 1560.0, sheet.ClientBill)
	// Overtime spread across the six worked days
	assert.InDelta(t, 8.0/6.0, sheet.Entries[0].OvertimeHours, 1e-9)
	assert.Zero(t, sheet.Entries[6].OvertimeHours)

	// Nothing was written
	resp, body = doJSON(t, srv, http.MethodGet, "/api/timesheets", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]RecordDTO](t, body), 0)
}

// =============================================================================
// SUBMIT
// =============================================================================

func TestSubmitTimesheet_CreateThenUpdate(t *testing.T) {
	srv := newTestServer(t)
	seedPosition(t, srv)

	req := submitRequest("P1", "2024-06-02", []float64{8, 8, 8, 8, 8, 0, 0})
	resp, body := doJSON(t, srv, http.MethodPost, "/api/timesheets/submit", req)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	created := decode[SubmitResponse](t, body)
	require.NotEmpty(t, created.Record.ID)
	assert.Equal(t, 40.0, created.Record.TotalRegularHours)
	assert.Zero(t, created.Record.TotalOvertimeHours)
	assert.Equal(t, "success", created.Notice.Level)
	assert.Contains(t, created.Notice.Message, created.Record.InvoiceNumber)

	// Resubmit with more hours: same record, same invoice, new totals
	req = submitRequest("P1", "2024-06-02", []float64{8, 8, 8, 8, 8, 8, 0})
	resp, body = doJSON(t, srv, http.MethodPost, "/api/timesheets/submit", req)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	updated := decode[SubmitResponse](t, body)
	assert.Equal(t, created.Record.ID, updated.Record.ID)
	assert.Equal(t, created.Record.InvoiceNumber, updated.Record.InvoiceNumber)
	assert.Equal(t, 8.0, updated.Record.TotalOvertimeHours)

	// Still exactly one persisted record for the week
	resp, body = doJSON(t, srv, http.MethodGet, "/api/timesheets?jobseeker_user_id=ju-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]RecordDTO](t, body), 1)
}

func TestSubmitTimesheet_BonusAndDeduction(t *testing.T) {
	srv := newTestServer(t)
	seedPosition(t, srv)

	req := submitRequest("P1", "2024-06-02", []float64{8, 8, 8, 8, 8, 0, 0})
	req.BonusAmount = 100
	req.DeductionAmount = 30
	resp, body := doJSON(t, srv, http.MethodPost, "/api/timesheets/submit", req)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got := decode[SubmitResponse](t, body)
	// 40*20 + 100 - 30
	assert.Equal(t, 870.0, got.Record.TotalJobseekerPay)
	// Bill ignores adjustments: 40*30
	assert.Equal(t, 1200.0, got.Record.TotalClientBill)
}

func TestSubmitTimesheet_NegativeHoursRejected(t *testing.T) {
	srv := newTestServer(t)
	seedPosition(t, srv)

	req := submitRequest("P1", "2024-06-02", []float64{-1, 0, 0, 0, 0, 0, 0})
	resp, _ := doJSON(t, srv, http.MethodPost, "/api/timesheets/submit", req)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSubmitTimesheet_UnknownPosition(t *testing.T) {
	srv := newTestServer(t)
	resp, _ := doJSON(t, srv, http.MethodPost, "/api/timesheets/submit",
		submitRequest("nope", "2024-06-02", []float64{8}))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// =============================================================================
// BATCH SUBMIT
// =============================================================================

func TestSubmitBatch_PartialFailureReportedPerUnit(t *testing.T) {
	// GIVEN: A batch where the second unit references an unknown position
	// THEN: 207 Multi-Status; the first unit's write stands

	srv := newTestServer(t)
	seedPosition(t, srv)

	batch := SubmitBatchRequest{Timesheets: []SubmitTimesheetRequest{
		submitRequest("P1", "2024-06-02", []float64{8, 8, 8, 8, 8, 0, 0}),
		submitRequest("ghost", "2024-06-02", []float64{8, 0, 0, 0, 0, 0, 0}),
	}}
	resp, body := doJSON(t, srv, http.MethodPost, "/api/timesheets/submit-batch", batch)
	require.Equal(t, http.StatusMultiStatus, resp.StatusCode)

	result := decode[BatchResultDTO](t, body)
	require.Len(t, result.Units, 2)
	require.NotNil(t, result.Units[0].Record)
	assert.Empty(t, result.Units[0].Error)
	assert.Nil(t, result.Units[1].Record)
	assert.NotEmpty(t, result.Units[1].Error)

	resp, body = doJSON(t, srv, http.MethodGet, "/api/timesheets", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]RecordDTO](t, body), 1, "successful unit not rolled back")
}

func TestSubmitBatch_Empty(t *testing.T) {
	srv := newTestServer(t)
	resp, _ := doJSON(t, srv, http.MethodPost, "/api/timesheets/submit-batch", SubmitBatchRequest{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// =============================================================================
// READ AND EXPORT
// =============================================================================

func TestGetTimesheet_AndExport(t *testing.T) {
	srv := newTestServer(t)
	seedPosition(t, srv)

	resp, body := doJSON(t, srv, http.MethodPost, "/api/timesheets/submit",
		submitRequest("P1", "2024-06-02", []float64{8, 8, 8, 8, 8, 0, 0}))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	id := decode[SubmitResponse](t, body).Record.ID

	resp, body = doJSON(t, srv, http.MethodGet, "/api/timesheets/"+id, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[RecordDTO](t, body)
	assert.Equal(t, id, got.ID)
	require.Len(t, got.DailyHours, 7)

	resp, body = doJSON(t, srv, http.MethodGet, "/api/timesheets/"+id+"/export", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), ".xlsx")
	// xlsx files are zip archives
	require.Greater(t, len(body), 4)
	assert.Equal(t, "PK", string(body[:2]))

	resp, _ = doJSON(t, srv, http.MethodGet, "/api/timesheets/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
