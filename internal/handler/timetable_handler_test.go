package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable/internal/dto"
	"github.com/noah-isme/sma-timetable/internal/models"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
)

type timetableGeneratorMock struct {
	captured    dto.GenerateTimetableRequest
	generateErr error
	runs        map[string]*dto.TimetableRunResponse
	latestCalls int
	query       dto.TimetableSlotQuery
	exportQuery dto.TimetableExportQuery
}

func (m *timetableGeneratorMock) Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error) {
	m.captured = req
	if m.generateErr != nil {
		return nil, m.generateErr
	}
	return &dto.GenerateTimetableResponse{RunID: "run-1", Success: true, TotalPlaced: 4, TotalConflicts: 1}, nil
}

func (m *timetableGeneratorMock) Enqueue(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.TimetableRunResponse, error) {
	m.captured = req
	return &dto.TimetableRunResponse{RunID: "run-9", Status: models.TimetableRunQueued}, nil
}

func (m *timetableGeneratorMock) GetRun(ctx context.Context, id string) (*dto.TimetableRunResponse, error) {
	run, ok := m.runs[id]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable run not found")
	}
	return run, nil
}

func (m *timetableGeneratorMock) LatestRun(ctx context.Context) (*dto.TimetableRunResponse, error) {
	m.latestCalls++
	return &dto.TimetableRunResponse{RunID: "run-latest", Status: models.TimetableRunCompleted}, nil
}

func (m *timetableGeneratorMock) ListSlots(ctx context.Context, query dto.TimetableSlotQuery) ([]models.TimetableSlotDetail, error) {
	m.query = query
	return []models.TimetableSlotDetail{{TimetableSlot: models.TimetableSlot{ID: "slot-1"}}}, nil
}

func (m *timetableGeneratorMock) ExportSlots(ctx context.Context, query dto.TimetableExportQuery) (*dto.ExportedFile, error) {
	m.exportQuery = query
	if query.Format == "docx" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
	return &dto.ExportedFile{FileName: "timetable.csv", ContentType: "text/csv; charset=utf-8", Body: []byte("Day\nMONDAY\n")}, nil
}

type envelope struct {
	Data  json.RawMessage        `json:"data"`
	Error *appErrors.Error       `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

func newTimetableRouter(mock *timetableGeneratorMock) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := &TimetableHandler{service: mock}
	handler.Register(router.Group("/api/v1"))
	return router
}

func perform(t *testing.T, router *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w, env
}

func TestTimetableHandlerGenerate(t *testing.T) {
	mock := &timetableGeneratorMock{}
	router := newTimetableRouter(mock)

	w, env := perform(t, router, http.MethodPost, "/api/v1/timetable/generate", `{"clearExisting":true,"activeDays":["MONDAY","FRIDAY"]}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, mock.captured.ClearExisting)
	assert.Equal(t, []string{"MONDAY", "FRIDAY"}, mock.captured.ActiveDays)
	var resp dto.GenerateTimetableResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Equal(t, 1, resp.TotalConflicts, "conflicts do not fail the request")
}

func TestTimetableHandlerGenerateEmptyBody(t *testing.T) {
	mock := &timetableGeneratorMock{}
	router := newTimetableRouter(mock)

	w, _ := perform(t, router, http.MethodPost, "/api/v1/timetable/generate", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, mock.captured.ClearExisting)
	assert.Empty(t, mock.captured.ActiveDays)
}

func TestTimetableHandlerGenerateMalformed(t *testing.T) {
	router := newTimetableRouter(&timetableGeneratorMock{})

	w, env := perform(t, router, http.MethodPost, "/api/v1/timetable/generate", `{"clearExisting":`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, appErrors.ErrValidation.Code, env.Error.Code)
}

func TestTimetableHandlerGeneratePrecondition(t *testing.T) {
	router := newTimetableRouter(&timetableGeneratorMock{generateErr: appErrors.ErrNoPeriods})

	w, env := perform(t, router, http.MethodPost, "/api/v1/timetable/generate", `{}`)

	require.Equal(t, http.StatusPreconditionFailed, w.Code)
	assert.Equal(t, "NO_PERIODS", env.Error.Code)
}

func TestTimetableHandlerGenerateAsync(t *testing.T) {
	router := newTimetableRouter(&timetableGeneratorMock{})

	w, env := perform(t, router, http.MethodPost, "/api/v1/timetable/generate/async", `{}`)

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "/api/v1/timetable/runs/run-9", w.Header().Get("Location"))
	var run dto.TimetableRunResponse
	require.NoError(t, json.Unmarshal(env.Data, &run))
	assert.Equal(t, models.TimetableRunQueued, run.Status)
}

func TestTimetableHandlerRuns(t *testing.T) {
	mock := &timetableGeneratorMock{runs: map[string]*dto.TimetableRunResponse{
		"run-1": {RunID: "run-1", Status: models.TimetableRunFailed, ErrorCode: "NO_LESSONS"},
	}}
	router := newTimetableRouter(mock)

	w, _ := perform(t, router, http.MethodGet, "/api/v1/timetable/runs/latest", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, mock.latestCalls)

	w, env := perform(t, router, http.MethodGet, "/api/v1/timetable/runs/run-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	var run dto.TimetableRunResponse
	require.NoError(t, json.Unmarshal(env.Data, &run))
	assert.Equal(t, "NO_LESSONS", run.ErrorCode)

	w, env = perform(t, router, http.MethodGet, "/api/v1/timetable/runs/nope", "")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, appErrors.ErrNotFound.Code, env.Error.Code)
}

func TestTimetableHandlerSlots(t *testing.T) {
	mock := &timetableGeneratorMock{}
	router := newTimetableRouter(mock)

	w, env := perform(t, router, http.MethodGet, "/api/v1/timetable/slots?day=MONDAY&classId=10A&roomId=lab-1", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dto.TimetableSlotQuery{Day: "MONDAY", ClassID: "10A", RoomID: "lab-1"}, mock.query)
	assert.EqualValues(t, 1, env.Meta["count"])
}

func TestTimetableHandlerExportSlots(t *testing.T) {
	mock := &timetableGeneratorMock{}
	router := newTimetableRouter(mock)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/timetable/slots/export?format=csv&teacherId=t1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="timetable.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "Day\nMONDAY\n", w.Body.String())
	assert.Equal(t, "csv", mock.exportQuery.Format)
	assert.Equal(t, "t1", mock.exportQuery.TeacherID)

	w, env := perform(t, router, http.MethodGet, "/api/v1/timetable/slots/export?format=docx", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, appErrors.ErrValidation.Code, env.Error.Code)
}
