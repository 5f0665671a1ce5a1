package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable/internal/dto"
	"github.com/noah-isme/sma-timetable/internal/models"
	"github.com/noah-isme/sma-timetable/internal/service"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
	"github.com/noah-isme/sma-timetable/pkg/response"
)

type timetableGenerator interface {
	Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error)
	Enqueue(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.TimetableRunResponse, error)
	GetRun(ctx context.Context, id string) (*dto.TimetableRunResponse, error)
	LatestRun(ctx context.Context) (*dto.TimetableRunResponse, error)
	ListSlots(ctx context.Context, query dto.TimetableSlotQuery) ([]models.TimetableSlotDetail, error)
	ExportSlots(ctx context.Context, query dto.TimetableExportQuery) (*dto.ExportedFile, error)
}

// TimetableHandler exposes timetable generation endpoints.
type TimetableHandler struct {
	service timetableGenerator
}

// NewTimetableHandler constructs the handler.
func NewTimetableHandler(svc *service.TimetableGeneratorService) *TimetableHandler {
	return &TimetableHandler{service: svc}
}

// Register mounts the timetable routes on the group.
func (h *TimetableHandler) Register(rg *gin.RouterGroup) {
	timetable := rg.Group("/timetable")
	timetable.POST("/generate", h.Generate)
	timetable.POST("/generate/async", h.GenerateAsync)
	timetable.GET("/runs/latest", h.LatestRun)
	timetable.GET("/runs/:id", h.GetRun)
	timetable.GET("/slots", h.Slots)
	timetable.GET("/slots/export", h.ExportSlots)
}

// Generate godoc
// @Summary Generate the weekly timetable
// @Description Places every lesson requirement greedily and persists the result. Unplaceable occurrences are reported as conflicts, not errors.
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.GenerateTimetableRequest false "Generation options"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /timetable/generate [post]
func (h *TimetableHandler) Generate(c *gin.Context) {
	req, ok := bindGenerateRequest(c)
	if !ok {
		return
	}
	result, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// GenerateAsync godoc
// @Summary Queue a timetable generation run
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.GenerateTimetableRequest false "Generation options"
// @Success 202 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /timetable/generate/async [post]
func (h *TimetableHandler) GenerateAsync(c *gin.Context) {
	req, ok := bindGenerateRequest(c)
	if !ok {
		return
	}
	run, err := h.service.Enqueue(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, strings.TrimSuffix(c.Request.URL.Path, "/generate/async")+"/runs/"+run.RunID, run)
}

// GetRun godoc
// @Summary Get a timetable generation run
// @Tags Timetable
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetable/runs/{id} [get]
func (h *TimetableHandler) GetRun(c *gin.Context) {
	run, err := h.service.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, run, nil)
}

// LatestRun godoc
// @Summary Get the most recent timetable generation run
// @Tags Timetable
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetable/runs/latest [get]
func (h *TimetableHandler) LatestRun(c *gin.Context) {
	run, err := h.service.LatestRun(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, run, nil)
}

// Slots godoc
// @Summary List persisted timetable slots
// @Tags Timetable
// @Produce json
// @Param day query string false "Day of week, e.g. MONDAY"
// @Param classId query string false "Class ID"
// @Param teacherId query string false "Teacher ID"
// @Param roomId query string false "Room ID"
// @Success 200 {object} response.Envelope
// @Router /timetable/slots [get]
func (h *TimetableHandler) Slots(c *gin.Context) {
	var query dto.TimetableSlotQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid slot query"))
		return
	}
	slots, err := h.service.ListSlots(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, map[string]interface{}{"count": len(slots)})
}

// ExportSlots godoc
// @Summary Download persisted timetable slots as CSV
// @Tags Timetable
// @Produce text/csv
// @Param format query string false "csv (default)"
// @Param day query string false "Day of week, e.g. MONDAY"
// @Param classId query string false "Class ID"
// @Param teacherId query string false "Teacher ID"
// @Param roomId query string false "Room ID"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /timetable/slots/export [get]
func (h *TimetableHandler) ExportSlots(c *gin.Context) {
	var query dto.TimetableExportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid export query"))
		return
	}
	file, err := h.service.ExportSlots(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.FileName))
	c.Data(http.StatusOK, file.ContentType, file.Body)
}

// bindGenerateRequest accepts an empty body as "all defaults".
func bindGenerateRequest(c *gin.Context) (dto.GenerateTimetableRequest, bool) {
	var req dto.GenerateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generate payload"))
		return req, false
	}
	return req, true
}
