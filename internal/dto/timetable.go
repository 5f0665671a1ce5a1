package dto

import (
	"time"

	"github.com/noah-isme/sma-timetable/internal/models"
)

// GenerateTimetableRequest configures one generation run.
type GenerateTimetableRequest struct {
	ClearExisting bool     `json:"clearExisting"`
	ActiveDays    []string `json:"activeDays" validate:"omitempty,max=7,dive,required"`
}

// GenerateTimetableResponse reports the outcome of a synchronous run.
type GenerateTimetableResponse struct {
	RunID          string                  `json:"runId"`
	Success        bool                    `json:"success"`
	TotalPlaced    int                     `json:"totalPlaced"`
	TotalConflicts int                     `json:"totalConflicts"`
	Conflicts      []models.ConflictRecord `json:"conflicts"`
	Steps          []models.RunStep        `json:"steps"`
	Summary        models.RunSummary       `json:"summary"`
	GeneratedAt    time.Time               `json:"generatedAt"`
}

// TimetableRunResponse describes a queued or finished run.
type TimetableRunResponse struct {
	RunID     string                    `json:"runId"`
	Status    models.TimetableRunStatus `json:"status"`
	Error     string                    `json:"error,omitempty"`
	ErrorCode string                    `json:"errorCode,omitempty"`
	Result    *models.TimetableResult   `json:"result,omitempty"`
	CreatedAt time.Time                 `json:"createdAt"`
	UpdatedAt time.Time                 `json:"updatedAt"`
}

// TimetableSlotQuery filters persisted timetable slots.
type TimetableSlotQuery struct {
	Day       string `form:"day"`
	ClassID   string `form:"classId"`
	TeacherID string `form:"teacherId"`
	RoomID    string `form:"roomId"`
}

// NewTimetableRunResponse maps a run record onto its API shape.
func NewTimetableRunResponse(run *models.TimetableRun) *TimetableRunResponse {
	if run == nil {
		return nil
	}
	return &TimetableRunResponse{
		RunID:     run.ID,
		Status:    run.Status,
		Error:     run.Error,
		ErrorCode: run.ErrorCode,
		Result:    run.Result,
		CreatedAt: run.CreatedAt,
		UpdatedAt: run.UpdatedAt,
	}
}

// TimetableExportQuery selects the slots to export and the document format.
type TimetableExportQuery struct {
	TimetableSlotQuery
	Format string `form:"format"`
}

// ExportedFile is a rendered document ready for download.
type ExportedFile struct {
	FileName    string
	ContentType string
	Body        []byte
}
