package models

import "time"

// TimetableSlot is the persisted form of a placement.
type TimetableSlot struct {
	ID             string    `db:"id" json:"id"`
	RunID          string    `db:"run_id" json:"run_id"`
	RequirementID  string    `db:"requirement_id" json:"requirement_id"`
	Occurrence     int       `db:"occurrence" json:"occurrence"`
	DayOfWeek      Day       `db:"day_of_week" json:"day_of_week"`
	PeriodID       string    `db:"period_id" json:"period_id"`
	PeriodSequence int       `db:"period_sequence" json:"period_sequence"`
	RoomID         *string   `db:"room_id" json:"room_id,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// TimetableSlotDetail is a persisted slot together with its attendees.
type TimetableSlotDetail struct {
	TimetableSlot
	SubjectID  string   `db:"subject_id" json:"subject_id,omitempty"`
	Title      string   `db:"title" json:"title,omitempty"`
	ClassIDs   []string `db:"-" json:"class_ids"`
	TeacherIDs []string `db:"-" json:"teacher_ids"`
}

// TimetableSlotClass links a persisted slot to one attending class.
type TimetableSlotClass struct {
	SlotID  string `db:"slot_id" json:"slot_id"`
	ClassID string `db:"class_id" json:"class_id"`
}

// TimetableSlotTeacher links a persisted slot to one teaching staff member.
type TimetableSlotTeacher struct {
	SlotID    string `db:"slot_id" json:"slot_id"`
	TeacherID string `db:"teacher_id" json:"teacher_id"`
}

// TimetableSlotFilter narrows persisted slot listings.
type TimetableSlotFilter struct {
	Day       Day
	ClassID   string
	TeacherID string
	RoomID    string
}

// TimetableRunStatus tracks the lifecycle of a generation run.
type TimetableRunStatus string

const (
	TimetableRunQueued    TimetableRunStatus = "QUEUED"
	TimetableRunRunning   TimetableRunStatus = "RUNNING"
	TimetableRunCompleted TimetableRunStatus = "COMPLETED"
	TimetableRunFailed    TimetableRunStatus = "FAILED"
)

// TimetableRun records a generation request and, once finished, its result.
type TimetableRun struct {
	ID            string             `json:"id"`
	Status        TimetableRunStatus `json:"status"`
	ClearExisting bool               `json:"clear_existing"`
	ActiveDays    []Day              `json:"active_days"`
	Result        *TimetableResult   `json:"result,omitempty"`
	Error         string             `json:"error,omitempty"`
	ErrorCode     string             `json:"error_code,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}
