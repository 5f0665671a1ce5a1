package models

import (
	"strings"
	"time"
)

// Day identifies a teaching day of the week.
type Day string

const (
	DayMonday    Day = "MONDAY"
	DayTuesday   Day = "TUESDAY"
	DayWednesday Day = "WEDNESDAY"
	DayThursday  Day = "THURSDAY"
	DayFriday    Day = "FRIDAY"
	DaySaturday  Day = "SATURDAY"
	DaySunday    Day = "SUNDAY"
)

// DefaultDays is the weekday order used when a run does not specify active days.
var DefaultDays = []Day{DayMonday, DayTuesday, DayWednesday, DayThursday, DayFriday}

var knownDays = map[Day]struct{}{
	DayMonday: {}, DayTuesday: {}, DayWednesday: {}, DayThursday: {},
	DayFriday: {}, DaySaturday: {}, DaySunday: {},
}

// ParseDay normalises a raw day name. The second result is false for unknown names.
func ParseDay(raw string) (Day, bool) {
	day := Day(strings.ToUpper(strings.TrimSpace(raw)))
	_, ok := knownDays[day]
	return day, ok
}

// Period is an ordinal teaching position within a day.
type Period struct {
	ID       string `db:"id" json:"id"`
	Sequence int    `db:"sequence" json:"sequence"`
	Label    string `db:"label" json:"label"`
	IsBreak  bool   `db:"is_break" json:"is_break"`
}

// RoomCategory groups rooms by the kind of lesson they can host.
type RoomCategory string

const (
	RoomCategoryGeneric     RoomCategory = "GENERIC"
	RoomCategoryLab         RoomCategory = "LAB"
	RoomCategoryComputerLab RoomCategory = "COMPUTER_LAB"
	RoomCategoryPE          RoomCategory = "PE"
	RoomCategoryLibrary     RoomCategory = "LIBRARY"
)

// Room is a bookable teaching space.
type Room struct {
	ID       string       `db:"id" json:"id"`
	Name     string       `db:"name" json:"name"`
	Category RoomCategory `db:"category" json:"category"`
	Capacity int          `db:"capacity" json:"capacity"`
}

// LessonRequirement is a weekly teaching or meeting need.
type LessonRequirement struct {
	ID              string        `db:"id" json:"id"`
	SubjectID       string        `db:"subject_id" json:"subject_id,omitempty"`
	SubjectName     string        `db:"subject_name" json:"subject_name,omitempty"`
	Title           string        `db:"title" json:"title,omitempty"`
	OccurrenceCount int           `db:"occurrence_count" json:"occurrence_count"`
	BlockLength     int           `db:"block_length" json:"block_length"`
	RoomCategory    *RoomCategory `db:"room_category" json:"room_category,omitempty"`
	TeacherIDs      []string      `db:"-" json:"teacher_ids"`
	ClassIDs        []string      `db:"-" json:"class_ids"`
}

// IsMeeting reports whether the requirement is a freeform meeting rather than a subject.
func (l LessonRequirement) IsMeeting() bool {
	return l.SubjectID == ""
}

// DistributionKey identifies the requirement for per-day distribution counting.
func (l LessonRequirement) DistributionKey() string {
	if l.IsMeeting() {
		return "meeting:" + l.Title
	}
	return "subject:" + l.SubjectID
}

// Label returns a human readable name for logs and conflict messages.
func (l LessonRequirement) Label() string {
	switch {
	case l.SubjectName != "":
		return l.SubjectName
	case l.Title != "":
		return l.Title
	case l.SubjectID != "":
		return l.SubjectID
	default:
		return l.ID
	}
}

// UnavailabilityKind names the entity an unavailability record restricts.
type UnavailabilityKind string

const (
	UnavailabilityTeacher UnavailabilityKind = "TEACHER"
	UnavailabilityClass   UnavailabilityKind = "CLASS"
	UnavailabilitySubject UnavailabilityKind = "SUBJECT"
)

// Unavailability marks an entity as unschedulable at a day/period.
type Unavailability struct {
	Kind     UnavailabilityKind `db:"kind" json:"kind"`
	EntityID string             `db:"entity_id" json:"entity_id"`
	Day      Day                `db:"day" json:"day"`
	PeriodID string             `db:"period_id" json:"period_id"`
}

// Placement assigns one period of one occurrence to a day and an optional room.
type Placement struct {
	RequirementID  string   `json:"requirement_id"`
	Occurrence     int      `json:"occurrence"`
	Day            Day      `json:"day"`
	PeriodID       string   `json:"period_id"`
	PeriodSequence int      `json:"period_sequence"`
	RoomID         *string  `json:"room_id,omitempty"`
	SubjectID      string   `json:"subject_id,omitempty"`
	Title          string   `json:"title,omitempty"`
	ClassIDs       []string `json:"class_ids"`
	TeacherIDs     []string `json:"teacher_ids"`
}

// ConflictRecord captures a requirement whose occurrences could not all be placed.
type ConflictRecord struct {
	RequirementID string   `json:"requirement_id"`
	Label         string   `json:"label"`
	ClassIDs      []string `json:"class_ids"`
	TeacherIDs    []string `json:"teacher_ids"`
	Needed        int      `json:"needed"`
	Placed        int      `json:"placed"`
	Reason        string   `json:"reason"`
}

// Shortfall returns the number of occurrences left unplaced.
func (c ConflictRecord) Shortfall() int {
	return c.Needed - c.Placed
}

// RunStep is one entry of a generation run log.
type RunStep struct {
	Step      int       `json:"step"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// RunSummary aggregates the inputs and outputs of a generation run.
type RunSummary struct {
	LessonRequirementCount int `json:"lesson_requirement_count"`
	PeriodsPerDay          int `json:"periods_per_day"`
	DaysPerWeek            int `json:"days_per_week"`
	RoomsAvailable         int `json:"rooms_available"`
	TotalPlacementsCreated int `json:"total_placements_created"`
}

// TimetableResult is the outcome of a completed generation run.
type TimetableResult struct {
	Success        bool             `json:"success"`
	TotalPlaced    int              `json:"total_placed"`
	TotalConflicts int              `json:"total_conflicts"`
	Placements     []Placement      `json:"placements"`
	Conflicts      []ConflictRecord `json:"conflicts"`
	Steps          []RunStep        `json:"steps"`
	Summary        RunSummary       `json:"summary"`
}
