package scheduler

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/noah-isme/sma-timetable/internal/models"
)

const reasonInsufficientCapacity = "no feasible window left for all occurrences"

type distributionKey struct {
	classID string
	key     string
	day     models.Day
}

// Allocator places requirement occurrences first-fit, without backtracking.
type Allocator struct {
	days    []models.Day
	periods []models.Period
	index   *ConstraintIndex
	tracker *OccupancyTracker
	rooms   *RoomResolver

	// nil rosters disable referential checks.
	teachers map[string]struct{}
	classes  map[string]struct{}

	perDay     map[distributionKey]int
	placements []models.Placement
	conflicts  ConflictReporter
}

// Outcome summarises the placement of one requirement.
type Outcome struct {
	Needed int
	Placed int
	Reason string
}

// NewAllocator wires an allocator over fresh per-run state. periods must already
// exclude breaks and be ordered by sequence.
func NewAllocator(days []models.Day, periods []models.Period, index *ConstraintIndex, tracker *OccupancyTracker, rooms *RoomResolver) *Allocator {
	return &Allocator{
		days:    days,
		periods: periods,
		index:   index,
		tracker: tracker,
		rooms:   rooms,
		perDay:  make(map[distributionKey]int),
	}
}

// WithRoster enables the referential check of teacher and class ids.
func (a *Allocator) WithRoster(teacherIDs, classIDs []string) *Allocator {
	if teacherIDs != nil {
		a.teachers = lo.SliceToMap(teacherIDs, func(id string) (string, struct{}) { return id, struct{}{} })
	}
	if classIDs != nil {
		a.classes = lo.SliceToMap(classIDs, func(id string) (string, struct{}) { return id, struct{}{} })
	}
	return a
}

// DailyCap is the maximum occurrences one class may receive of the same
// requirement on a single day.
func DailyCap(occurrences, activeDays int) int {
	if activeDays <= 0 {
		return 1
	}
	limit := (occurrences + activeDays - 1) / activeDays
	if limit < 1 {
		return 1
	}
	return limit
}

// Allocate attempts every occurrence of req and records a conflict on shortfall.
func (a *Allocator) Allocate(req models.LessonRequirement) Outcome {
	req.TeacherIDs = lo.Uniq(req.TeacherIDs)
	req.ClassIDs = lo.Uniq(req.ClassIDs)

	if reason := a.rejectReason(req); reason != "" {
		a.conflicts.Add(conflictFor(req, 0, reason))
		return Outcome{Needed: req.OccurrenceCount, Reason: reason}
	}

	limit := DailyCap(req.OccurrenceCount, len(a.days))
	placed := 0
	for i := 0; i < req.OccurrenceCount; i++ {
		if a.placeOccurrence(req, placed+1, limit) {
			placed++
		}
	}

	outcome := Outcome{Needed: req.OccurrenceCount, Placed: placed}
	if placed < req.OccurrenceCount {
		outcome.Reason = reasonInsufficientCapacity
		a.conflicts.Add(conflictFor(req, placed, reasonInsufficientCapacity))
	}
	return outcome
}

// Placements returns the placements emitted so far, in emission order.
func (a *Allocator) Placements() []models.Placement {
	out := make([]models.Placement, len(a.placements))
	copy(out, a.placements)
	return out
}

// Conflicts returns the conflicts recorded so far, in processing order.
func (a *Allocator) Conflicts() []models.ConflictRecord {
	return a.conflicts.Records()
}

func (a *Allocator) rejectReason(req models.LessonRequirement) string {
	switch {
	case req.OccurrenceCount < 1:
		return "occurrence count must be at least 1"
	case req.BlockLength < 1:
		return "block length must be at least 1"
	case len(req.TeacherIDs) == 0:
		return "requirement has no teachers"
	}
	if a.teachers != nil {
		if id, missing := lo.Find(req.TeacherIDs, func(id string) bool { _, ok := a.teachers[id]; return !ok }); missing {
			return fmt.Sprintf("unknown teacher %s", id)
		}
	}
	if a.classes != nil {
		if id, missing := lo.Find(req.ClassIDs, func(id string) bool { _, ok := a.classes[id]; return !ok }); missing {
			return fmt.Sprintf("unknown class %s", id)
		}
	}
	return ""
}

func (a *Allocator) placeOccurrence(req models.LessonRequirement, occurrence, limit int) bool {
	for _, day := range a.days {
		if a.reachedCap(req, day, limit) {
			continue
		}
		for start := 0; start+req.BlockLength <= len(a.periods); start++ {
			window := a.periods[start : start+req.BlockLength]
			if !a.feasible(req, day, window) {
				continue
			}
			a.commit(req, occurrence, day, window)
			return true
		}
	}
	return false
}

// reachedCap blocks the whole day when any involved class is already at the cap.
func (a *Allocator) reachedCap(req models.LessonRequirement, day models.Day, limit int) bool {
	key := req.DistributionKey()
	return lo.SomeBy(req.ClassIDs, func(classID string) bool {
		return a.perDay[distributionKey{classID: classID, key: key, day: day}] >= limit
	})
}

func (a *Allocator) feasible(req models.LessonRequirement, day models.Day, window []models.Period) bool {
	for _, classID := range req.ClassIDs {
		if !a.entityFree(NamespaceClass, models.UnavailabilityClass, classID, day, window) {
			return false
		}
	}
	if req.SubjectID != "" {
		for _, p := range window {
			if a.index.IsUnavailable(models.UnavailabilitySubject, req.SubjectID, day, p.ID) {
				return false
			}
		}
	}
	for _, teacherID := range req.TeacherIDs {
		if !a.entityFree(NamespaceTeacher, models.UnavailabilityTeacher, teacherID, day, window) {
			return false
		}
	}
	return true
}

func (a *Allocator) entityFree(ns Namespace, kind models.UnavailabilityKind, id string, day models.Day, window []models.Period) bool {
	for _, p := range window {
		if a.tracker.IsOccupied(ns, id, day, p.ID) || a.index.IsUnavailable(kind, id, day, p.ID) {
			return false
		}
	}
	return true
}

func (a *Allocator) commit(req models.LessonRequirement, occurrence int, day models.Day, window []models.Period) {
	var roomID *string
	if room := a.rooms.SelectRoom(ResolveCategory(req), day, window); room != nil {
		id := room.ID
		roomID = &id
	}

	classIDs := append([]string(nil), req.ClassIDs...)
	teacherIDs := append([]string(nil), req.TeacherIDs...)
	for _, p := range window {
		for _, classID := range classIDs {
			a.tracker.Commit(NamespaceClass, classID, day, p.ID)
		}
		for _, teacherID := range teacherIDs {
			a.tracker.Commit(NamespaceTeacher, teacherID, day, p.ID)
		}
		if roomID != nil {
			a.tracker.Commit(NamespaceRoom, *roomID, day, p.ID)
		}
		a.placements = append(a.placements, models.Placement{
			RequirementID:  req.ID,
			Occurrence:     occurrence,
			Day:            day,
			PeriodID:       p.ID,
			PeriodSequence: p.Sequence,
			RoomID:         roomID,
			SubjectID:      req.SubjectID,
			Title:          req.Title,
			ClassIDs:       classIDs,
			TeacherIDs:     teacherIDs,
		})
	}

	key := req.DistributionKey()
	for _, classID := range classIDs {
		a.perDay[distributionKey{classID: classID, key: key, day: day}]++
	}
}

func conflictFor(req models.LessonRequirement, placed int, reason string) models.ConflictRecord {
	return models.ConflictRecord{
		RequirementID: req.ID,
		Label:         req.Label(),
		ClassIDs:      append([]string{}, req.ClassIDs...),
		TeacherIDs:    append([]string{}, req.TeacherIDs...),
		Needed:        req.OccurrenceCount,
		Placed:        placed,
		Reason:        reason,
	}
}
