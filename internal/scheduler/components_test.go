package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable/internal/models"
)

func TestConstraintIndex(t *testing.T) {
	idx := NewConstraintIndex([]models.Unavailability{
		{Kind: models.UnavailabilityTeacher, EntityID: "t1", Day: models.DayMonday, PeriodID: "p1"},
		{Kind: models.UnavailabilityClass, EntityID: "t1", Day: models.DayTuesday, PeriodID: "p2"},
		{Kind: models.UnavailabilitySubject, EntityID: "math", Day: models.DayFriday, PeriodID: "p3"},
		{Kind: "ROOM", EntityID: "r1", Day: models.DayMonday, PeriodID: "p1"},
	})

	assert.Equal(t, 3, idx.Len())
	assert.True(t, idx.IsUnavailable(models.UnavailabilityTeacher, "t1", models.DayMonday, "p1"))
	assert.False(t, idx.IsUnavailable(models.UnavailabilityClass, "t1", models.DayMonday, "p1"), "kinds do not share keys")
	assert.True(t, idx.IsUnavailable(models.UnavailabilityClass, "t1", models.DayTuesday, "p2"))
	assert.True(t, idx.IsUnavailable(models.UnavailabilitySubject, "math", models.DayFriday, "p3"))
	assert.False(t, idx.IsUnavailable(models.UnavailabilitySubject, "math", models.DayFriday, "p4"))
	assert.False(t, idx.IsUnavailable("ROOM", "r1", models.DayMonday, "p1"))

	var empty *ConstraintIndex
	assert.False(t, empty.IsUnavailable(models.UnavailabilityTeacher, "t1", models.DayMonday, "p1"))
}

func TestOccupancyTracker(t *testing.T) {
	tracker := NewOccupancyTracker()
	require.True(t, tracker.Commit(NamespaceTeacher, "x", models.DayMonday, "p1"))
	assert.False(t, tracker.Commit(NamespaceTeacher, "x", models.DayMonday, "p1"))
	assert.True(t, tracker.Commit(NamespaceClass, "x", models.DayMonday, "p1"), "namespaces are independent")
	assert.True(t, tracker.IsOccupied(NamespaceTeacher, "x", models.DayMonday, "p1"))
	assert.False(t, tracker.IsOccupied(NamespaceRoom, "x", models.DayMonday, "p1"))
	assert.False(t, tracker.FreeAcross(NamespaceTeacher, "x", models.DayMonday, periodsFixture(2)))
	assert.True(t, tracker.FreeAcross(NamespaceTeacher, "x", models.DayTuesday, periodsFixture(2)))
	assert.Equal(t, 2, tracker.Len())
}

func TestDifficultyAndRank(t *testing.T) {
	reqs := []models.LessonRequirement{
		{ID: "a", BlockLength: 1, TeacherIDs: []string{"t1"}, ClassIDs: []string{"c1"}},
		{ID: "b", BlockLength: 2, TeacherIDs: []string{"t1"}, ClassIDs: []string{"c1"}},
		{ID: "c", BlockLength: 1, TeacherIDs: []string{"t1"}, ClassIDs: []string{"c1"}},
		{ID: "d", BlockLength: 1, TeacherIDs: []string{"t1"}, ClassIDs: []string{"c1"}, RoomCategory: category(models.RoomCategoryLab)},
		{ID: "e", BlockLength: 1, TeacherIDs: []string{"t1", "t2"}},
	}
	assert.Equal(t, 6, Difficulty(reqs[0]))
	assert.Equal(t, 9, Difficulty(reqs[1]))
	assert.Equal(t, 7, Difficulty(reqs[3]))
	assert.Equal(t, 7, Difficulty(reqs[4]))

	blank := models.LessonRequirement{ID: "f", SubjectName: "History", BlockLength: 1, TeacherIDs: []string{"t1"}, ClassIDs: []string{"c1"}, RoomCategory: category(" ")}
	assert.Equal(t, 6, Difficulty(blank), "a blank category is not an override")
	assert.Equal(t, models.RoomCategoryGeneric, ResolveCategory(blank))

	ranked := Rank(reqs)
	ids := make([]string, 0, len(ranked))
	for _, r := range ranked {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"b", "d", "e", "a", "c"}, ids)
	assert.Equal(t, "a", reqs[0].ID, "input is not reordered")
}

func TestResolveCategory(t *testing.T) {
	cases := []struct {
		name string
		req  models.LessonRequirement
		want models.RoomCategory
	}{
		{"physics", models.LessonRequirement{SubjectID: "s", SubjectName: "Physics"}, models.RoomCategoryLab},
		{"integrated science", models.LessonRequirement{SubjectID: "s", SubjectName: "Integrated Science"}, models.RoomCategoryLab},
		{"computer science", models.LessonRequirement{SubjectID: "s", SubjectName: "Computer Science"}, models.RoomCategoryComputerLab},
		{"ict", models.LessonRequirement{SubjectID: "s", SubjectName: "ICT"}, models.RoomCategoryComputerLab},
		{"pe word", models.LessonRequirement{SubjectID: "s", SubjectName: "PE (boys)"}, models.RoomCategoryPE},
		{"sports", models.LessonRequirement{SubjectID: "s", SubjectName: "Sports"}, models.RoomCategoryPE},
		{"physical education", models.LessonRequirement{SubjectID: "s", SubjectName: "Physical Education"}, models.RoomCategoryPE},
		{"speech is not pe", models.LessonRequirement{SubjectID: "s", SubjectName: "Speech"}, models.RoomCategoryGeneric},
		{"library", models.LessonRequirement{SubjectID: "s", SubjectName: "Library Skills"}, models.RoomCategoryLibrary},
		{"history", models.LessonRequirement{SubjectID: "s", SubjectName: "History"}, models.RoomCategoryGeneric},
		{"override", models.LessonRequirement{SubjectID: "s", SubjectName: "History", RoomCategory: category("library")}, models.RoomCategoryLibrary},
		{"blank override", models.LessonRequirement{SubjectID: "s", SubjectName: "Chemistry", RoomCategory: category("  ")}, models.RoomCategoryLab},
		{"meeting", models.LessonRequirement{Title: "Science fair planning"}, models.RoomCategoryGeneric},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ResolveCategory(tc.req))
		})
	}
}

func TestRoomResolverSelectRoom(t *testing.T) {
	tracker := NewOccupancyTracker()
	resolver := NewRoomResolver([]models.Room{
		{ID: "lab-1", Category: "lab"},
		{ID: "lab-2", Category: models.RoomCategoryLab},
		{ID: "gen-1", Category: ""},
		{ID: "gen-2", Category: models.RoomCategoryGeneric},
	}, tracker)
	window := periodsFixture(2)

	room := resolver.SelectRoom(models.RoomCategoryLab, models.DayMonday, window)
	require.NotNil(t, room)
	assert.Equal(t, "lab-1", room.ID)

	tracker.Commit(NamespaceRoom, "lab-1", models.DayMonday, "p2")
	room = resolver.SelectRoom(models.RoomCategoryLab, models.DayMonday, window)
	require.NotNil(t, room)
	assert.Equal(t, "lab-2", room.ID, "a room busy for part of the window is skipped")

	tracker.Commit(NamespaceRoom, "lab-2", models.DayMonday, "p1")
	room = resolver.SelectRoom(models.RoomCategoryLab, models.DayMonday, window)
	require.NotNil(t, room)
	assert.Equal(t, "gen-1", room.ID, "falls back to generic rooms")

	tracker.Commit(NamespaceRoom, "gen-1", models.DayMonday, "p1")
	tracker.Commit(NamespaceRoom, "gen-2", models.DayMonday, "p1")
	assert.Nil(t, resolver.SelectRoom(models.RoomCategoryLab, models.DayMonday, window))
	assert.Nil(t, resolver.SelectRoom(models.RoomCategoryGeneric, models.DayMonday, window))
	assert.Equal(t, 4, resolver.Count())
}

func TestAllocatorPlacesWithoutRoom(t *testing.T) {
	tracker := NewOccupancyTracker()
	alloc := NewAllocator([]models.Day{models.DayMonday}, periodsFixture(3), NewConstraintIndex(nil), tracker, NewRoomResolver(nil, tracker))
	outcome := alloc.Allocate(models.LessonRequirement{ID: "r", SubjectID: "s", OccurrenceCount: 1, BlockLength: 3, TeacherIDs: []string{"t"}, ClassIDs: []string{"c"}})

	assert.Equal(t, Outcome{Needed: 1, Placed: 1}, outcome)
	placements := alloc.Placements()
	require.Len(t, placements, 3)
	for _, p := range placements {
		assert.Nil(t, p.RoomID)
		assert.Equal(t, 1, p.Occurrence)
	}
	assert.Empty(t, alloc.Conflicts())
}

func TestAllocatorCapBlocksWholeDayForAnyClass(t *testing.T) {
	tracker := NewOccupancyTracker()
	days := []models.Day{models.DayMonday, models.DayTuesday}
	alloc := NewAllocator(days, periodsFixture(4), NewConstraintIndex(nil), tracker, NewRoomResolver(nil, tracker))

	// c2 already has its single daily "math" lesson on both days.
	alloc.Allocate(models.LessonRequirement{ID: "solo", SubjectID: "math", OccurrenceCount: 2, BlockLength: 1, TeacherIDs: []string{"t1"}, ClassIDs: []string{"c2"}})
	outcome := alloc.Allocate(models.LessonRequirement{ID: "joint", SubjectID: "math", OccurrenceCount: 2, BlockLength: 1, TeacherIDs: []string{"t2"}, ClassIDs: []string{"c1", "c2"}})

	assert.Equal(t, 0, outcome.Placed, "c2 is at the cap on both days")
	conflicts := alloc.Conflicts()
	require.Len(t, conflicts, 1)
	assert.Equal(t, "joint", conflicts[0].RequirementID)
	assert.Equal(t, 2, conflicts[0].Shortfall())
}

func TestAllocatorSubjectUnavailability(t *testing.T) {
	tracker := NewOccupancyTracker()
	idx := NewConstraintIndex([]models.Unavailability{
		{Kind: models.UnavailabilitySubject, EntityID: "chem", Day: models.DayMonday, PeriodID: "p1"},
	})
	alloc := NewAllocator([]models.Day{models.DayMonday}, periodsFixture(2), idx, tracker, NewRoomResolver(nil, tracker))
	alloc.Allocate(models.LessonRequirement{ID: "r", SubjectID: "chem", OccurrenceCount: 1, BlockLength: 1, TeacherIDs: []string{"t"}})

	placements := alloc.Placements()
	require.Len(t, placements, 1)
	assert.Equal(t, "p2", placements[0].PeriodID)
}

func TestDailyCap(t *testing.T) {
	assert.Equal(t, 1, DailyCap(1, 5))
	assert.Equal(t, 1, DailyCap(5, 5))
	assert.Equal(t, 2, DailyCap(6, 5))
	assert.Equal(t, 3, DailyCap(3, 1))
	assert.Equal(t, 1, DailyCap(0, 5))
	assert.Equal(t, 1, DailyCap(4, 0))
}

func TestRunLogAndReporter(t *testing.T) {
	tick := time.Date(2025, 2, 3, 8, 0, 0, 0, time.UTC)
	log := NewRunLog(func() time.Time { tick = tick.Add(time.Second); return tick })
	log.Add("Clearing existing timetable")
	log.Add("Loaded %d periods", 8)

	steps := log.Steps()
	require.Len(t, steps, 2)
	assert.Equal(t, "Loaded 8 periods", steps[1].Message)
	assert.Equal(t, 2, steps[1].Step)
	assert.True(t, steps[1].Timestamp.After(steps[0].Timestamp))

	var nilLog *RunLog
	nilLog.Add("ignored")
	assert.Nil(t, nilLog.Steps())

	var reporter ConflictReporter
	reporter.Add(models.ConflictRecord{RequirementID: "a", Needed: 3, Placed: 1})
	records := reporter.Records()
	records[0].Placed = 3
	assert.Equal(t, 1, reporter.Records()[0].Placed)
	assert.Equal(t, 1, reporter.Len())
}

func TestActiveDaysAndTeachingPeriods(t *testing.T) {
	assert.Equal(t, models.DefaultDays, ActiveDays(nil))
	assert.Equal(t, []models.Day{models.DayFriday, models.DayMonday}, ActiveDays([]models.Day{models.DayFriday, models.DayMonday, models.DayFriday}))

	periods := TeachingPeriods([]models.Period{{ID: "b", Sequence: 2}, {ID: "x", Sequence: 1, IsBreak: true}, {ID: "a", Sequence: 1}})
	require.Len(t, periods, 2)
	assert.Equal(t, "a", periods[0].ID)
	assert.Equal(t, "b", periods[1].ID)
}
