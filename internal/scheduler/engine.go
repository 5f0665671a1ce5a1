package scheduler

import (
	"context"
	"sort"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable/internal/models"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
)

// Snapshot holds the read-only data a run schedules against.
type Snapshot struct {
	Periods        []models.Period
	Rooms          []models.Room
	Requirements   []models.LessonRequirement
	Unavailability []models.Unavailability
	// Known teacher and class ids. Nil skips the referential check.
	TeacherIDs []string
	ClassIDs   []string
}

// Config carries the caller's run options.
type Config struct {
	// ClearExisting is honoured by the caller's storage layer, not by the engine.
	ClearExisting bool
	ActiveDays    []models.Day
}

// Input bundles everything one Generate call needs. Log may be nil, in which
// case the engine starts a fresh run log.
type Input struct {
	Snapshot Snapshot
	Config   Config
	Log      *RunLog
}

// Engine runs greedy timetable placement. It holds no state between runs.
type Engine struct {
	logger *zap.Logger
	now    func() time.Time
}

// Option customises an Engine.
type Option func(*Engine)

// WithClock overrides the clock used for run log timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// New constructs an engine.
func New(logger *zap.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ActiveDays returns the configured days de-duplicated in caller order, or the
// default weekdays when none are configured.
func ActiveDays(days []models.Day) []models.Day {
	if len(days) == 0 {
		return append([]models.Day(nil), models.DefaultDays...)
	}
	return lo.Uniq(days)
}

// TeachingPeriods drops break periods and orders the rest by sequence.
func TeachingPeriods(periods []models.Period) []models.Period {
	teaching := lo.Filter(periods, func(p models.Period, _ int) bool { return !p.IsBreak })
	sort.SliceStable(teaching, func(i, j int) bool { return teaching[i].Sequence < teaching[j].Sequence })
	return teaching
}

// Generate places every requirement of the snapshot. Conflicts do not make the
// run fail; only missing periods or requirements do.
func (e *Engine) Generate(ctx context.Context, in Input) (*models.TimetableResult, error) {
	periods := TeachingPeriods(in.Snapshot.Periods)
	if len(periods) == 0 {
		return nil, appErrors.ErrNoPeriods
	}
	if len(in.Snapshot.Requirements) == 0 {
		return nil, appErrors.ErrNoLessons
	}
	if err := ctx.Err(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrRunCancelled.Code, appErrors.ErrRunCancelled.Status, appErrors.ErrRunCancelled.Message)
	}

	log := in.Log
	if log == nil {
		log = NewRunLog(e.now)
	}
	days := ActiveDays(in.Config.ActiveDays)

	index := NewConstraintIndex(in.Snapshot.Unavailability)
	log.Add("Compiled %d unavailability constraints", index.Len())

	tracker := NewOccupancyTracker()
	rooms := NewRoomResolver(in.Snapshot.Rooms, tracker)
	allocator := NewAllocator(days, periods, index, tracker, rooms).
		WithRoster(in.Snapshot.TeacherIDs, in.Snapshot.ClassIDs)

	ranked := Rank(in.Snapshot.Requirements)
	log.Add("Ranked %d lesson requirements across %d days x %d periods", len(ranked), len(days), len(periods))

	for _, req := range ranked {
		outcome := allocator.Allocate(req)
		if outcome.Placed == outcome.Needed {
			log.Add("Placed %s: %d/%d occurrences", req.Label(), outcome.Placed, outcome.Needed)
		} else {
			log.Add("Conflict for %s: %d/%d occurrences (%s)", req.Label(), outcome.Placed, outcome.Needed, outcome.Reason)
		}
		e.logger.Debug("requirement allocated",
			zap.String("requirement_id", req.ID),
			zap.Int("difficulty", Difficulty(req)),
			zap.Int("needed", outcome.Needed),
			zap.Int("placed", outcome.Placed),
		)
	}

	placements := allocator.Placements()
	conflicts := allocator.Conflicts()
	result := &models.TimetableResult{
		Success:        true,
		TotalPlaced:    len(placements),
		TotalConflicts: len(conflicts),
		Placements:     placements,
		Conflicts:      conflicts,
		Steps:          log.Steps(),
		Summary: models.RunSummary{
			LessonRequirementCount: len(in.Snapshot.Requirements),
			PeriodsPerDay:          len(periods),
			DaysPerWeek:            len(days),
			RoomsAvailable:         rooms.Count(),
			TotalPlacementsCreated: len(placements),
		},
	}
	e.logger.Info("timetable generated",
		zap.Int("placements", result.TotalPlaced),
		zap.Int("conflicts", result.TotalConflicts),
		zap.Int("occupancy_entries", tracker.Len()),
	)
	return result, nil
}
