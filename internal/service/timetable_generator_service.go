package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable/internal/dto"
	"github.com/noah-isme/sma-timetable/internal/models"
	"github.com/noah-isme/sma-timetable/internal/scheduler"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
	"github.com/noah-isme/sma-timetable/pkg/jobs"
	applog "github.com/noah-isme/sma-timetable/pkg/logger"
)

const timetableJobType = "timetable.generate"

type periodReader interface {
	ListTeaching(ctx context.Context) ([]models.Period, error)
}

type roomReader interface {
	List(ctx context.Context) ([]models.Room, error)
}

type lessonRequirementReader interface {
	ListWithAssignments(ctx context.Context) ([]models.LessonRequirement, error)
}

type unavailabilityReader interface {
	ListUnavailable(ctx context.Context, kind models.UnavailabilityKind) ([]models.Unavailability, error)
}

type rosterReader interface {
	TeacherIDs(ctx context.Context) ([]string, error)
	ClassIDs(ctx context.Context) ([]string, error)
}

type timetableStore interface {
	Lock(ctx context.Context, exec sqlx.ExtContext) error
	DeleteAll(ctx context.Context, exec sqlx.ExtContext) error
	InsertPlacements(ctx context.Context, exec sqlx.ExtContext, runID string, placements []models.Placement) ([]models.TimetableSlot, error)
	ListSlots(ctx context.Context, filter models.TimetableSlotFilter) ([]models.TimetableSlotDetail, error)
}

type timetableEngine interface {
	Generate(ctx context.Context, in scheduler.Input) (*models.TimetableResult, error)
}

type runRecorder interface {
	Save(ctx context.Context, run *models.TimetableRun) error
	Get(ctx context.Context, id string) (*models.TimetableRun, error)
	Latest(ctx context.Context) (*models.TimetableRun, error)
}

type runDispatcher interface {
	Enqueue(job jobs.Job) error
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// TimetableSources groups the read-only snapshot loaders.
type TimetableSources struct {
	Periods      periodReader
	Rooms        roomReader
	Requirements lessonRequirementReader
	Availability unavailabilityReader
	// Roster is optional; without it unknown teacher or class ids are not reported.
	Roster rosterReader
}

// TimetableGeneratorConfig governs generator behaviour.
type TimetableGeneratorConfig struct {
	ActiveDays []models.Day
	RunTimeout time.Duration
}

// TimetableGeneratorService loads scheduling snapshots, runs the placement
// engine and persists the outcome atomically.
type TimetableGeneratorService struct {
	sources   TimetableSources
	timetable timetableStore
	engine    timetableEngine
	runs      runRecorder
	tx        txProvider
	queue     runDispatcher
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       TimetableGeneratorConfig
	now       func() time.Time
	newID     func() string

	// writeMu serialises timetable rewrites within this process; the
	// advisory lock taken in persist covers other processes.
	writeMu sync.Mutex
}

// NewTimetableGeneratorService wires generator dependencies.
func NewTimetableGeneratorService(
	sources TimetableSources,
	timetable timetableStore,
	engine timetableEngine,
	runs runRecorder,
	tx txProvider,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg TimetableGeneratorConfig,
) *TimetableGeneratorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableGeneratorService{
		sources:   sources,
		timetable: timetable,
		engine:    engine,
		runs:      runs,
		tx:        tx,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// AttachQueue enables asynchronous runs through Enqueue.
func (s *TimetableGeneratorService) AttachQueue(queue runDispatcher) {
	s.queue = queue
}

// Generate performs a full run synchronously. A run with conflicts still succeeds.
func (s *TimetableGeneratorService) Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error) {
	days, err := s.resolveDays(req)
	if err != nil {
		return nil, err
	}
	run := s.newRun(models.TimetableRunRunning, req.ClearExisting, days)
	result, err := s.process(ctx, run)
	if err != nil {
		return nil, err
	}
	return &dto.GenerateTimetableResponse{
		RunID:          run.ID,
		Success:        result.Success,
		TotalPlaced:    result.TotalPlaced,
		TotalConflicts: result.TotalConflicts,
		Conflicts:      result.Conflicts,
		Steps:          result.Steps,
		Summary:        result.Summary,
		GeneratedAt:    run.UpdatedAt,
	}, nil
}

// Enqueue records a queued run and hands it to the worker pool.
func (s *TimetableGeneratorService) Enqueue(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.TimetableRunResponse, error) {
	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrSchedulerOff, "asynchronous generation is not configured")
	}
	days, err := s.resolveDays(req)
	if err != nil {
		return nil, err
	}
	run := s.newRun(models.TimetableRunQueued, req.ClearExisting, days)
	if err := s.runs.Save(ctx, run); err != nil {
		return nil, err
	}
	if err := s.queue.Enqueue(jobs.Job{ID: run.ID, Type: timetableJobType, Payload: *run}); err != nil {
		run.Status = models.TimetableRunFailed
		run.Error = "failed to enqueue run"
		run.ErrorCode = appErrors.ErrInternal.Code
		run.UpdatedAt = s.now().UTC()
		_ = s.runs.Save(ctx, run)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue timetable run")
	}
	s.logger.Info("timetable run queued", zap.String("run_id", run.ID))
	return dto.NewTimetableRunResponse(run), nil
}

// Process executes a previously queued run. It is the worker entry point.
func (s *TimetableGeneratorService) Process(ctx context.Context, run *models.TimetableRun) error {
	_, err := s.process(ctx, run)
	return err
}

// GetRun returns a recorded run by id.
func (s *TimetableGeneratorService) GetRun(ctx context.Context, id string) (*dto.TimetableRunResponse, error) {
	if id == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "run id is required")
	}
	run, err := s.runs.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.NewTimetableRunResponse(run), nil
}

// LatestRun returns the most recently updated run.
func (s *TimetableGeneratorService) LatestRun(ctx context.Context) (*dto.TimetableRunResponse, error) {
	run, err := s.runs.Latest(ctx)
	if err != nil {
		return nil, err
	}
	return dto.NewTimetableRunResponse(run), nil
}

// ListSlots returns persisted placements matching the query.
func (s *TimetableGeneratorService) ListSlots(ctx context.Context, query dto.TimetableSlotQuery) ([]models.TimetableSlotDetail, error) {
	filter := models.TimetableSlotFilter{
		ClassID:   query.ClassID,
		TeacherID: query.TeacherID,
		RoomID:    query.RoomID,
	}
	if query.Day != "" {
		day, ok := models.ParseDay(query.Day)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown day %q", query.Day))
		}
		filter.Day = day
	}
	slots, err := s.timetable.ListSlots(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetable slots")
	}
	return slots, nil
}

func (s *TimetableGeneratorService) resolveDays(req dto.GenerateTimetableRequest) ([]models.Day, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable generation payload")
	}
	if len(req.ActiveDays) == 0 {
		return scheduler.ActiveDays(s.cfg.ActiveDays), nil
	}
	days := make([]models.Day, 0, len(req.ActiveDays))
	for _, raw := range req.ActiveDays {
		day, ok := models.ParseDay(raw)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown day %q", raw))
		}
		days = append(days, day)
	}
	return scheduler.ActiveDays(days), nil
}

func (s *TimetableGeneratorService) newRun(status models.TimetableRunStatus, clearExisting bool, days []models.Day) *models.TimetableRun {
	now := s.now().UTC()
	return &models.TimetableRun{
		ID:            s.newID(),
		Status:        status,
		ClearExisting: clearExisting,
		ActiveDays:    days,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func (s *TimetableGeneratorService) process(ctx context.Context, run *models.TimetableRun) (*models.TimetableResult, error) {
	run.Status = models.TimetableRunRunning
	run.UpdatedAt = s.now().UTC()
	if err := s.runs.Save(ctx, run); err != nil {
		s.logger.Warn("failed to record running timetable run", zap.String("run_id", run.ID), zap.Error(err))
	}

	start := time.Now()
	result, err := s.execute(ctx, run)
	s.finish(ctx, run, result, err, time.Since(start))
	return result, err
}

func (s *TimetableGeneratorService) execute(ctx context.Context, run *models.TimetableRun) (*models.TimetableResult, error) {
	if s.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RunTimeout)
		defer cancel()
	}

	runLog := scheduler.NewRunLog(s.now)
	snapshot, err := s.loadSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	runLog.Add("Loaded %d periods, %d rooms and %d lesson requirements",
		len(snapshot.Periods), len(snapshot.Rooms), len(snapshot.Requirements))

	result, err := s.engine.Generate(ctx, scheduler.Input{
		Snapshot: *snapshot,
		Config:   scheduler.Config{ClearExisting: run.ClearExisting, ActiveDays: run.ActiveDays},
		Log:      runLog,
	})
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, cancelled(err)
	}

	if err := s.persist(ctx, run, result.Placements, runLog); err != nil {
		return nil, err
	}
	runLog.Add("Persisted %d placements", len(result.Placements))
	result.Steps = runLog.Steps()
	return result, nil
}

func (s *TimetableGeneratorService) loadSnapshot(ctx context.Context) (*scheduler.Snapshot, error) {
	var (
		snapshot scheduler.Snapshot
		err      error
	)

	start := time.Now()
	snapshot.Periods, err = s.sources.Periods.ListTeaching(ctx)
	s.metrics.ObserveDBQuery("periods", time.Since(start))
	if err != nil {
		return nil, loadFailure(ctx, err, "periods")
	}

	start = time.Now()
	snapshot.Rooms, err = s.sources.Rooms.List(ctx)
	s.metrics.ObserveDBQuery("rooms", time.Since(start))
	if err != nil {
		return nil, loadFailure(ctx, err, "rooms")
	}

	start = time.Now()
	snapshot.Requirements, err = s.sources.Requirements.ListWithAssignments(ctx)
	s.metrics.ObserveDBQuery("lesson_requirements", time.Since(start))
	if err != nil {
		return nil, loadFailure(ctx, err, "lesson requirements")
	}

	start = time.Now()
	for _, kind := range []models.UnavailabilityKind{models.UnavailabilityTeacher, models.UnavailabilityClass, models.UnavailabilitySubject} {
		records, listErr := s.sources.Availability.ListUnavailable(ctx, kind)
		if listErr != nil {
			return nil, loadFailure(ctx, listErr, "availability")
		}
		snapshot.Unavailability = append(snapshot.Unavailability, records...)
	}
	s.metrics.ObserveDBQuery("availability", time.Since(start))

	if s.sources.Roster != nil {
		start = time.Now()
		if snapshot.TeacherIDs, err = s.sources.Roster.TeacherIDs(ctx); err != nil {
			return nil, loadFailure(ctx, err, "teachers")
		}
		if snapshot.ClassIDs, err = s.sources.Roster.ClassIDs(ctx); err != nil {
			return nil, loadFailure(ctx, err, "classes")
		}
		s.metrics.ObserveDBQuery("roster", time.Since(start))
	}
	return &snapshot, nil
}

func (s *TimetableGeneratorService) persist(ctx context.Context, run *models.TimetableRun, placements []models.Placement, runLog *scheduler.RunLog) (err error) {
	if s.tx == nil {
		return appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.timetable.Lock(ctx, tx); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock timetable")
		return err
	}
	if run.ClearExisting {
		if err = s.timetable.DeleteAll(ctx, tx); err != nil {
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear existing timetable")
			return err
		}
		runLog.Add("Cleared existing timetable placements")
	}
	if _, err = s.timetable.InsertPlacements(ctx, tx, run.ID, placements); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist placements")
		return err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = cancelled(ctxErr)
		return err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit timetable")
		return err
	}
	return nil
}

func (s *TimetableGeneratorService) finish(ctx context.Context, run *models.TimetableRun, result *models.TimetableResult, runErr error, elapsed time.Duration) {
	run.UpdatedAt = s.now().UTC()
	log := applog.WithContext(ctx, s.logger)
	if runErr != nil {
		appErr := appErrors.FromError(runErr)
		run.Status = models.TimetableRunFailed
		run.Error = appErr.Message
		run.ErrorCode = appErr.Code
		log.Warn("timetable run failed",
			zap.String("run_id", run.ID),
			zap.String("code", appErr.Code),
			zap.Error(runErr),
		)
	} else {
		run.Status = models.TimetableRunCompleted
		run.Result = result
		log.Info("timetable run completed",
			zap.String("run_id", run.ID),
			zap.Int("placements", result.TotalPlaced),
			zap.Int("conflicts", result.TotalConflicts),
			zap.Duration("elapsed", elapsed),
		)
	}
	s.metrics.ObserveRun(run.Status, elapsed, result)

	// The caller's context may already be done; the record must still land.
	if err := s.runs.Save(context.WithoutCancel(ctx), run); err != nil {
		log.Warn("failed to record finished timetable run", zap.String("run_id", run.ID), zap.Error(err))
	}
}

func cancelled(err error) error {
	return appErrors.Wrap(err, appErrors.ErrRunCancelled.Code, appErrors.ErrRunCancelled.Status, appErrors.ErrRunCancelled.Message)
}

func loadFailure(ctx context.Context, err error, what string) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return cancelled(ctxErr)
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load "+what)
}
