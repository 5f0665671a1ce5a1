package service

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable/internal/models"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
	"github.com/noah-isme/sma-timetable/pkg/jobs"
)

type runProcessor interface {
	Process(ctx context.Context, run *models.TimetableRun) error
}

// TimetableWorker bridges queue jobs to the generator service.
type TimetableWorker struct {
	processor  runProcessor
	runs       runRecorder
	logger     *zap.Logger
	maxRetries int
}

// NewTimetableWorker constructs a worker.
func NewTimetableWorker(processor runProcessor, runs runRecorder, maxRetries int, logger *zap.Logger) *TimetableWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &TimetableWorker{processor: processor, runs: runs, logger: logger, maxRetries: maxRetries}
}

// Handle processes a queue job. Only server-side failures are handed back to
// the queue for a retry; a run rejected for its input is final.
func (w *TimetableWorker) Handle(ctx context.Context, job jobs.Job) error {
	run, ok := job.Payload.(models.TimetableRun)
	if !ok {
		stored, err := w.runs.Get(ctx, job.ID)
		if err != nil {
			return err
		}
		run = *stored
	}

	err := w.processor.Process(ctx, &run)
	if err == nil {
		return nil
	}
	appErr := appErrors.FromError(err)
	if appErr.Status < http.StatusInternalServerError || job.Attempt >= w.maxRetries {
		w.logger.Sugar().Warnw("timetable job finished with error", "job_id", job.ID, "attempt", job.Attempt, "code", appErr.Code)
		return nil
	}
	return err
}
