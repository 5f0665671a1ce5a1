package scheduler

import (
	"fmt"
	"time"

	"github.com/noah-isme/sma-timetable/internal/models"
)

// ConflictReporter accumulates shortfalls in processing order.
type ConflictReporter struct {
	records []models.ConflictRecord
}

// Add appends a conflict record.
func (r *ConflictReporter) Add(record models.ConflictRecord) {
	r.records = append(r.records, record)
}

// Records returns a copy of the accumulated records.
func (r *ConflictReporter) Records() []models.ConflictRecord {
	out := make([]models.ConflictRecord, len(r.records))
	copy(out, r.records)
	return out
}

// Len returns the number of conflicts recorded.
func (r *ConflictReporter) Len() int {
	return len(r.records)
}

// RunLog is an ordered, timestamped list of progress messages.
type RunLog struct {
	now   func() time.Time
	steps []models.RunStep
}

// NewRunLog creates a run log stamping entries with now (time.Now when nil).
func NewRunLog(now func() time.Time) *RunLog {
	if now == nil {
		now = time.Now
	}
	return &RunLog{now: now}
}

// Add appends a formatted step.
func (l *RunLog) Add(format string, args ...any) {
	if l == nil {
		return
	}
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	l.steps = append(l.steps, models.RunStep{
		Step:      len(l.steps) + 1,
		Message:   msg,
		Timestamp: l.now().UTC(),
	})
}

// Steps returns a copy of the logged steps.
func (l *RunLog) Steps() []models.RunStep {
	if l == nil {
		return nil
	}
	out := make([]models.RunStep, len(l.steps))
	copy(out, l.steps)
	return out
}
