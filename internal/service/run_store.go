package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable/internal/models"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
)

const (
	runKeyPrefix   = "run:"
	latestRunKey   = "run:latest"
	maxMemoryRuns  = 100
	defaultRunsTTL = 24 * time.Hour
)

// RunCache abstracts the shared store backing run records.
type RunCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	SetMany(ctx context.Context, values map[string]interface{}, ttl time.Duration) error
}

// RunStore keeps generation run records. With a cache configured, records are
// shared through it; otherwise they live in process memory, bounded to the
// most recent runs.
type RunStore struct {
	cache   RunCache
	metrics *MetricsService
	ttl     time.Duration
	logger  *zap.Logger
	enabled bool

	mu     sync.RWMutex
	runs   map[string]models.TimetableRun
	order  []string
	latest string
}

// NewRunStore constructs a run store.
func NewRunStore(cache RunCache, metrics *MetricsService, ttl time.Duration, logger *zap.Logger, enabled bool) *RunStore {
	if ttl <= 0 {
		ttl = defaultRunsTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RunStore{
		cache:   cache,
		metrics: metrics,
		ttl:     ttl,
		logger:  logger,
		enabled: enabled && cache != nil,
		runs:    make(map[string]models.TimetableRun),
	}
}

// Shared reports whether records go through the external cache.
func (s *RunStore) Shared() bool {
	return s.enabled
}

// Save stores the run and marks it as the latest one.
func (s *RunStore) Save(ctx context.Context, run *models.TimetableRun) error {
	if run == nil {
		return nil
	}
	if !s.enabled {
		s.saveLocal(*run)
		return nil
	}
	start := time.Now()
	err := s.cache.SetMany(ctx, map[string]interface{}{
		runKeyPrefix + run.ID: run,
		latestRunKey:          run,
	}, s.ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("run record write failed", zap.String("run_id", run.ID), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store run record")
	}
	return nil
}

// Get returns the run with the given id.
func (s *RunStore) Get(ctx context.Context, id string) (*models.TimetableRun, error) {
	if !s.enabled {
		s.mu.RLock()
		defer s.mu.RUnlock()
		run, ok := s.runs[id]
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable run not found")
		}
		return &run, nil
	}
	return s.lookup(ctx, runKeyPrefix+id)
}

// Latest returns the most recently saved run.
func (s *RunStore) Latest(ctx context.Context) (*models.TimetableRun, error) {
	if !s.enabled {
		s.mu.RLock()
		id := s.latest
		s.mu.RUnlock()
		if id == "" {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no timetable run recorded")
		}
		return s.Get(ctx, id)
	}
	return s.lookup(ctx, latestRunKey)
}

func (s *RunStore) lookup(ctx context.Context, key string) (*models.TimetableRun, error) {
	var run models.TimetableRun
	err := s.cache.Get(ctx, key, &run)
	if err != nil {
		s.metrics.RecordCacheLookup(false)
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable run not found")
		}
		s.logger.Warn("run record read failed", zap.String("key", key), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read run record")
	}
	s.metrics.RecordCacheLookup(true)
	return &run, nil
}

func (s *RunStore) saveLocal(run models.TimetableRun) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.runs[run.ID]; !exists {
		s.order = append(s.order, run.ID)
		if len(s.order) > maxMemoryRuns {
			evicted := s.order[0]
			s.order = s.order[1:]
			delete(s.runs, evicted)
		}
	}
	s.runs[run.ID] = run
	s.latest = run.ID
}
