package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable/internal/models"
)

// PeriodRepository reads the school's daily period grid.
type PeriodRepository struct {
	db *sqlx.DB
}

// NewPeriodRepository constructs a period repository.
func NewPeriodRepository(db *sqlx.DB) *PeriodRepository {
	return &PeriodRepository{db: db}
}

// ListTeaching returns non-break periods ordered by sequence.
func (r *PeriodRepository) ListTeaching(ctx context.Context) ([]models.Period, error) {
	const query = `SELECT id, sequence, COALESCE(label, '') AS label, is_break
FROM periods WHERE is_break = FALSE ORDER BY sequence ASC, id ASC`
	var periods []models.Period
	if err := r.db.SelectContext(ctx, &periods, query); err != nil {
		return nil, fmt.Errorf("list teaching periods: %w", err)
	}
	return periods, nil
}
