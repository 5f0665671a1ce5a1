package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// RosterRepository exposes the known teacher and class ids used for
// referential checks during generation.
type RosterRepository struct {
	db *sqlx.DB
}

// NewRosterRepository constructs a roster repository.
func NewRosterRepository(db *sqlx.DB) *RosterRepository {
	return &RosterRepository{db: db}
}

// TeacherIDs lists every teacher id.
func (r *RosterRepository) TeacherIDs(ctx context.Context) ([]string, error) {
	ids := []string{}
	if err := r.db.SelectContext(ctx, &ids, `SELECT id FROM teachers ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list teacher ids: %w", err)
	}
	return ids, nil
}

// ClassIDs lists every class id.
func (r *RosterRepository) ClassIDs(ctx context.Context) ([]string, error) {
	ids := []string{}
	if err := r.db.SelectContext(ctx, &ids, `SELECT id FROM classes ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list class ids: %w", err)
	}
	return ids, nil
}
