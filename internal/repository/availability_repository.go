package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable/internal/models"
)

const availabilityStateUnavailable = "unavailable"

// AvailabilityRepository reads availability records for teachers, classes and subjects.
type AvailabilityRepository struct {
	db *sqlx.DB
}

// NewAvailabilityRepository constructs an availability repository.
func NewAvailabilityRepository(db *sqlx.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

// ListUnavailable returns the slots marked unavailable for the given entity kind.
// Rows in any other state are ignored.
func (r *AvailabilityRepository) ListUnavailable(ctx context.Context, kind models.UnavailabilityKind) ([]models.Unavailability, error) {
	const query = `SELECT kind, entity_id, day_of_week AS day, period_id
FROM availability WHERE kind = $1 AND state = $2
ORDER BY entity_id ASC, day_of_week ASC, period_id ASC`
	var records []models.Unavailability
	if err := r.db.SelectContext(ctx, &records, query, string(kind), availabilityStateUnavailable); err != nil {
		return nil, fmt.Errorf("list %s unavailability: %w", kind, err)
	}
	return records, nil
}
