package scheduler

import "github.com/noah-isme/sma-timetable/internal/models"

// OccupancyTracker records committed (entity, day, period) bookings for one run.
// Entries are never removed.
type OccupancyTracker struct {
	busy map[slotKey]struct{}
}

// NewOccupancyTracker returns an empty tracker.
func NewOccupancyTracker() *OccupancyTracker {
	return &OccupancyTracker{busy: make(map[slotKey]struct{})}
}

// IsOccupied reports whether the entity already holds a booking at day/period.
func (t *OccupancyTracker) IsOccupied(ns Namespace, id string, day models.Day, periodID string) bool {
	_, hit := t.busy[slotKey{ns: ns, id: id, day: day, periodID: periodID}]
	return hit
}

// Commit books the entity at day/period. It returns false when the slot was already taken.
func (t *OccupancyTracker) Commit(ns Namespace, id string, day models.Day, periodID string) bool {
	key := slotKey{ns: ns, id: id, day: day, periodID: periodID}
	if _, hit := t.busy[key]; hit {
		return false
	}
	t.busy[key] = struct{}{}
	return true
}

// FreeAcross reports whether the entity is unbooked for every period in the window.
func (t *OccupancyTracker) FreeAcross(ns Namespace, id string, day models.Day, window []models.Period) bool {
	for _, p := range window {
		if t.IsOccupied(ns, id, day, p.ID) {
			return false
		}
	}
	return true
}

// Len returns the number of committed entries across all namespaces.
func (t *OccupancyTracker) Len() int {
	return len(t.busy)
}
