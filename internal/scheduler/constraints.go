package scheduler

import "github.com/noah-isme/sma-timetable/internal/models"

// Namespace separates the entity kinds tracked by the engine.
type Namespace uint8

const (
	NamespaceTeacher Namespace = iota + 1
	NamespaceClass
	NamespaceRoom
	namespaceSubject
)

// slotKey is the composite (entity, day, period) membership key shared by the
// constraint index and the occupancy tracker.
type slotKey struct {
	ns       Namespace
	id       string
	day      models.Day
	periodID string
}

func unavailabilityNamespace(kind models.UnavailabilityKind) (Namespace, bool) {
	switch kind {
	case models.UnavailabilityTeacher:
		return NamespaceTeacher, true
	case models.UnavailabilityClass:
		return NamespaceClass, true
	case models.UnavailabilitySubject:
		return namespaceSubject, true
	default:
		return 0, false
	}
}

// ConstraintIndex answers "is this entity blocked at this day/period" in O(1).
type ConstraintIndex struct {
	keys map[slotKey]struct{}
}

// NewConstraintIndex compiles unavailability records into membership sets.
// Records with an unknown kind are ignored.
func NewConstraintIndex(records []models.Unavailability) *ConstraintIndex {
	idx := &ConstraintIndex{keys: make(map[slotKey]struct{}, len(records))}
	for _, rec := range records {
		ns, ok := unavailabilityNamespace(rec.Kind)
		if !ok {
			continue
		}
		idx.keys[slotKey{ns: ns, id: rec.EntityID, day: rec.Day, periodID: rec.PeriodID}] = struct{}{}
	}
	return idx
}

// IsUnavailable reports whether the entity is marked unschedulable at day/period.
func (c *ConstraintIndex) IsUnavailable(kind models.UnavailabilityKind, entityID string, day models.Day, periodID string) bool {
	ns, ok := unavailabilityNamespace(kind)
	if !ok {
		return false
	}
	return c.isBlocked(ns, entityID, day, periodID)
}

func (c *ConstraintIndex) isBlocked(ns Namespace, entityID string, day models.Day, periodID string) bool {
	if c == nil {
		return false
	}
	_, hit := c.keys[slotKey{ns: ns, id: entityID, day: day, periodID: periodID}]
	return hit
}

// Len returns the number of distinct blocked keys.
func (c *ConstraintIndex) Len() int {
	if c == nil {
		return 0
	}
	return len(c.keys)
}
