package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-timetable/internal/models"
)

// timetableLockKey identifies the advisory lock held while a run rewrites the timetable.
const timetableLockKey int64 = 7_400_117

// weekdayOrder sorts day names Monday first instead of alphabetically.
const weekdayOrder = "array_position(ARRAY['MONDAY','TUESDAY','WEDNESDAY','THURSDAY','FRIDAY','SATURDAY','SUNDAY']::text[], ts.day_of_week::text)"

// TimetableRepository persists generated placements and their attendee links.
type TimetableRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewTimetableRepository constructs a timetable repository.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db, now: time.Now}
}

func (r *TimetableRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Lock takes the transaction-scoped advisory lock that serialises timetable
// writers across processes. exec must be a transaction; the lock is released
// on commit or rollback.
func (r *TimetableRepository) Lock(ctx context.Context, exec sqlx.ExtContext) error {
	if _, err := r.exec(exec).ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", timetableLockKey); err != nil {
		return fmt.Errorf("lock timetable: %w", err)
	}
	return nil
}

// DeleteAll clears every persisted slot. Link rows go first so the call works
// without cascading foreign keys.
func (r *TimetableRepository) DeleteAll(ctx context.Context, exec sqlx.ExtContext) error {
	target := r.exec(exec)
	for _, table := range []string{"timetable_slot_classes", "timetable_slot_teachers", "timetable_slots"} {
		if _, err := target.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}

// InsertPlacements writes one slot row per placement plus its class and teacher
// links, all tagged with runID. Slot ids are assigned here.
func (r *TimetableRepository) InsertPlacements(ctx context.Context, exec sqlx.ExtContext, runID string, placements []models.Placement) ([]models.TimetableSlot, error) {
	if len(placements) == 0 {
		return nil, nil
	}
	target := r.exec(exec)
	now := r.now().UTC()

	const slotQuery = `
INSERT INTO timetable_slots (id, run_id, requirement_id, occurrence, day_of_week, period_id, period_sequence, room_id, created_at)
VALUES (:id, :run_id, :requirement_id, :occurrence, :day_of_week, :period_id, :period_sequence, :room_id, :created_at)`
	const classQuery = `INSERT INTO timetable_slot_classes (slot_id, class_id) VALUES (:slot_id, :class_id)`
	const teacherQuery = `INSERT INTO timetable_slot_teachers (slot_id, teacher_id) VALUES (:slot_id, :teacher_id)`

	slots := make([]models.TimetableSlot, 0, len(placements))
	for _, p := range placements {
		slot := models.TimetableSlot{
			ID:             uuid.NewString(),
			RunID:          runID,
			RequirementID:  p.RequirementID,
			Occurrence:     p.Occurrence,
			DayOfWeek:      p.Day,
			PeriodID:       p.PeriodID,
			PeriodSequence: p.PeriodSequence,
			RoomID:         p.RoomID,
			CreatedAt:      now,
		}
		if _, err := sqlx.NamedExecContext(ctx, target, slotQuery, slot); err != nil {
			return nil, fmt.Errorf("insert timetable slot: %w", err)
		}
		for _, classID := range p.ClassIDs {
			link := models.TimetableSlotClass{SlotID: slot.ID, ClassID: classID}
			if _, err := sqlx.NamedExecContext(ctx, target, classQuery, link); err != nil {
				return nil, fmt.Errorf("insert timetable slot class: %w", err)
			}
		}
		for _, teacherID := range p.TeacherIDs {
			link := models.TimetableSlotTeacher{SlotID: slot.ID, TeacherID: teacherID}
			if _, err := sqlx.NamedExecContext(ctx, target, teacherQuery, link); err != nil {
				return nil, fmt.Errorf("insert timetable slot teacher: %w", err)
			}
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

type timetableSlotRow struct {
	models.TimetableSlotDetail
	Classes  pq.StringArray `db:"class_ids"`
	Teachers pq.StringArray `db:"teacher_ids"`
}

// ListSlots returns persisted slots ordered by day, period and requirement.
func (r *TimetableRepository) ListSlots(ctx context.Context, filter models.TimetableSlotFilter) ([]models.TimetableSlotDetail, error) {
	base := `SELECT ts.id, ts.run_id, ts.requirement_id, ts.occurrence, ts.day_of_week, ts.period_id,
       ts.period_sequence, ts.room_id, ts.created_at,
       COALESCE(lr.subject_id, '') AS subject_id,
       COALESCE(lr.title, '') AS title,
       COALESCE(ARRAY(SELECT c.class_id FROM timetable_slot_classes c WHERE c.slot_id = ts.id ORDER BY c.class_id), '{}') AS class_ids,
       COALESCE(ARRAY(SELECT t.teacher_id FROM timetable_slot_teachers t WHERE t.slot_id = ts.id ORDER BY t.teacher_id), '{}') AS teacher_ids
FROM timetable_slots ts
LEFT JOIN lesson_requirements lr ON lr.id = ts.requirement_id
WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Day != "" {
		conditions = append(conditions, fmt.Sprintf("ts.day_of_week = $%d", len(args)+1))
		args = append(args, string(filter.Day))
	}
	if filter.RoomID != "" {
		conditions = append(conditions, fmt.Sprintf("ts.room_id = $%d", len(args)+1))
		args = append(args, filter.RoomID)
	}
	if filter.ClassID != "" {
		conditions = append(conditions, fmt.Sprintf("EXISTS (SELECT 1 FROM timetable_slot_classes fc WHERE fc.slot_id = ts.id AND fc.class_id = $%d)", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("EXISTS (SELECT 1 FROM timetable_slot_teachers ft WHERE ft.slot_id = ts.id AND ft.teacher_id = $%d)", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}
	query := base + " ORDER BY " + weekdayOrder + " ASC, ts.period_sequence ASC, ts.requirement_id ASC"

	var rows []timetableSlotRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list timetable slots: %w", err)
	}
	slots := make([]models.TimetableSlotDetail, 0, len(rows))
	for _, row := range rows {
		slot := row.TimetableSlotDetail
		slot.ClassIDs = []string(row.Classes)
		slot.TeacherIDs = []string(row.Teachers)
		slots = append(slots, slot)
	}
	return slots, nil
}
