package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-timetable/internal/models"
)

// LessonRequirementRepository reads weekly lesson and meeting requirements.
type LessonRequirementRepository struct {
	db *sqlx.DB
}

// NewLessonRequirementRepository constructs a lesson requirement repository.
func NewLessonRequirementRepository(db *sqlx.DB) *LessonRequirementRepository {
	return &LessonRequirementRepository{db: db}
}

type lessonRequirementRow struct {
	models.LessonRequirement
	Teachers pq.StringArray `db:"teacher_ids"`
	Classes  pq.StringArray `db:"class_ids"`
}

// ListWithAssignments returns every requirement with its teacher and class id
// sets, in creation order.
func (r *LessonRequirementRepository) ListWithAssignments(ctx context.Context) ([]models.LessonRequirement, error) {
	const query = `SELECT lr.id,
       COALESCE(lr.subject_id, '') AS subject_id,
       COALESCE(s.name, '') AS subject_name,
       COALESCE(lr.title, '') AS title,
       lr.occurrence_count,
       lr.block_length,
       lr.room_category,
       COALESCE(ARRAY(SELECT lrt.teacher_id FROM lesson_requirement_teachers lrt WHERE lrt.requirement_id = lr.id ORDER BY lrt.teacher_id), '{}') AS teacher_ids,
       COALESCE(ARRAY(SELECT lrc.class_id FROM lesson_requirement_classes lrc WHERE lrc.requirement_id = lr.id ORDER BY lrc.class_id), '{}') AS class_ids
FROM lesson_requirements lr
LEFT JOIN subjects s ON s.id = lr.subject_id
ORDER BY lr.created_at ASC, lr.id ASC`

	var rows []lessonRequirementRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list lesson requirements: %w", err)
	}
	requirements := make([]models.LessonRequirement, 0, len(rows))
	for _, row := range rows {
		req := row.LessonRequirement
		req.TeacherIDs = []string(row.Teachers)
		req.ClassIDs = []string(row.Classes)
		requirements = append(requirements, req)
	}
	return requirements, nil
}
