package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable/internal/dto"
	"github.com/noah-isme/sma-timetable/internal/models"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
)

func TestTimetableDatasetOrdersByWeek(t *testing.T) {
	lab := "lab-1"
	data := TimetableDataset([]models.Placement{
		{RequirementID: "b", Day: models.DayTuesday, PeriodID: "p1", PeriodSequence: 1, SubjectID: "phys", RoomID: &lab,
			ClassIDs: []string{"10A", "10B"}, TeacherIDs: []string{"t1"}},
		{RequirementID: "a", Day: models.DayMonday, PeriodID: "p2", PeriodSequence: 2, Title: "Staff briefing",
			TeacherIDs: []string{"t1", "t2"}},
		{RequirementID: "c", Day: models.DayMonday, PeriodID: "p1", PeriodSequence: 1, SubjectID: "math"},
	})

	assert.Equal(t, [][]string{
		{"MONDAY", "p1", "math", "", "", ""},
		{"MONDAY", "p2", "Staff briefing", "", "t1, t2", ""},
		{"TUESDAY", "p1", "phys", "10A, 10B", "t1", "lab-1"},
	}, data.Rows)
}

func TestTimetableGeneratorServiceExportSlots(t *testing.T) {
	tx, _ := newTimetableTxMock(t)
	fx := newGeneratorFixture(t, tx)
	fx.store.slots = []models.TimetableSlotDetail{{
		TimetableSlot: models.TimetableSlot{ID: "slot-1", RequirementID: "req-math", DayOfWeek: models.DayMonday, PeriodID: "p1", PeriodSequence: 1},
		SubjectID:     "math",
		ClassIDs:      []string{"10A"},
		TeacherIDs:    []string{"t1"},
	}}

	file, err := fx.service.ExportSlots(context.Background(), dto.TimetableExportQuery{
		TimetableSlotQuery: dto.TimetableSlotQuery{ClassID: "10A"},
	})
	require.NoError(t, err)
	assert.Equal(t, "timetable.csv", file.FileName)
	assert.Equal(t, "text/csv; charset=utf-8", file.ContentType)
	assert.Equal(t, "Day,Period,Lesson,Classes,Teachers,Room\nMONDAY,p1,math,10A,t1,\n", string(file.Body))
	assert.Equal(t, "10A", fx.store.filter.ClassID)
}

func TestTimetableGeneratorServiceExportSlotsRejectsFormat(t *testing.T) {
	tx, _ := newTimetableTxMock(t)
	fx := newGeneratorFixture(t, tx)

	_, err := fx.service.ExportSlots(context.Background(), dto.TimetableExportQuery{Format: "docx"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
