package service

import (
	"context"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/noah-isme/sma-timetable/internal/dto"
	"github.com/noah-isme/sma-timetable/internal/models"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
	"github.com/noah-isme/sma-timetable/pkg/export"
)

var timetableExportHeaders = []string{"Day", "Period", "Lesson", "Classes", "Teachers", "Room"}

var weekOrder = map[models.Day]int{
	models.DayMonday: 0, models.DayTuesday: 1, models.DayWednesday: 2, models.DayThursday: 3,
	models.DayFriday: 4, models.DaySaturday: 5, models.DaySunday: 6,
}

// TimetableDataset lays placements out one row per period, ordered by day of
// week, period sequence and requirement.
func TimetableDataset(placements []models.Placement) export.Dataset {
	ordered := append([]models.Placement(nil), placements...)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if weekOrder[a.Day] != weekOrder[b.Day] {
			return weekOrder[a.Day] < weekOrder[b.Day]
		}
		if a.PeriodSequence != b.PeriodSequence {
			return a.PeriodSequence < b.PeriodSequence
		}
		return a.RequirementID < b.RequirementID
	})

	rows := lo.Map(ordered, func(p models.Placement, _ int) []string {
		room := ""
		if p.RoomID != nil {
			room = *p.RoomID
		}
		lesson := p.Title
		if lesson == "" {
			lesson = p.SubjectID
		}
		return []string{
			string(p.Day),
			p.PeriodID,
			lesson,
			strings.Join(p.ClassIDs, ", "),
			strings.Join(p.TeacherIDs, ", "),
			room,
		}
	})

	return export.Dataset{Headers: timetableExportHeaders, Rows: rows}
}

func slotPlacement(slot models.TimetableSlotDetail, _ int) models.Placement {
	return models.Placement{
		RequirementID:  slot.RequirementID,
		Occurrence:     slot.Occurrence,
		Day:            slot.DayOfWeek,
		PeriodID:       slot.PeriodID,
		PeriodSequence: slot.PeriodSequence,
		RoomID:         slot.RoomID,
		SubjectID:      slot.SubjectID,
		Title:          slot.Title,
		ClassIDs:       slot.ClassIDs,
		TeacherIDs:     slot.TeacherIDs,
	}
}

// ExportSlots renders the persisted slots matching the query as CSV.
func (s *TimetableGeneratorService) ExportSlots(ctx context.Context, query dto.TimetableExportQuery) (*dto.ExportedFile, error) {
	format := query.Format
	if format == "" {
		format = "csv"
	}
	renderer, err := export.ForFormat(format)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}

	slots, err := s.ListSlots(ctx, query.TimetableSlotQuery)
	if err != nil {
		return nil, err
	}

	body, err := renderer.Render(TimetableDataset(lo.Map(slots, slotPlacement)))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render timetable export")
	}
	return &dto.ExportedFile{
		FileName:    "timetable." + renderer.Extension(),
		ContentType: renderer.ContentType(),
		Body:        body,
	}, nil
}
