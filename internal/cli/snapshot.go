package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/noah-isme/sma-timetable/internal/models"
	"github.com/noah-isme/sma-timetable/internal/scheduler"
)

type rawPeriod struct {
	ID       string `mapstructure:"id"`
	Sequence int    `mapstructure:"sequence"`
	Label    string `mapstructure:"label"`
	IsBreak  bool   `mapstructure:"isBreak"`
}

type rawRoom struct {
	ID       string `mapstructure:"id"`
	Name     string `mapstructure:"name"`
	Category string `mapstructure:"category"`
	Capacity int    `mapstructure:"capacity"`
}

type rawRequirement struct {
	ID              string   `mapstructure:"id"`
	SubjectID       string   `mapstructure:"subjectId"`
	SubjectName     string   `mapstructure:"subjectName"`
	Title           string   `mapstructure:"title"`
	OccurrenceCount int      `mapstructure:"occurrenceCount"`
	BlockLength     int      `mapstructure:"blockLength"`
	RoomCategory    string   `mapstructure:"roomCategory"`
	TeacherIDs      []string `mapstructure:"teacherIds"`
	ClassIDs        []string `mapstructure:"classIds"`
}

type rawUnavailability struct {
	Kind     string `mapstructure:"kind"`
	EntityID string `mapstructure:"entityId"`
	Day      string `mapstructure:"day"`
	PeriodID string `mapstructure:"periodId"`
}

// rawSnapshot mirrors the JSON snapshot file. Rosters are pointers so an
// absent key can be told apart from an empty list.
type rawSnapshot struct {
	Periods        []rawPeriod         `mapstructure:"periods"`
	Rooms          []rawRoom           `mapstructure:"rooms"`
	Requirements   []rawRequirement    `mapstructure:"requirements"`
	Unavailability []rawUnavailability `mapstructure:"unavailability"`
	TeacherIDs     *[]string           `mapstructure:"teacherIds"`
	ClassIDs       *[]string           `mapstructure:"classIds"`
}

// DecodeSnapshot reads a JSON snapshot. Unknown keys are rejected so typos do
// not silently drop constraints.
func DecodeSnapshot(r io.Reader) (scheduler.Snapshot, error) {
	var document map[string]any
	if err := json.NewDecoder(r).Decode(&document); err != nil {
		return scheduler.Snapshot{}, fmt.Errorf("parse snapshot json: %w", err)
	}

	var raw rawSnapshot
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused: true,
		DecodeHook:  mapstructure.DecodeHookFuncKind(wholeNumbers),
		Result:      &raw,
	})
	if err != nil {
		return scheduler.Snapshot{}, err
	}
	if err := decoder.Decode(document); err != nil {
		return scheduler.Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}

	return raw.toSnapshot()
}

// wholeNumbers refuses JSON numbers with a fractional part for integer fields;
// mapstructure would otherwise truncate them.
func wholeNumbers(from, to reflect.Kind, data interface{}) (interface{}, error) {
	if from != reflect.Float64 {
		return data, nil
	}
	switch to {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
	default:
		return data, nil
	}
	if value := data.(float64); value != math.Trunc(value) {
		return nil, fmt.Errorf("expected a whole number, got %v", value)
	}
	return data, nil
}

func (raw rawSnapshot) toSnapshot() (scheduler.Snapshot, error) {
	snapshot := scheduler.Snapshot{
		Periods:        make([]models.Period, 0, len(raw.Periods)),
		Rooms:          make([]models.Room, 0, len(raw.Rooms)),
		Requirements:   make([]models.LessonRequirement, 0, len(raw.Requirements)),
		Unavailability: make([]models.Unavailability, 0, len(raw.Unavailability)),
	}

	for _, p := range raw.Periods {
		snapshot.Periods = append(snapshot.Periods, models.Period(p))
	}

	for _, room := range raw.Rooms {
		category := models.RoomCategoryGeneric
		if room.Category != "" {
			category = models.RoomCategory(strings.ToUpper(room.Category))
		}
		snapshot.Rooms = append(snapshot.Rooms, models.Room{ID: room.ID, Name: room.Name, Category: category, Capacity: room.Capacity})
	}

	for _, req := range raw.Requirements {
		requirement := models.LessonRequirement{
			ID:              req.ID,
			SubjectID:       req.SubjectID,
			SubjectName:     req.SubjectName,
			Title:           req.Title,
			OccurrenceCount: req.OccurrenceCount,
			BlockLength:     req.BlockLength,
			TeacherIDs:      req.TeacherIDs,
			ClassIDs:        req.ClassIDs,
		}
		if req.RoomCategory != "" {
			category := models.RoomCategory(strings.ToUpper(req.RoomCategory))
			requirement.RoomCategory = &category
		}
		snapshot.Requirements = append(snapshot.Requirements, requirement)
	}

	for i, u := range raw.Unavailability {
		day, ok := models.ParseDay(u.Day)
		if !ok {
			return scheduler.Snapshot{}, fmt.Errorf("unavailability[%d]: unknown day %q", i, u.Day)
		}
		snapshot.Unavailability = append(snapshot.Unavailability, models.Unavailability{
			Kind:     models.UnavailabilityKind(strings.ToUpper(u.Kind)),
			EntityID: u.EntityID,
			Day:      day,
			PeriodID: u.PeriodID,
		})
	}

	if raw.TeacherIDs != nil {
		snapshot.TeacherIDs = append([]string{}, *raw.TeacherIDs...)
	}
	if raw.ClassIDs != nil {
		snapshot.ClassIDs = append([]string{}, *raw.ClassIDs...)
	}

	return snapshot, nil
}
