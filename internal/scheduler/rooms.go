package scheduler

import (
	"strings"
	"unicode"

	"github.com/samber/lo"

	"github.com/noah-isme/sma-timetable/internal/models"
)

type categoryRule struct {
	category models.RoomCategory
	// phrases match anywhere in the lowered subject name.
	phrases []string
	// words only match a whole token, so "pe" does not fire on "speech".
	words []string
}

// Checked in order; computer rules precede science so "Computer Science" lands in a computer lab.
var categoryRules = []categoryRule{
	{category: models.RoomCategoryComputerLab, phrases: []string{"computer"}, words: []string{"ict"}},
	{category: models.RoomCategoryLab, phrases: []string{"science", "physics", "chemistry", "biology"}},
	{category: models.RoomCategoryPE, phrases: []string{"physical education", "sports"}, words: []string{"pe"}},
	{category: models.RoomCategoryLibrary, phrases: []string{"library"}},
}

var categoryAliases = map[string]models.RoomCategory{
	"GENERIC":            models.RoomCategoryGeneric,
	"CLASSROOM":          models.RoomCategoryGeneric,
	"LAB":                models.RoomCategoryLab,
	"LABORATORY":         models.RoomCategoryLab,
	"COMPUTER_LAB":       models.RoomCategoryComputerLab,
	"COMPUTER-LAB":       models.RoomCategoryComputerLab,
	"PE":                 models.RoomCategoryPE,
	"PHYSICAL_EDUCATION": models.RoomCategoryPE,
	"LIBRARY":            models.RoomCategoryLibrary,
}

// NormalizeCategory maps stored category labels onto the known categories.
// Unknown labels are kept verbatim (upper-cased); empty labels are generic.
func NormalizeCategory(raw models.RoomCategory) models.RoomCategory {
	key := strings.ToUpper(strings.TrimSpace(string(raw)))
	if key == "" {
		return models.RoomCategoryGeneric
	}
	if category, ok := categoryAliases[key]; ok {
		return category
	}
	return models.RoomCategory(key)
}

// ResolveCategory returns the room category a requirement needs. An explicit
// override wins; otherwise the subject name is matched against the keyword table.
func ResolveCategory(req models.LessonRequirement) models.RoomCategory {
	if hasCategoryOverride(req) {
		return NormalizeCategory(*req.RoomCategory)
	}
	if req.IsMeeting() {
		return models.RoomCategoryGeneric
	}
	name := strings.ToLower(req.SubjectName)
	tokens := strings.FieldsFunc(name, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, rule := range categoryRules {
		if lo.SomeBy(rule.phrases, func(phrase string) bool { return strings.Contains(name, phrase) }) {
			return rule.category
		}
		if lo.Some(tokens, rule.words) {
			return rule.category
		}
	}
	return models.RoomCategoryGeneric
}

// hasCategoryOverride reports whether the requirement names a non-blank room category.
func hasCategoryOverride(req models.LessonRequirement) bool {
	return req.RoomCategory != nil && strings.TrimSpace(string(*req.RoomCategory)) != ""
}

// RoomResolver hands out free rooms by category, falling back to generic rooms.
type RoomResolver struct {
	buckets map[models.RoomCategory][]models.Room
	tracker *OccupancyTracker
	total   int
}

// NewRoomResolver buckets rooms by category, preserving input order in each bucket.
func NewRoomResolver(rooms []models.Room, tracker *OccupancyTracker) *RoomResolver {
	buckets := lo.GroupBy(rooms, func(room models.Room) models.RoomCategory {
		return NormalizeCategory(room.Category)
	})
	return &RoomResolver{buckets: buckets, tracker: tracker, total: len(rooms)}
}

// SelectRoom returns the first room of the category free for the whole window,
// retrying against generic rooms for specialised categories. Nil means no room.
func (r *RoomResolver) SelectRoom(category models.RoomCategory, day models.Day, window []models.Period) *models.Room {
	category = NormalizeCategory(category)
	if room := r.firstFree(category, day, window); room != nil {
		return room
	}
	if category != models.RoomCategoryGeneric {
		return r.firstFree(models.RoomCategoryGeneric, day, window)
	}
	return nil
}

func (r *RoomResolver) firstFree(category models.RoomCategory, day models.Day, window []models.Period) *models.Room {
	for i := range r.buckets[category] {
		room := r.buckets[category][i]
		if r.tracker.FreeAcross(NamespaceRoom, room.ID, day, window) {
			return &room
		}
	}
	return nil
}

// Count returns the total number of rooms known to the resolver.
func (r *RoomResolver) Count() int {
	return r.total
}
