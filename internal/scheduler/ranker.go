package scheduler

import (
	"sort"

	"github.com/noah-isme/sma-timetable/internal/models"
)

// Difficulty estimates how hard a requirement is to place. Longer blocks, more
// simultaneous teachers or classes and an explicit room category all shrink the
// number of feasible windows.
func Difficulty(req models.LessonRequirement) int {
	score := 3*req.BlockLength + 2*len(req.TeacherIDs) + len(req.ClassIDs)
	if hasCategoryOverride(req) {
		score++
	}
	return score
}

// Rank returns the requirements ordered hardest first. Ties keep input order and
// the input slice is left untouched.
func Rank(reqs []models.LessonRequirement) []models.LessonRequirement {
	sorted := make([]models.LessonRequirement, len(reqs))
	copy(sorted, reqs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return Difficulty(sorted[i]) > Difficulty(sorted[j])
	})
	return sorted
}
