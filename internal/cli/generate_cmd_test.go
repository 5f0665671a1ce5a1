package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable/internal/models"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
)

func writeSnapshot(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "snapshot.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := NewRootCmd(&App{})
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestGenerateCommandWritesResult(t *testing.T) {
	input := writeSnapshot(t, sampleSnapshot)

	stdout, stderr, err := execute(t, "generate", "--input", input, "--days", "MONDAY,TUESDAY")
	require.NoError(t, err)

	var result models.TimetableResult
	require.NoError(t, json.Unmarshal([]byte(stdout), &result))
	assert.True(t, result.Success)
	assert.Equal(t, 2, result.Summary.DaysPerWeek)
	assert.Equal(t, 2, result.Summary.PeriodsPerDay)
	assert.Equal(t, 3, result.TotalPlaced)
	for _, p := range result.Placements {
		assert.NotEqual(t, "recess", p.PeriodID)
		if p.RequirementID == "req-2" {
			assert.False(t, p.Day == models.DayMonday && p.PeriodID == "p1", "t2 is unavailable on Monday p1")
		}
	}
	assert.Contains(t, stderr, "placed 3 periods, 0 conflicts")
}

func TestGenerateCommandOutputFile(t *testing.T) {
	input := writeSnapshot(t, sampleSnapshot)
	output := filepath.Join(t.TempDir(), "result.json")

	stdout, _, err := execute(t, "generate", "-i", input, "-o", output)
	require.NoError(t, err)
	assert.Empty(t, stdout)

	raw, err := os.ReadFile(output)
	require.NoError(t, err)
	var result models.TimetableResult
	require.NoError(t, json.Unmarshal(raw, &result))
	assert.Equal(t, 5, result.Summary.DaysPerWeek)
}

func TestGenerateCommandCSV(t *testing.T) {
	input := writeSnapshot(t, sampleSnapshot)

	stdout, _, err := execute(t, "generate", "--input", input, "--days", "MONDAY,TUESDAY", "--format", "csv")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Day,Period,Lesson,Classes,Teachers,Room", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "MONDAY,"))
	assert.True(t, strings.HasPrefix(lines[3], "TUESDAY,"))
}

func TestGenerateCommandErrors(t *testing.T) {
	t.Run("missing input flag", func(t *testing.T) {
		_, _, err := execute(t, "generate")
		require.Error(t, err)
	})

	t.Run("unknown day", func(t *testing.T) {
		_, _, err := execute(t, "generate", "--input", writeSnapshot(t, sampleSnapshot), "--days", "Someday")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Someday")
	})

	t.Run("unknown format", func(t *testing.T) {
		_, _, err := execute(t, "generate", "--input", writeSnapshot(t, sampleSnapshot), "--format", "xlsx")
		require.Error(t, err)
	})

	t.Run("no teaching periods", func(t *testing.T) {
		input := writeSnapshot(t, `{"periods": [{"id": "lunch", "sequence": 1, "isBreak": true}], "requirements": [{"id": "r", "occurrenceCount": 1, "blockLength": 1, "teacherIds": ["t1"]}]}`)
		_, _, err := execute(t, "generate", "--input", input)
		require.Error(t, err)
		assert.ErrorIs(t, err, appErrors.ErrNoPeriods)
	})
}
