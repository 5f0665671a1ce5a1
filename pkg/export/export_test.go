package export

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset(rows int) Dataset {
	data := Dataset{Headers: []string{"Day", "Period", "Lesson"}}
	for i := 0; i < rows; i++ {
		data.Rows = append(data.Rows, []string{"MONDAY", fmt.Sprintf("%d", i+1), "Physics, lab"})
	}
	return data
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset(1))
	require.NoError(t, err)
	assert.Equal(t, "Day,Period,Lesson\nMONDAY,1,\"Physics, lab\"\n", string(out))
}

func TestRenderRejectsInvalidDatasets(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)

	_, err = NewCSVExporter().Render(Dataset{Headers: []string{"a", "b"}, Rows: [][]string{{"only-one"}}})
	assert.Error(t, err)
}

func TestForFormat(t *testing.T) {
	r, err := ForFormat(" CSV ")
	require.NoError(t, err)
	assert.Equal(t, "csv", r.Extension())

	assert.Equal(t, "text/csv; charset=utf-8", r.ContentType())

	_, err = ForFormat("pdf")
	assert.Error(t, err)
}
