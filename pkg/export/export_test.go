package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Title:   "Roster",
		Headers: []string{"studentID", "name", "total"},
		Rows: []map[string]string{
			{"studentID": "10001", "name": "Somchai", "total": "135"},
			{"studentID": "10002", "name": "Suda"},
		},
	}
}

func TestDatasetRecordsFollowHeaderOrder(t *testing.T) {
	records := sampleDataset().Records()
	require.Len(t, records, 2)
	assert.Equal(t, []string{"10001", "Somchai", "135"}, records[0])
	assert.Equal(t, []string{"10002", "Suda", ""}, records[1])
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter(false).Render(sampleDataset())
	require.NoError(t, err)
	assert.Equal(t, "studentID,name,total\n10001,Somchai,135\n10002,Suda,\n", string(out))
}

func TestCSVExporterPrefixesBOM(t *testing.T) {
	out, err := NewCSVExporter(true).Render(sampleDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, utf8BOM))
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter(false).Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter("").Render(sampleDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestPDFExporterRejectsMissingFont(t *testing.T) {
	_, err := NewPDFExporter("/nonexistent/font.ttf").Render(sampleDataset())
	assert.Error(t, err)
}
