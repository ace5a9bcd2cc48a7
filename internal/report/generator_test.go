package report

import (
	"encoding/json"
	"testing"
	"time"

	"fjacquet/stmt-ingest/internal/extractor"
	"fjacquet/stmt-ingest/internal/logging"
	"fjacquet/stmt-ingest/internal/pipeline"
	"fjacquet/stmt-ingest/internal/resolver"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleReport() *pipeline.Report {
	return &pipeline.Report{
		Files:      2,
		FileErrors: []pipeline.FileError{{Path: "bad.csv", Error: "missing essential columns: date"}},
		Extraction: extractor.Stats{
			Rows:    10,
			Kept:    8,
			Dropped: map[string]int{"zero_amount": 1, "bad_amount": 1},
		},
		Resolution: resolver.Stats{ExactDuplicates: 1, TransferPairs: 1, TransfersRemoved: 2},
		Persisted:  5,
		DateRange: pipeline.DateRange{
			Start: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		},
	}
}

func TestGenerator_Render_JSON(t *testing.T) {
	generator := NewGenerator(logging.NewMockLogger())

	out, err := generator.Render(sampleReport(), FormatJSON)
	require.NoError(t, err)

	var decoded pipeline.Report
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, 2, decoded.Files)
	assert.Equal(t, 1, decoded.Extraction.Dropped["zero_amount"])
	assert.Equal(t, 1, decoded.Resolution.TransferPairs)
	require.Len(t, decoded.FileErrors, 1)
	assert.Equal(t, "bad.csv", decoded.FileErrors[0].Path)
}

func TestGenerator_Render_YAML(t *testing.T) {
	generator := NewGenerator(logging.NewMockLogger())

	out, err := generator.Render(sampleReport(), FormatYAML)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, yaml.Unmarshal(out, &decoded))
	assert.Equal(t, 5, decoded["persisted"])
}

func TestGenerator_Render_Text(t *testing.T) {
	generator := NewGenerator(logging.NewMockLogger())

	out, err := generator.Render(sampleReport(), FormatText)
	require.NoError(t, err)

	text := string(out)
	assert.Contains(t, text, "Run summary")
	assert.Regexp(t, `files ingested\s*│\s*1[\s│]`, text)
	assert.Contains(t, text, "dropped: bad_amount")
	assert.Contains(t, text, "dropped: zero_amount")
	assert.Contains(t, text, "2024-03-01_2024-03-31")
	assert.Contains(t, text, "bad.csv: missing essential columns: date")
}

func TestGenerator_Render_Errors(t *testing.T) {
	generator := NewGenerator(logging.NewMockLogger())

	_, err := generator.Render(sampleReport(), "xml")
	assert.EqualError(t, err, "unsupported report format: xml")

	_, err = generator.Render(nil, FormatJSON)
	assert.Error(t, err)
}
