// Package report renders pipeline run reports.
package report

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"fjacquet/stmt-ingest/internal/logging"
	"fjacquet/stmt-ingest/internal/pipeline"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"
)

// Supported formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#f38ba8"))
)

// Generator renders run reports in several formats.
type Generator struct {
	logger logging.Logger
}

// NewGenerator creates a Generator.
func NewGenerator(logger logging.Logger) *Generator {
	return &Generator{logger: logging.OrDefault(logger)}
}

// Render returns r in format (text, json or yaml).
func (g *Generator) Render(r *pipeline.Report, format string) ([]byte, error) {
	if r == nil {
		return nil, fmt.Errorf("no report to render")
	}
	switch format {
	case FormatText, "":
		return []byte(g.text(r)), nil
	case FormatJSON:
		out, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			g.logger.WithError(err).Error("Failed to marshal JSON report")
			return nil, fmt.Errorf("failed to marshal JSON report: %w", err)
		}
		return out, nil
	case FormatYAML:
		out, err := yaml.Marshal(r)
		if err != nil {
			g.logger.WithError(err).Error("Failed to marshal YAML report")
			return nil, fmt.Errorf("failed to marshal YAML report: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported report format: %s", format)
	}
}

func (g *Generator) text(r *pipeline.Report) string {
	rows := [][]string{
		{"files", strconv.Itoa(r.Files)},
		{"files ingested", strconv.Itoa(r.FilesSucceeded())},
		{"files failed", strconv.Itoa(len(r.FileErrors))},
		{"rows read", strconv.Itoa(r.Extraction.Rows)},
		{"rows skipped (cell count)", strconv.Itoa(r.MismatchedRows)},
		{"rows kept", strconv.Itoa(r.Extraction.Kept)},
	}
	for _, reason := range sortedKeys(r.Extraction.Dropped) {
		rows = append(rows, []string{"dropped: " + reason, strconv.Itoa(r.Extraction.Dropped[reason])})
	}
	rows = append(rows,
		[]string{"dates defaulted", strconv.Itoa(r.Extraction.DateFallbacks)},
		[]string{"credit overrides", strconv.Itoa(r.Extraction.CreditOverrides)},
		[]string{"labels mapped", strconv.Itoa(r.LabelsMapped)},
		[]string{"cache hits", strconv.Itoa(r.Categorization.CacheHits)},
		[]string{"batch calls", strconv.Itoa(r.Categorization.BatchCalls)},
		[]string{"item calls", strconv.Itoa(r.Categorization.ItemCalls)},
		[]string{"heuristic labels", strconv.Itoa(r.Categorization.Heuristic)},
		[]string{"exact duplicates", strconv.Itoa(r.Resolution.ExactDuplicates)},
		[]string{"transfer pairs", strconv.Itoa(r.Resolution.TransferPairs)},
		[]string{"persisted", strconv.Itoa(r.Persisted)},
		[]string{"already present", strconv.Itoa(r.AlreadyPresent)},
	)
	if dr := r.DateRange.String(); dr != "" {
		rows = append(rows, []string{"date range", dr})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("metric", "value").
		Rows(rows...)

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Run summary"))
	sb.WriteString("\n")
	sb.WriteString(t.Render())
	sb.WriteString("\n")
	for _, fe := range r.FileErrors {
		sb.WriteString(errorStyle.Render(fmt.Sprintf("%s: %s", fe.Path, fe.Error)))
		sb.WriteString("\n")
	}
	return sb.String()
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
