package pipeline

import (
	"fmt"
	"time"

	"fjacquet/stmt-ingest/internal/dateutils"
	"fjacquet/stmt-ingest/internal/extractor"
	"fjacquet/stmt-ingest/internal/models"
	"fjacquet/stmt-ingest/internal/resolver"
)

// DateRange is the span of transaction dates in a run.
type DateRange struct {
	Start time.Time `json:"start" yaml:"start"`
	End   time.Time `json:"end" yaml:"end"`
}

// String returns the range as "YYYY-MM-DD_YYYY-MM-DD", or "" when empty.
func (dr DateRange) String() string {
	if dr.Start.IsZero() || dr.End.IsZero() {
		return ""
	}
	return fmt.Sprintf("%s_%s", dateutils.ToISODate(dr.Start), dateutils.ToISODate(dr.End))
}

// Include widens the range to cover t.
func (dr DateRange) Include(t time.Time) DateRange {
	if t.IsZero() {
		return dr
	}
	if dr.Start.IsZero() || t.Before(dr.Start) {
		dr.Start = t
	}
	if dr.End.IsZero() || t.After(dr.End) {
		dr.End = t
	}
	return dr
}

// FileError records a file that could not be ingested.
type FileError struct {
	Path  string `json:"path" yaml:"path"`
	Error string `json:"error" yaml:"error"`
	err   error
}

// Unwrap returns the underlying error.
func (f FileError) Unwrap() error { return f.err }

// Report describes what a run did with its input. Rows dropped or
// deduplicated along the way are counted here by reason.
type Report struct {
	Files      int         `json:"files" yaml:"files"`
	FileErrors []FileError `json:"file_errors,omitempty" yaml:"file_errors,omitempty"`
	// MismatchedRows counts rows skipped because their cell count differed
	// from the header.
	MismatchedRows int `json:"mismatched_rows" yaml:"mismatched_rows"`

	Extraction     extractor.Stats            `json:"extraction" yaml:"extraction"`
	LabelsMapped   int                        `json:"labels_mapped" yaml:"labels_mapped"`
	Categorization models.CategorizationStats `json:"categorization" yaml:"categorization"`
	Resolution     resolver.Stats             `json:"resolution" yaml:"resolution"`
	Persisted      int                        `json:"persisted" yaml:"persisted"`
	AlreadyPresent int                        `json:"already_present" yaml:"already_present"`
	DateRange      DateRange                  `json:"date_range" yaml:"date_range"`
	Duration       time.Duration              `json:"duration" yaml:"duration"`
}

// FilesSucceeded is the number of files that reached extraction.
func (r *Report) FilesSucceeded() int {
	return r.Files - len(r.FileErrors)
}

func (r *Report) fail(path string, err error) {
	r.FileErrors = append(r.FileErrors, FileError{Path: path, Error: err.Error(), err: err})
}
