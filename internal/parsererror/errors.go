// Package parsererror defines the error types surfaced by the ingestion
// pipeline. Typed errors carry context; sentinels allow errors.Is checks.
package parsererror

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var (
	// ErrNoFilesQueued is returned when a run is started without input files.
	ErrNoFilesQueued = errors.New("no files queued for processing")

	// ErrMissingEssentialColumns matches any *MissingColumnsError.
	ErrMissingEssentialColumns = errors.New("missing essential columns")

	// ErrMalformedInferenceResponse matches any *MalformedResponseError.
	ErrMalformedInferenceResponse = errors.New("malformed inference response")

	// ErrPersistenceFailure matches any *PersistenceError.
	ErrPersistenceFailure = errors.New("persistence failure")
)

// ParseError represents a failure to read or decode an input file.
type ParseError struct {
	Parser string
	Field  string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: failed to parse %s='%s': %v",
		e.Parser, e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// MissingColumnsError reports the logical roles that could not be mapped
// to any header, even after the AI-assisted pass. Err holds the inference
// failure, if any, that left the roles unresolved.
type MissingColumnsError struct {
	FilePath string
	Missing  []string
	Headers  []string
	Err      error
}

func (e *MissingColumnsError) Error() string {
	file := e.FilePath
	if file == "" {
		file = "<input>"
	}
	msg := fmt.Sprintf("missing essential columns in %s: %s (headers: %s)",
		file, strings.Join(e.Missing, ", "), strings.Join(e.Headers, ", "))
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MissingColumnsError) Is(target error) bool {
	return target == ErrMissingEssentialColumns
}

func (e *MissingColumnsError) Unwrap() error {
	return e.Err
}

// MalformedResponseError is returned when no well-formed JSON could be
// decoded from an inference response.
type MalformedResponseError struct {
	Operation string
	Raw       string
	Err       error
}

func (e *MalformedResponseError) Error() string {
	raw := truncate(e.Raw, 120)
	if e.Err != nil {
		return fmt.Sprintf("malformed inference response for %s: %v (raw: %q)", e.Operation, e.Err, raw)
	}
	return fmt.Sprintf("malformed inference response for %s (raw: %q)", e.Operation, raw)
}

func (e *MalformedResponseError) Is(target error) bool {
	return target == ErrMalformedInferenceResponse
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}

// PersistenceError wraps a failure from a persistence backend.
type PersistenceError struct {
	Backend string
	Err     error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure in %s backend: %v", e.Backend, e.Err)
}

func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistenceFailure
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
