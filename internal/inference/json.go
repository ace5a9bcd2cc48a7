package inference

import (
	"bytes"
	"encoding/json"

	"fjacquet/stmt-ingest/internal/parsererror"
)

// Kind selects which JSON container ExtractJSON looks for.
type Kind int

const (
	// AnyKind accepts the first object or array.
	AnyKind Kind = iota
	// ObjectKind accepts only {...}.
	ObjectKind
	// ArrayKind accepts only [...].
	ArrayKind
)

// Extraction is the outcome of locating JSON inside a model reply.
type Extraction struct {
	// Raw is the complete reply text.
	Raw string
	// JSON is the located substring; empty when OK is false.
	JSON string
	OK   bool
}

// ExtractJSON returns the first balanced {...} or [...] substring of text
// that is well-formed JSON, skipping prose, code fences and malformed
// candidates. Brackets inside JSON strings are ignored.
func ExtractJSON(text string, kind Kind) Extraction {
	for start := 0; start < len(text); start++ {
		c := text[start]
		if !opens(c, kind) {
			continue
		}
		end := matchClose(text, start)
		if end < 0 {
			continue
		}
		candidate := text[start : end+1]
		if json.Valid([]byte(candidate)) {
			return Extraction{Raw: text, JSON: candidate, OK: true}
		}
	}
	return Extraction{Raw: text}
}

func opens(c byte, kind Kind) bool {
	switch kind {
	case ObjectKind:
		return c == '{'
	case ArrayKind:
		return c == '['
	default:
		return c == '{' || c == '['
	}
}

// matchClose returns the index of the bracket closing the one at start, or
// -1 when the text ends first or brackets are mismatched.
func matchClose(text string, start int) int {
	stack := make([]byte, 0, 8)
	inString, escaped := false, false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != c {
				return -1
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i
			}
		}
	}
	return -1
}

// Decode extracts the first JSON container of the given kind from text and
// strictly decodes it into T. Failures are reported as
// *parsererror.MalformedResponseError and never panic.
func Decode[T any](operation string, kind Kind, text string) (T, error) {
	var out T
	ext := ExtractJSON(text, kind)
	if !ext.OK {
		return out, &parsererror.MalformedResponseError{Operation: operation, Raw: text}
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(ext.JSON)))
	if err := dec.Decode(&out); err != nil {
		var zero T
		return zero, &parsererror.MalformedResponseError{Operation: operation, Raw: text, Err: err}
	}
	return out, nil
}
