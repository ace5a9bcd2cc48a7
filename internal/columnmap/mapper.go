package columnmap

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"fjacquet/stmt-ingest/internal/inference"
	"fjacquet/stmt-ingest/internal/logging"
	"fjacquet/stmt-ingest/internal/parsererror"
	"fjacquet/stmt-ingest/internal/source"
)

// Mapper resolves column mappings, asking the inference service only when
// the synonym pass leaves essential roles open.
type Mapper struct {
	client inference.Client
	logger logging.Logger
}

// NewMapper creates a Mapper. A nil client disables the inference pass.
func NewMapper(client inference.Client, logger logging.Logger) *Mapper {
	return &Mapper{client: client, logger: logging.OrDefault(logger)}
}

// Map resolves headers, using sample as context for the inference pass.
// It fails with *parsererror.MissingColumnsError when essential roles stay
// unresolved.
func (m *Mapper) Map(ctx context.Context, headers, sample []string) (*Mapping, error) {
	mapping := Heuristic(headers)
	if mapping.Complete() {
		return mapping, nil
	}

	var cause error
	if m.client != nil {
		cause = m.infer(ctx, mapping, sample)
	}

	if missing := mapping.Missing(); len(missing) > 0 {
		return nil, &parsererror.MissingColumnsError{Missing: missing, Headers: headers, Err: cause}
	}
	return mapping, nil
}

// MapTable maps a decoded file, naming it in any error.
func (m *Mapper) MapTable(ctx context.Context, t *source.Table) (*Mapping, error) {
	mapping, err := m.Map(ctx, t.Headers, t.Sample())
	var mce *parsererror.MissingColumnsError
	if errors.As(err, &mce) {
		mce.FilePath = t.Path
	}
	return mapping, err
}

// infer fills unresolved roles from the inference reply. Each value is
// checked on its own; a failed request or an unusable reply leaves the
// mapping unchanged and is returned for the caller to attach.
func (m *Mapper) infer(ctx context.Context, mapping *Mapping, sample []string) error {
	roles := make([]string, len(Roles))
	for i, r := range Roles {
		roles[i] = string(r)
	}

	start := time.Now()
	reply, err := m.client.Complete(ctx, inference.ColumnMappingPrompt(mapping.Headers, sample, roles))
	if err != nil {
		m.logger.WithError(err).Warn("Column inference failed",
			logging.F(logging.FieldDuration, time.Since(start).Milliseconds()))
		return err
	}

	suggested, err := inference.Decode[map[string]json.RawMessage]("column mapping", inference.ObjectKind, reply)
	if err != nil {
		m.logger.WithError(err).Warn("Column inference reply unusable")
		return err
	}

	byRole := make(map[Role]json.RawMessage, len(suggested))
	for key, value := range suggested {
		byRole[Role(strings.ToLower(strings.TrimSpace(key)))] = value
	}

	for _, role := range Roles {
		value, ok := byRole[role]
		if !ok || mapping.Has(role) {
			continue
		}
		i, ok := columnRef(mapping.Headers, value)
		if !ok || mapping.used(i) {
			m.logger.Debug("Ignoring inferred column",
				logging.F(logging.FieldRole, role),
				logging.F(logging.FieldColumn, string(value)))
			continue
		}
		mapping.assign(role, i, true)
		m.logger.Debug("Inferred column",
			logging.F(logging.FieldRole, role),
			logging.F(logging.FieldColumn, mapping.Headers[i]))
	}
	return nil
}

// columnRef resolves one reply value: a header name or a zero-based column
// index. Null and any other JSON value resolve to nothing.
func columnRef(headers []string, value json.RawMessage) (int, bool) {
	var name string
	if err := json.Unmarshal(value, &name); err == nil {
		i := headerIndex(headers, name)
		return i, i >= 0
	}
	i, err := strconv.Atoi(strings.TrimSpace(string(value)))
	if err != nil || i < 0 || i >= len(headers) {
		return -1, false
	}
	return i, true
}

func headerIndex(headers []string, name string) int {
	name = strings.TrimSpace(name)
	if name == "" {
		return -1
	}
	for i, h := range headers {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}
