// Package standardizer maps the free-form category labels found in input
// files onto the fixed taxonomy.
package standardizer

import (
	"context"
	"encoding/json"
	"strings"

	"fjacquet/stmt-ingest/internal/inference"
	"fjacquet/stmt-ingest/internal/logging"
	"fjacquet/stmt-ingest/internal/models"
	"fjacquet/stmt-ingest/internal/taxonomy"
)

// Result summarizes one standardization.
type Result struct {
	// Mapping is total over the distinct raw labels.
	Mapping map[string]string `json:"mapping,omitempty"`
	// Exact counts labels that already were taxonomy labels.
	Exact int `json:"exact"`
	// Inferred counts labels resolved from the inference reply.
	Inferred int `json:"inferred"`
	// Fallbacks counts labels resolved by keyword or fuzzy heuristics.
	Fallbacks int `json:"fallbacks"`
	Updated   int `json:"updated"`
}

// Standardizer resolves raw category labels.
type Standardizer struct {
	client inference.Client
	tax    *taxonomy.Taxonomy
	logger logging.Logger
}

// New creates a Standardizer. A nil client uses heuristics only.
func New(client inference.Client, tax *taxonomy.Taxonomy, logger logging.Logger) *Standardizer {
	if tax == nil {
		tax = taxonomy.New()
	}
	return &Standardizer{client: client, tax: tax, logger: logging.OrDefault(logger)}
}

// DistinctLabels returns the non-empty raw categories of txs in first-seen
// order.
func DistinctLabels(txs []models.ExtractedTransaction) []string {
	seen := make(map[string]bool)
	var labels []string
	for _, tx := range txs {
		raw := strings.TrimSpace(tx.Category)
		if raw == "" || seen[raw] {
			continue
		}
		seen[raw] = true
		labels = append(labels, raw)
	}
	return labels
}

// Standardize rewrites the category of every transaction carrying a raw
// label. Without raw labels it does nothing.
func (s *Standardizer) Standardize(ctx context.Context, txs []models.ExtractedTransaction) Result {
	labels := DistinctLabels(txs)
	if len(labels) == 0 {
		return Result{}
	}

	res := s.MapLabels(ctx, labels)
	for i := range txs {
		raw := strings.TrimSpace(txs[i].Category)
		if raw == "" {
			continue
		}
		txs[i].Category = res.Mapping[raw]
		res.Updated++
	}

	s.logger.Info("Categories standardized",
		logging.F(logging.FieldCount, len(labels)),
		logging.F("inferred", res.Inferred),
		logging.F("fallbacks", res.Fallbacks),
		logging.F("updated", res.Updated))
	return res
}

// MapLabels resolves each label. Labels already in the taxonomy are kept;
// the rest go to the inference service in one request, and any label the
// reply leaves missing or invalid falls back to heuristics.
func (s *Standardizer) MapLabels(ctx context.Context, labels []string) Result {
	res := Result{Mapping: make(map[string]string, len(labels))}

	var pending []string
	for _, raw := range labels {
		if l, ok := taxonomy.Normalize(raw); ok {
			res.Mapping[raw] = l
			res.Exact++
			continue
		}
		pending = append(pending, raw)
	}
	if len(pending) == 0 {
		return res
	}

	suggested := s.infer(ctx, pending)
	for _, raw := range pending {
		if l, ok := taxonomy.Normalize(lookupFold(suggested, raw)); ok {
			res.Mapping[raw] = l
			res.Inferred++
			continue
		}
		res.Mapping[raw] = s.tax.Fallback(raw)
		res.Fallbacks++
	}
	return res
}

func (s *Standardizer) infer(ctx context.Context, labels []string) map[string]string {
	if s.client == nil {
		return nil
	}
	reply, err := s.client.Complete(ctx, inference.StandardizePrompt(labels, s.tax.Labels()))
	if err != nil {
		s.logger.WithError(err).Warn("Category standardization request failed, using keyword fallback")
		return nil
	}
	raw, err := inference.Decode[map[string]json.RawMessage]("category standardization", inference.ObjectKind, reply)
	if err != nil {
		s.logger.WithError(err).Warn("Category standardization reply unusable, using keyword fallback")
		return nil
	}

	suggested := make(map[string]string, len(raw))
	for label, value := range raw {
		var category string
		if err := json.Unmarshal(value, &category); err != nil {
			s.logger.Debug("Ignoring non-string category suggestion",
				logging.F(logging.FieldCategory, label),
				logging.F("value", string(value)))
			continue
		}
		suggested[label] = category
	}
	return suggested
}

func lookupFold(m map[string]string, key string) string {
	if v, ok := m[key]; ok {
		return v
	}
	for k, v := range m {
		if strings.EqualFold(strings.TrimSpace(k), key) {
			return v
		}
	}
	return ""
}
