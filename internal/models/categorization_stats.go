package models

import (
	"fjacquet/stmt-ingest/internal/logging"
)

// CategorizationStats counts how categories were resolved during a run.
type CategorizationStats struct {
	Total        int `json:"total"`
	CacheHits    int `json:"cache_hits"`
	BatchCalls   int `json:"batch_calls"`
	ItemCalls    int `json:"item_calls"`
	AIAssigned   int `json:"ai_assigned"`
	Heuristic    int `json:"heuristic"`
	BatchRetries int `json:"batch_retries"`
}

// InferenceCalls is the total number of requests sent to the inference service.
func (cs CategorizationStats) InferenceCalls() int {
	return cs.BatchCalls + cs.ItemCalls
}

// CacheHitRate returns the share of transactions resolved from the cache, in percent.
func (cs CategorizationStats) CacheHitRate() float64 {
	if cs.Total == 0 {
		return 0
	}
	return float64(cs.CacheHits) / float64(cs.Total) * 100.0
}

// LogSummary logs the statistics at info level.
func (cs CategorizationStats) LogSummary(logger logging.Logger) {
	if logger == nil {
		return
	}
	logger.Info("Categorization summary",
		logging.F(logging.FieldCount, cs.Total),
		logging.F("cache_hits", cs.CacheHits),
		logging.F("batch_calls", cs.BatchCalls),
		logging.F("item_calls", cs.ItemCalls),
		logging.F("ai_assigned", cs.AIAssigned),
		logging.F("heuristic", cs.Heuristic),
		logging.F("batch_retries", cs.BatchRetries),
		logging.F("cache_hit_rate", cs.CacheHitRate()),
	)
}
