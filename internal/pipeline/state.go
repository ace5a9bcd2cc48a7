package pipeline

// State is a stage of one pipeline run. A run visits the states in
// declaration order and never goes back.
type State int

const (
	Idle State = iota
	ReadingFiles
	DetectingColumns
	ExtractingData
	MappingCategories
	CategorizingTransactions
	Deduplicating
	Saving
	Complete
)

var stateNames = [...]string{
	Idle:                     "idle",
	ReadingFiles:             "reading_files",
	DetectingColumns:         "detecting_columns",
	ExtractingData:           "extracting_data",
	MappingCategories:        "mapping_categories",
	CategorizingTransactions: "categorizing_transactions",
	Deduplicating:            "deduplicating",
	Saving:                   "saving",
	Complete:                 "complete",
}

// String returns the snake_case state name.
func (s State) String() string {
	if s < Idle || s > Complete {
		return "unknown"
	}
	return stateNames[s]
}

// next reports whether to may follow s.
func (s State) next(to State) bool {
	switch {
	case s == Complete:
		return to == Idle
	case to == Idle:
		// Aborted runs reset.
		return true
	default:
		return to == s+1
	}
}
