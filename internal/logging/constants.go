package logging

// Standardized field names for structured logging.
// Keep these stable: log consumers filter on them.
const (
	FieldFile      = "file_path"
	FieldStage     = "stage"
	FieldOperation = "operation"
	FieldStatus    = "status"
	FieldReason    = "reason"
	FieldError     = "error"
	FieldDuration  = "duration_ms"
	FieldCount     = "count"
	FieldBatch     = "batch"
	FieldMerchant  = "merchant"
	FieldCategory  = "category"
	FieldColumn    = "column"
	FieldRole      = "role"
	FieldRow       = "row"
	FieldProgress  = "progress"
	FieldBackend   = "backend"
)
