package models

// BatchReport summarizes one ProcessBatch run.
type BatchReport struct {
	Processed    int               `json:"processed"`
	Succeeded    int               `json:"succeeded"`
	Failed       int               `json:"failed"`
	Unique       int               `json:"unique"`
	Duplicates   int               `json:"duplicates"`
	TotalCostUSD float64           `json:"total_cost_usd"`
	DurationMs   int64             `json:"duration_ms"`
	Errors       map[string]string `json:"errors,omitempty"` // record ID -> failure
}
