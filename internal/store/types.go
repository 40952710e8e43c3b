package store

import (
	"encoding/json"
	"time"
)

// Run is one batch extraction over a dataset.
type Run struct {
	ID          string     `json:"id"`
	Source      string     `json:"source"` // dataset path or label
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	RecordCount int        `json:"record_count"`
	FailedCount int        `json:"failed_count"`
}

// Extraction is one record's persisted workflow document plus summary
// counts for querying without unmarshaling the document.
type Extraction struct {
	RunID        string          `json:"run_id"`
	FileIndex    int             `json:"file_index"`
	Document     json.RawMessage `json:"document"`
	ActionCount  int             `json:"action_count"`
	GatewayCount int             `json:"gateway_count"`
	StateCount   int             `json:"state_count"`
	CreatedAt    time.Time       `json:"created_at"`
}
