package store

import "context"

// Store defines the persistence layer contract for extraction results.
// All implementations must be safe for concurrent use.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, run *Run) error
	FinishRun(ctx context.Context, id string, recordCount, failedCount int) error
	GetRun(ctx context.Context, id string) (*Run, error)
	ListRuns(ctx context.Context) ([]*Run, error)

	// Extractions
	SaveExtraction(ctx context.Context, ext *Extraction) error
	GetExtraction(ctx context.Context, runID string, fileIndex int) (*Extraction, error)
	ListExtractions(ctx context.Context, runID string) ([]*Extraction, error)

	// Maintenance
	Migrate(ctx context.Context) error

	// Lifecycle
	Close() error
}
