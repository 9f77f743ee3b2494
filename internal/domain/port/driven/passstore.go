package driven

import (
	"context"

	"github.com/jaydeluca/java-meta-tracker/internal/domain/model"
)

// PassStore defines the driven port for collection pass history.
type PassStore interface {
	// Record stores a finished pass summary.
	Record(ctx context.Context, summary model.PassSummary) error
	// ListRecent returns up to limit summaries, newest first.
	ListRecent(ctx context.Context, limit int) ([]model.PassSummary, error)
}
