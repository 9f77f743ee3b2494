package driven

import (
	"context"

	"github.com/jaydeluca/java-meta-tracker/internal/domain/model"
)

// ProcessedRunStore defines the driven port for the durable dedup state.
// Implementations are read once at the start of a pass and written once at the end.
type ProcessedRunStore interface {
	// Load returns the persisted run IDs. Missing or unreadable state yields an
	// empty set; failures are logged, never returned.
	Load(ctx context.Context) model.RunIDSet
	// Save replaces the persisted state with the MaxStoredRunIDs largest IDs of ids.
	Save(ctx context.Context, ids model.RunIDSet) error
}
