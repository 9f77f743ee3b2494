package driven

import (
	"context"

	"github.com/jaydeluca/java-meta-tracker/internal/domain/model"
)

// ContentSource defines the driven port for repository files and counters that
// feed the report collectors.
type ContentSource interface {
	// FetchFile returns the contents of path at ref ("" means the default branch).
	FetchFile(ctx context.Context, repoFullName, ref, path string) ([]byte, error)
	// FetchRepoCounts returns open issue and pull request counts.
	FetchRepoCounts(ctx context.Context, repoFullName string) (model.RepoCounts, error)
}
