package sqlite

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaydeluca/java-meta-tracker/internal/domain/model"
)

func makePass(id string, started time.Time) model.PassSummary {
	return model.PassSummary{
		ID:                id,
		Repo:              "open-telemetry/opentelemetry-java-instrumentation",
		StartedAt:         started,
		FinishedAt:        started.Add(42 * time.Second),
		Total:             12,
		SkippedDuplicate:  3,
		SkippedBranch:     4,
		SkippedIncomplete: 2,
		SkippedCancelled:  1,
		Processed:         2,
		JobsRecorded:      9,
		StoredIDs:         5,
	}
}

func TestPassRepo_RecordAndList(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPassRepo(db)
	ctx := context.Background()

	started := time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)
	pass := makePass("pass-1", started)

	require.NoError(t, repo.Record(ctx, pass))

	got, err := repo.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, pass, got[0])
	assert.Equal(t, 42*time.Second, got[0].Duration())
	assert.True(t, got[0].Succeeded())
}

func TestPassRepo_ListRecentNewestFirstWithLimit(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPassRepo(db)
	ctx := context.Background()

	base := time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)
	for i := range 5 {
		require.NoError(t, repo.Record(ctx, makePass(fmt.Sprintf("pass-%d", i), base.Add(time.Duration(i)*time.Hour))))
	}

	got, err := repo.ListRecent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "pass-4", got[0].ID)
	assert.Equal(t, "pass-3", got[1].ID)
	assert.Equal(t, "pass-2", got[2].ID)
}

func TestPassRepo_RecordFailedPassWithoutFinish(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPassRepo(db)
	ctx := context.Background()

	pass := model.PassSummary{
		ID:        "pass-err",
		Repo:      "owner/repo",
		StartedAt: time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC),
		Error:     "listing workflows: boom",
	}
	require.NoError(t, repo.Record(ctx, pass))

	got, err := repo.ListRecent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].FinishedAt.IsZero())
	assert.False(t, got[0].Succeeded())
	assert.Equal(t, "listing workflows: boom", got[0].Error)
}

func TestPassRepo_RecordSameIDUpdates(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPassRepo(db)
	ctx := context.Background()

	pass := makePass("pass-1", time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Record(ctx, pass))

	pass.Processed = 7
	require.NoError(t, repo.Record(ctx, pass))

	got, err := repo.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 7, got[0].Processed)
}
