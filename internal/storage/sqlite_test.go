//go:build sqlite

package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"batterybots/internal/model"
)

func openSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "batterybots.db"))
	require.NoError(t, store.Init(context.Background()))
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func TestSQLiteStoreRunAndGenomeRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openSQLiteStore(t)

	run := model.RunRecord{VersionedRecord: Versioned(), ID: "run-1", Scape: "forage", CreatedAtUTC: "2026-03-01T00:00:00Z", Generations: 5}
	require.NoError(t, store.SaveRun(ctx, run))
	require.NoError(t, store.SaveRun(ctx, model.RunRecord{VersionedRecord: Versioned(), ID: "run-0", CreatedAtUTC: "2026-01-01T00:00:00Z"}))

	loaded, ok, err := store.GetRun(ctx, "run-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, run, loaded)

	runs, err := store.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-1", runs[0].ID)

	genome := randomGenome(t, "g1", 4)
	require.NoError(t, store.SaveGenome(ctx, genome))
	loadedGenome, ok, err := store.GetGenome(ctx, "g1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, genome, loadedGenome)
}

func TestSQLiteStoreReportsRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openSQLiteStore(t)

	require.NoError(t, store.SaveFitnessHistory(ctx, "run-1", []float64{1, 2, 3}))
	history, ok, err := store.GetFitnessHistory(ctx, "run-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []float64{1, 2, 3}, history)

	diagnostics := []model.GenerationDiagnostics{{Generation: 1, BestFitness: 25, MeanFitness: 9.5}}
	require.NoError(t, store.SaveGenerationDiagnostics(ctx, "run-1", diagnostics))
	loadedDiagnostics, ok, err := store.GetGenerationDiagnostics(ctx, "run-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, diagnostics, loadedDiagnostics)

	top := []model.TopGenomeRecord{{VersionedRecord: Versioned(), Rank: 1, Fitness: 25, Genome: randomGenome(t, "g", 2)}}
	require.NoError(t, store.SaveTopGenomes(ctx, "run-1", top))
	loadedTop, ok, err := store.GetTopGenomes(ctx, "run-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, top, loadedTop)

	summary := model.ScapeSummary{VersionedRecord: Versioned(), Name: "forage", BestFitness: 25}
	require.NoError(t, store.SaveScapeSummary(ctx, summary))
	require.NoError(t, store.SaveScapeSummary(ctx, summary))
	loadedSummary, ok, err := store.GetScapeSummary(ctx, "forage")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, summary, loadedSummary)
}

func TestSQLiteStoreReset(t *testing.T) {
	ctx := context.Background()
	store := openSQLiteStore(t)
	require.NoError(t, store.SaveRun(ctx, model.RunRecord{VersionedRecord: Versioned(), ID: "run-1"}))
	require.NoError(t, store.Reset(ctx))

	_, ok, err := store.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteStoreRequiresInit(t *testing.T) {
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "x.db"))
	err := store.SaveRun(context.Background(), model.RunRecord{ID: "a"})
	assert.Error(t, err)
}
