package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"batterybots/internal/model"
)

func newMemoryStore(t *testing.T) *MemoryStore {
	t.Helper()
	store := NewMemoryStore()
	require.NoError(t, store.Init(context.Background()))
	return store
}

func TestMemoryStoreRunsNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(t)

	require.NoError(t, store.SaveRun(ctx, model.RunRecord{VersionedRecord: Versioned(), ID: "a", CreatedAtUTC: "2026-01-01T00:00:00Z"}))
	require.NoError(t, store.SaveRun(ctx, model.RunRecord{VersionedRecord: Versioned(), ID: "b", CreatedAtUTC: "2026-02-01T00:00:00Z"}))

	runs, err := store.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "b", runs[0].ID)
	assert.Equal(t, "a", runs[1].ID)

	run, ok, err := store.GetRun(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "a", run.ID)

	_, ok, err = store.GetRun(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStoreGenomeIsCopied(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(t)
	genome := randomGenome(t, "g1", 3)
	require.NoError(t, store.SaveGenome(ctx, genome))

	genome.Rules[0].Action = (genome.Rules[0].Action + 1) % model.ActionCount
	loaded, ok, err := store.GetGenome(ctx, "g1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEqual(t, genome.Rules[0].Action, loaded.Rules[0].Action)

	assert.Error(t, store.SaveGenome(ctx, model.Genome{ID: "bad"}))
}

func TestMemoryStoreHistoryAndDiagnostics(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(t)

	history := []float64{10, 12.5, 15}
	require.NoError(t, store.SaveFitnessHistory(ctx, "run-1", history))
	history[0] = 99
	loaded, ok, err := store.GetFitnessHistory(ctx, "run-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []float64{10, 12.5, 15}, loaded)

	diagnostics := []model.GenerationDiagnostics{
		{Generation: 1, BestFitness: 20, MeanFitness: 8, OldestSurvivor: 0},
		{Generation: 2, BestFitness: 30, MeanFitness: 11, OldestSurvivor: 1},
	}
	require.NoError(t, store.SaveGenerationDiagnostics(ctx, "run-1", diagnostics))
	loadedDiagnostics, ok, err := store.GetGenerationDiagnostics(ctx, "run-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, diagnostics, loadedDiagnostics)

	_, ok, err = store.GetFitnessHistory(ctx, "run-2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStoreTopGenomesAndSummaries(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(t)

	top := []model.TopGenomeRecord{{VersionedRecord: Versioned(), Rank: 1, Fitness: 40, Genome: randomGenome(t, "g", 8)}}
	require.NoError(t, store.SaveTopGenomes(ctx, "run-1", top))
	loaded, ok, err := store.GetTopGenomes(ctx, "run-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, top, loaded)

	summary := model.ScapeSummary{VersionedRecord: Versioned(), Name: "forage", Description: "10x10", BestFitness: 40}
	require.NoError(t, store.SaveScapeSummary(ctx, summary))
	loadedSummary, ok, err := store.GetScapeSummary(ctx, "forage")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, summary, loadedSummary)
}

func TestMemoryStoreReset(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(t)
	require.NoError(t, store.SaveRun(ctx, model.RunRecord{ID: "a"}))
	require.NoError(t, store.SaveFitnessHistory(ctx, "a", []float64{1}))

	var resetter Resetter = store
	require.NoError(t, resetter.Reset(ctx))

	runs, err := store.ListRuns(ctx)
	require.NoError(t, err)
	assert.Empty(t, runs)
	_, ok, err := store.GetFitnessHistory(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStoreInitKeepsData(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(t)
	require.NoError(t, store.SaveRun(ctx, model.RunRecord{ID: "a"}))
	require.NoError(t, store.Init(ctx))

	_, ok, err := store.GetRun(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
}
