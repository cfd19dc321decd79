package stats

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"batterybots/internal/model"
)

func TestWriteRunArtifacts(t *testing.T) {
	baseDir := t.TempDir()
	artifacts := RunArtifacts{
		Config: RunConfig{
			RunID:          "run-1",
			Scape:          "forage",
			Rows:           10,
			Cols:           10,
			Batteries:      40,
			PopulationSize: 200,
			SurvivorCount:  100,
			Generations:    3,
			MutationRate:   0.05,
			CorruptionRate: 0.1,
			Seed:           9,
		},
		AverageByGeneration: []float64{4.5, 6.25, 8},
		BestByGeneration:    []float64{25, 30, 40},
		Diagnostics:         []model.GenerationDiagnostics{{Generation: 1}, {Generation: 2}, {Generation: 3}},
		BestMap:             "|S*x E|\n",
	}

	runDir, err := WriteRunArtifacts(baseDir, artifacts)
	require.NoError(t, err)
	for _, file := range []string{configFile, fitnessHistoryFile, diagnosticsFile, topGenomesFile, summaryFile, bestMapFile} {
		_, err := os.Stat(filepath.Join(runDir, file))
		assert.NoError(t, err, file)
	}

	cfg, ok, err := ReadRunConfig(baseDir, "run-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, artifacts.Config, cfg)

	average, best, ok, err := ReadFitnessHistory(baseDir, "run-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, artifacts.AverageByGeneration, average)
	assert.Equal(t, artifacts.BestByGeneration, best)

	bestMap, err := os.ReadFile(filepath.Join(runDir, bestMapFile))
	require.NoError(t, err)
	assert.Equal(t, artifacts.BestMap, string(bestMap))
}

func TestWriteRunArtifactsValidates(t *testing.T) {
	_, err := WriteRunArtifacts(t.TempDir(), RunArtifacts{})
	assert.Error(t, err)

	_, err = WriteRunArtifacts(t.TempDir(), RunArtifacts{
		Config:              RunConfig{RunID: "r"},
		AverageByGeneration: []float64{1},
	})
	assert.Error(t, err)
}

func TestReadMissingArtifacts(t *testing.T) {
	_, ok, err := ReadRunConfig(t.TempDir(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, ok, err = ReadFitnessHistory(t.TempDir(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRunIndexNewestFirstAndReplaces(t *testing.T) {
	baseDir := t.TempDir()
	require.NoError(t, AppendRunIndex(baseDir, RunIndexEntry{RunID: "a", CreatedAtUTC: "2026-01-01T00:00:00Z"}))
	require.NoError(t, AppendRunIndex(baseDir, RunIndexEntry{RunID: "b", CreatedAtUTC: "2026-02-01T00:00:00Z"}))
	require.NoError(t, AppendRunIndex(baseDir, RunIndexEntry{RunID: "a", CreatedAtUTC: "2026-03-01T00:00:00Z", FinalAverage: 12}))

	entries, err := ListRunIndex(baseDir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].RunID)
	assert.Equal(t, 12.0, entries[0].FinalAverage)
	assert.Equal(t, "b", entries[1].RunID)

	assert.Error(t, AppendRunIndex(baseDir, RunIndexEntry{}))
}
