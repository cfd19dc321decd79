//go:build sqlite

package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"batterybots/internal/model"
)

func TestRunCommandSQLiteFeedsReadCommands(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "batterybots.db")
	storeArgs := []string{"--store", "sqlite", "--db-path", dbPath}

	out := captureIO(t, "")
	args := append([]string{
		"run",
		"--artifacts-dir", filepath.Join(dir, "runs"),
		"--pop", "8",
		"--survivors", "4",
		"--gens", "3",
		"--seed", "17",
	}, storeArgs...)
	require.NoError(t, run(context.Background(), args))
	_, err := os.Stat(dbPath)
	require.NoError(t, err)

	out.Reset()
	require.NoError(t, run(context.Background(), append([]string{"runs", "--json"}, storeArgs...)))
	var runs []struct {
		RunID       string `json:"run_id"`
		Seed        int64  `json:"seed"`
		Generations int    `json:"generations"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, int64(17), runs[0].Seed)
	assert.Equal(t, 3, runs[0].Generations)

	out.Reset()
	require.NoError(t, run(context.Background(), append([]string{"fitness", "--latest", "--json"}, storeArgs...)))
	var history []float64
	require.NoError(t, json.Unmarshal(out.Bytes(), &history))
	assert.Len(t, history, 3)

	out.Reset()
	require.NoError(t, run(context.Background(), append([]string{"diagnostics", "--run-id", runs[0].RunID, "--json"}, storeArgs...)))
	var diagnostics []model.GenerationDiagnostics
	require.NoError(t, json.Unmarshal(out.Bytes(), &diagnostics))
	require.Len(t, diagnostics, 3)
	assert.Equal(t, 8, diagnostics[0].PopulationSize)

	out.Reset()
	require.NoError(t, run(context.Background(), append([]string{"top", "--latest", "--limit", "2"}, storeArgs...)))
	assert.Contains(t, out.String(), "rank=1")
	assert.Contains(t, out.String(), "rule 15:")

	out.Reset()
	require.NoError(t, run(context.Background(), append([]string{"scape-summary", "--scape", "forage"}, storeArgs...)))
	assert.Contains(t, out.String(), "scape=forage")

	out.Reset()
	require.NoError(t, run(context.Background(), append([]string{"reset"}, storeArgs...)))
	out.Reset()
	require.NoError(t, run(context.Background(), append([]string{"runs"}, storeArgs...)))
	assert.Equal(t, "no runs found\n", out.String())
}
