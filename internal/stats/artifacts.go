package stats

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"batterybots/internal/model"
)

const (
	runIndexFile          = "run_index.json"
	configFile            = "config.json"
	fitnessHistoryFile    = "fitness_history.csv"
	diagnosticsFile       = "diagnostics.json"
	topGenomesFile        = "top_genomes.json"
	bestMapFile           = "best_map.txt"
	summaryFile           = "summary.json"
	fitnessHistoryColumns = 3
)

type RunConfig struct {
	RunID          string  `json:"run_id"`
	Scape          string  `json:"scape"`
	Rows           int     `json:"rows"`
	Cols           int     `json:"cols"`
	Batteries      int     `json:"batteries"`
	PopulationSize int     `json:"population_size"`
	SurvivorCount  int     `json:"survivor_count"`
	Generations    int     `json:"generations"`
	MutationRate   float64 `json:"mutation_rate"`
	CorruptionRate float64 `json:"corruption_rate"`
	Seed           int64   `json:"seed"`
}

type RunArtifacts struct {
	Config              RunConfig
	AverageByGeneration []float64
	BestByGeneration    []float64
	Diagnostics         []model.GenerationDiagnostics
	TopGenomes          []model.TopGenomeRecord
	// BestMap is the rendered best grid of the last generation.
	BestMap string
}

type RunIndexEntry struct {
	RunID          string  `json:"run_id"`
	Scape          string  `json:"scape"`
	PopulationSize int     `json:"population_size"`
	Generations    int     `json:"generations"`
	Seed           int64   `json:"seed"`
	OldestSurvivor int     `json:"oldest_survivor"`
	FinalAverage   float64 `json:"final_average"`
	CreatedAtUTC   string  `json:"created_at_utc"`
}

// WriteRunArtifacts writes one directory per run under baseDir and returns
// its path.
func WriteRunArtifacts(baseDir string, artifacts RunArtifacts) (string, error) {
	if strings.TrimSpace(artifacts.Config.RunID) == "" {
		return "", fmt.Errorf("run id is required")
	}
	if len(artifacts.AverageByGeneration) != len(artifacts.BestByGeneration) {
		return "", fmt.Errorf("fitness history length mismatch: average=%d best=%d", len(artifacts.AverageByGeneration), len(artifacts.BestByGeneration))
	}

	runDir := filepath.Join(baseDir, artifacts.Config.RunID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, configFile), artifacts.Config); err != nil {
		return "", err
	}
	if err := writeFitnessHistory(filepath.Join(runDir, fitnessHistoryFile), artifacts.AverageByGeneration, artifacts.BestByGeneration); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, diagnosticsFile), artifacts.Diagnostics); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, topGenomesFile), artifacts.TopGenomes); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, summaryFile), map[string]Summary{
		"average": Summarize(artifacts.AverageByGeneration),
		"best":    Summarize(artifacts.BestByGeneration),
	}); err != nil {
		return "", err
	}
	if artifacts.BestMap != "" {
		if err := os.WriteFile(filepath.Join(runDir, bestMapFile), []byte(artifacts.BestMap), 0o644); err != nil {
			return "", err
		}
	}
	return runDir, nil
}

func AppendRunIndex(baseDir string, entry RunIndexEntry) error {
	if entry.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return err
	}

	index, err := ListRunIndex(baseDir)
	if err != nil {
		return err
	}

	for i := range index {
		if index[i].RunID == entry.RunID {
			index[i] = entry
			return writeJSON(filepath.Join(baseDir, runIndexFile), index)
		}
	}

	index = append(index, entry)
	return writeJSON(filepath.Join(baseDir, runIndexFile), index)
}

// ListRunIndex returns entries newest first.
func ListRunIndex(baseDir string) ([]RunIndexEntry, error) {
	data, err := os.ReadFile(filepath.Join(baseDir, runIndexFile))
	if err != nil {
		if os.IsNotExist(err) {
			return []RunIndexEntry{}, nil
		}
		return nil, err
	}

	var entries []RunIndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAtUTC > entries[j].CreatedAtUTC
	})
	return entries, nil
}

func ReadRunConfig(baseDir, runID string) (RunConfig, bool, error) {
	data, err := os.ReadFile(filepath.Join(baseDir, runID, configFile))
	if err != nil {
		if os.IsNotExist(err) {
			return RunConfig{}, false, nil
		}
		return RunConfig{}, false, err
	}

	var cfg RunConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return RunConfig{}, false, err
	}
	return cfg, true, nil
}

// ReadFitnessHistory returns the average and best series of a run.
func ReadFitnessHistory(baseDir, runID string) (average, best []float64, ok bool, err error) {
	file, err := os.Open(filepath.Join(baseDir, runID, fitnessHistoryFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, false, nil
		}
		return nil, nil, false, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = fitnessHistoryColumns
	if _, err := reader.Read(); err != nil {
		if err == io.EOF {
			return []float64{}, []float64{}, true, nil
		}
		return nil, nil, false, err
	}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, false, err
		}
		avg, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, nil, false, err
		}
		top, err := strconv.ParseFloat(record[2], 64)
		if err != nil {
			return nil, nil, false, err
		}
		average = append(average, avg)
		best = append(best, top)
	}
	return average, best, true, nil
}

func writeFitnessHistory(path string, average, best []float64) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"generation", "average_fitness", "best_fitness"}); err != nil {
		return err
	}
	for i := range average {
		if err := writer.Write([]string{
			strconv.Itoa(i + 1),
			strconv.FormatFloat(average[i], 'f', -1, 64),
			strconv.FormatFloat(best[i], 'f', -1, 64),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}
