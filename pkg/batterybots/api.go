package batterybots

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"batterybots/internal/agent"
	"batterybots/internal/display"
	"batterybots/internal/evo"
	"batterybots/internal/metrics"
	"batterybots/internal/model"
	"batterybots/internal/platform"
	"batterybots/internal/rng"
	"batterybots/internal/scape"
	"batterybots/internal/stats"
	"batterybots/internal/storage"
)

const (
	defaultArtifactsDir = "runs"
	defaultDBPath       = "batterybots.db"
	defaultListLimit    = 20
)

type Options struct {
	StoreKind string
	DBPath    string
	// ArtifactsDir receives one directory per run. Empty uses "runs".
	ArtifactsDir string
	// SkipArtifacts disables artifact files; runs are still stored.
	SkipArtifacts bool
	Logger        *slog.Logger
	Metrics       metrics.Recorder
}

type Client struct {
	store storage.Store
	polis *platform.Polis

	artifactsDir  string
	skipArtifacts bool
	logger        *slog.Logger
	metrics       metrics.Recorder
	now           func() time.Time
}

type RunRequest struct {
	Scape          string
	Population     int
	Survivors      int
	Generations    int
	MutationRate   float64
	CorruptionRate float64
	// Seed 0 draws a fresh seed, reported back in RunSummary.
	Seed int64
	// Observer receives every episode and generation; it may stop the run.
	Observer evo.Observer
}

// DefaultRunRequest is the reference configuration.
func DefaultRunRequest() RunRequest {
	return RunRequest{
		Scape:          scape.DefaultForageName,
		Population:     evo.DefaultPopulationSize,
		Survivors:      evo.DefaultSurvivorCount,
		Generations:    evo.DefaultGenerations,
		MutationRate:   evo.DefaultMutationRate,
		CorruptionRate: agent.DefaultCorruptionRate,
	}
}

type RunSummary struct {
	RunID               string
	Seed                int64
	ArtifactsDir        string
	AverageByGeneration []float64
	BestByGeneration    []float64
	OldestSurvivor      int
	FinalAverage        float64
	BestHarvest         float64
	// BestMap is the rendered best grid of the last generation.
	BestMap string
	Result  evo.RunResult
}

type RunsRequest struct {
	Limit int
}

type RunItem struct {
	RunID          string
	CreatedAtUTC   string
	Scape          string
	Seed           int64
	Population     int
	Generations    int
	OldestSurvivor int
	FinalAverage   float64
	BestHarvest    float64
}

type FitnessHistoryRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

type DiagnosticsRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

type TopGenomesRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

type ScapeSummaryItem struct {
	Name        string
	Description string
	BestFitness float64
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	artifactsDir := opts.ArtifactsDir
	if artifactsDir == "" {
		artifactsDir = defaultArtifactsDir
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:         store,
		artifactsDir:  artifactsDir,
		skipArtifacts: opts.SkipArtifacts,
		logger:        opts.Logger,
		metrics:       opts.Metrics,
		now:           time.Now,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	_, err := c.ensurePolis(ctx)
	return err
}

// Reset deletes every stored run and scape summary.
func (c *Client) Reset(ctx context.Context) error {
	p, err := c.ensurePolis(ctx)
	if err != nil {
		return err
	}
	return p.Reset(ctx)
}

// Scapes lists the registered scape names.
func (c *Client) Scapes(ctx context.Context) ([]string, error) {
	p, err := c.ensurePolis(ctx)
	if err != nil {
		return nil, err
	}
	return p.RegisteredScapes(), nil
}

func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	if req.Scape == "" {
		req.Scape = scape.DefaultForageName
	}
	if req.Population <= 0 {
		req.Population = evo.DefaultPopulationSize
	}
	if req.Survivors <= 0 {
		req.Survivors = req.Population / 2
	}
	if req.Generations < 0 {
		return RunSummary{}, errors.New("generations must be >= 0")
	}
	if req.Generations == 0 && req.Observer == nil {
		req.Generations = evo.DefaultGenerations
	}
	if req.Seed == 0 {
		seed, err := rng.NewSeed()
		if err != nil {
			return RunSummary{}, err
		}
		req.Seed = seed
	}

	p, err := c.ensurePolis(ctx)
	if err != nil {
		return RunSummary{}, err
	}

	now := c.now().UTC()
	runID := uuid.NewString()
	result, err := p.RunEvolution(ctx, platform.EvolutionConfig{
		RunID:          runID,
		ScapeName:      req.Scape,
		PopulationSize: req.Population,
		SurvivorCount:  req.Survivors,
		MutationRate:   req.MutationRate,
		CorruptionRate: req.CorruptionRate,
		Generations:    req.Generations,
		Seed:           req.Seed,
		Observer:       req.Observer,
		Now:            func() time.Time { return now },
	})
	if err != nil {
		return RunSummary{}, err
	}

	run := result.Run
	summary := RunSummary{
		RunID:               runID,
		Seed:                req.Seed,
		AverageByGeneration: append([]float64(nil), result.Monitor.AverageByGeneration...),
		BestByGeneration:    append([]float64(nil), result.Monitor.BestByGeneration...),
		OldestSurvivor:      run.OldestSurvivor,
		FinalAverage:        run.FinalAverage,
		BestHarvest:         run.BestHarvest,
		BestMap:             display.MapString(result.Monitor.Last.BestGrid),
		Result:              result.Monitor,
	}
	if c.skipArtifacts {
		return summary, nil
	}

	runDir, err := stats.WriteRunArtifacts(c.artifactsDir, stats.RunArtifacts{
		Config: stats.RunConfig{
			RunID:          runID,
			Scape:          run.Scape,
			Rows:           run.Rows,
			Cols:           run.Cols,
			Batteries:      run.Batteries,
			PopulationSize: run.PopulationSize,
			SurvivorCount:  run.SurvivorCount,
			Generations:    run.Generations,
			MutationRate:   run.MutationRate,
			CorruptionRate: run.CorruptionRate,
			Seed:           run.Seed,
		},
		AverageByGeneration: result.Monitor.AverageByGeneration,
		BestByGeneration:    result.Monitor.BestByGeneration,
		Diagnostics:         result.Monitor.Diagnostics,
		TopGenomes:          result.TopGenomes,
		BestMap:             summary.BestMap,
	})
	if err != nil {
		return RunSummary{}, err
	}
	if err := stats.AppendRunIndex(c.artifactsDir, stats.RunIndexEntry{
		RunID:          runID,
		Scape:          run.Scape,
		PopulationSize: run.PopulationSize,
		Generations:    run.Generations,
		Seed:           run.Seed,
		OldestSurvivor: run.OldestSurvivor,
		FinalAverage:   run.FinalAverage,
		CreatedAtUTC:   run.CreatedAtUTC,
	}); err != nil {
		return RunSummary{}, err
	}
	summary.ArtifactsDir = filepath.Clean(runDir)
	return summary, nil
}

// Runs lists stored runs newest first.
func (c *Client) Runs(ctx context.Context, req RunsRequest) ([]RunItem, error) {
	if req.Limit <= 0 {
		req.Limit = defaultListLimit
	}
	if _, err := c.ensurePolis(ctx); err != nil {
		return nil, err
	}

	runs, err := c.store.ListRuns(ctx)
	if err != nil {
		return nil, err
	}
	if len(runs) > req.Limit {
		runs = runs[:req.Limit]
	}

	out := make([]RunItem, 0, len(runs))
	for _, r := range runs {
		out = append(out, RunItem{
			RunID:          r.ID,
			CreatedAtUTC:   r.CreatedAtUTC,
			Scape:          r.Scape,
			Seed:           r.Seed,
			Population:     r.PopulationSize,
			Generations:    r.Generations,
			OldestSurvivor: r.OldestSurvivor,
			FinalAverage:   r.FinalAverage,
			BestHarvest:    r.BestHarvest,
		})
	}
	return out, nil
}

// FitnessHistory returns the average fitness of each generation of a run.
func (c *Client) FitnessHistory(ctx context.Context, req FitnessHistoryRequest) ([]float64, error) {
	runID, err := c.resolveRunID(ctx, "fitness history", req.RunID, req.Latest, req.Limit)
	if err != nil {
		return nil, err
	}
	history, ok, err := c.store.GetFitnessHistory(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("fitness history not found for run id: %s", runID)
	}
	if req.Limit > 0 && len(history) > req.Limit {
		history = history[:req.Limit]
	}
	return append([]float64(nil), history...), nil
}

func (c *Client) Diagnostics(ctx context.Context, req DiagnosticsRequest) ([]model.GenerationDiagnostics, error) {
	runID, err := c.resolveRunID(ctx, "diagnostics", req.RunID, req.Latest, req.Limit)
	if err != nil {
		return nil, err
	}
	diagnostics, ok, err := c.store.GetGenerationDiagnostics(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("diagnostics not found for run id: %s", runID)
	}
	if req.Limit > 0 && len(diagnostics) > req.Limit {
		diagnostics = diagnostics[:req.Limit]
	}
	out := make([]model.GenerationDiagnostics, len(diagnostics))
	copy(out, diagnostics)
	return out, nil
}

func (c *Client) TopGenomes(ctx context.Context, req TopGenomesRequest) ([]model.TopGenomeRecord, error) {
	runID, err := c.resolveRunID(ctx, "top genomes", req.RunID, req.Latest, req.Limit)
	if err != nil {
		return nil, err
	}
	top, ok, err := c.store.GetTopGenomes(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("top genomes not found for run id: %s", runID)
	}
	if req.Limit > 0 && len(top) > req.Limit {
		top = top[:req.Limit]
	}
	return top, nil
}

func (c *Client) ScapeSummary(ctx context.Context, scapeName string) (ScapeSummaryItem, error) {
	if scapeName == "" {
		return ScapeSummaryItem{}, errors.New("scape name is required")
	}
	p, err := c.ensurePolis(ctx)
	if err != nil {
		return ScapeSummaryItem{}, err
	}
	if s, ok := p.GetScape(scapeName); ok {
		scapeName = s.Name()
	}
	summary, ok, err := c.store.GetScapeSummary(ctx, scapeName)
	if err != nil {
		return ScapeSummaryItem{}, err
	}
	if !ok {
		return ScapeSummaryItem{}, fmt.Errorf("scape summary not found: %s", scapeName)
	}
	return ScapeSummaryItem{
		Name:        summary.Name,
		Description: summary.Description,
		BestFitness: summary.BestFitness,
	}, nil
}

func (c *Client) resolveRunID(ctx context.Context, what, runID string, latest bool, limit int) (string, error) {
	if runID != "" && latest {
		return "", errors.New("use either run id or latest")
	}
	if limit < 0 {
		return "", errors.New("limit must be >= 0")
	}
	if _, err := c.ensurePolis(ctx); err != nil {
		return "", err
	}
	if latest {
		runs, err := c.store.ListRuns(ctx)
		if err != nil {
			return "", err
		}
		if len(runs) == 0 {
			return "", errors.New("no runs available")
		}
		runID = runs[0].ID
	}
	if runID == "" {
		return "", fmt.Errorf("%s requires run id or latest", what)
	}
	return runID, nil
}

func (c *Client) ensurePolis(ctx context.Context) (*platform.Polis, error) {
	if c.polis != nil {
		return c.polis, nil
	}
	p := platform.NewPolis(platform.Config{
		Store:   c.store,
		Logger:  c.logger,
		Metrics: c.metrics,
	})
	if err := p.Init(ctx); err != nil {
		return nil, err
	}
	c.polis = p
	return c.polis, nil
}
