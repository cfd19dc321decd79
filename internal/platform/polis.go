package platform

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"batterybots/internal/agent"
	"batterybots/internal/evo"
	"batterybots/internal/metrics"
	"batterybots/internal/model"
	"batterybots/internal/rng"
	"batterybots/internal/scape"
	"batterybots/internal/scapeid"
	"batterybots/internal/storage"
)

const DefaultTopCount = 5

type Config struct {
	Store storage.Store
	// Scapes are registered after the defaults and may replace them.
	Scapes  []scape.Forage
	Logger  *slog.Logger
	Metrics metrics.Recorder
}

type EvolutionConfig struct {
	RunID          string
	ScapeName      string
	PopulationSize int
	SurvivorCount  int
	MutationRate   float64
	CorruptionRate float64
	Generations    int
	Seed           int64
	Rand           rng.Source
	Observer       evo.Observer
	// TopCount is how many ranked genomes are kept with the run.
	TopCount int
	Now      func() time.Time
}

type EvolutionResult struct {
	Run        model.RunRecord
	Monitor    evo.RunResult
	TopGenomes []model.TopGenomeRecord
}

// Polis owns the scape registry and records every finished run in its store.
type Polis struct {
	store   storage.Store
	logger  *slog.Logger
	metrics metrics.Recorder

	mu      sync.RWMutex
	scapes  map[string]scape.Forage
	started bool

	config Config
}

func NewPolis(cfg Config) *Polis {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	recorder := cfg.Metrics
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &Polis{
		store:   cfg.Store,
		logger:  logger,
		metrics: recorder,
		scapes:  make(map[string]scape.Forage),
		config:  cfg,
	}
}

func (p *Polis) Init(ctx context.Context) error {
	if p.store == nil {
		return fmt.Errorf("store is required")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return nil
	}
	if err := p.store.Init(ctx); err != nil {
		return err
	}

	scapes := make(map[string]scape.Forage)
	for _, s := range append(DefaultScapes(), p.config.Scapes...) {
		name := scapeid.Normalize(s.Name())
		if name == "" {
			return fmt.Errorf("scape name is required")
		}
		scapes[name] = s
	}
	p.scapes = scapes
	p.started = true
	return nil
}

// Reset drops all stored runs and re-initializes the polis.
func (p *Polis) Reset(ctx context.Context) error {
	p.Stop()
	if resetter, ok := p.store.(storage.Resetter); ok {
		if err := resetter.Reset(ctx); err != nil {
			return err
		}
	}
	return p.Init(ctx)
}

func (p *Polis) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.started = false
	p.scapes = make(map[string]scape.Forage)
}

func (p *Polis) Started() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.started
}

func (p *Polis) RegisterScape(s scape.Forage) error {
	name := scapeid.Normalize(s.Name())
	if name == "" {
		return fmt.Errorf("scape name is required")
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		return fmt.Errorf("polis is not initialized")
	}
	p.scapes[name] = s
	return nil
}

func (p *Polis) GetScape(name string) (scape.Forage, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s, ok := p.scapes[scapeid.Normalize(name)]
	return s, ok
}

func (p *Polis) RegisteredScapes() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	names := make([]string, 0, len(p.scapes))
	for name := range p.scapes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RunEvolution runs the monitor on a registered scape and persists the run
// record, average-fitness history, diagnostics and top genomes.
func (p *Polis) RunEvolution(ctx context.Context, cfg EvolutionConfig) (EvolutionResult, error) {
	if cfg.RunID == "" {
		return EvolutionResult{}, fmt.Errorf("run id is required")
	}
	if cfg.ScapeName == "" {
		cfg.ScapeName = scape.DefaultForageName
	}
	if cfg.TopCount <= 0 {
		cfg.TopCount = DefaultTopCount
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	if !p.Started() {
		return EvolutionResult{}, fmt.Errorf("polis is not initialized")
	}
	targetScape, ok := p.GetScape(cfg.ScapeName)
	if !ok {
		return EvolutionResult{}, fmt.Errorf("scape not registered: %s", cfg.ScapeName)
	}

	monitor, err := evo.NewPopulationMonitor(evo.MonitorConfig{
		Scape:          targetScape,
		PopulationSize: cfg.PopulationSize,
		SurvivorCount:  cfg.SurvivorCount,
		MutationRate:   cfg.MutationRate,
		CorruptionRate: cfg.CorruptionRate,
		Generations:    cfg.Generations,
		Seed:           cfg.Seed,
		Rand:           cfg.Rand,
		Logger:         p.logger.With("run_id", cfg.RunID),
		Metrics:        p.metrics,
		Observer:       cfg.Observer,
	})
	if err != nil {
		return EvolutionResult{}, err
	}

	result, err := monitor.Run(ctx, nil)
	if err != nil {
		return EvolutionResult{}, err
	}

	top := toTopGenomes(result.FinalRanking, cfg.TopCount)
	run := model.RunRecord{
		VersionedRecord: storage.Versioned(),
		ID:              cfg.RunID,
		Scape:           targetScape.Name(),
		CreatedAtUTC:    cfg.Now().UTC().Format(time.RFC3339Nano),
		Seed:            cfg.Seed,
		PopulationSize:  cfg.PopulationSize,
		SurvivorCount:   cfg.SurvivorCount,
		Generations:     len(result.AverageByGeneration),
		MutationRate:    cfg.MutationRate,
		CorruptionRate:  cfg.CorruptionRate,
		Rows:            targetScape.Rows(),
		Cols:            targetScape.Cols(),
		Batteries:       targetScape.Batteries(),
		OldestSurvivor:  result.OldestSurvivor,
	}
	if n := len(result.AverageByGeneration); n > 0 {
		run.FinalAverage = result.AverageByGeneration[n-1]
	}
	for _, best := range result.BestByGeneration {
		if best > run.BestHarvest {
			run.BestHarvest = best
		}
	}

	if err := p.store.SaveRun(ctx, run); err != nil {
		return EvolutionResult{}, err
	}
	if err := p.store.SaveFitnessHistory(ctx, run.ID, result.AverageByGeneration); err != nil {
		return EvolutionResult{}, err
	}
	if err := p.store.SaveGenerationDiagnostics(ctx, run.ID, result.Diagnostics); err != nil {
		return EvolutionResult{}, err
	}
	if err := p.store.SaveTopGenomes(ctx, run.ID, top); err != nil {
		return EvolutionResult{}, err
	}
	if len(top) > 0 {
		champion := top[0].Genome
		champion.ID = run.ID + ":champion"
		if err := p.store.SaveGenome(ctx, champion); err != nil {
			return EvolutionResult{}, err
		}
	}
	if err := p.updateScapeSummary(ctx, targetScape, run.BestHarvest); err != nil {
		return EvolutionResult{}, err
	}

	p.logger.Info("run recorded",
		"run_id", run.ID,
		"scape", run.Scape,
		"generations", run.Generations,
		"final_average", run.FinalAverage,
		"oldest_survivor", run.OldestSurvivor,
	)
	return EvolutionResult{Run: run, Monitor: result, TopGenomes: top}, nil
}

func toTopGenomes(ranked []*agent.Robot, count int) []model.TopGenomeRecord {
	if count > len(ranked) {
		count = len(ranked)
	}
	top := make([]model.TopGenomeRecord, 0, count)
	for i, r := range ranked[:count] {
		genome := r.Genome()
		genome.VersionedRecord = storage.Versioned()
		top = append(top, model.TopGenomeRecord{
			VersionedRecord:     storage.Versioned(),
			Rank:                i + 1,
			Fitness:             float64(r.EnergyHarvested),
			GenerationsSurvived: r.GenerationsSurvived,
			Genome:              genome,
		})
	}
	return top
}

func (p *Polis) updateScapeSummary(ctx context.Context, s scape.Forage, fitness float64) error {
	summary, ok, err := p.store.GetScapeSummary(ctx, s.Name())
	if err != nil {
		return err
	}
	if !ok {
		summary = model.ScapeSummary{
			VersionedRecord: storage.Versioned(),
			Name:            s.Name(),
			Description:     fmt.Sprintf("%dx%d grid, %d battery drops per episode", s.Rows(), s.Cols(), s.Batteries()),
		}
	}
	if fitness > summary.BestFitness {
		summary.BestFitness = fitness
	}
	return p.store.SaveScapeSummary(ctx, summary)
}
