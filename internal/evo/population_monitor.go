package evo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"batterybots/internal/agent"
	"batterybots/internal/genotype"
	"batterybots/internal/metrics"
	"batterybots/internal/model"
	"batterybots/internal/rng"
	"batterybots/internal/scape"
)

const (
	DefaultPopulationSize = 200
	DefaultSurvivorCount  = 100
	DefaultMutationRate   = 0.05
	DefaultGenerations    = 100
)

var ErrInvalidConfig = errors.New("invalid monitor config")

// Observer is the presentation hook. GenerationCompleted returning false
// stops the run after that generation.
type Observer interface {
	EpisodeCompleted(generation, index int, result agent.EpisodeResult)
	GenerationCompleted(ctx context.Context, result GenerationResult) (bool, error)
}

type MonitorConfig struct {
	Scape          scape.Forage
	PopulationSize int
	SurvivorCount  int
	MutationRate   float64
	CorruptionRate float64
	// Generations caps the run. Zero runs until the observer stops it.
	Generations int
	Seed        int64
	// Rand overrides Seed when set.
	Rand     rng.Source
	Logger   *slog.Logger
	Metrics  metrics.Recorder
	Observer Observer
}

// DefaultMonitorConfig is the reference configuration: 200 robots, 100
// survivors, 10x10 grids with 40 battery draws.
func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		Scape:          scape.DefaultForage(),
		PopulationSize: DefaultPopulationSize,
		SurvivorCount:  DefaultSurvivorCount,
		MutationRate:   DefaultMutationRate,
		CorruptionRate: agent.DefaultCorruptionRate,
		Generations:    DefaultGenerations,
		Seed:           1,
	}
}

// GenerationResult is the outcome of evaluating one generation.
type GenerationResult struct {
	Generation     int
	BestGrid       *scape.Grid
	BestScore      int
	BestRobotID    string
	AverageFitness float64
	Population     []*agent.Robot
	Diagnostics    model.GenerationDiagnostics
}

type RunResult struct {
	AverageByGeneration []float64
	BestByGeneration    []float64
	Diagnostics         []model.GenerationDiagnostics
	// OldestSurvivor is the most generations any robot survived during the run.
	OldestSurvivor int
	// FinalRanking is the last evaluated population ranked by harvest.
	FinalRanking []*agent.Robot
	Last         GenerationResult
}

type PopulationMonitor struct {
	cfg        MonitorConfig
	rng        rng.Source
	logger     *slog.Logger
	generation int
	plan       []Pairing
}

func NewPopulationMonitor(cfg MonitorConfig) (*PopulationMonitor, error) {
	if cfg.Scape.Name() == "" {
		return nil, fmt.Errorf("%w: scape is required", ErrInvalidConfig)
	}
	if cfg.PopulationSize <= 0 {
		return nil, fmt.Errorf("%w: population size must be > 0", ErrInvalidConfig)
	}
	plan, err := PairingPlan(cfg.SurvivorCount)
	if err != nil {
		return nil, err
	}
	if cfg.PopulationSize != cfg.SurvivorCount+len(plan) {
		return nil, fmt.Errorf("%w: population size %d must be twice the survivor count %d", ErrInvalidConfig, cfg.PopulationSize, cfg.SurvivorCount)
	}
	if cfg.MutationRate < 0 || cfg.MutationRate > 1 {
		return nil, fmt.Errorf("%w: mutation rate must be in [0, 1]", ErrInvalidConfig)
	}
	if cfg.CorruptionRate < 0 || cfg.CorruptionRate > 1 {
		return nil, fmt.Errorf("%w: corruption rate must be in [0, 1]", ErrInvalidConfig)
	}
	if cfg.Generations < 0 {
		return nil, fmt.Errorf("%w: generations must be >= 0", ErrInvalidConfig)
	}
	if cfg.Generations == 0 && cfg.Observer == nil {
		return nil, fmt.Errorf("%w: an unbounded run requires an observer", ErrInvalidConfig)
	}
	src := cfg.Rand
	if src == nil {
		src = rng.New(cfg.Seed)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.Nop{}
	}

	return &PopulationMonitor{
		cfg:    cfg,
		rng:    src,
		logger: logger,
		plan:   plan,
	}, nil
}

// Generation is the number of the last evaluated generation.
func (m *PopulationMonitor) Generation() int {
	return m.generation
}

// InitialPopulation builds random robots placed on the scape's grid.
func (m *PopulationMonitor) InitialPopulation() ([]*agent.Robot, error) {
	population := make([]*agent.Robot, 0, m.cfg.PopulationSize)
	for i := 0; i < m.cfg.PopulationSize; i++ {
		r, err := agent.NewRandomRobot(fmt.Sprintf("g0-r%d", i), m.cfg.Scape.Rows(), m.cfg.Scape.Cols(), m.rng)
		if err != nil {
			return nil, err
		}
		population = append(population, r)
	}
	return population, nil
}

// EvaluateGeneration runs every robot's episode on its own fresh grid, in
// population order, and summarizes the generation. It does not reproduce.
func (m *PopulationMonitor) EvaluateGeneration(ctx context.Context, population []*agent.Robot) (GenerationResult, error) {
	if len(population) != m.cfg.PopulationSize {
		return GenerationResult{}, fmt.Errorf("population mismatch: got=%d want=%d", len(population), m.cfg.PopulationSize)
	}
	m.generation++
	generation := m.generation

	result := GenerationResult{
		Generation: generation,
		BestScore:  -1,
		Population: population,
	}
	harvests := make([]float64, 0, len(population))
	genomes := make([]model.Genome, 0, len(population))
	diag := model.GenerationDiagnostics{
		Generation:     generation,
		PopulationSize: len(population),
	}

	for i, r := range population {
		if err := ctx.Err(); err != nil {
			return GenerationResult{}, err
		}
		episode := &agent.Episode{Robot: r, CorruptionRate: m.cfg.CorruptionRate, Rand: m.rng}
		fitness, grid, err := m.cfg.Scape.Evaluate(ctx, episode, m.rng)
		if err != nil {
			return GenerationResult{}, fmt.Errorf("generation %d robot %d: %w", generation, i, err)
		}
		score := int(fitness)
		episodeResult := episode.Result

		harvests = append(harvests, float64(score))
		genomes = append(genomes, r.Genome())
		diag.TotalSteps += episodeResult.Steps
		diag.BatteriesCollected += episodeResult.BatteriesCollected
		diag.BatteriesAvailable += episodeResult.BatteriesCollected + grid.Count(scape.CellBattery)
		if r.GenerationsSurvived > diag.OldestSurvivor {
			diag.OldestSurvivor = r.GenerationsSurvived
		}
		if score > result.BestScore {
			result.BestScore = score
			result.BestGrid = grid
			result.BestRobotID = r.ID()
			diag.ChampionFingerprint = genotype.Fingerprint(genomes[i])
		}

		m.cfg.Metrics.ObserveEpisode(m.cfg.Scape.Name(), score, episodeResult.Steps)
		m.logger.Debug("episode complete",
			"generation", generation,
			"robot", r.ID(),
			"harvested", score,
			"steps", episodeResult.Steps,
		)
		if m.cfg.Observer != nil {
			m.cfg.Observer.EpisodeCompleted(generation, i, episodeResult)
		}
	}

	mean, std := stat.PopMeanStdDev(harvests, nil)
	result.AverageFitness = mean
	diag.MeanFitness = mean
	diag.StdDevFitness = std
	diag.BestFitness = floats.Max(harvests)
	diag.MinFitness = floats.Min(harvests)
	diag.GenomeDiversity = genotype.Diversity(genomes)
	result.Diagnostics = diag

	m.cfg.Metrics.ObserveGeneration(m.cfg.Scape.Name(), diag)
	m.logger.Info("generation evaluated",
		"scape", m.cfg.Scape.Name(),
		"generation", generation,
		"average", mean,
		"best", result.BestScore,
		"oldest_survivor", diag.OldestSurvivor,
		"diversity", diag.GenomeDiversity,
	)
	return result, nil
}

// AdvanceGeneration culls the evaluated population to the survivors, breeds
// the offspring that restore the population size, and resets every robot
// for the next episode. Survivors keep their genomes.
func (m *PopulationMonitor) AdvanceGeneration(population []*agent.Robot) ([]*agent.Robot, error) {
	if len(population) != m.cfg.PopulationSize {
		return nil, fmt.Errorf("population mismatch: got=%d want=%d", len(population), m.cfg.PopulationSize)
	}

	survivors := SelectSurvivors(Rank(population), m.cfg.SurvivorCount)
	offspring, err := Breed(survivors, m.plan, m.cfg.MutationRate, m.rng, func(i int) string {
		return fmt.Sprintf("g%d-c%d", m.generation, i)
	})
	if err != nil {
		return nil, err
	}

	next := make([]*agent.Robot, 0, m.cfg.PopulationSize)
	next = append(next, survivors...)
	next = append(next, offspring...)
	if len(next) != m.cfg.PopulationSize {
		return nil, fmt.Errorf("population size drifted to %d, want %d", len(next), m.cfg.PopulationSize)
	}
	for _, r := range next {
		r.ResetParameters(m.cfg.Scape.Rows(), m.cfg.Scape.Cols(), m.rng)
	}
	return next, nil
}

// Run evaluates generations until the configured limit or until the
// observer declines to continue. Reproduction happens between generations.
func (m *PopulationMonitor) Run(ctx context.Context, initial []*agent.Robot) (RunResult, error) {
	population := initial
	if population == nil {
		var err error
		population, err = m.InitialPopulation()
		if err != nil {
			return RunResult{}, err
		}
	}

	var out RunResult
	for gen := 0; m.cfg.Generations == 0 || gen < m.cfg.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			return RunResult{}, err
		}
		if gen > 0 {
			next, err := m.AdvanceGeneration(population)
			if err != nil {
				return RunResult{}, err
			}
			population = next
		}

		result, err := m.EvaluateGeneration(ctx, population)
		if err != nil {
			return RunResult{}, err
		}
		result.Diagnostics.SurvivorsRetained = m.survivorsRetained(gen)
		result.Diagnostics.OffspringBred = m.offspringBred(gen)

		out.AverageByGeneration = append(out.AverageByGeneration, result.AverageFitness)
		out.BestByGeneration = append(out.BestByGeneration, float64(result.BestScore))
		out.Diagnostics = append(out.Diagnostics, result.Diagnostics)
		out.Last = result
		if result.Diagnostics.OldestSurvivor > out.OldestSurvivor {
			out.OldestSurvivor = result.Diagnostics.OldestSurvivor
		}

		if m.cfg.Observer != nil {
			proceed, err := m.cfg.Observer.GenerationCompleted(ctx, result)
			if err != nil {
				return RunResult{}, err
			}
			if !proceed {
				break
			}
		}
	}

	out.FinalRanking = Rank(population)
	return out, nil
}

func (m *PopulationMonitor) survivorsRetained(gen int) int {
	if gen == 0 {
		return 0
	}
	return m.cfg.SurvivorCount
}

func (m *PopulationMonitor) offspringBred(gen int) int {
	if gen == 0 {
		return 0
	}
	return len(m.plan)
}
