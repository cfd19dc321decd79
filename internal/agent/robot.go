package agent

import (
	"fmt"

	"batterybots/internal/genotype"
	"batterybots/internal/model"
	"batterybots/internal/rng"
	"batterybots/internal/scape"
)

const (
	InitialEnergy = 5
	// BatteryEnergy is gained, and counted as harvested, per battery.
	BatteryEnergy         = 5
	DefaultCorruptionRate = 0.10
)

// Robot is a rule-driven forager. Its genome is exclusively owned; the
// remaining fields are runtime state reset at the start of every episode.
type Robot struct {
	id     string
	genome model.Genome

	Energy              int
	TimeAlive           int
	EnergyHarvested     int
	GenerationsSurvived int
	Position            model.Position
	Readings            model.SensorReadings
}

// NewRobot validates genome and takes a private copy of it.
func NewRobot(id string, genome model.Genome, position model.Position) (*Robot, error) {
	if id == "" {
		return nil, fmt.Errorf("robot id is required")
	}
	if err := genotype.Validate(genome); err != nil {
		return nil, err
	}
	genome = genotype.Clone(genome)
	genome.ID = id
	return &Robot{
		id:       id,
		genome:   genome,
		Energy:   InitialEnergy,
		Position: position,
	}, nil
}

// NewRandomRobot draws a random genome and then a random position.
func NewRandomRobot(id string, rows, cols int, src rng.Source) (*Robot, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: dimensions must be > 0, got %dx%d", scape.ErrInvalidGrid, rows, cols)
	}
	genome, err := genotype.NewRandomGenome(id, src)
	if err != nil {
		return nil, err
	}
	position := model.Position{Row: src.Intn(rows), Col: src.Intn(cols)}
	return NewRobot(id, genome, position)
}

// Breed builds an offspring by crossover. dominant supplies the odd rules,
// including the fallback.
func Breed(id string, parent, dominant *Robot, mutationRate float64, src rng.Source) (*Robot, error) {
	if parent == nil || dominant == nil {
		return nil, fmt.Errorf("both parents are required")
	}
	genome, err := genotype.Crossover(id, parent.genome, dominant.genome, mutationRate, src)
	if err != nil {
		return nil, fmt.Errorf("breed %s from %s x %s: %w", id, parent.id, dominant.id, err)
	}
	return NewRobot(id, genome, model.Position{})
}

func (r *Robot) ID() string {
	return r.id
}

// Genome returns a copy of the robot's genome.
func (r *Robot) Genome() model.Genome {
	return genotype.Clone(r.genome)
}

func (r *Robot) Alive() bool {
	return r.Energy > 0
}

// ResetParameters prepares a robot for a new episode. The genome and the
// survival counter are untouched.
func (r *Robot) ResetParameters(rows, cols int, src rng.Source) {
	r.Energy = InitialEnergy
	r.TimeAlive = 0
	r.EnergyHarvested = 0
	r.Readings = model.SensorReadings{}
	r.Position = model.Position{Row: src.Intn(rows), Col: src.Intn(cols)}
}

// Sense refreshes all four readings. Each direction runs its own
// corruption trial before looking at the grid.
func (r *Robot) Sense(grid *scape.Grid, corruptionRate float64, src rng.Source) model.SensorReadings {
	for _, d := range model.Directions {
		if rng.Chance(src, corruptionRate) {
			r.Readings[d] = model.SensorCorrupt
			continue
		}
		r.Readings[d] = grid.Read(r.Position, d)
	}
	return r.Readings
}

// Decide returns the action for the current readings and the index of the
// rule that fired.
func (r *Robot) Decide() (model.Action, int) {
	return genotype.Decide(r.genome, r.Readings)
}

// PerformAction spends one energy and moves. Moves into the boundary leave
// the robot in place. It reports whether a battery was picked up.
func (r *Robot) PerformAction(action model.Action, grid *scape.Grid, src rng.Source) (bool, error) {
	if !action.Valid() {
		return false, fmt.Errorf("%w: action %d out of range", genotype.ErrInvalidGenome, action)
	}
	r.Energy--

	direction := model.Direction(action)
	if action == model.ActionRandom {
		direction = model.Directions[src.Intn(len(model.Directions))]
	}
	if target := r.Position.Step(direction); grid.InBounds(target) {
		r.Position = target
	}

	state, _ := grid.At(r.Position)
	switch state {
	case scape.CellBattery:
		grid.Set(r.Position, scape.CellBatteryCollected)
		r.Energy += BatteryEnergy
		r.EnergyHarvested += BatteryEnergy
		return true, nil
	case scape.CellEmpty:
		grid.Set(r.Position, scape.CellVisited)
	}
	return false, nil
}
