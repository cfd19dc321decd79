package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"batterybots/internal/model"
	"batterybots/internal/rng"
	"batterybots/internal/scape"
)

func TestRunEpisodeEastwardForager(t *testing.T) {
	grid := newGrid(t, 10, 10)
	grid.Set(model.Position{Row: 5, Col: 3}, scape.CellBattery)
	r := newRobot(t, constantGenome(model.ActionEast), model.Position{Row: 5, Col: 0})

	result, err := RunEpisode(context.Background(), r, grid, 0, rng.New(1))
	require.NoError(t, err)

	assert.Equal(t, 5, result.Harvested)
	assert.Equal(t, 10, result.Steps)
	assert.Equal(t, 10, r.TimeAlive)
	assert.Equal(t, 1, result.BatteriesCollected)
	assert.Equal(t, model.Position{Row: 5, Col: 9}, result.End)
	assert.Zero(t, r.Energy)

	state, _ := grid.At(model.Position{Row: 5, Col: 0})
	assert.Equal(t, scape.CellStart, state)
	state, _ = grid.At(model.Position{Row: 5, Col: 3})
	assert.Equal(t, scape.CellBatteryCollected, state)
	state, _ = grid.At(model.Position{Row: 5, Col: 9})
	assert.Equal(t, scape.CellEnd, state)
	assert.Equal(t, 7, grid.Count(scape.CellVisited))
}

func TestRunEpisodeNorthwardForager(t *testing.T) {
	grid := newGrid(t, 10, 10)
	grid.Set(model.Position{Row: 3, Col: 2}, scape.CellBattery)
	grid.Set(model.Position{Row: 1, Col: 2}, scape.CellBattery)
	r := newRobot(t, constantGenome(model.ActionNorth), model.Position{Row: 4, Col: 2})

	result, err := RunEpisode(context.Background(), r, grid, 0, rng.New(1))
	require.NoError(t, err)

	assert.Equal(t, 10, result.Harvested)
	assert.Equal(t, 15, result.Steps)
	assert.Equal(t, model.Position{Row: 0, Col: 2}, result.End)
	assert.Equal(t, 2, result.BatteriesCollected)
}

func TestRunEpisodeRandomFallbackEveryStep(t *testing.T) {
	grid := newGrid(t, 10, 10)
	grid.PlaceBatteries(rng.New(3), 40)
	r := newRobot(t, constantGenome(model.ActionRandom), model.Position{Row: 5, Col: 5})

	result, err := RunEpisode(context.Background(), r, grid, 0, rng.New(9))
	require.NoError(t, err)
	assert.Positive(t, result.Steps)
	assert.Equal(t, result.Steps, result.FallbackSteps)
}

func TestRunEpisodeMarksStartEndWhenRobotNeverLeaves(t *testing.T) {
	grid := newGrid(t, 10, 10)
	r := newRobot(t, constantGenome(model.ActionNorth), model.Position{Row: 0, Col: 0})

	result, err := RunEpisode(context.Background(), r, grid, 0, rng.New(1))
	require.NoError(t, err)
	assert.Equal(t, InitialEnergy, result.Steps)
	state, _ := grid.At(model.Position{})
	assert.Equal(t, scape.CellStartEnd, state)
}

func TestRunEpisodeEnergyAccounting(t *testing.T) {
	grid := newGrid(t, 10, 10)
	grid.PlaceBatteries(rng.New(21), 40)
	r, err := NewRandomRobot("r", 10, 10, rng.New(22))
	require.NoError(t, err)
	src := rng.New(23)
	grid.Set(r.Position, scape.CellStart)

	for r.Alive() {
		before := r.Energy
		r.Sense(grid, 0.1, src)
		action, _ := r.Decide()
		picked, err := r.PerformAction(action, grid, src)
		require.NoError(t, err)
		if picked {
			require.Equal(t, before-1+BatteryEnergy, r.Energy)
		} else {
			require.Equal(t, before-1, r.Energy)
		}
	}
	assert.Zero(t, r.Energy)
}

func TestRunEpisodeRejectsOutOfBoundsStart(t *testing.T) {
	grid := newGrid(t, 3, 3)
	r := newRobot(t, constantGenome(model.ActionNorth), model.Position{Row: 5, Col: 5})
	_, err := RunEpisode(context.Background(), r, grid, 0, rng.New(1))
	assert.Error(t, err)
}

func TestRunEpisodeHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	grid := newGrid(t, 10, 10)
	r := newRobot(t, constantGenome(model.ActionNorth), model.Position{Row: 5, Col: 5})
	_, err := RunEpisode(ctx, r, grid, 0, rng.New(1))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEpisodeImplementsForager(t *testing.T) {
	r := newRobot(t, constantGenome(model.ActionEast), model.Position{Row: 5, Col: 0})
	episode := &Episode{Robot: r, Rand: rng.New(1)}
	var forager scape.Forager = episode

	fitness, grid, err := scape.DefaultForage().Evaluate(context.Background(), forager, rng.New(2))
	require.NoError(t, err)
	assert.Equal(t, scape.Fitness(episode.Result.Harvested), fitness)
	assert.Same(t, grid, episode.Result.Grid)
}
