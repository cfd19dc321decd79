package scape

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"batterybots/internal/model"
	"batterybots/internal/rng"
)

func TestNewGridRejectsEmptyDimensions(t *testing.T) {
	_, err := NewGrid(0, 10)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidGrid))
}

func TestGridBoundsAndCells(t *testing.T) {
	grid, err := NewGrid(3, 4)
	require.NoError(t, err)

	assert.True(t, grid.InBounds(model.Position{Row: 2, Col: 3}))
	assert.False(t, grid.InBounds(model.Position{Row: 3, Col: 0}))
	assert.False(t, grid.InBounds(model.Position{Row: 0, Col: -1}))

	p := model.Position{Row: 1, Col: 2}
	require.True(t, grid.Set(p, CellBattery))
	assert.True(t, grid.HasBattery(p))
	assert.False(t, grid.Set(model.Position{Row: -1}, CellBattery))

	_, ok := grid.At(model.Position{Row: 9, Col: 9})
	assert.False(t, ok)
	assert.Equal(t, []CellState{CellEmpty, CellEmpty, CellBattery, CellEmpty}, grid.Row(1))
}

func TestGridReadReportsWallsBatteriesAndEmpty(t *testing.T) {
	grid, err := NewGrid(3, 3)
	require.NoError(t, err)
	grid.Set(model.Position{Row: 0, Col: 1}, CellBattery)
	grid.Set(model.Position{Row: 1, Col: 0}, CellVisited)

	corner := model.Position{Row: 0, Col: 0}
	assert.Equal(t, model.SensorWall, grid.Read(corner, model.North))
	assert.Equal(t, model.SensorWall, grid.Read(corner, model.West))
	assert.Equal(t, model.SensorBattery, grid.Read(corner, model.East))
	assert.Equal(t, model.SensorEmpty, grid.Read(corner, model.South), "visited cells read as empty")
}

func TestPlaceBatteriesAllowsCollisions(t *testing.T) {
	grid, err := NewGrid(2, 2)
	require.NoError(t, err)

	placed := grid.PlaceBatteries(rng.New(3), 40)
	assert.LessOrEqual(t, placed, 4)
	assert.Equal(t, placed, grid.Count(CellBattery))
}

func TestPlaceBatteriesIsDeterministicUnderSeed(t *testing.T) {
	a, err := NewGrid(10, 10)
	require.NoError(t, err)
	b, err := NewGrid(10, 10)
	require.NoError(t, err)

	a.PlaceBatteries(rng.New(11), 40)
	b.PlaceBatteries(rng.New(11), 40)
	assert.Equal(t, a, b)
	assert.LessOrEqual(t, a.Count(CellBattery), 40)
	assert.Positive(t, a.Count(CellBattery))
}

func TestGridCloneIsIndependent(t *testing.T) {
	grid, err := NewGrid(2, 2)
	require.NoError(t, err)
	clone := grid.Clone()
	clone.Set(model.Position{}, CellStart)

	state, _ := grid.At(model.Position{})
	assert.Equal(t, CellEmpty, state)

	clone.Reset()
	assert.Equal(t, 4, clone.Count(CellEmpty))
}
