package scape

import (
	"errors"
	"fmt"

	"batterybots/internal/model"
	"batterybots/internal/rng"
)

var ErrInvalidGrid = errors.New("invalid grid")

// CellState is the semantic content of a grid cell. Walls are implicit:
// every coordinate outside the grid is a wall.
type CellState uint8

const (
	CellEmpty CellState = iota
	CellBattery
	CellVisited
	CellBatteryCollected
	CellStart
	CellEnd
	CellStartEnd
)

func (s CellState) String() string {
	switch s {
	case CellEmpty:
		return "empty"
	case CellBattery:
		return "battery"
	case CellVisited:
		return "visited"
	case CellBatteryCollected:
		return "battery_collected"
	case CellStart:
		return "start"
	case CellEnd:
		return "end"
	case CellStartEnd:
		return "start_end"
	default:
		return "invalid"
	}
}

// Grid stores cell states in row-major order.
type Grid struct {
	rows, cols int
	cells      []CellState
}

func NewGrid(rows, cols int) (*Grid, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: dimensions must be > 0, got %dx%d", ErrInvalidGrid, rows, cols)
	}
	return &Grid{rows: rows, cols: cols, cells: make([]CellState, rows*cols)}, nil
}

func (g *Grid) Rows() int { return g.rows }

func (g *Grid) Cols() int { return g.cols }

func (g *Grid) InBounds(p model.Position) bool {
	return p.Row >= 0 && p.Row < g.rows && p.Col >= 0 && p.Col < g.cols
}

// At returns the state at p. ok is false outside the grid.
func (g *Grid) At(p model.Position) (state CellState, ok bool) {
	if !g.InBounds(p) {
		return CellEmpty, false
	}
	return g.cells[g.index(p)], true
}

// Set writes state at p and reports whether p was inside the grid.
func (g *Grid) Set(p model.Position, state CellState) bool {
	if !g.InBounds(p) {
		return false
	}
	g.cells[g.index(p)] = state
	return true
}

func (g *Grid) HasBattery(p model.Position) bool {
	state, ok := g.At(p)
	return ok && state == CellBattery
}

// Read is the uncorrupted sensor view of the cell next to p in direction d.
func (g *Grid) Read(p model.Position, d model.Direction) model.SensorCode {
	target := p.Step(d)
	if !g.InBounds(target) {
		return model.SensorWall
	}
	if g.HasBattery(target) {
		return model.SensorBattery
	}
	return model.SensorEmpty
}

// RandomPosition draws a row then a column uniformly.
func (g *Grid) RandomPosition(src rng.Source) model.Position {
	row := src.Intn(g.rows)
	col := src.Intn(g.cols)
	return model.Position{Row: row, Col: col}
}

// PlaceBatteries makes count independent uniform draws with replacement, so
// colliding draws leave fewer than count batteries. It returns the number
// of distinct battery cells afterwards.
func (g *Grid) PlaceBatteries(src rng.Source, count int) int {
	for i := 0; i < count; i++ {
		g.Set(g.RandomPosition(src), CellBattery)
	}
	return g.Count(CellBattery)
}

func (g *Grid) Count(state CellState) int {
	n := 0
	for _, cell := range g.cells {
		if cell == state {
			n++
		}
	}
	return n
}

// Reset clears every cell back to empty.
func (g *Grid) Reset() {
	for i := range g.cells {
		g.cells[i] = CellEmpty
	}
}

func (g *Grid) Clone() *Grid {
	if g == nil {
		return nil
	}
	return &Grid{rows: g.rows, cols: g.cols, cells: append([]CellState(nil), g.cells...)}
}

// Row returns a copy of row r.
func (g *Grid) Row(r int) []CellState {
	if r < 0 || r >= g.rows {
		return nil
	}
	return append([]CellState(nil), g.cells[r*g.cols:(r+1)*g.cols]...)
}

func (g *Grid) index(p model.Position) int {
	return p.Row*g.cols + p.Col
}
