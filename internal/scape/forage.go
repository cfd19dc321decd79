package scape

import (
	"context"
	"fmt"

	"batterybots/internal/rng"
)

const (
	DefaultForageName = "forage"
	DefaultRows       = 10
	DefaultCols       = 10
	DefaultBatteries  = 40
)

// Forage is the battery-foraging scape: every episode gets a fresh grid
// with randomly placed batteries.
type Forage struct {
	name      string
	rows      int
	cols      int
	batteries int
}

var _ Scape = Forage{}

func NewForage(name string, rows, cols, batteries int) (Forage, error) {
	if name == "" {
		return Forage{}, fmt.Errorf("scape name is required")
	}
	if rows <= 0 || cols <= 0 {
		return Forage{}, fmt.Errorf("%w: dimensions must be > 0, got %dx%d", ErrInvalidGrid, rows, cols)
	}
	if batteries < 0 {
		return Forage{}, fmt.Errorf("%w: battery count must be >= 0, got %d", ErrInvalidGrid, batteries)
	}
	return Forage{name: name, rows: rows, cols: cols, batteries: batteries}, nil
}

// DefaultForage is the 10x10 grid with 40 battery draws.
func DefaultForage() Forage {
	return Forage{name: DefaultForageName, rows: DefaultRows, cols: DefaultCols, batteries: DefaultBatteries}
}

func (f Forage) Name() string { return f.name }

func (f Forage) Rows() int { return f.rows }

func (f Forage) Cols() int { return f.cols }

func (f Forage) Batteries() int { return f.batteries }

// NewEpisodeGrid returns an empty grid with batteries placed.
func (f Forage) NewEpisodeGrid(src rng.Source) (*Grid, error) {
	grid, err := NewGrid(f.rows, f.cols)
	if err != nil {
		return nil, err
	}
	grid.PlaceBatteries(src, f.batteries)
	return grid, nil
}

// Evaluate runs forager on a fresh episode grid and returns its harvest
// together with the final grid.
func (f Forage) Evaluate(ctx context.Context, forager Forager, src rng.Source) (Fitness, *Grid, error) {
	if forager == nil {
		return 0, nil, fmt.Errorf("forager is required")
	}
	grid, err := f.NewEpisodeGrid(src)
	if err != nil {
		return 0, nil, err
	}
	harvested, err := forager.Forage(ctx, grid)
	if err != nil {
		return 0, nil, fmt.Errorf("forage %s on %s: %w", forager.ID(), f.name, err)
	}
	return Fitness(harvested), grid, nil
}
