package scape

import (
	"context"

	"batterybots/internal/rng"
)

type Fitness float64

// Forager runs one episode on a private grid and reports the energy it
// harvested.
type Forager interface {
	ID() string
	Forage(ctx context.Context, grid *Grid) (int, error)
}

type Scape interface {
	Name() string
	Evaluate(ctx context.Context, forager Forager, src rng.Source) (Fitness, *Grid, error)
}
