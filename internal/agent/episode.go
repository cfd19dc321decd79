package agent

import (
	"context"
	"fmt"

	"batterybots/internal/model"
	"batterybots/internal/rng"
	"batterybots/internal/scape"
)

type EpisodeResult struct {
	RobotID            string
	Grid               *scape.Grid
	Harvested          int
	Steps              int
	FallbackSteps      int
	BatteriesCollected int
	Start              model.Position
	End                model.Position
}

// RunEpisode marks the start cell, then senses, decides and acts until the
// robot's energy is exhausted, and finally marks the end cell. grid must be
// private to this episode.
func RunEpisode(ctx context.Context, r *Robot, grid *scape.Grid, corruptionRate float64, src rng.Source) (EpisodeResult, error) {
	if r == nil {
		return EpisodeResult{}, fmt.Errorf("robot is required")
	}
	if grid == nil {
		return EpisodeResult{}, fmt.Errorf("grid is required")
	}
	if src == nil {
		return EpisodeResult{}, fmt.Errorf("random source is required")
	}
	if !grid.InBounds(r.Position) {
		return EpisodeResult{}, fmt.Errorf("robot %s starts outside the grid at %+v", r.id, r.Position)
	}

	result := EpisodeResult{RobotID: r.id, Grid: grid, Start: r.Position}
	grid.Set(r.Position, scape.CellStart)

	for r.Alive() {
		if err := ctx.Err(); err != nil {
			return EpisodeResult{}, err
		}
		r.TimeAlive++
		r.Sense(grid, corruptionRate, src)
		action, ruleIndex := r.Decide()
		if ruleIndex == len(r.genome.Rules)-1 {
			result.FallbackSteps++
		}
		picked, err := r.PerformAction(action, grid, src)
		if err != nil {
			return EpisodeResult{}, err
		}
		if picked {
			result.BatteriesCollected++
		}
		result.Steps++
	}

	if state, _ := grid.At(r.Position); state == scape.CellStart {
		grid.Set(r.Position, scape.CellStartEnd)
	} else {
		grid.Set(r.Position, scape.CellEnd)
	}
	result.End = r.Position
	result.Harvested = r.EnergyHarvested
	return result, nil
}

// Episode binds a robot to its sensing parameters so a scape can run it.
type Episode struct {
	Robot          *Robot
	CorruptionRate float64
	Rand           rng.Source
	Result         EpisodeResult
}

func (e *Episode) ID() string {
	return e.Robot.ID()
}

func (e *Episode) Forage(ctx context.Context, grid *scape.Grid) (int, error) {
	result, err := RunEpisode(ctx, e.Robot, grid, e.CorruptionRate, e.Rand)
	if err != nil {
		return 0, err
	}
	e.Result = result
	return result.Harvested, nil
}
