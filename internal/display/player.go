package display

import (
	"bufio"
	"context"
	"io"
	"unicode"

	"github.com/dustin/go-humanize"

	"batterybots/internal/agent"
	"batterybots/internal/evo"
)

type Mode int

const (
	// ModeStepwise shows every robot's map and asks before each generation.
	ModeStepwise Mode = iota + 1
	// ModeBatch shows only the best map of each generation.
	ModeBatch
)

// BatchGenerations is the run length of ModeBatch.
const BatchGenerations = 100

const intro = "This program simulates a genetic algorithm where we observe\n" +
	"the average energy harvested by a population of robots.\n\n" +
	"The robots are placed on a %dx%d map one by one, with %d battery\n" +
	"drops scattered on it.\n\n" +
	"Legend of the map representation:\n" + Legend + "\n" +
	"Enter a choice 1-3:\n" +
	"1 - Simulate one generation at a time (showing the map of each robot)\n" +
	"2 - Simulate %d generations (showing only the map of the best robot in each generation)\n" +
	"3 - Exit\n"

// Menu prints the introduction and reads the mode. ok is false when the
// user chose to exit.
func Menu(screen *Screen, in *bufio.Reader, rows, cols, batteries int) (mode Mode, ok bool, err error) {
	screen.Clear()
	screen.Printf(intro, rows, cols, batteries, BatchGenerations)
	choice, err := ReadChoice(in)
	if err != nil && err != io.EOF {
		return 0, false, err
	}
	switch choice {
	case '1':
		return ModeStepwise, true, nil
	case '2':
		return ModeBatch, true, nil
	default:
		return 0, false, nil
	}
}

// Player is the interactive evo.Observer.
type Player struct {
	Screen *Screen
	In     *bufio.Reader
	Mode   Mode
}

var _ evo.Observer = (*Player)(nil)

func (p *Player) EpisodeCompleted(generation, index int, result agent.EpisodeResult) {
	if p.Mode != ModeStepwise {
		return
	}
	p.Screen.Clear()
	p.Screen.Printf("Generation - %d | Robot - %d\n", generation, index)
	p.Screen.Printf("=============================\n")
	_ = RenderGrid(p.Screen.Out, result.Grid)
}

func (p *Player) GenerationCompleted(_ context.Context, result evo.GenerationResult) (bool, error) {
	if p.Mode == ModeStepwise {
		p.Screen.Wait()
	}
	p.Screen.Clear()
	p.Screen.Printf("Generation - %d | Map of the Robot harvesting most energy:\n", result.Generation)
	p.Screen.Printf("========================================================\n")
	_ = RenderGrid(p.Screen.Out, result.BestGrid)
	p.Screen.Printf("\nEnergy harvested by this robot = %d\n", result.BestScore)
	p.Screen.Printf("\nAverage fitness of Generation %d => %g\n", result.Generation, result.AverageFitness)

	if p.Mode != ModeStepwise {
		return true, nil
	}
	p.Screen.Printf("\nSimulate next generation?\nEnter 'Y' to continue or 'N' to end simulation.\n")
	choice, err := ReadChoice(p.In)
	if err != nil && err != io.EOF {
		return false, err
	}
	proceed := unicode.ToUpper(choice) == 'Y'
	if proceed {
		p.Screen.Printf("\nSimulating next generation......\n")
	}
	return proceed, nil
}

// Summary prints the end-of-run report.
func Summary(w io.Writer, result evo.RunResult) {
	screen := &Screen{Out: w}
	screen.Printf("\nEnding simulation.......\n")
	screen.Printf("\nLongest time a robot survived = %d generations\n", result.OldestSurvivor)

	steps := 0
	for _, diag := range result.Diagnostics {
		steps += diag.TotalSteps
	}
	screen.Printf("Robot steps simulated = %s\n", humanize.Comma(int64(steps)))

	screen.Printf("\nAverage fitness scores:\n")
	screen.Printf("======================\n")
	for i, avg := range result.AverageByGeneration {
		screen.Printf("Generation %d => %g\n", i+1, avg)
	}
}
