package evo

import (
	"fmt"

	"batterybots/internal/agent"
	"batterybots/internal/rng"
)

// Pairing names one crossover: Parent supplies the even rules and
// Dominant the odd ones, fallback included. Indices refer to the ranked
// survivor list.
type Pairing struct {
	Parent   int
	Dominant int
}

// PairingPlan lists the crossovers for survivorCount ranked survivors, in
// breeding order. The first half pairs neighbours (0,1), (2,3), ... with the
// better-ranked robot dominant. The second half walks groups of four,
// crossing the first with the fourth and the second with the third, again
// with the better-ranked robot dominant.
func PairingPlan(survivorCount int) ([]Pairing, error) {
	if survivorCount <= 0 || survivorCount%4 != 0 {
		return nil, fmt.Errorf("%w: survivor count must be a positive multiple of 4, got %d", ErrInvalidConfig, survivorCount)
	}
	plan := make([]Pairing, 0, survivorCount)
	for p := 0; p < survivorCount; p += 2 {
		plan = append(plan, Pairing{Parent: p + 1, Dominant: p})
	}
	for p := 0; p < survivorCount; p += 4 {
		plan = append(plan,
			Pairing{Parent: p + 3, Dominant: p},
			Pairing{Parent: p + 2, Dominant: p + 1},
		)
	}
	return plan, nil
}

// Breed produces one offspring per pairing, in plan order.
func Breed(survivors []*agent.Robot, plan []Pairing, mutationRate float64, src rng.Source, nextID func(i int) string) ([]*agent.Robot, error) {
	offspring := make([]*agent.Robot, 0, len(plan))
	for i, pair := range plan {
		if pair.Parent >= len(survivors) || pair.Dominant >= len(survivors) {
			return nil, fmt.Errorf("%w: pairing %d references survivor beyond %d", ErrInvalidConfig, i, len(survivors))
		}
		child, err := agent.Breed(nextID(i), survivors[pair.Parent], survivors[pair.Dominant], mutationRate, src)
		if err != nil {
			return nil, err
		}
		offspring = append(offspring, child)
	}
	return offspring, nil
}
