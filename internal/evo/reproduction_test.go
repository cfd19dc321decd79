package evo

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"batterybots/internal/agent"
	"batterybots/internal/genotype"
	"batterybots/internal/rng"
)

func randomRobots(t *testing.T, n int, seed int64) []*agent.Robot {
	t.Helper()
	src := rng.New(seed)
	robots := make([]*agent.Robot, 0, n)
	for i := 0; i < n; i++ {
		r, err := agent.NewRandomRobot(fmt.Sprintf("r%d", i), 10, 10, src)
		require.NoError(t, err)
		robots = append(robots, r)
	}
	return robots
}

func TestPairingPlanOrder(t *testing.T) {
	plan, err := PairingPlan(100)
	require.NoError(t, err)
	require.Len(t, plan, 100)

	assert.Equal(t, Pairing{Parent: 1, Dominant: 0}, plan[0])
	assert.Equal(t, Pairing{Parent: 3, Dominant: 2}, plan[1])
	assert.Equal(t, Pairing{Parent: 99, Dominant: 98}, plan[49])
	assert.Equal(t, Pairing{Parent: 3, Dominant: 0}, plan[50])
	assert.Equal(t, Pairing{Parent: 2, Dominant: 1}, plan[51])
	assert.Equal(t, Pairing{Parent: 7, Dominant: 4}, plan[52])
	assert.Equal(t, Pairing{Parent: 6, Dominant: 5}, plan[53])
	assert.Equal(t, Pairing{Parent: 99, Dominant: 96}, plan[98])
	assert.Equal(t, Pairing{Parent: 98, Dominant: 97}, plan[99])

	for _, p := range plan {
		assert.Less(t, p.Dominant, p.Parent, "the better-ranked robot is dominant")
	}
}

func TestPairingPlanRejectsInvalidSurvivorCounts(t *testing.T) {
	for _, n := range []int{-4, 0, 2, 6, 101} {
		_, err := PairingPlan(n)
		assert.True(t, errors.Is(err, ErrInvalidConfig), "survivors=%d", n)
	}
}

func TestRankIsStableOnTies(t *testing.T) {
	robots := randomRobots(t, 6, 3)
	harvests := []int{5, 10, 5, 0, 10, 5}
	for i, h := range harvests {
		robots[i].EnergyHarvested = h
	}

	ranked := Rank(robots)
	ids := make([]string, 0, len(ranked))
	for _, r := range ranked {
		ids = append(ids, r.ID())
	}
	assert.Equal(t, []string{"r1", "r4", "r0", "r2", "r5", "r3"}, ids)
	assert.Equal(t, "r0", robots[0].ID(), "input order is untouched")
}

func TestSelectSurvivorsCreditsSurvival(t *testing.T) {
	robots := randomRobots(t, 8, 4)
	robots[5].EnergyHarvested = 20
	robots[5].GenerationsSurvived = 2

	survivors := SelectSurvivors(Rank(robots), 4)
	require.Len(t, survivors, 4)
	assert.Equal(t, "r5", survivors[0].ID())
	assert.Equal(t, 3, survivors[0].GenerationsSurvived)
	for _, r := range survivors[1:] {
		assert.Equal(t, 1, r.GenerationsSurvived)
	}
	assert.Equal(t, 0, robots[7].GenerationsSurvived)
}

func TestBreedFollowsPlanWithoutMutation(t *testing.T) {
	survivors := randomRobots(t, 8, 5)
	plan, err := PairingPlan(len(survivors))
	require.NoError(t, err)

	offspring, err := Breed(survivors, plan, 0, rng.New(9), func(i int) string { return fmt.Sprintf("c%d", i) })
	require.NoError(t, err)
	require.Len(t, offspring, len(plan))

	for i, child := range offspring {
		parent := survivors[plan[i].Parent].Genome()
		dominant := survivors[plan[i].Dominant].Genome()
		genome := child.Genome()
		assert.Equal(t, fmt.Sprintf("c%d", i), child.ID())
		for slot := range genome.Rules {
			if slot%2 == 0 {
				assert.Equal(t, parent.Rules[slot], genome.Rules[slot])
			} else {
				assert.Equal(t, dominant.Rules[slot], genome.Rules[slot])
			}
		}
		assert.Equal(t, dominant.Rules[genotype.FallbackIndex], genome.Rules[genotype.FallbackIndex])
	}
}

func TestBreedRejectsPlanBeyondSurvivors(t *testing.T) {
	survivors := randomRobots(t, 4, 6)
	_, err := Breed(survivors, []Pairing{{Parent: 4, Dominant: 0}}, 0, rng.New(1), func(int) string { return "c" })
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}
