package evo

import (
	"sort"

	"batterybots/internal/agent"
)

// Rank orders robots by descending harvest. The sort is stable, so equal
// harvests keep their population order.
func Rank(population []*agent.Robot) []*agent.Robot {
	ranked := append([]*agent.Robot(nil), population...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].EnergyHarvested > ranked[j].EnergyHarvested
	})
	return ranked
}

// SelectSurvivors keeps the top count robots of a ranked population and
// credits each with one more generation survived.
func SelectSurvivors(ranked []*agent.Robot, count int) []*agent.Robot {
	if count > len(ranked) {
		count = len(ranked)
	}
	survivors := append([]*agent.Robot(nil), ranked[:count]...)
	for _, r := range survivors {
		r.GenerationsSurvived++
	}
	return survivors
}
