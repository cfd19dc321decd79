package genotype

import (
	"fmt"

	"batterybots/internal/model"
	"batterybots/internal/rng"
)

// Crossover interleaves two parents: even rule indices come from parent and
// odd ones from dominant, so the fallback rule is always the dominant
// parent's. Each rule slot then mutates independently with probability
// mutationRate.
func Crossover(id string, parent, dominant model.Genome, mutationRate float64, src rng.Source) (model.Genome, error) {
	if src == nil {
		return model.Genome{}, fmt.Errorf("random source is required")
	}
	if mutationRate < 0 || mutationRate > 1 {
		return model.Genome{}, fmt.Errorf("mutation rate must be in [0, 1], got %f", mutationRate)
	}
	if err := Validate(parent); err != nil {
		return model.Genome{}, fmt.Errorf("crossover parent: %w", err)
	}
	if err := Validate(dominant); err != nil {
		return model.Genome{}, fmt.Errorf("crossover dominant parent: %w", err)
	}

	rules := make([]model.Rule, GenomeLength)
	for i := range rules {
		if i%2 == 0 {
			rules[i] = parent.Rules[i]
		} else {
			rules[i] = dominant.Rules[i]
		}
		if rng.Chance(src, mutationRate) {
			rules[i] = MutateRule(rules[i], src)
		}
	}
	child := model.Genome{ID: id, Rules: rules}
	if err := Validate(child); err != nil {
		return model.Genome{}, err
	}
	return child, nil
}

// MutateRule picks one of the five fields uniformly and replaces it with a
// different value from that field's range, so a mutated rule always differs
// from its input.
func MutateRule(rule model.Rule, src rng.Source) model.Rule {
	field := src.Intn(RuleFields)
	if field == RuleFields-1 {
		rule.Action = model.Action(redraw(int(rule.Action), model.ActionCount, src))
		return rule
	}
	rule.Condition[field] = model.SensorCode(redraw(int(rule.Condition[field]), model.SensorCodeCount, src))
	return rule
}

// redraw returns a uniform value in [0, n) other than current.
func redraw(current, n int, src rng.Source) int {
	v := src.Intn(n - 1)
	if v >= current {
		v++
	}
	return v
}
