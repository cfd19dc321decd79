package genotype

import (
	"errors"
	"fmt"

	"batterybots/internal/model"
	"batterybots/internal/rng"
)

const (
	// GenomeLength is the fixed number of rules per genome.
	GenomeLength = 16
	// FallbackIndex is the rule consulted when no other rule matches.
	FallbackIndex = GenomeLength - 1
	// RuleFields counts the four condition codes plus the action.
	RuleFields = 5
)

var ErrInvalidGenome = errors.New("invalid genome")

// Validate checks the genome length and every code range.
func Validate(g model.Genome) error {
	if len(g.Rules) != GenomeLength {
		return fmt.Errorf("%w: %s has %d rules, want %d", ErrInvalidGenome, g.ID, len(g.Rules), GenomeLength)
	}
	for i, rule := range g.Rules {
		if err := ValidateRule(rule); err != nil {
			return fmt.Errorf("%s rule %d: %w", g.ID, i, err)
		}
	}
	return nil
}

func ValidateRule(rule model.Rule) error {
	for d, code := range rule.Condition {
		if !code.Valid() {
			return fmt.Errorf("%w: condition %d code %d out of range", ErrInvalidGenome, d, code)
		}
	}
	if !rule.Action.Valid() {
		return fmt.Errorf("%w: action %d out of range", ErrInvalidGenome, rule.Action)
	}
	return nil
}

// NewRandomGenome draws every condition code first and then every action,
// all uniformly.
func NewRandomGenome(id string, src rng.Source) (model.Genome, error) {
	if src == nil {
		return model.Genome{}, fmt.Errorf("random source is required")
	}
	rules := make([]model.Rule, GenomeLength)
	for i := range rules {
		for d := range rules[i].Condition {
			rules[i].Condition[d] = model.SensorCode(src.Intn(model.SensorCodeCount))
		}
	}
	for i := range rules {
		rules[i].Action = model.Action(src.Intn(model.ActionCount))
	}
	return model.Genome{ID: id, Rules: rules}, nil
}

// NewGenome copies rules into a validated genome.
func NewGenome(id string, rules []model.Rule) (model.Genome, error) {
	g := model.Genome{ID: id, Rules: append([]model.Rule(nil), rules...)}
	if err := Validate(g); err != nil {
		return model.Genome{}, err
	}
	return g, nil
}

// Clone returns a genome that shares no rule storage with g.
func Clone(g model.Genome) model.Genome {
	g.Rules = append([]model.Rule(nil), g.Rules...)
	return g
}
