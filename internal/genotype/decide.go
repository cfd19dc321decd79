package genotype

import "batterybots/internal/model"

// Matches reports whether every condition code equals the reading. There is
// no wildcard at match time: a rule expecting SensorCorrupt only matches a
// corrupt reading.
func Matches(rule model.Rule, readings model.SensorReadings) bool {
	return rule.Condition == readings
}

// Decide scans rules in order and returns the first match's action and
// index. When nothing before the fallback matches, the fallback rule fires
// regardless of its condition.
func Decide(g model.Genome, readings model.SensorReadings) (model.Action, int) {
	last := len(g.Rules) - 1
	for i := 0; i < last; i++ {
		if Matches(g.Rules[i], readings) {
			return g.Rules[i].Action, i
		}
	}
	return g.Rules[last].Action, last
}

func DecideAction(g model.Genome, readings model.SensorReadings) model.Action {
	action, _ := Decide(g, readings)
	return action
}
