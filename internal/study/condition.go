package study

import "math/rand"

// Condition is one of the four cells of the 2x2 factorial design
// (transparency x control).
type Condition string

const (
	ConditionA Condition = "A" // low transparency, low control
	ConditionB Condition = "B" // high transparency, low control
	ConditionC Condition = "C" // low transparency, high control
	ConditionD Condition = "D" // high transparency, high control
)

// Conditions lists all cells in a fixed order.
var Conditions = []Condition{ConditionA, ConditionB, ConditionC, ConditionD}

// ConditionConfig is the UI configuration a condition maps to. It is a pure
// function of the condition and is sent to the client verbatim at
// initialization.
type ConditionConfig struct {
	Transparency  string `json:"transparency"` // "low" or "high"
	Control       string `json:"control"`      // "low" or "high"
	ShowLabel     bool   `json:"showLabel"`
	ShowDashboard bool   `json:"showDashboard"`
}

var conditionConfigs = map[Condition]ConditionConfig{
	ConditionA: {Transparency: "low", Control: "low", ShowLabel: false, ShowDashboard: false},
	ConditionB: {Transparency: "high", Control: "low", ShowLabel: true, ShowDashboard: false},
	ConditionC: {Transparency: "low", Control: "high", ShowLabel: false, ShowDashboard: true},
	ConditionD: {Transparency: "high", Control: "high", ShowLabel: true, ShowDashboard: true},
}

// ValidCondition reports whether c is one of the four cells.
func ValidCondition(c Condition) bool {
	_, ok := conditionConfigs[c]
	return ok
}

// ConfigFor returns the UI configuration for a condition. It panics on an
// unknown condition; conditions only enter the system through Allocate.
func ConfigFor(c Condition) ConditionConfig {
	cfg, ok := conditionConfigs[c]
	if !ok {
		panic("study: unknown condition " + string(c))
	}
	return cfg
}

// HasDashboardControl reports whether the condition grants the granular
// donation dashboard. Only these conditions may carry a donation config.
func HasDashboardControl(c Condition) bool {
	return conditionConfigs[c].ShowDashboard
}

// Allocate picks the next condition using block randomization: among the
// cells with the fewest participants so far it chooses uniformly at random.
// This keeps cell sizes within one of each other regardless of arrival
// order, which the measurement plan requires. counts may omit cells that
// have no participants yet.
func Allocate(counts map[Condition]int, rng *rand.Rand) (Condition, ConditionConfig) {
	min := -1
	for _, c := range Conditions {
		if n := counts[c]; min == -1 || n < min {
			min = n
		}
	}

	candidates := make([]Condition, 0, len(Conditions))
	for _, c := range Conditions {
		if counts[c] == min {
			candidates = append(candidates, c)
		}
	}

	chosen := candidates[rng.Intn(len(candidates))]
	return chosen, conditionConfigs[chosen]
}
