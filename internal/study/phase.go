package study

import "fmt"

// Phase is the stage a participant is currently in. Progress through the
// study is strictly linear; there is no branching and no way back.
type Phase string

const (
	PhaseConsent  Phase = "consent"
	PhaseBaseline Phase = "baseline"
	PhaseChatbot  Phase = "chatbot"
	PhaseDecision Phase = "decision"
	PhaseSurvey   Phase = "survey"
	PhaseComplete Phase = "complete"
)

// phaseOrder is the single source of truth for the legal phase sequence.
var phaseOrder = []Phase{
	PhaseConsent,
	PhaseBaseline,
	PhaseChatbot,
	PhaseDecision,
	PhaseSurvey,
	PhaseComplete,
}

// IllegalTransitionError signals an out-of-order or replayed phase write.
// It usually means a client bug, not user error.
type IllegalTransitionError struct {
	From Phase
	To   Phase
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal phase transition %q -> %q", e.From, e.To)
}

// ValidPhase reports whether p is one of the known phases.
func ValidPhase(p Phase) bool {
	for _, known := range phaseOrder {
		if p == known {
			return true
		}
	}
	return false
}

// NextPhase returns the immediate successor of p. The second return value is
// false when p is terminal or unknown.
func NextPhase(p Phase) (Phase, bool) {
	for i, known := range phaseOrder {
		if p == known && i+1 < len(phaseOrder) {
			return phaseOrder[i+1], true
		}
	}
	return "", false
}

// Advance validates that target is the immediate successor of current.
// It is a pure check; callers commit the write only when it returns nil.
func Advance(current, target Phase) error {
	next, ok := NextPhase(current)
	if !ok || target != next {
		return &IllegalTransitionError{From: current, To: target}
	}
	return nil
}
