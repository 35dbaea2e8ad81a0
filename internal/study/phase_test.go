package study

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdvanceLinearOrder(t *testing.T) {
	legal := [][2]Phase{
		{PhaseConsent, PhaseBaseline},
		{PhaseBaseline, PhaseChatbot},
		{PhaseChatbot, PhaseDecision},
		{PhaseDecision, PhaseSurvey},
		{PhaseSurvey, PhaseComplete},
	}
	for _, pair := range legal {
		assert.NoError(t, Advance(pair[0], pair[1]), "%s -> %s should be legal", pair[0], pair[1])
	}
}

func TestAdvanceRejectsEverythingElse(t *testing.T) {
	all := []Phase{PhaseConsent, PhaseBaseline, PhaseChatbot, PhaseDecision, PhaseSurvey, PhaseComplete}
	for _, from := range all {
		next, _ := NextPhase(from)
		for _, to := range all {
			if to == next {
				continue
			}
			err := Advance(from, to)
			require.Error(t, err, "%s -> %s must be rejected", from, to)

			var transitionErr *IllegalTransitionError
			require.ErrorAs(t, err, &transitionErr)
			assert.Equal(t, from, transitionErr.From)
			assert.Equal(t, to, transitionErr.To)
		}
	}
}

func TestAdvanceSkippingPhasesFails(t *testing.T) {
	// Consent cannot jump straight to survey.
	require.Error(t, Advance(PhaseConsent, PhaseSurvey))
	require.NoError(t, Advance(PhaseConsent, PhaseBaseline))
}

func TestAdvanceNoRevert(t *testing.T) {
	require.Error(t, Advance(PhaseDecision, PhaseChatbot))
	require.Error(t, Advance(PhaseComplete, PhaseConsent))
}

func TestCompleteIsTerminal(t *testing.T) {
	_, ok := NextPhase(PhaseComplete)
	assert.False(t, ok)
}

func TestAdvanceUnknownPhase(t *testing.T) {
	err := Advance(Phase("limbo"), PhaseBaseline)
	var transitionErr *IllegalTransitionError
	require.True(t, errors.As(err, &transitionErr))
}

func TestValidPhase(t *testing.T) {
	assert.True(t, ValidPhase(PhaseChatbot))
	assert.False(t, ValidPhase(Phase("limbo")))
}
