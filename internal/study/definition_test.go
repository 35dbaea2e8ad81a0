package study

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTestDefinition(t *testing.T) *Definition {
	t.Helper()
	def, err := LoadDefinition("../../config/study.yaml")
	require.NoError(t, err)
	return def
}

func validBaseline() BaselineMeasures {
	return BaselineMeasures{
		TechComfort:         5,
		PrivacyConcern:      3,
		ChatbotFamiliarity:  2,
		DataSharingAttitude: 4,
	}
}

func validSurvey() SurveyMeasures {
	eligible := true
	return SurveyMeasures{
		Transparency1:    6,
		Transparency2:    5,
		Control1:         2,
		Control2:         3,
		RiskTraceability: 4,
		RiskMisuse:       4,
		Trust1:           5,
		AttentionCheck:   "voting",
		Age:              "25-34",
		Gender:           "female",
		PrimaryLanguage:  "de",
		Education:        "master",
		EligibleToVoteCH: &eligible,
	}
}

func TestLoadDefinition(t *testing.T) {
	def := loadTestDefinition(t)
	assert.ElementsMatch(t, []string{"de", "fr", "it", "en"}, def.Languages)
	assert.Equal(t, 1, def.BaselineScale.Min)
	assert.Equal(t, 6, def.BaselineScale.Max)
	assert.Equal(t, 7, def.PostTaskScale.Max)
	assert.True(t, def.ValidClickEvent("decline_study"))
	assert.False(t, def.ValidClickEvent("made_up_event"))
}

func TestValidateBaseline(t *testing.T) {
	def := loadTestDefinition(t)
	require.NoError(t, def.ValidateBaseline(validBaseline()))

	low := validBaseline()
	low.PrivacyConcern = 0
	require.Error(t, def.ValidateBaseline(low))

	high := validBaseline()
	high.TechComfort = 7
	err := def.ValidateBaseline(high)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "techComfort", validationErr.Field)
}

func TestValidateSurvey(t *testing.T) {
	def := loadTestDefinition(t)
	require.NoError(t, def.ValidateSurvey(validSurvey()))

	outOfRange := validSurvey()
	outOfRange.Trust1 = 8
	require.Error(t, def.ValidateSurvey(outOfRange))

	badAge := validSurvey()
	badAge.Age = "17"
	require.Error(t, def.ValidateSurvey(badAge))

	badAnswer := validSurvey()
	badAnswer.AttentionCheck = "astrology"
	require.Error(t, def.ValidateSurvey(badAnswer))

	// A wrong but offered attention answer is a finding, not an error.
	wrongAnswer := validSurvey()
	wrongAnswer.AttentionCheck = "weather"
	require.NoError(t, def.ValidateSurvey(wrongAnswer))
	assert.False(t, def.AttentionCheckPassed(wrongAnswer.AttentionCheck))
	assert.True(t, def.AttentionCheckPassed("voting"))
	assert.True(t, def.AttentionCheckPassed("Voting"))
}

func TestValidateDonation(t *testing.T) {
	def := loadTestDefinition(t)
	cfg := &DonationConfig{
		Scope:     "anonymized",
		Purpose:   "academic",
		Storage:   "switzerland",
		Retention: "six-months",
	}

	// Decline never carries a config.
	require.Error(t, def.ValidateDonation(ConditionD, DecisionDecline, cfg))
	require.NoError(t, def.ValidateDonation(ConditionD, DecisionDecline, nil))

	// Donate with config requires dashboard control.
	require.NoError(t, def.ValidateDonation(ConditionC, DecisionDonate, cfg))
	require.NoError(t, def.ValidateDonation(ConditionD, DecisionDonate, cfg))
	require.Error(t, def.ValidateDonation(ConditionA, DecisionDonate, cfg))
	require.Error(t, def.ValidateDonation(ConditionB, DecisionDonate, cfg))

	// Donate without a config is fine in every condition (dashboard left
	// at defaults, or never shown).
	require.NoError(t, def.ValidateDonation(ConditionA, DecisionDonate, nil))

	// Unknown vocabulary entries are rejected.
	badCfg := *cfg
	badCfg.Retention = "forever"
	require.Error(t, def.ValidateDonation(ConditionD, DecisionDonate, &badCfg))

	require.Error(t, def.ValidateDonation(ConditionD, Decision("maybe"), nil))
}
