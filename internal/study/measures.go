package study

// BaselineMeasures are the pre-task Likert answers collected before the chat
// interaction. All items share the baseline scale declared in study.yaml.
type BaselineMeasures struct {
	TechComfort         int `json:"techComfort"`
	PrivacyConcern      int `json:"privacyConcern"`
	ChatbotFamiliarity  int `json:"chatbotFamiliarity"`
	DataSharingAttitude int `json:"dataSharingAttitude"`
}

func (m BaselineMeasures) fields() map[string]int {
	return map[string]int{
		"techComfort":         m.TechComfort,
		"privacyConcern":      m.PrivacyConcern,
		"chatbotFamiliarity":  m.ChatbotFamiliarity,
		"dataSharingAttitude": m.DataSharingAttitude,
	}
}

// SurveyMeasures are the post-task answers: manipulation checks, risk and
// trust items, one attention check, demographics, and optional free text.
type SurveyMeasures struct {
	Transparency1    int `json:"transparency1"`
	Transparency2    int `json:"transparency2"`
	Control1         int `json:"control1"`
	Control2         int `json:"control2"`
	RiskTraceability int `json:"riskTraceability"`
	RiskMisuse       int `json:"riskMisuse"`
	Trust1           int `json:"trust1"`

	AttentionCheck string `json:"attentionCheck"`

	Age              string `json:"age"`
	Gender           string `json:"gender"`
	PrimaryLanguage  string `json:"primaryLanguage"`
	Education        string `json:"education"`
	EligibleToVoteCH *bool  `json:"eligibleToVoteCh"`

	OpenFeedback string `json:"openFeedback"`
}

func (m SurveyMeasures) likertFields() map[string]int {
	return map[string]int{
		"transparency1":    m.Transparency1,
		"transparency2":    m.Transparency2,
		"control1":         m.Control1,
		"control2":         m.Control2,
		"riskTraceability": m.RiskTraceability,
		"riskMisuse":       m.RiskMisuse,
		"trust1":           m.Trust1,
	}
}
