package study

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// LikertScale declares the inclusive bounds shared by a block of items.
type LikertScale struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// Definition is the study protocol loaded from config/study.yaml: which
// locales run, the measurement scales, the answer vocabularies, and the set
// of click events the UI may report. Validation of every participant-facing
// write consults it.
type Definition struct {
	Languages []string `yaml:"languages"`

	BaselineScale LikertScale `yaml:"baseline_scale"`
	BaselineItems []string    `yaml:"baseline_items"`

	PostTaskScale LikertScale `yaml:"post_task_scale"`
	PostTaskItems []string    `yaml:"post_task_items"`

	AttentionCheck struct {
		Options []string `yaml:"options"`
		Correct string   `yaml:"correct"`
	} `yaml:"attention_check"`

	Demographics struct {
		AgeGroups  []string `yaml:"age_groups"`
		Genders    []string `yaml:"genders"`
		Educations []string `yaml:"educations"`
	} `yaml:"demographics"`

	Dashboard struct {
		Scopes     []string `yaml:"scopes"`
		Purposes   []string `yaml:"purposes"`
		Storages   []string `yaml:"storages"`
		Retentions []string `yaml:"retentions"`
	} `yaml:"dashboard"`

	ClickEvents []string `yaml:"click_events"`

	OpenFeedbackMaxLen int `yaml:"open_feedback_max_len"`
}

// LoadDefinition reads and parses the study definition file.
func LoadDefinition(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read study definition: %w", err)
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to unmarshal study definition: %w", err)
	}
	if err := def.check(); err != nil {
		return nil, fmt.Errorf("invalid study definition: %w", err)
	}
	return &def, nil
}

// check rejects definitions that would make validation vacuous.
func (d *Definition) check() error {
	if len(d.Languages) == 0 {
		return fmt.Errorf("no languages declared")
	}
	if d.BaselineScale.Min >= d.BaselineScale.Max || d.PostTaskScale.Min >= d.PostTaskScale.Max {
		return fmt.Errorf("degenerate likert scale bounds")
	}
	if !contains(d.AttentionCheck.Options, d.AttentionCheck.Correct) {
		return fmt.Errorf("attention check answer %q is not among its options", d.AttentionCheck.Correct)
	}
	if len(d.ClickEvents) == 0 {
		return fmt.Errorf("no click events declared")
	}
	if d.OpenFeedbackMaxLen <= 0 {
		d.OpenFeedbackMaxLen = 2000
	}
	return nil
}

// ValidLanguage reports whether lang is a supported locale code.
func (d *Definition) ValidLanguage(lang string) bool {
	return contains(d.Languages, lang)
}

// ValidClickEvent reports whether event is a known counter name.
func (d *Definition) ValidClickEvent(event string) bool {
	return contains(d.ClickEvents, event)
}

// ValidateBaseline range-checks every baseline Likert item.
func (d *Definition) ValidateBaseline(m BaselineMeasures) error {
	values := m.fields()
	for _, item := range d.BaselineItems {
		v, ok := values[item]
		if !ok {
			return NewValidationError(item, "unknown baseline item in study definition")
		}
		if v < d.BaselineScale.Min || v > d.BaselineScale.Max {
			return NewValidationError(item, fmt.Sprintf("value %d outside scale %d-%d", v, d.BaselineScale.Min, d.BaselineScale.Max))
		}
	}
	return nil
}

// ValidateSurvey range-checks the post-task Likert items and checks the
// enumerated answers against the declared vocabularies. The attention check
// answer only has to be one of the offered options; answering it wrongly is
// a finding, not an error.
func (d *Definition) ValidateSurvey(m SurveyMeasures) error {
	values := m.likertFields()
	for _, item := range d.PostTaskItems {
		v, ok := values[item]
		if !ok {
			return NewValidationError(item, "unknown post-task item in study definition")
		}
		if v < d.PostTaskScale.Min || v > d.PostTaskScale.Max {
			return NewValidationError(item, fmt.Sprintf("value %d outside scale %d-%d", v, d.PostTaskScale.Min, d.PostTaskScale.Max))
		}
	}

	if !contains(d.AttentionCheck.Options, m.AttentionCheck) {
		return NewValidationError("attentionCheck", "answer is not among the offered options")
	}
	if !contains(d.Demographics.AgeGroups, m.Age) {
		return NewValidationError("age", "unknown age group")
	}
	if !contains(d.Demographics.Genders, m.Gender) {
		return NewValidationError("gender", "unknown gender option")
	}
	if !contains(d.Demographics.Educations, m.Education) {
		return NewValidationError("education", "unknown education level")
	}
	if m.PrimaryLanguage != "" && !d.ValidLanguage(m.PrimaryLanguage) && m.PrimaryLanguage != "other" {
		return NewValidationError("primaryLanguage", "unknown language option")
	}
	if len(m.OpenFeedback) > d.OpenFeedbackMaxLen {
		return NewValidationError("openFeedback", fmt.Sprintf("exceeds %d characters", d.OpenFeedbackMaxLen))
	}
	return nil
}

// AttentionCheckPassed reports whether the participant answered the attention
// check correctly. Recorded alongside the answer for the analysis pipeline.
func (d *Definition) AttentionCheckPassed(answer string) bool {
	return strings.EqualFold(answer, d.AttentionCheck.Correct)
}

// ValidateDonation enforces the donation-config invariant: a config is
// well-formed only for decision=donate under a condition that grants
// dashboard control, and each selection must come from the declared
// vocabulary. Low-control donors never saw a dashboard, so a config from
// them is a protocol violation and is rejected.
func (d *Definition) ValidateDonation(cond Condition, decision Decision, cfg *DonationConfig) error {
	if !ValidDecision(decision) {
		return NewValidationError("decision", "must be donate or decline")
	}
	if cfg == nil {
		return nil
	}
	if decision != DecisionDonate {
		return NewValidationError("config", "donation config requires decision=donate")
	}
	if !HasDashboardControl(cond) {
		return NewValidationError("config", "condition has no dashboard control")
	}
	if !contains(d.Dashboard.Scopes, cfg.Scope) {
		return NewValidationError("config.scope", "unknown scope selection")
	}
	if !contains(d.Dashboard.Purposes, cfg.Purpose) {
		return NewValidationError("config.purpose", "unknown purpose selection")
	}
	if !contains(d.Dashboard.Storages, cfg.Storage) {
		return NewValidationError("config.storage", "unknown storage selection")
	}
	if !contains(d.Dashboard.Retentions, cfg.Retention) {
		return NewValidationError("config.retention", "unknown retention selection")
	}
	return nil
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
