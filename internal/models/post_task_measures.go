package models

import "time"

// PostTaskMeasures holds the survey responses recorded after the donation
// decision: manipulation checks (MC-T, MC-C), risk and trust items, the
// attention check, demographics, and optional free text. Exactly one row per
// participant, cascade-deleted with it.
type PostTaskMeasures struct {
	ID            uint        `gorm:"primaryKey" json:"-"`
	ParticipantID string      `gorm:"type:uuid;uniqueIndex;not null" json:"participantId"`
	Participant   Participant `gorm:"foreignKey:ParticipantID;references:ID;constraint:OnDelete:CASCADE" json:"-"`

	Transparency1    int `gorm:"not null" json:"transparency1"`
	Transparency2    int `gorm:"not null" json:"transparency2"`
	Control1         int `gorm:"not null" json:"control1"`
	Control2         int `gorm:"not null" json:"control2"`
	RiskTraceability int `gorm:"not null" json:"riskTraceability"`
	RiskMisuse       int `gorm:"not null" json:"riskMisuse"`
	Trust1           int `gorm:"not null" json:"trust1"`

	AttentionCheck       string `gorm:"size:32;not null" json:"attentionCheck"`
	AttentionCheckPassed bool   `gorm:"not null" json:"attentionCheckPassed"`

	Age              string `gorm:"size:16" json:"age"`
	Gender           string `gorm:"size:24" json:"gender"`
	PrimaryLanguage  string `gorm:"size:16" json:"primaryLanguage"`
	Education        string `gorm:"size:24" json:"education"`
	EligibleToVoteCH *bool  `gorm:"column:eligible_to_vote_ch" json:"eligibleToVoteCh,omitempty"`

	OpenFeedback string `gorm:"type:text" json:"openFeedback,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

func (PostTaskMeasures) TableName() string { return "post_task_measures" }
