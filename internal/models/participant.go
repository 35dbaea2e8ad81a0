package models

import (
	"time"

	"github.com/pluzgi/chatbot-study-sub001/internal/study"
)

// Participant is one row per study session. The condition is assigned once
// at creation and never mutated; current_phase only ever moves forward
// through the linear study flow. Baseline and donation fields stay null
// until their phase completes.
type Participant struct {
	ID          string          `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID   string          `gorm:"size:64;uniqueIndex;not null" json:"sessionId"`
	Condition   study.Condition `gorm:"size:1;not null" json:"condition"`
	Language    string          `gorm:"size:5;not null" json:"language"`
	Fingerprint string          `gorm:"size:64;not null" json:"-"`

	CurrentPhase study.Phase `gorm:"size:16;not null" json:"currentPhase"`

	// Synthetic pilot cohorts are flagged so they can be excluded from
	// recruitment stats and bulk-deleted before the real run.
	IsAIParticipant bool `gorm:"column:is_ai_participant;not null;default:false" json:"isAiParticipant"`

	TechComfort         *int `json:"techComfort,omitempty"`
	PrivacyConcern      *int `json:"privacyConcern,omitempty"`
	ChatbotFamiliarity  *int `json:"chatbotFamiliarity,omitempty"`
	DataSharingAttitude *int `json:"dataSharingAttitude,omitempty"`

	ChatTurns int `gorm:"not null;default:0" json:"chatTurns"`

	DonationDecision *study.Decision       `gorm:"size:8" json:"donationDecision,omitempty"`
	DonationConfig   *study.DonationConfig `gorm:"type:jsonb" json:"donationConfig,omitempty"`

	DecisionAt  *time.Time `json:"decisionAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

func (Participant) TableName() string { return "participants" }
