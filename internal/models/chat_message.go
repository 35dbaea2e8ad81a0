package models

import "time"

const (
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// ChatMessage is one utterance of the participant's conversation with the
// ballot chatbot. The conversation is what a donating participant agrees to
// share, so it is stored verbatim and cascade-deleted with the participant.
type ChatMessage struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	ParticipantID string      `gorm:"type:uuid;index;not null" json:"participantId"`
	Participant   Participant `gorm:"foreignKey:ParticipantID;references:ID;constraint:OnDelete:CASCADE" json:"-"`

	Role    string `gorm:"size:16;not null;check:role IN ('user','assistant')" json:"role"`
	Content string `gorm:"type:text;not null" json:"content"`

	CreatedAt time.Time `json:"createdAt"`
}

func (ChatMessage) TableName() string { return "chat_messages" }
