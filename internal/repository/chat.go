package repository

import (
	"context"

	"github.com/pluzgi/chatbot-study-sub001/internal/database"
	"github.com/pluzgi/chatbot-study-sub001/internal/models"
	"github.com/pluzgi/chatbot-study-sub001/internal/study"

	"gorm.io/gorm"
)

// GetChatHistory returns the participant's conversation in order.
func GetChatHistory(ctx context.Context, participantID string) ([]models.ChatMessage, error) {
	var msgs []models.ChatMessage
	err := database.DB.WithContext(ctx).
		Where("participant_id = ?", participantID).
		Order("id").
		Find(&msgs).Error
	return msgs, err
}

// AppendChatTurn stores one completed exchange (participant message plus
// model reply) and bumps the turn count. Only legal while the participant is
// in the chatbot phase. Returns the new turn count.
func AppendChatTurn(ctx context.Context, participantID, userMessage, reply string) (int, error) {
	p, err := GetParticipant(ctx, participantID)
	if err != nil {
		return 0, err
	}
	if p.CurrentPhase != study.PhaseChatbot {
		return 0, study.NewValidationError("phase", "chat is only available during the chatbot phase")
	}

	err = database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		turns := []models.ChatMessage{
			{ParticipantID: participantID, Role: models.ChatRoleUser, Content: userMessage},
			{ParticipantID: participantID, Role: models.ChatRoleAssistant, Content: reply},
		}
		if err := tx.Create(&turns).Error; err != nil {
			return err
		}
		return tx.Model(&models.Participant{}).
			Where("id = ?", participantID).
			Update("chat_turns", gorm.Expr("chat_turns + 1")).Error
	})
	if err != nil {
		return 0, err
	}
	return p.ChatTurns + 1, nil
}
