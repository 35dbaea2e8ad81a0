package repository

import (
	"context"
	"time"

	"github.com/pluzgi/chatbot-study-sub001/internal/database"
	"github.com/pluzgi/chatbot-study-sub001/internal/models"
)

// Bulk deletes are an operational escape hatch, not part of the study
// contract. Child rows (post-task measures, chat messages) go with the
// participant via the cascading foreign keys.

// DeleteAICohort removes every synthetic pilot participant.
func DeleteAICohort(ctx context.Context) (int64, error) {
	res := database.DB.WithContext(ctx).
		Where("is_ai_participant = ?", true).
		Delete(&models.Participant{})
	return res.RowsAffected, res.Error
}

// DeleteByDateRange removes participants created within [from, to).
func DeleteByDateRange(ctx context.Context, from, to time.Time) (int64, error) {
	res := database.DB.WithContext(ctx).
		Where("created_at >= ? AND created_at < ?", from, to).
		Delete(&models.Participant{})
	return res.RowsAffected, res.Error
}

// DeleteAllParticipants wipes the participant table entirely.
func DeleteAllParticipants(ctx context.Context) (int64, error) {
	res := database.DB.WithContext(ctx).
		Where("1 = 1").
		Delete(&models.Participant{})
	return res.RowsAffected, res.Error
}
