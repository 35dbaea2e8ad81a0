package repository

import (
	"context"
	"time"

	"github.com/pluzgi/chatbot-study-sub001/internal/database"
	"github.com/pluzgi/chatbot-study-sub001/internal/models"
	"github.com/pluzgi/chatbot-study-sub001/internal/study"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// IncrementClickCounter bumps a named counter with a single atomic
// insert-or-increment statement. Many participants click concurrently; a
// read-then-write here would lose updates, so the arithmetic happens in the
// database.
func IncrementClickCounter(ctx context.Context, eventType string) error {
	if !Def.ValidClickEvent(eventType) {
		return study.NewValidationError("eventType", "unknown click event "+eventType)
	}

	now := time.Now()
	counter := models.ClickCounter{
		EventType:     eventType,
		Count:         1,
		LastClickedAt: now,
	}
	return database.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "event_type"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"count":           gorm.Expr("click_counters.count + 1"),
			"last_clicked_at": now,
		}),
	}).Create(&counter).Error
}

// GetClickCounters returns all counters for the admin read-back.
func GetClickCounters(ctx context.Context) ([]models.ClickCounter, error) {
	var counters []models.ClickCounter
	err := database.DB.WithContext(ctx).Order("event_type").Find(&counters).Error
	return counters, err
}
