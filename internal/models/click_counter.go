package models

import "time"

// ClickCounter is a process-wide named counter for anonymous UI statistics
// ("declined the study", "opened an external link"). Increments go through
// an atomic upsert; the table is the only state shared across participants.
type ClickCounter struct {
	EventType     string    `gorm:"primaryKey;size:64" json:"eventType"`
	Count         int64     `gorm:"not null;default:0" json:"count"`
	LastClickedAt time.Time `json:"lastClickedAt"`
	CreatedAt     time.Time `json:"createdAt"`
}

func (ClickCounter) TableName() string { return "click_counters" }
