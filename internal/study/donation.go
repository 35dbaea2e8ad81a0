package study

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Decision is the participant's simulated choice to share or withhold their
// anonymized chat data. It is never wired to a real data export.
type Decision string

const (
	DecisionDonate  Decision = "donate"
	DecisionDecline Decision = "decline"
)

// ValidDecision reports whether d is a known decision value.
func ValidDecision(d Decision) bool {
	return d == DecisionDonate || d == DecisionDecline
}

// DonationConfig holds the dashboard selections a high-control participant
// made when donating. It exists only for decision=donate under a condition
// with dashboard control; in every other case it must be absent.
type DonationConfig struct {
	Scope     string `json:"scope"`
	Purpose   string `json:"purpose"`
	Storage   string `json:"storage"`
	Retention string `json:"retention"`
}

// Value serializes the config to JSON for the jsonb column.
func (c DonationConfig) Value() (driver.Value, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan deserializes the jsonb column back into the config.
func (c *DonationConfig) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, c)
	case string:
		return json.Unmarshal([]byte(v), c)
	default:
		return fmt.Errorf("unsupported donation config column type %T", value)
	}
}
