package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// BudgetAlertMessage reports that a category's spend for a month crossed
// into the near-overrun or over band. Amounts are in cents.
type BudgetAlertMessage struct {
	ID           string    `json:"id"`
	CategoryID   int64     `json:"category_id"`
	CategoryName string    `json:"category_name"`
	Month        string    `json:"month"`
	PlannedCents int64     `json:"planned_cents"`
	SpentCents   int64     `json:"spent_cents"`
	Utilization  float64   `json:"utilization"`
	Status       string    `json:"status"`
	Timestamp    time.Time `json:"timestamp"`
}

var ErrMissingMessageID = errors.New("budget alert message has no id")

// NewBudgetAlertMessage creates an alert with a fresh message id.
func NewBudgetAlertMessage(categoryID int64, categoryName, month string, plannedCents, spentCents int64, utilization float64, status string) *BudgetAlertMessage {
	return &BudgetAlertMessage{
		ID:           uuid.NewString(),
		CategoryID:   categoryID,
		CategoryName: categoryName,
		Month:        month,
		PlannedCents: plannedCents,
		SpentCents:   spentCents,
		Utilization:  utilization,
		Status:       status,
		Timestamp:    time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *BudgetAlertMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// BudgetAlertMessageFromJSON decodes a message, rejecting one without an id.
func BudgetAlertMessageFromJSON(data []byte) (*BudgetAlertMessage, error) {
	var msg BudgetAlertMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.ID == "" {
		return nil, ErrMissingMessageID
	}
	return &msg, nil
}
