package amqp

import (
	"encoding/json"
	"time"
)

// Message type tags carried in the AMQP Type property.
const (
	TypeSpendingSaved = "spending.saved"
	TypeSpendingReset = "spending.reset"
)

// SpendingSavedMessage announces that a spending aggregate was written.
// It carries only a shape summary; consumers read the rows back from the
// configured store.
type SpendingSavedMessage struct {
	Users     int       `json:"users"`
	TotalCost float64   `json:"total_cost"`
	Timestamp time.Time `json:"timestamp"`
}

// SpendingResetMessage announces that the aggregate was cleared.
type SpendingResetMessage struct {
	Existed   bool      `json:"existed"`
	Timestamp time.Time `json:"timestamp"`
}

func NewSpendingSavedMessage(users int, totalCost float64) *SpendingSavedMessage {
	return &SpendingSavedMessage{
		Users:     users,
		TotalCost: totalCost,
		Timestamp: time.Now(),
	}
}

func NewSpendingResetMessage(existed bool) *SpendingResetMessage {
	return &SpendingResetMessage{
		Existed:   existed,
		Timestamp: time.Now(),
	}
}

func (m *SpendingSavedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func (m *SpendingResetMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func SpendingSavedMessageFromJSON(data []byte) (*SpendingSavedMessage, error) {
	var msg SpendingSavedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func SpendingResetMessageFromJSON(data []byte) (*SpendingResetMessage, error) {
	var msg SpendingResetMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
