package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event names carried in TransactionEvent.Event.
const (
	EventTransactionCreated = "transaction.created"
	EventTransactionDeleted = "transaction.deleted"
)

// TransactionEvent announces a change to a transaction. It carries only
// identifiers; consumers load the current row from the database.
type TransactionEvent struct {
	MessageID     string    `json:"messageId"`
	Event         string    `json:"event"`
	TransactionID int64     `json:"transactionId"`
	FamilyID      int64     `json:"familyId"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewTransactionEvent(event string, transactionID, familyID int64) *TransactionEvent {
	return &TransactionEvent{
		MessageID:     uuid.NewString(),
		Event:         event,
		TransactionID: transactionID,
		FamilyID:      familyID,
		Timestamp:     time.Now().UTC(),
	}
}

func (m *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var msg TransactionEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
