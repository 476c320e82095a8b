package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

type EventOp string

const (
	OpCreated EventOp = "created"
	OpUpdated EventOp = "updated"
	OpDeleted EventOp = "deleted"
)

// LedgerEvent announces a committed change to one transaction. It carries
// identifiers only; consumers read the current row from the ledger.
type LedgerEvent struct {
	Op            EventOp   `json:"op"`
	TransactionID int64     `json:"transactionId"`
	UserID        int64     `json:"userId"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewLedgerEvent(op EventOp, transactionID, userID int64) LedgerEvent {
	return LedgerEvent{
		Op:            op,
		TransactionID: transactionID,
		UserID:        userID,
		Timestamp:     time.Now().UTC(),
	}
}

func (e LedgerEvent) Validate() error {
	switch e.Op {
	case OpCreated, OpUpdated, OpDeleted:
	default:
		return fmt.Errorf("unknown op %q", e.Op)
	}
	if e.TransactionID <= 0 {
		return fmt.Errorf("invalid transaction id %d", e.TransactionID)
	}
	if e.UserID <= 0 {
		return fmt.Errorf("invalid user id %d", e.UserID)
	}
	return nil
}

// ToJSON converts the event to JSON bytes
func (e LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON decodes and validates an event.
func LedgerEventFromJSON(data []byte) (LedgerEvent, error) {
	var ev LedgerEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return LedgerEvent{}, err
	}
	if err := ev.Validate(); err != nil {
		return LedgerEvent{}, err
	}
	return ev, nil
}
