package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventKind names what happened to a transaction.
type EventKind string

const (
	TransactionCreated EventKind = "transaction.created"
	TransactionDeleted EventKind = "transaction.deleted"
)

func (k EventKind) Valid() bool {
	return k == TransactionCreated || k == TransactionDeleted
}

// TransactionEvent is the message published after a ledger write. It only
// carries the id and version; consumers read the row from the store.
type TransactionEvent struct {
	MessageID     string    `json:"message_id"`
	Kind          EventKind `json:"kind"`
	TransactionID string    `json:"transaction_id"`
	Version       int64     `json:"version"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewTransactionEvent(kind EventKind, txID string, version int64) *TransactionEvent {
	return &TransactionEvent{
		MessageID:     uuid.NewString(),
		Kind:          kind,
		TransactionID: txID,
		Version:       version,
		Timestamp:     time.Now().UTC(),
	}
}

func (e *TransactionEvent) Validate() error {
	var errs []error
	if !e.Kind.Valid() {
		errs = append(errs, fmt.Errorf("unknown event kind %q", e.Kind))
	}
	if e.TransactionID == "" {
		errs = append(errs, errors.New("missing transaction id"))
	}
	if e.Version < 1 {
		errs = append(errs, fmt.Errorf("invalid version %d", e.Version))
	}
	return errors.Join(errs...)
}

func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionEventFromJSON decodes and validates a message body.
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var e TransactionEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return &e, nil
}
