package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"cashflow/internal/core"
)

// LedgerChangeMessage tells the export worker that the ledger changed.
// It carries no entry data: the worker reads a fresh snapshot.
type LedgerChangeMessage struct {
	Operation      string          `json:"operation"`
	EntryID        string          `json:"entryId,omitempty"`
	CurrentBalance decimal.Decimal `json:"currentBalance"`
	Timestamp      time.Time       `json:"timestamp"`
}

// NewLedgerChangeMessage builds a message from a committed change.
func NewLedgerChangeMessage(c core.LedgerChange) *LedgerChangeMessage {
	ts := c.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return &LedgerChangeMessage{
		Operation:      c.Operation,
		EntryID:        c.EntryID,
		CurrentBalance: c.CurrentBalance,
		Timestamp:      ts,
	}
}

// Change converts the message back to the domain type.
func (m *LedgerChangeMessage) Change() core.LedgerChange {
	return core.LedgerChange{
		Operation:      m.Operation,
		EntryID:        m.EntryID,
		CurrentBalance: m.CurrentBalance,
		Timestamp:      m.Timestamp,
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerChangeMessageFromJSON parses a message body. A body without an
// operation is rejected.
func LedgerChangeMessageFromJSON(data []byte) (*LedgerChangeMessage, error) {
	var msg LedgerChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Operation == "" {
		return nil, errors.New("message has no operation")
	}
	return &msg, nil
}
