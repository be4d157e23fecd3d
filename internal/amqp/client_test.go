package amqp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"

	"cashflow/internal/core"
	applog "cashflow/internal/log"
)

// recordingAcknowledger captures how a delivery was settled.
type recordingAcknowledger struct {
	acked   bool
	nacked  bool
	requeue bool
}

func (r *recordingAcknowledger) Ack(uint64, bool) error { r.acked = true; return nil }

func (r *recordingAcknowledger) Nack(_ uint64, _ bool, requeue bool) error {
	r.nacked = true
	r.requeue = requeue
	return nil
}

func (r *recordingAcknowledger) Reject(_ uint64, requeue bool) error {
	r.nacked = true
	r.requeue = requeue
	return nil
}

func TestLedgerChangeMessageJSON(t *testing.T) {
	ts := time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)
	msg := NewLedgerChangeMessage(core.LedgerChange{
		Operation:      core.OpCreate,
		EntryID:        "e1",
		CurrentBalance: decimal.RequireFromString("1500.50"),
		Timestamp:      ts,
	})

	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	got, err := LedgerChangeMessageFromJSON(body)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	change := got.Change()
	if change.Operation != core.OpCreate || change.EntryID != "e1" || !change.Timestamp.Equal(ts) {
		t.Fatalf("unexpected change %+v", change)
	}
	if !change.CurrentBalance.Equal(decimal.RequireFromString("1500.5")) {
		t.Fatalf("unexpected balance %s", change.CurrentBalance)
	}
}

func TestLedgerChangeMessageFromJSONRejectsBadInput(t *testing.T) {
	for _, body := range []string{`not json`, `{}`, `{"entryId":"x"}`} {
		if _, err := LedgerChangeMessageFromJSON([]byte(body)); err == nil {
			t.Errorf("expected error for %q", body)
		}
	}
}

func TestNewLedgerChangeMessageDefaultsTimestamp(t *testing.T) {
	if NewLedgerChangeMessage(core.LedgerChange{Operation: core.OpReconcile}).Timestamp.IsZero() {
		t.Fatal("expected timestamp to be set")
	}
}

func TestHandleDelivery(t *testing.T) {
	valid, _ := NewLedgerChangeMessage(core.LedgerChange{Operation: core.OpDelete, EntryID: "e1"}).ToJSON()

	tests := []struct {
		name        string
		body        []byte
		handlerErr  error
		wantAck     bool
		wantRequeue bool
		wantCalled  bool
	}{
		{"success acks", valid, nil, true, false, true},
		{"handler failure requeues", valid, errors.New("sheets unavailable"), false, true, true},
		{"malformed message is dropped", []byte("{"), nil, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ack := &recordingAcknowledger{}
			called := false
			handler := func(_ context.Context, m *LedgerChangeMessage) error {
				called = true
				if m.EntryID != "e1" {
					t.Errorf("unexpected message %+v", m)
				}
				return tt.handlerErr
			}

			handleDelivery(context.Background(), applog.Discard(),
				amqp091.Delivery{Acknowledger: ack, DeliveryTag: 1, Body: tt.body}, handler)

			if called != tt.wantCalled {
				t.Fatalf("handler called = %v, want %v", called, tt.wantCalled)
			}
			if ack.acked != tt.wantAck {
				t.Errorf("acked = %v, want %v", ack.acked, tt.wantAck)
			}
			if !tt.wantAck && !ack.nacked {
				t.Errorf("expected delivery to be nacked")
			}
			if ack.requeue != tt.wantRequeue {
				t.Errorf("requeue = %v, want %v", ack.requeue, tt.wantRequeue)
			}
		})
	}
}

func TestCloseWithoutConnection(t *testing.T) {
	if err := (&Client{}).Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
