package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// EventKind identifies which of the three event records a payload is.
type EventKind string

const (
	KindCash     EventKind = "cash"
	KindTrade    EventKind = "trade"
	KindExchange EventKind = "exchange"
)

// ParseEventKind accepts the canonical kind names plus a few plural/alias forms
// used by the API paths.
func ParseEventKind(s string) (EventKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cash", "transactions", "transaction":
		return KindCash, nil
	case "trade", "trades":
		return KindTrade, nil
	case "exchange", "exchanges":
		return KindExchange, nil
	}
	return "", invalid("kind", fmt.Sprintf("unknown event kind %q", s))
}

// SoftDeleted reports whether records of this kind are kept with a
// deleted_at marker when removed. Trades are removed outright.
func (k EventKind) SoftDeleted() bool {
	return k == KindCash || k == KindExchange
}

// EventRef addresses one stored event.
type EventRef struct {
	Kind EventKind `json:"kind"`
	ID   string    `json:"id"`
}

func (r EventRef) String() string {
	return string(r.Kind) + "/" + r.ID
}

// EventMeta is the bookkeeping header shared by every event record.
type EventMeta struct {
	ID        string     `json:"id"`
	Timestamp time.Time  `json:"timestamp"`
	Note      string     `json:"note,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// Meta gives mutable access to the header.
func (m *EventMeta) Meta() *EventMeta { return m }

// IsDeleted reports whether the event has been retracted and soft-deleted.
func (m *EventMeta) IsDeleted() bool { return m.DeletedAt != nil }

// OccurredAt is the user-supplied timestamp of the event.
func (m *EventMeta) OccurredAt() time.Time { return m.Timestamp }

func (m *EventMeta) validate() error {
	if m.Timestamp.IsZero() {
		return invalid("timestamp", "is required")
	}
	if len(m.Note) > 1000 {
		return invalid("note", "exceeds 1000 characters")
	}
	return nil
}

// Event is implemented by *CashTransaction, *SecurityTrade and *CurrencyExchange.
type Event interface {
	Ref() EventRef
	Meta() *EventMeta
	IsDeleted() bool
	OccurredAt() time.Time
	// Validate normalizes and checks the user-supplied fields. It does not
	// resolve references; that happens inside the mutation transaction.
	Validate() error
}

// NewEvent returns an empty event of the given kind.
func NewEvent(kind EventKind) (Event, error) {
	switch kind {
	case KindCash:
		return &CashTransaction{}, nil
	case KindTrade:
		return &SecurityTrade{}, nil
	case KindExchange:
		return &CurrencyExchange{}, nil
	}
	return nil, invalid("kind", fmt.Sprintf("unknown event kind %q", kind))
}

// DecodeEvent decodes a JSON payload into an event of the given kind.
func DecodeEvent(kind EventKind, data []byte) (Event, error) {
	ev, err := NewEvent(kind)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, ev); err != nil {
		return nil, invalid("body", fmt.Sprintf("is not a valid %s event: %v", kind, err))
	}
	return ev, nil
}

var (
	minNanoTime = time.Unix(0, math.MinInt64)
	maxNanoTime = time.Unix(0, math.MaxInt64)
)

// UnixNanos returns t as unix nanoseconds clamped to the int64 range, so the
// zero time sorts before every real timestamp.
func UnixNanos(t time.Time) int64 {
	switch {
	case t.Before(minNanoTime):
		return math.MinInt64
	case t.After(maxNanoTime):
		return math.MaxInt64
	}
	return t.UnixNano()
}
