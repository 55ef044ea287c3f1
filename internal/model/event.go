package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type EventKind string

const (
	EventCreated EventKind = "created"
	EventUpdated EventKind = "updated"
	EventDeleted EventKind = "deleted"
)

// Event is a note change as published to the message broker.
type Event struct {
	Kind    EventKind       `json:"kind"`
	NoteID  NoteID          `json:"noteId"`
	OwnerID UserID          `json:"ownerId"`
	Title   string          `json:"title"`
	Amount  decimal.Decimal `json:"amount"`
	Type    NoteType        `json:"type"`
	At      time.Time       `json:"at"`
}

func NewEvent(kind EventKind, note *Note, at time.Time) Event {
	return Event{
		Kind:    kind,
		NoteID:  note.ID,
		OwnerID: note.OwnerID,
		Title:   note.Title,
		Amount:  note.Amount,
		Type:    note.Type,
		At:      at,
	}
}

// Encode returns the broker key (owner id, so one owner's events stay ordered
// within a partition) and the JSON value.
func (e Event) Encode() (key, value []byte, err error) {
	value, err = json.Marshal(e)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode event: %w", err)
	}
	return []byte(e.OwnerID), value, nil
}

func DecodeEvent(value []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(value, &e); err != nil {
		return Event{}, fmt.Errorf("failed to decode event: %w", err)
	}
	return e, nil
}
