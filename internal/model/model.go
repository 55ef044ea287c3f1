package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type (
	UserID string
	NoteID string

	NoteType string

	User struct {
		ID    UserID
		Login string
	}

	Note struct {
		ID          NoteID
		Title       string
		Description string
		Amount      decimal.Decimal
		Type        NoteType
		OwnerID     UserID
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}
)

const (
	TypeCredit NoteType = "credit"
	TypeDebit  NoteType = "debit"
)

// Valid reports whether t is one of the known entry types.
func (t NoteType) Valid() bool {
	return t == TypeCredit || t == TypeDebit
}

// IsOwner is the single ownership predicate applied after every by-id fetch.
func IsOwner(note *Note, caller UserID) bool {
	return note != nil && note.OwnerID == caller
}
