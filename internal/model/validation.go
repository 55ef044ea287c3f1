package model

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	MsgFillAllFields = "Please fill all the fields"
	MsgInvalidType   = "Type must be either 'credit' or 'debit'"
	MsgInvalidAmount = "Amount must be a non-negative number"
)

type (
	// CreateInput is the raw payload of a create request.
	CreateInput struct {
		Title       string      `json:"title"`
		Description string      `json:"description"`
		Amount      AmountInput `json:"amount"`
		Type        string      `json:"type"`
	}

	// NotePatch is the raw payload of an update request. Empty fields mean
	// "leave unchanged".
	NotePatch struct {
		Title       string      `json:"title"`
		Description string      `json:"description"`
		Amount      AmountInput `json:"amount"`
		Type        string      `json:"type"`
	}

	createRules struct {
		Title       string `json:"title" validate:"required"`
		Description string `json:"description" validate:"required"`
		HasAmount   bool   `json:"amount" validate:"required"`
		Type        string `json:"type" validate:"required,oneof=credit debit"`
	}
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		return name
	})
	return v
}

// NewNote applies the strict creation policy: every field is required, the
// type must be known and the amount must coerce to a number >= 0.
func NewNote(id NoteID, owner UserID, in CreateInput, now time.Time) (*Note, error) {
	rules := createRules{
		Title:       in.Title,
		Description: in.Description,
		HasAmount:   in.Amount.Present(),
		Type:        in.Type,
	}
	if err := validate.Struct(rules); err != nil {
		return nil, translate(err)
	}

	amount, ok := in.Amount.Coerce()
	if !ok {
		return nil, NewValidationError("amount", MsgInvalidAmount)
	}

	return &Note{
		ID:          id,
		Title:       in.Title,
		Description: in.Description,
		Amount:      amount,
		Type:        NoteType(in.Type),
		OwnerID:     owner,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// translate maps validator failures onto the client-facing messages. Missing
// fields win over an unknown type.
func translate(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return NewValidationError("", err.Error())
	}
	for _, fe := range fieldErrs {
		if fe.Tag() == "required" {
			return NewValidationError(fe.Field(), MsgFillAllFields)
		}
	}
	for _, fe := range fieldErrs {
		if fe.Field() == "type" {
			return NewValidationError("type", MsgInvalidType)
		}
	}
	return NewValidationError(fieldErrs[0].Field(), fieldErrs[0].Error())
}

// ApplyPatch applies the lenient update policy. Invalid amount or type values
// are dropped silently and the stored value is kept. UpdatedAt always moves.
func (n *Note) ApplyPatch(p NotePatch, now time.Time) {
	if p.Title != "" {
		n.Title = p.Title
	}
	if p.Description != "" {
		n.Description = p.Description
	}
	if p.Amount.Present() {
		if amount, ok := p.Amount.Coerce(); ok {
			n.Amount = amount
		}
	}
	if t := NoteType(p.Type); t.Valid() {
		n.Type = t
	}
	n.UpdatedAt = now
}
