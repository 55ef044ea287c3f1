package model

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Amounts must fit a finite float64: at most 309 integer digits and nothing
// smaller than the smallest subnormal.
const (
	maxIntegerDigits  = 309
	maxFractionDigits = 324
)

type amountKind uint8

const (
	amountAbsent amountKind = iota
	amountNumber
	amountString
	amountOther
)

// AmountInput is an amount exactly as a client supplied it: a JSON number, a
// numeric string, null, or something else entirely. The zero value is absent.
type AmountInput struct {
	kind amountKind
	raw  string
}

// AmountFromString builds an input from free text (form values, chat commands).
// An empty string counts as absent.
func AmountFromString(s string) AmountInput {
	if s == "" {
		return AmountInput{}
	}
	return AmountInput{kind: amountString, raw: s}
}

func (a *AmountInput) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*a = AmountInput{}
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = AmountFromString(s)
	case b[0] == '-' || (b[0] >= '0' && b[0] <= '9'):
		*a = AmountInput{kind: amountNumber, raw: string(b)}
	default:
		*a = AmountInput{kind: amountOther, raw: string(b)}
	}
	return nil
}

// Present reports whether a value was supplied at all (not absent, null or "").
func (a AmountInput) Present() bool {
	return a.kind != amountAbsent
}

// Coerce converts the input to a canonical number. ok is false when the value
// is not numeric (NaN), negative, or outside the finite float64 range.
func (a AmountInput) Coerce() (d decimal.Decimal, ok bool) {
	if a.kind != amountNumber && a.kind != amountString {
		return decimal.Zero, false
	}
	s := strings.TrimSpace(a.raw)
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.Zero, false
	}
	// "0e999999999" is zero; rendering it as given would expand the exponent.
	if d.IsZero() {
		return decimal.Zero, true
	}
	if !finite(d) {
		return decimal.Zero, false
	}
	return d, true
}

// finite checks the magnitude from the coefficient length and exponent before
// any arithmetic, since both String and Float64 expand the exponent.
func finite(d decimal.Decimal) bool {
	exp := int64(d.Exponent())
	if exp < -maxFractionDigits {
		return false
	}
	digits := int64(len(d.Coefficient().Text(10)))
	if digits+exp > maxIntegerDigits {
		return false
	}
	f, _ := d.Float64()
	return !math.IsInf(f, 0)
}

func (a AmountInput) String() string {
	return a.raw
}

// ParseStoredAmount reads an amount coming back from storage. Unparsable or
// negative values read as zero so that aggregation never fails on a bad row.
func ParseStoredAmount(s string) decimal.Decimal {
	d, ok := AmountFromString(s).Coerce()
	if !ok {
		return decimal.Zero
	}
	return d
}
