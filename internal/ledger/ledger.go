// Package ledger computes credit/debit totals over a set of notes.
//
// Totals are recomputed from the notes on every call; nothing is cached.
package ledger

import (
	"github.com/kotche/ledger/internal/model"
	"github.com/shopspring/decimal"
)

type Summary struct {
	Credits decimal.Decimal
	Debits  decimal.Decimal
	Balance decimal.Decimal
	Count   int
}

func TotalCredits(notes []model.Note) decimal.Decimal {
	return total(notes, model.TypeCredit)
}

func TotalDebits(notes []model.Note) decimal.Decimal {
	return total(notes, model.TypeDebit)
}

func Balance(notes []model.Note) decimal.Decimal {
	return TotalCredits(notes).Sub(TotalDebits(notes))
}

func Summarize(notes []model.Note) Summary {
	credits := TotalCredits(notes)
	debits := TotalDebits(notes)
	return Summary{
		Credits: credits,
		Debits:  debits,
		Balance: credits.Sub(debits),
		Count:   len(notes),
	}
}

func total(notes []model.Note, t model.NoteType) decimal.Decimal {
	sum := decimal.Zero
	for i := range notes {
		if notes[i].Type != t {
			continue
		}
		sum = sum.Add(amountOf(&notes[i]))
	}
	return sum
}

// amountOf never lets a malformed record break a total: negative amounts
// count as zero.
func amountOf(n *model.Note) decimal.Decimal {
	if n.Amount.IsNegative() {
		return decimal.Zero
	}
	return n.Amount
}
