package writer

import (
	"strings"
	"testing"
	"time"

	"github.com/kotche/ledger/internal/ledger"
	"github.com/kotche/ledger/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAdd(t *testing.T) {
	in, err := parseAdd(" Debit 1200,50 Rent for May |  flat on Main st ")
	require.NoError(t, err)
	assert.Equal(t, "debit", in.Type)
	assert.Equal(t, "Rent for May", in.Title)
	assert.Equal(t, "flat on Main st", in.Description)

	amount, ok := in.Amount.Coerce()
	require.True(t, ok)
	assert.Equal(t, "1200.5", amount.String())

	for _, payload := range []string{"", "debit 10", "debit 10 no separator"} {
		_, err = parseAdd(payload)
		assert.ErrorIs(t, err, errAddUsage, payload)
	}
}

func TestParseEdit(t *testing.T) {
	id, patch, err := parseEdit("abc amount 13,5")
	require.NoError(t, err)
	assert.Equal(t, model.NoteID("abc"), id)
	amount, ok := patch.Amount.Coerce()
	require.True(t, ok)
	assert.Equal(t, "13.5", amount.String())
	assert.Empty(t, patch.Title)

	_, patch, err = parseEdit("abc title June rent")
	require.NoError(t, err)
	assert.Equal(t, "June rent", patch.Title)
	assert.False(t, patch.Amount.Present())

	_, patch, err = parseEdit("abc type CREDIT")
	require.NoError(t, err)
	assert.Equal(t, "credit", patch.Type)

	_, _, err = parseEdit("abc owner someone")
	assert.ErrorIs(t, err, errEditUsage)
	_, _, err = parseEdit("abc title")
	assert.ErrorIs(t, err, errEditUsage)
}

func TestFormatList(t *testing.T) {
	assert.Equal(t, "Записей нет", formatList(nil, ledger.Summary{}))

	list := []model.Note{
		{ID: "n1", Title: "Rent", Description: "May rent", Amount: decimal.NewFromInt(1200), Type: model.TypeDebit, UpdatedAt: time.Now()},
		{ID: "n2", Title: "Salary", Description: "May pay", Amount: decimal.NewFromInt(500), Type: model.TypeCredit, UpdatedAt: time.Now()},
	}
	out := formatList(list, ledger.Summarize(list))

	assert.True(t, strings.HasPrefix(out, "Записи:\n1. -1200.00 Rent"))
	assert.Contains(t, out, "2. +500.00 Salary")
	assert.Contains(t, out, "Баланс: -700.00")
}
