package writer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kotche/ledger/internal/ledger"
	"github.com/kotche/ledger/internal/model"
)

const timeLayout = "2006-01-02 15:04"

var (
	errAddUsage  = errors.New("формат: /add {credit|debit} {сумма} {название} | {описание}")
	errEditUsage = errors.New("формат: /edit {id} {title|description|amount|type} {значение}")
)

// parseAdd разбирает "/add debit 1200 Rent | May rent".
func parseAdd(payload string) (model.CreateInput, error) {
	fields := strings.Fields(payload)
	if len(fields) < 3 {
		return model.CreateInput{}, errAddUsage
	}

	rest := strings.TrimSpace(payload)
	for i := 0; i < 2; i++ {
		rest = strings.TrimSpace(strings.TrimPrefix(rest, fields[i]))
	}

	title, description, ok := strings.Cut(rest, "|")
	if !ok {
		return model.CreateInput{}, errAddUsage
	}

	return model.CreateInput{
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
		Amount:      model.AmountFromString(normalizeAmount(fields[1])),
		Type:        strings.ToLower(fields[0]),
	}, nil
}

// parseEdit разбирает "/edit {id} amount 1300" в частичное обновление.
func parseEdit(payload string) (model.NoteID, model.NotePatch, error) {
	fields := strings.Fields(payload)
	if len(fields) < 3 {
		return "", model.NotePatch{}, errEditUsage
	}

	value := strings.TrimSpace(payload)
	for i := 0; i < 2; i++ {
		value = strings.TrimSpace(strings.TrimPrefix(value, fields[i]))
	}

	var patch model.NotePatch
	switch strings.ToLower(fields[1]) {
	case "title":
		patch.Title = value
	case "description":
		patch.Description = value
	case "amount":
		patch.Amount = model.AmountFromString(normalizeAmount(value))
	case "type":
		patch.Type = strings.ToLower(value)
	default:
		return "", model.NotePatch{}, errEditUsage
	}

	return model.NoteID(fields[0]), patch, nil
}

// normalizeAmount принимает десятичную запятую: "12,50" -> "12.50".
func normalizeAmount(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
}

func formatNote(n *model.Note) string {
	sign := "+"
	if n.Type == model.TypeDebit {
		sign = "-"
	}
	return fmt.Sprintf("%s%s %s: %s (id %s, изменена: %s)",
		sign, n.Amount.StringFixed(2), n.Title, n.Description, n.ID, n.UpdatedAt.Local().Format(timeLayout))
}

func formatList(list []model.Note, s ledger.Summary) string {
	if len(list) == 0 {
		return "Записей нет"
	}

	var response strings.Builder
	response.WriteString("Записи:\n")
	for i := range list {
		response.WriteString(fmt.Sprintf("%d. %s\n", i+1, formatNote(&list[i])))
	}
	response.WriteString("\n")
	response.WriteString(formatSummary(s))
	return response.String()
}

func formatSummary(s ledger.Summary) string {
	return fmt.Sprintf("Приход: %s\nРасход: %s\nБаланс: %s",
		s.Credits.StringFixed(2), s.Debits.StringFixed(2), s.Balance.StringFixed(2))
}
