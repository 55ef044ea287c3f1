package writer

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/kotche/ledger/internal/model"
	"github.com/kotche/ledger/internal/service/notes"
	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const (
	longProcessTimeout = 2 * time.Second
)

type Writer struct {
	bot   *telebot.Bot
	notes notes.Service
	log   *logrus.Entry
}

func New(bot *telebot.Bot, notes notes.Service, log *logrus.Entry) *Writer {
	return &Writer{bot: bot, notes: notes, log: log}
}

func (w *Writer) Start() {
	w.helpHandler()
	w.addHandler()
	w.editHandler()
	w.deleteHandler()
	w.getHandler()
	w.listHandler()
	w.balanceHandler()

	w.log.Info("writer started")
	w.bot.Start()
}

func (w *Writer) Stop() {
	w.bot.Stop()
}

// helpHandler обработчик помощь
func (w *Writer) helpHandler() {
	helpMessage := "Доступные команды:\n" +
		"/add {credit|debit} {сумма} {название} | {описание} - новая запись\n" +
		"/edit {id} {title|description|amount|type} {значение} - изменить запись\n" +
		"/delete {id} - удалить запись\n" +
		"/get {id} - показать запись\n" +
		"/list [поиск] - список записей с итогами\n" +
		"/balance [поиск] - только итоги\n" +
		"/help - показать это сообщение"

	w.bot.Handle("/help", func(c telebot.Context) error {
		return c.Send(helpMessage)
	})
	w.bot.Handle("/start", func(c telebot.Context) error {
		return c.Send(helpMessage)
	})
}

// addHandler обработчик создать запись
func (w *Writer) addHandler() {
	w.bot.Handle("/add", func(c telebot.Context) error {
		in, err := parseAdd(c.Message().Payload)
		if err != nil {
			return c.Send(err.Error())
		}

		ctx, cancel := context.WithTimeout(context.Background(), longProcessTimeout)
		defer cancel()

		userID, err := w.ensureUser(ctx, c)
		if err != nil {
			return w.reply(ctx, c, err, "сохранение пользователя")
		}

		note, err := w.notes.Create(ctx, userID, in)
		if err != nil {
			return w.reply(ctx, c, err, "сохранение записи")
		}

		return c.Send("Сохранена запись:\n" + formatNote(note))
	})
}

// editHandler обработчик изменить запись
func (w *Writer) editHandler() {
	w.bot.Handle("/edit", func(c telebot.Context) error {
		noteID, patch, err := parseEdit(c.Message().Payload)
		if err != nil {
			return c.Send(err.Error())
		}

		ctx, cancel := context.WithTimeout(context.Background(), longProcessTimeout)
		defer cancel()

		note, err := w.notes.Update(ctx, noteID, senderID(c), patch)
		if err != nil {
			return w.replyNote(ctx, c, err, noteID, "изменение записи")
		}

		return c.Send("Запись обновлена:\n" + formatNote(note))
	})
}

// deleteHandler обработчик удалить запись, с подтверждением
func (w *Writer) deleteHandler() {
	w.bot.Handle("/delete", func(c telebot.Context) error {
		args := c.Args()
		if len(args) == 0 {
			return c.Send("Не указан id записи!")
		}
		noteID := model.NoteID(args[0])

		ctx, cancel := context.WithTimeout(context.Background(), longProcessTimeout)
		defer cancel()

		note, err := w.notes.Get(ctx, noteID, senderID(c))
		if err != nil {
			return w.replyNote(ctx, c, err, noteID, "получение записи")
		}

		markup := &telebot.ReplyMarkup{}
		markup.InlineKeyboard = [][]telebot.InlineButton{
			{
				telebot.InlineButton{Unique: "delete_yes", Text: "Да", Data: string(note.ID)},
				telebot.InlineButton{Unique: "delete_no", Text: "Нет"},
			},
		}
		return c.Send(fmt.Sprintf("Удалить запись?\n%s", formatNote(note)), markup)
	})

	w.bot.Handle(&telebot.InlineButton{Unique: "delete_yes"}, func(c telebot.Context) error {
		noteID := model.NoteID(c.Data())

		ctx, cancel := context.WithTimeout(context.Background(), longProcessTimeout)
		defer cancel()

		if err := w.notes.Delete(ctx, noteID, senderID(c)); err != nil {
			return w.replyNote(ctx, c, err, noteID, "удаление записи")
		}
		return c.Send("Запись успешно удалена")
	})

	w.bot.Handle(&telebot.InlineButton{Unique: "delete_no"}, func(c telebot.Context) error {
		return c.Send("Удаление отменено")
	})
}

// getHandler обработчик получить запись
func (w *Writer) getHandler() {
	w.bot.Handle("/get", func(c telebot.Context) error {
		args := c.Args()
		if len(args) == 0 {
			return c.Send("Не указан id записи!")
		}
		noteID := model.NoteID(args[0])

		ctx, cancel := context.WithTimeout(context.Background(), longProcessTimeout)
		defer cancel()

		note, err := w.notes.Get(ctx, noteID, senderID(c))
		if err != nil {
			return w.replyNote(ctx, c, err, noteID, "получение записи")
		}

		return c.Send(fmt.Sprintf("%s\nсоздана: %s", formatNote(note), note.CreatedAt.Local().Format(timeLayout)))
	})
}

// listHandler обработчик список записей с итогами
func (w *Writer) listHandler() {
	w.bot.Handle("/list", func(c telebot.Context) error {
		ctx, cancel := context.WithTimeout(context.Background(), longProcessTimeout)
		defer cancel()

		list, summary, err := w.notes.Summary(ctx, senderID(c), c.Message().Payload)
		if err != nil {
			return w.reply(ctx, c, err, "получение списка записей")
		}

		return c.Send(formatList(list, summary))
	})
}

// balanceHandler обработчик итоги
func (w *Writer) balanceHandler() {
	w.bot.Handle("/balance", func(c telebot.Context) error {
		ctx, cancel := context.WithTimeout(context.Background(), longProcessTimeout)
		defer cancel()

		_, summary, err := w.notes.Summary(ctx, senderID(c), c.Message().Payload)
		if err != nil {
			return w.reply(ctx, c, err, "подсчет итогов")
		}

		return c.Send(formatSummary(summary))
	})
}

func (w *Writer) ensureUser(ctx context.Context, c telebot.Context) (model.UserID, error) {
	userID := senderID(c)
	err := w.notes.EnsureUserExists(ctx, model.User{
		ID:    userID,
		Login: c.Sender().Username,
	})
	return userID, err
}

func (w *Writer) replyNote(ctx context.Context, c telebot.Context, err error, noteID model.NoteID, action string) error {
	switch {
	case errors.Is(err, model.ErrNoteNotFound):
		return c.Send(fmt.Sprintf("Запись '%s' не найдена", noteID))
	case errors.Is(err, model.ErrNotAuthorized):
		return c.Send(fmt.Sprintf("Нет доступа к записи '%s'", noteID))
	}
	return w.reply(ctx, c, err, action)
}

func (w *Writer) reply(ctx context.Context, c telebot.Context, err error, action string) error {
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		return c.Send(verr.Message)
	}

	entry := w.log.WithError(err).WithFields(logrus.Fields{
		"user_id": senderID(c),
		"action":  action,
	})
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		entry.Warn("context deadline exceeded")
		return c.Send(fmt.Sprintf("Операция '%s' заняла слишком много времени. Попробуйте позже.", action))
	}
	entry.Error("telegram command failed")
	return c.Send(fmt.Sprintf("Ошибка: %s. Попробуйте позже.", action))
}

// senderID: идентификатор пользователя Telegram и есть владелец записей
func senderID(c telebot.Context) model.UserID {
	return model.UserID(strconv.FormatInt(c.Sender().ID, 10))
}
