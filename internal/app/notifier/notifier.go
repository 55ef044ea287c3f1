package notifier

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/kotche/ledger/internal/metrics"
	"github.com/kotche/ledger/internal/model"
	"github.com/kotche/ledger/internal/service/kafka"
	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const (
	readRetryDelay = time.Second
)

// Sender is the part of *telebot.Bot the notifier needs.
type Sender interface {
	Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error)
}

type Notifier struct {
	bot    Sender
	broker kafka.MessageBroker
	log    *logrus.Entry
}

func New(bot Sender, broker kafka.MessageBroker, log *logrus.Entry) *Notifier {
	return &Notifier{
		bot:    bot,
		broker: broker,
		log:    log,
	}
}

// Run reads note events until ctx is cancelled.
func (n *Notifier) Run(ctx context.Context) error {
	n.log.Info("notifier started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		_, val, err := n.broker.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			n.log.WithError(err).Error("error reading message from kafka")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(readRetryDelay):
			}
			continue
		}

		if err = n.handle(val); err != nil {
			n.log.WithError(err).Warn("event not delivered")
		}
	}
}

func (n *Notifier) handle(val []byte) error {
	ev, err := model.DecodeEvent(val)
	if err != nil {
		return err
	}

	// только владельцы из Telegram: id пользователя совпадает с id чата
	chatID, err := strconv.ParseInt(string(ev.OwnerID), 10, 64)
	if err != nil {
		n.log.WithField("owner_id", ev.OwnerID).Debug("owner is not a telegram user, skipped")
		return nil
	}

	message, err := render(ev)
	if err != nil {
		return err
	}

	if _, err = n.bot.Send(&telebot.User{ID: chatID}, message); err != nil {
		return fmt.Errorf("failed to send notification to user %d: %w", chatID, err)
	}

	metrics.NotificationSent(string(ev.Kind))
	n.log.WithFields(logrus.Fields{
		"owner_id": ev.OwnerID,
		"note_id":  ev.NoteID,
		"kind":     ev.Kind,
	}).Info("notification sent")
	return nil
}

func render(ev model.Event) (string, error) {
	switch ev.Kind {
	case model.EventCreated:
		return fmt.Sprintf("Добавлена запись '%s': %s %s (id %s)", ev.Title, ev.Type, ev.Amount.StringFixed(2), ev.NoteID), nil
	case model.EventUpdated:
		return fmt.Sprintf("Изменена запись '%s': %s %s (id %s)", ev.Title, ev.Type, ev.Amount.StringFixed(2), ev.NoteID), nil
	case model.EventDeleted:
		return fmt.Sprintf("Удалена запись '%s' (id %s)", ev.Title, ev.NoteID), nil
	}
	return "", errors.New("unknown event kind " + string(ev.Kind))
}
