package notifier

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/kotche/ledger/internal/model"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/telebot.v3"
)

type fakeBroker struct {
	messages chan []byte
}

func (b *fakeBroker) SendMessage(context.Context, []byte, []byte) error { return nil }

func (b *fakeBroker) ReadMessage(ctx context.Context) ([]byte, []byte, error) {
	select {
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	case val := <-b.messages:
		return nil, val, nil
	}
}

func (b *fakeBroker) Close() error { return nil }

type sent struct {
	to   int64
	text string
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sent
	fail bool
}

func (s *fakeSender) Send(to telebot.Recipient, what interface{}, _ ...interface{}) (*telebot.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return nil, errors.New("telegram: bot was blocked by the user")
	}
	s.sent = append(s.sent, sent{to: to.(*telebot.User).ID, text: what.(string)})
	return &telebot.Message{}, nil
}

func (s *fakeSender) snapshot() []sent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sent(nil), s.sent...)
}

func quietLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func encode(t *testing.T, ev model.Event) []byte {
	t.Helper()
	_, val, err := ev.Encode()
	require.NoError(t, err)
	return val
}

func TestNotifier_DeliversToTelegramOwners(t *testing.T) {
	broker := &fakeBroker{messages: make(chan []byte, 4)}
	sender := &fakeSender{}
	n := New(sender, broker, quietLog())

	broker.messages <- encode(t, model.Event{Kind: model.EventCreated, NoteID: "n1", OwnerID: "42", Title: "Rent", Amount: decimal.NewFromInt(1200), Type: model.TypeDebit})
	broker.messages <- encode(t, model.Event{Kind: model.EventCreated, NoteID: "n2", OwnerID: "web-user", Title: "Salary"})
	broker.messages <- []byte("not json")
	broker.messages <- encode(t, model.Event{Kind: model.EventDeleted, NoteID: "n1", OwnerID: "42", Title: "Rent"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- n.Run(ctx) }()

	require.Eventually(t, func() bool { return len(sender.snapshot()) == 2 }, time.Second, 10*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	got := sender.snapshot()
	assert.Equal(t, int64(42), got[0].to)
	assert.Equal(t, "Добавлена запись 'Rent': debit 1200.00 (id n1)", got[0].text)
	assert.Equal(t, "Удалена запись 'Rent' (id n1)", got[1].text)
}

func TestNotifier_HandleErrors(t *testing.T) {
	sender := &fakeSender{fail: true}
	n := New(sender, &fakeBroker{}, quietLog())

	err := n.handle(encode(t, model.Event{Kind: model.EventUpdated, NoteID: "n1", OwnerID: "42"}))
	assert.Error(t, err)

	sender.fail = false
	err = n.handle(encode(t, model.Event{Kind: "archived", NoteID: "n1", OwnerID: "42"}))
	assert.Error(t, err)
	assert.Empty(t, sender.snapshot())
}
