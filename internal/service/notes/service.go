package notes

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kotche/ledger/infrastructure/tracing"
	"github.com/kotche/ledger/internal/ledger"
	"github.com/kotche/ledger/internal/metrics"
	"github.com/kotche/ledger/internal/model"
	"github.com/kotche/ledger/internal/repository/notes"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

const (
	eventBuffer    = 256
	publishTimeout = 5 * time.Second
)

type DefaultService struct {
	repo   notes.Repository
	log    *logrus.Entry
	now    func() time.Time
	newID  func() model.NoteID
	pub    Publisher
	events chan model.Event
}

type Option func(*DefaultService)

// WithPublisher enables change events. They are queued and sent by
// RunPublisher so a slow broker never holds up a request.
func WithPublisher(pub Publisher) Option {
	return func(d *DefaultService) {
		d.pub = pub
		d.events = make(chan model.Event, eventBuffer)
	}
}

func WithLogger(log *logrus.Entry) Option {
	return func(d *DefaultService) { d.log = log }
}

func WithClock(now func() time.Time) Option {
	return func(d *DefaultService) { d.now = now }
}

func WithIDGenerator(newID func() model.NoteID) Option {
	return func(d *DefaultService) { d.newID = newID }
}

func NewDefaultService(repo notes.Repository, opts ...Option) *DefaultService {
	d := &DefaultService{
		repo:  repo,
		log:   logrus.NewEntry(logrus.StandardLogger()),
		now:   func() time.Time { return time.Now().UTC() },
		newID: func() model.NoteID { return model.NoteID(uuid.NewString()) },
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *DefaultService) EnsureUserExists(ctx context.Context, user model.User) error {
	exists, err := d.repo.UserExists(ctx, user.ID)
	if err != nil {
		return err
	}

	if !exists {
		err = d.repo.CreateUser(ctx, model.User{
			ID:    user.ID,
			Login: user.Login,
		})

		if err != nil {
			return err
		}
	}

	return nil
}

func (d *DefaultService) Create(ctx context.Context, ownerID model.UserID, in model.CreateInput) (*model.Note, error) {
	ctx, span := tracing.StartSpan(ctx, "Create_service", attribute.String("owner_id", string(ownerID)))
	defer span.End()

	note, err := model.NewNote(d.newID(), ownerID, in, d.now())
	if err != nil {
		d.record("create", err)
		return nil, err
	}

	if err = d.repo.CreateNote(ctx, *note); err != nil {
		d.record("create", err)
		return nil, err
	}

	d.record("create", nil)
	d.publish(model.NewEvent(model.EventCreated, note, note.CreatedAt))
	return note, nil
}

// Get returns the note only to its owner.
func (d *DefaultService) Get(ctx context.Context, noteID model.NoteID, callerID model.UserID) (*model.Note, error) {
	ctx, span := tracing.StartSpan(ctx, "Get_service", attribute.String("note_id", string(noteID)))
	defer span.End()

	note, err := d.fetchOwned(ctx, noteID, callerID)
	d.record("get", err)
	return note, err
}

func (d *DefaultService) Update(ctx context.Context, noteID model.NoteID, callerID model.UserID, patch model.NotePatch) (*model.Note, error) {
	ctx, span := tracing.StartSpan(ctx, "Update_service", attribute.String("note_id", string(noteID)))
	defer span.End()

	note, err := d.fetchOwned(ctx, noteID, callerID)
	if err != nil {
		d.record("update", err)
		return nil, err
	}

	note.ApplyPatch(patch, d.now())

	if err = d.repo.UpdateNote(ctx, *note); err != nil {
		d.record("update", err)
		return nil, err
	}

	d.record("update", nil)
	d.publish(model.NewEvent(model.EventUpdated, note, note.UpdatedAt))
	return note, nil
}

// Delete removes the note for good. Deleting the same id twice reports
// ErrNoteNotFound the second time.
func (d *DefaultService) Delete(ctx context.Context, noteID model.NoteID, callerID model.UserID) error {
	ctx, span := tracing.StartSpan(ctx, "Delete_service", attribute.String("note_id", string(noteID)))
	defer span.End()

	note, err := d.fetchOwned(ctx, noteID, callerID)
	if err != nil {
		d.record("delete", err)
		return err
	}

	if err = d.repo.DeleteNote(ctx, noteID); err != nil {
		d.record("delete", err)
		return err
	}

	d.record("delete", nil)
	d.publish(model.NewEvent(model.EventDeleted, note, d.now()))
	return nil
}

func (d *DefaultService) List(ctx context.Context, ownerID model.UserID, search string) ([]model.Note, error) {
	ctx, span := tracing.StartSpan(ctx, "List_service", attribute.String("owner_id", string(ownerID)))
	defer span.End()

	list, err := d.repo.ListNotes(ctx, ownerID)
	d.record("list", err)
	if err != nil {
		return nil, err
	}
	return filter(list, search), nil
}

func (d *DefaultService) Summary(ctx context.Context, ownerID model.UserID, search string) ([]model.Note, ledger.Summary, error) {
	list, err := d.List(ctx, ownerID, search)
	if err != nil {
		return nil, ledger.Summary{}, err
	}
	return list, ledger.Summarize(list), nil
}

// RunPublisher sends queued change events until ctx is done. Failures are
// logged; the write they describe has already happened.
func (d *DefaultService) RunPublisher(ctx context.Context) {
	if d.events == nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-d.events:
			d.send(ctx, ev)
		}
	}
}

func (d *DefaultService) send(ctx context.Context, ev model.Event) {
	key, value, err := ev.Encode()
	if err != nil {
		d.log.WithError(err).Error("failed to encode note event")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err = d.pub.SendMessage(ctx, key, value); err != nil {
		d.log.WithError(err).WithFields(logrus.Fields{
			"note_id": ev.NoteID,
			"kind":    ev.Kind,
		}).Warn("failed to publish note event")
		return
	}
	d.log.WithFields(logrus.Fields{"note_id": ev.NoteID, "kind": ev.Kind}).Debug("note event published")
}

func (d *DefaultService) publish(ev model.Event) {
	if d.events == nil {
		return
	}
	select {
	case d.events <- ev:
	default:
		d.log.WithField("note_id", ev.NoteID).Warn("event queue full, dropping note event")
	}
}

// fetchOwned loads by id first and checks ownership afterwards so that a
// missing note and someone else's note stay distinguishable.
func (d *DefaultService) fetchOwned(ctx context.Context, noteID model.NoteID, callerID model.UserID) (*model.Note, error) {
	if _, err := uuid.Parse(string(noteID)); err != nil {
		return nil, model.ErrNoteNotFound
	}

	note, err := d.repo.GetNote(ctx, noteID)
	if err != nil {
		return nil, err
	}

	if !model.IsOwner(note, callerID) {
		return nil, model.ErrNotAuthorized
	}
	return note, nil
}

func (d *DefaultService) record(op string, err error) {
	switch {
	case err == nil:
		metrics.NoteOperation(op, metrics.ResultOK)
	case errors.Is(err, model.ErrStorage):
		metrics.NoteOperation(op, metrics.ResultError)
	default:
		metrics.NoteOperation(op, metrics.ResultRejected)
	}
}

func filter(list []model.Note, search string) []model.Note {
	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return list
	}
	out := make([]model.Note, 0, len(list))
	for _, n := range list {
		if strings.Contains(strings.ToLower(n.Title), search) ||
			strings.Contains(strings.ToLower(n.Description), search) {
			out = append(out, n)
		}
	}
	return out
}
