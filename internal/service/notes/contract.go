package notes

import (
	"context"

	"github.com/kotche/ledger/internal/ledger"
	"github.com/kotche/ledger/internal/model"
)

type (
	// Service is the note resource service. Every call is scoped to the
	// caller's trusted user id.
	Service interface {
		EnsureUserExists(ctx context.Context, user model.User) error
		Create(ctx context.Context, ownerID model.UserID, in model.CreateInput) (*model.Note, error)
		Get(ctx context.Context, noteID model.NoteID, callerID model.UserID) (*model.Note, error)
		Update(ctx context.Context, noteID model.NoteID, callerID model.UserID, patch model.NotePatch) (*model.Note, error)
		Delete(ctx context.Context, noteID model.NoteID, callerID model.UserID) error
		List(ctx context.Context, ownerID model.UserID, search string) ([]model.Note, error)
		Summary(ctx context.Context, ownerID model.UserID, search string) ([]model.Note, ledger.Summary, error)
	}

	// Publisher receives change events after a mutation has been stored.
	Publisher interface {
		SendMessage(ctx context.Context, key, value []byte) error
	}
)
