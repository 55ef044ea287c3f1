package notes

import (
	"context"

	"github.com/kotche/ledger/internal/model"
)

type (
	// Repository is the ownership-scoped query layer. Single notes are always
	// fetched by id alone; the caller decides whether the owner matches.
	Repository interface {
		UserExists(ctx context.Context, userID model.UserID) (bool, error)
		CreateUser(ctx context.Context, user model.User) error
		CreateNote(ctx context.Context, note model.Note) error
		GetNote(ctx context.Context, noteID model.NoteID) (*model.Note, error)
		UpdateNote(ctx context.Context, note model.Note) error
		DeleteNote(ctx context.Context, noteID model.NoteID) error
		ListNotes(ctx context.Context, ownerID model.UserID) ([]model.Note, error)
	}
)
