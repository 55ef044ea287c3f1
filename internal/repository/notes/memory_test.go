package notes

import (
	"context"
	"testing"
	"time"

	"github.com/kotche/ledger/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	for i, id := range []model.NoteID{"a", "b", "c"} {
		owner := model.UserID("u1")
		if i == 1 {
			owner = "u2"
		}
		require.NoError(t, repo.CreateNote(ctx, model.Note{ID: id, OwnerID: owner, Amount: decimal.NewFromInt(int64(i)), CreatedAt: now}))
	}

	list, err := repo.ListNotes(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, model.NoteID("a"), list[0].ID)
	assert.Equal(t, model.NoteID("c"), list[1].ID)

	// owner and creation time are immutable through updates
	require.NoError(t, repo.UpdateNote(ctx, model.Note{ID: "a", OwnerID: "intruder", Title: "x", CreatedAt: now.Add(time.Hour)}))
	got, err := repo.GetNote(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, model.UserID("u1"), got.OwnerID)
	assert.Equal(t, now, got.CreatedAt)
	assert.Equal(t, "x", got.Title)

	require.NoError(t, repo.DeleteNote(ctx, "a"))
	assert.ErrorIs(t, repo.DeleteNote(ctx, "a"), model.ErrNoteNotFound)
	assert.ErrorIs(t, repo.UpdateNote(ctx, model.Note{ID: "a"}), model.ErrNoteNotFound)
	_, err = repo.GetNote(ctx, "a")
	assert.ErrorIs(t, err, model.ErrNoteNotFound)

	list, err = repo.ListNotes(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, model.NoteID("c"), list[0].ID)

	exists, err := repo.UserExists(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, exists)
	require.NoError(t, repo.CreateUser(ctx, model.User{ID: "u1", Login: "alice"}))
	exists, err = repo.UserExists(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, exists)
}
