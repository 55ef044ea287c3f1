package notes

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/kotche/ledger/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testColumns = []string{"id", "title", "description", "amount", "type", "owner_id", "created_at", "updated_at"}

func newMockRepo(t *testing.T) (*DefaultRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewDefaultRepository(db), mock
}

func TestListNotes(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	t.Run("returns owner notes in order", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(`SELECT id, title, description, amount, type, owner_id, created_at, updated_at FROM notes WHERE owner_id = (.+) ORDER BY created_at, id`).
			WithArgs("u1").
			WillReturnRows(sqlmock.NewRows(testColumns).
				AddRow("n1", "Rent", "May rent", "1200", "debit", "u1", created, created).
				AddRow("n2", "Salary", "May pay", "500.00", "credit", "u1", created.Add(time.Minute), created.Add(time.Minute)))

		notes, err := repo.ListNotes(ctx, "u1")
		require.NoError(t, err)
		require.Len(t, notes, 2)
		assert.Equal(t, model.NoteID("n1"), notes[0].ID)
		assert.True(t, notes[0].Amount.Equal(decimal.NewFromInt(1200)))
		assert.Equal(t, model.TypeDebit, notes[0].Type)
		assert.Equal(t, model.NoteID("n2"), notes[1].ID)
		assert.True(t, notes[1].Amount.Equal(decimal.NewFromInt(500)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty list is not nil", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(`SELECT (.+) FROM notes WHERE owner_id`).
			WithArgs("u2").
			WillReturnRows(sqlmock.NewRows(testColumns))

		notes, err := repo.ListNotes(ctx, "u2")
		require.NoError(t, err)
		assert.NotNil(t, notes)
		assert.Empty(t, notes)
	})

	t.Run("unparsable stored amount reads as zero", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(`SELECT (.+) FROM notes WHERE owner_id`).
			WithArgs("u1").
			WillReturnRows(sqlmock.NewRows(testColumns).
				AddRow("n1", "Broken", "", "oops", "credit", "u1", created, created))

		notes, err := repo.ListNotes(ctx, "u1")
		require.NoError(t, err)
		require.Len(t, notes, 1)
		assert.True(t, notes[0].Amount.IsZero())
	})

	t.Run("storage fault", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(`SELECT (.+) FROM notes WHERE owner_id`).
			WillReturnError(sql.ErrConnDone)

		_, err := repo.ListNotes(ctx, "u1")
		assert.True(t, errors.Is(err, model.ErrStorage))
		assert.True(t, errors.Is(err, sql.ErrConnDone))
	})
}

func TestGetNote(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	t.Run("filters by id only", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(`SELECT (.+) FROM notes WHERE id = \$1$`).
			WithArgs("n1").
			WillReturnRows(sqlmock.NewRows(testColumns).
				AddRow("n1", "Rent", "May rent", "1200", "debit", "u1", created, created))

		note, err := repo.GetNote(ctx, "n1")
		require.NoError(t, err)
		assert.Equal(t, model.UserID("u1"), note.OwnerID)
		assert.Equal(t, created, note.CreatedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(`SELECT (.+) FROM notes WHERE id`).
			WithArgs("missing").
			WillReturnRows(sqlmock.NewRows(testColumns))

		note, err := repo.GetNote(ctx, "missing")
		assert.Nil(t, note)
		assert.ErrorIs(t, err, model.ErrNoteNotFound)
	})

	t.Run("storage fault", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(`SELECT (.+) FROM notes WHERE id`).
			WillReturnError(errors.New("connection refused"))

		_, err := repo.GetNote(ctx, "n1")
		assert.ErrorIs(t, err, model.ErrStorage)
		assert.NotErrorIs(t, err, model.ErrNoteNotFound)
	})
}

func TestCreateNote(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	note := model.Note{
		ID:          "n1",
		Title:       "Rent",
		Description: "May rent",
		Amount:      decimal.NewFromInt(1200),
		Type:        model.TypeDebit,
		OwnerID:     "u1",
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	t.Run("success", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec(`INSERT INTO notes`).
			WithArgs("n1", "Rent", "May rent", "1200", "debit", "u1", now, now).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.CreateNote(ctx, note))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("storage fault", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec(`INSERT INTO notes`).WillReturnError(sql.ErrConnDone)

		assert.ErrorIs(t, repo.CreateNote(ctx, note), model.ErrStorage)
	})
}

func TestUpdateNote(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	note := model.Note{
		ID:          "n1",
		Title:       "Rent",
		Description: "June rent",
		Amount:      decimal.NewFromInt(1250),
		Type:        model.TypeDebit,
		OwnerID:     "u1",
		UpdatedAt:   now,
	}

	t.Run("success", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		// squirrel sorts SetMap keys
		mock.ExpectExec(`UPDATE notes SET amount = \$1, description = \$2, title = \$3, type = \$4, updated_at = \$5 WHERE id = \$6`).
			WithArgs("1250", "June rent", "Rent", "debit", now, "n1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.UpdateNote(ctx, note))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("deleted concurrently", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec(`UPDATE notes`).WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.UpdateNote(ctx, note), model.ErrNoteNotFound)
	})
}

func TestDeleteNote(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec(`DELETE FROM notes WHERE id = \$1`).
			WithArgs("n1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.DeleteNote(ctx, "n1"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nothing deleted", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec(`DELETE FROM notes`).WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.DeleteNote(ctx, "n1"), model.ErrNoteNotFound)
	})

	t.Run("storage fault", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec(`DELETE FROM notes`).WillReturnError(sql.ErrConnDone)

		assert.ErrorIs(t, repo.DeleteNote(ctx, "n1"), model.ErrStorage)
	})
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("42").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(`INSERT INTO users`).
		WithArgs("42", "alice").
		WillReturnResult(sqlmock.NewResult(0, 1))

	exists, err := repo.UserExists(ctx, "42")
	require.NoError(t, err)
	assert.False(t, exists)
	require.NoError(t, repo.CreateUser(ctx, model.User{ID: "42", Login: "alice"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}
