package notes

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/kotche/ledger/infrastructure/tracing"
	"github.com/kotche/ledger/internal/model"
	_ "github.com/lib/pq"
)

var noteColumns = []string{
	"id",
	"title",
	"description",
	"amount",
	"type",
	"owner_id",
	"created_at",
	"updated_at",
}

type DefaultRepository struct {
	db *sql.DB
}

func NewDefaultRepository(pg *sql.DB) *DefaultRepository {
	return &DefaultRepository{pg}
}

func (d *DefaultRepository) UserExists(ctx context.Context, userID model.UserID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`
	err := d.db.QueryRowContext(ctx, query, userID).Scan(&exists)
	if err != nil {
		return false, model.NewStorageError("check user '"+string(userID)+"' exists", err)
	}
	return exists, nil
}

func (d *DefaultRepository) CreateUser(ctx context.Context, user model.User) error {
	query := `INSERT INTO users (id, login, created_at) VALUES ($1, $2, NOW()) ON CONFLICT (id) DO NOTHING`
	if _, err := d.db.ExecContext(ctx, query, user.ID, user.Login); err != nil {
		return model.NewStorageError("create user", err)
	}
	return nil
}

func (d *DefaultRepository) CreateNote(ctx context.Context, note model.Note) error {
	ctx, span := tracing.StartSpan(ctx, "CreateNote_repo")
	defer span.End()

	query := `
		INSERT INTO notes (id, title, description, amount, type, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := d.db.ExecContext(ctx, query,
		note.ID, note.Title, note.Description, note.Amount.String(), note.Type,
		note.OwnerID, note.CreatedAt, note.UpdatedAt)
	if err != nil {
		return model.NewStorageError("create note", err)
	}

	return nil
}

// GetNote fetches a note by id with no owner filter.
func (d *DefaultRepository) GetNote(ctx context.Context, noteID model.NoteID) (*model.Note, error) {
	ctx, span := tracing.StartSpan(ctx, "GetNote_repo")
	defer span.End()

	query, args, err := squirrel.
		Select(noteColumns...).
		From("notes").
		Where(squirrel.Eq{"id": noteID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, model.NewStorageError("build query", err)
	}

	note, err := scanNote(d.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNoteNotFound
		}
		return nil, model.NewStorageError("get note '"+string(noteID)+"'", err)
	}
	return note, nil
}

// UpdateNote overwrites the mutable fields of a note. Concurrent writers are
// not reconciled: the last statement to reach the database wins.
func (d *DefaultRepository) UpdateNote(ctx context.Context, note model.Note) error {
	ctx, span := tracing.StartSpan(ctx, "UpdateNote_repo")
	defer span.End()

	query, args, err := squirrel.
		Update("notes").
		SetMap(map[string]interface{}{
			"title":       note.Title,
			"description": note.Description,
			"amount":      note.Amount.String(),
			"type":        note.Type,
			"updated_at":  note.UpdatedAt,
		}).
		Where(squirrel.Eq{"id": note.ID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return model.NewStorageError("build query", err)
	}

	res, err := d.db.ExecContext(ctx, query, args...)
	if err != nil {
		return model.NewStorageError("update note '"+string(note.ID)+"'", err)
	}
	return expectOneRow(res, "update note '"+string(note.ID)+"'")
}

func (d *DefaultRepository) DeleteNote(ctx context.Context, noteID model.NoteID) error {
	ctx, span := tracing.StartSpan(ctx, "DeleteNote_repo")
	defer span.End()

	query := `DELETE FROM notes WHERE id = $1`

	res, err := d.db.ExecContext(ctx, query, noteID)
	if err != nil {
		return model.NewStorageError("delete note '"+string(noteID)+"'", err)
	}
	return expectOneRow(res, "delete note '"+string(noteID)+"'")
}

// ListNotes returns the owner's notes in creation order.
func (d *DefaultRepository) ListNotes(ctx context.Context, ownerID model.UserID) ([]model.Note, error) {
	ctx, span := tracing.StartSpan(ctx, "ListNotes_repo")
	defer span.End()

	query, args, err := squirrel.
		Select(noteColumns...).
		From("notes").
		Where(squirrel.Eq{"owner_id": ownerID}).
		OrderBy("created_at", "id").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, model.NewStorageError("build query", err)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, model.NewStorageError("query notes", err)
	}
	defer rows.Close()

	notes := make([]model.Note, 0)
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, model.NewStorageError("scan note", err)
		}
		notes = append(notes, *note)
	}
	if err = rows.Err(); err != nil {
		return nil, model.NewStorageError("iterate notes", err)
	}

	return notes, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNote(s scanner) (*model.Note, error) {
	var (
		note      model.Note
		amount    sql.NullString
		createdAt time.Time
		updatedAt time.Time
	)
	err := s.Scan(&note.ID, &note.Title, &note.Description, &amount, &note.Type,
		&note.OwnerID, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	note.Amount = model.ParseStoredAmount(amount.String)
	note.CreatedAt = createdAt
	note.UpdatedAt = updatedAt
	return &note, nil
}

func expectOneRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return model.NewStorageError(op, err)
	}
	if n == 0 {
		return model.ErrNoteNotFound
	}
	return nil
}
