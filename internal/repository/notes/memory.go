package notes

import (
	"context"
	"sync"

	"github.com/kotche/ledger/internal/model"
)

// MemoryRepository keeps notes in process memory in insertion order. It backs
// local runs without Postgres and the handler tests.
type MemoryRepository struct {
	mu    sync.Mutex
	users map[model.UserID]model.User
	notes map[model.NoteID]model.Note
	order []model.NoteID
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users: make(map[model.UserID]model.User),
		notes: make(map[model.NoteID]model.Note),
	}
}

func (m *MemoryRepository) UserExists(_ context.Context, userID model.UserID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.users[userID]
	return ok, nil
}

func (m *MemoryRepository) CreateUser(_ context.Context, user model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.ID]; !ok {
		m.users[user.ID] = user
	}
	return nil
}

func (m *MemoryRepository) CreateNote(_ context.Context, note model.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notes[note.ID] = note
	m.order = append(m.order, note.ID)
	return nil
}

func (m *MemoryRepository) GetNote(_ context.Context, noteID model.NoteID) (*model.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	note, ok := m.notes[noteID]
	if !ok {
		return nil, model.ErrNoteNotFound
	}
	return &note, nil
}

func (m *MemoryRepository) UpdateNote(_ context.Context, note model.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.notes[note.ID]
	if !ok {
		return model.ErrNoteNotFound
	}
	note.OwnerID = stored.OwnerID
	note.CreatedAt = stored.CreatedAt
	m.notes[note.ID] = note
	return nil
}

func (m *MemoryRepository) DeleteNote(_ context.Context, noteID model.NoteID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.notes[noteID]; !ok {
		return model.ErrNoteNotFound
	}
	delete(m.notes, noteID)
	for i, id := range m.order {
		if id == noteID {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *MemoryRepository) ListNotes(_ context.Context, ownerID model.UserID) ([]model.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Note, 0)
	for _, id := range m.order {
		if note := m.notes[id]; note.OwnerID == ownerID {
			out = append(out, note)
		}
	}
	return out, nil
}
