package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/kotche/ledger/internal/identity"
	"github.com/kotche/ledger/internal/ledger"
	"github.com/kotche/ledger/internal/model"
	"github.com/sirupsen/logrus"
)

type (
	message struct {
		Message string `json:"message"`
	}

	noteView struct {
		ID          model.NoteID   `json:"id"`
		Title       string         `json:"title"`
		Description string         `json:"description"`
		Amount      json.Number    `json:"amount"`
		Type        model.NoteType `json:"type"`
		OwnerID     model.UserID   `json:"ownerId"`
		CreatedAt   time.Time      `json:"createdAt"`
		UpdatedAt   time.Time      `json:"updatedAt"`
	}

	summaryView struct {
		Notes        []noteView  `json:"notes"`
		TotalCredits json.Number `json:"totalCredits"`
		TotalDebits  json.Number `json:"totalDebits"`
		Balance      json.Number `json:"balance"`
		Count        int         `json:"count"`
	}
)

func viewOf(n *model.Note) noteView {
	return noteView{
		ID:          n.ID,
		Title:       n.Title,
		Description: n.Description,
		Amount:      json.Number(n.Amount.String()),
		Type:        n.Type,
		OwnerID:     n.OwnerID,
		CreatedAt:   n.CreatedAt,
		UpdatedAt:   n.UpdatedAt,
	}
}

func viewsOf(list []model.Note) []noteView {
	out := make([]noteView, 0, len(list))
	for i := range list {
		out = append(out, viewOf(&list[i]))
	}
	return out
}

func summaryOf(list []model.Note, s ledger.Summary) summaryView {
	return summaryView{
		Notes:        viewsOf(list),
		TotalCredits: json.Number(s.Credits.String()),
		TotalDebits:  json.Number(s.Debits.String()),
		Balance:      json.Number(s.Balance.String()),
		Count:        s.Count,
	}
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	caller, _ := identity.UserFromContext(r.Context())

	list, err := s.notes.List(r.Context(), caller, r.URL.Query().Get("search"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewsOf(list))
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	caller, _ := identity.UserFromContext(r.Context())

	list, summary, err := s.notes.Summary(r.Context(), caller, r.URL.Query().Get("search"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summaryOf(list, summary))
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	caller, _ := identity.UserFromContext(r.Context())

	var in model.CreateInput
	if err := decodeBody(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}

	note, err := s.notes.Create(r.Context(), caller, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewOf(note))
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	caller, _ := identity.UserFromContext(r.Context())

	note, err := s.notes.Get(r.Context(), model.NoteID(r.PathValue("id")), caller)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(note))
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	caller, _ := identity.UserFromContext(r.Context())

	var patch model.NotePatch
	if err := decodeBody(w, r, &patch); err != nil {
		s.writeError(w, r, err)
		return
	}

	note, err := s.notes.Update(r.Context(), model.NoteID(r.PathValue("id")), caller, patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(note))
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	caller, _ := identity.UserFromContext(r.Context())

	if err := s.notes.Delete(r.Context(), model.NoteID(r.PathValue("id")), caller); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, message{Message: "Note was deleted"})
}

// decodeBody reads a JSON object. An empty body decodes as {} so that the
// field checks produce the usual validation message.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return model.NewValidationError("", "Invalid request body")
	}
	return nil
}

// writeError maps the error taxonomy onto statuses. Storage details are
// logged, never returned.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, message{Message: verr.Message})
	case errors.Is(err, model.ErrNoteNotFound):
		writeJSON(w, http.StatusNotFound, message{Message: "Note not found"})
	case errors.Is(err, model.ErrNotAuthorized):
		writeJSON(w, http.StatusUnauthorized, message{Message: "Not authorized"})
	default:
		requestLog(r).WithError(err).Error("note request failed")
		writeJSON(w, http.StatusInternalServerError, message{Message: "Server error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logrus.WithError(err).Warn("failed to write response")
	}
}
