package handlers

import (
	"context"
	"net/http"

	"github.com/AnshRaj112/leadcrm-backend/internal/services"
	"github.com/go-chi/chi/v5"
)

// RecordHandler serves one interaction record collection (calls, visits,
// loan requests, whatsapp messages).
type RecordHandler[T any] struct {
	records *services.RecordService[T]
}

func NewRecordHandler[T any](records *services.RecordService[T]) *RecordHandler[T] {
	return &RecordHandler[T]{records: records}
}

func (h *RecordHandler[T]) Create(w http.ResponseWriter, r *http.Request) {
	rec := new(T)
	if err := decodeBody(r, rec); err != nil {
		writeError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.records.Create(ctx, rec); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, rec)
}

// List returns the records of ?cpf=. Without the parameter every record is
// returned.
func (h *RecordHandler[T]) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var (
		recs []T
		err  error
	)
	if q := r.URL.Query(); q.Has("cpf") {
		recs, err = h.records.FindByCPF(ctx, q.Get("cpf"))
	} else {
		recs, err = h.records.FindMany(ctx, nil)
	}
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, recs)
}

// ListByUser handles GET /users/{id}/<collection>.
func (h *RecordHandler[T]) ListByUser(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	recs, err := h.records.FindByUser(ctx, chi.URLParam(r, "id"))
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, recs)
}

func (h *RecordHandler[T]) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	rec, err := h.records.FindByID(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, rec)
}

// Patch applies an allow-listed partial update.
func (h *RecordHandler[T]) Patch(w http.ResponseWriter, r *http.Request) {
	fields, err := decodeFields(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	rec, err := h.records.Patch(ctx, chi.URLParam(r, "id"), fields)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, rec)
}

// Delete removes the record and returns it; a missing record is an empty 404.
func (h *RecordHandler[T]) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	rec, err := h.records.Delete(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, rec)
}
