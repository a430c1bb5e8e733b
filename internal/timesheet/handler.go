package timesheet

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/auth"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/core/common/validation"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/transport"
)

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

func (h *Handler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.CurrentSession(h.BaseHandler, w, r)
	if !ok {
		return
	}
	var dto CreateEntryDTO
	if err := h.DecodeJSON(r, &dto, false); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	entry, err := h.Service.CreateEntry(r.Context(), sess, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, entry)
}

func (h *Handler) SubmitWeek(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.CurrentSession(h.BaseHandler, w, r)
	if !ok {
		return
	}
	var dto WeekSubmissionDTO
	if err := h.DecodeJSON(r, &dto, false); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	entries, err := h.Service.SubmitWeek(r.Context(), sess, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, WeekSubmissionResponse{WeekStart: dto.WeekStart, Entries: entries})
}

func (h *Handler) GetDraft(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.CurrentSession(h.BaseHandler, w, r)
	if !ok {
		return
	}

	rows, err := h.Service.GetDraft(r.Context(), sess, chi.URLParam(r, "weekStart"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, rows)
}

func (h *Handler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.CurrentSession(h.BaseHandler, w, r)
	if !ok {
		return
	}
	var rows []DraftRow
	if err := h.DecodeJSON(r, &rows, false); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	if err := h.Service.SaveDraft(r.Context(), sess, chi.URLParam(r, "weekStart"), rows); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DeleteDraft(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.CurrentSession(h.BaseHandler, w, r)
	if !ok {
		return
	}

	if err := h.Service.DeleteDraft(r.Context(), sess, chi.URLParam(r, "weekStart")); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.CurrentSession(h.BaseHandler, w, r)
	if !ok {
		return
	}
	filter, err := h.parseFilter(r)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	entries, err := h.Service.List(r.Context(), sess, filter)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, EntriesResponse{Entries: entries})
}

func (h *Handler) ListReviewable(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.CurrentSession(h.BaseHandler, w, r)
	if !ok {
		return
	}
	limit, offset := h.Pagination(r)

	entries, err := h.Service.ListReviewable(r.Context(), sess, limit, offset)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, EntriesResponse{Entries: entries})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	h.withEntry(w, r, func(ctx context.Context, sess *auth.Session, id int64) (*Entry, error) {
		return h.Service.Get(ctx, sess, id)
	})
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var dto UpdateEntryDTO
	if err := h.DecodeJSON(r, &dto, false); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.withEntry(w, r, func(ctx context.Context, sess *auth.Session, id int64) (*Entry, error) {
		return h.Service.Update(ctx, sess, id, dto)
	})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.CurrentSession(h.BaseHandler, w, r)
	if !ok {
		return
	}
	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	if err := h.Service.Delete(r.Context(), sess, id); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	var dto ReviewDTO
	if err := h.DecodeJSON(r, &dto, true); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.withEntry(w, r, func(ctx context.Context, sess *auth.Session, id int64) (*Entry, error) {
		return h.Service.Approve(ctx, sess, id, dto)
	})
}

func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	var dto ReviewDTO
	if err := h.DecodeJSON(r, &dto, true); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.withEntry(w, r, func(ctx context.Context, sess *auth.Session, id int64) (*Entry, error) {
		return h.Service.Reject(ctx, sess, id, dto)
	})
}

func (h *Handler) Reopen(w http.ResponseWriter, r *http.Request) {
	h.withEntry(w, r, h.Service.Reopen)
}

type entryFunc func(ctx context.Context, sess *auth.Session, id int64) (*Entry, error)

func (h *Handler) withEntry(w http.ResponseWriter, r *http.Request, fn entryFunc) {
	sess, ok := auth.CurrentSession(h.BaseHandler, w, r)
	if !ok {
		return
	}
	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	entry, err := fn(r.Context(), sess, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, entry)
}

func (h *Handler) parseFilter(r *http.Request) (ListFilter, error) {
	q := r.URL.Query()
	f := ListFilter{
		Status:  Status(q.Get("status")),
		OwnerID: q.Get("owner_id"),
	}
	f.Limit, f.Offset = h.Pagination(r)

	if f.OwnerID != "" && !validation.IsUUID(f.OwnerID) {
		return f, internal.NewValidationFieldError("owner_id", "owner_id must be a valid id", internal.ErrCodeValidationFailed)
	}
	if s := q.Get("project_id"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil || id <= 0 {
			return f, internal.NewValidationFieldError("project_id", "project_id must be a positive integer", internal.ErrCodeValidationFailed)
		}
		f.ProjectID = id
	}
	if s := q.Get("from"); s != "" {
		t, err := validation.ParseDate("from", s)
		if err != nil {
			return f, err
		}
		f.From = &t
	}
	if s := q.Get("to"); s != "" {
		t, err := validation.ParseDate("to", s)
		if err != nil {
			return f, err
		}
		f.To = &t
	}
	return f, nil
}
