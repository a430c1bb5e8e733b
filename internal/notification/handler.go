package notification

import (
	"net/http"

	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/auth"
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

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.CurrentSession(h.BaseHandler, w, r)
	if !ok {
		return
	}
	limit, offset := h.Pagination(r)

	items, unread, err := h.Service.List(r.Context(), sess, r.URL.Query().Get("unread") == "true", limit, offset)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, NotificationsResponse{Notifications: items, UnreadCount: unread})
}

func (h *Handler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.CurrentSession(h.BaseHandler, w, r)
	if !ok {
		return
	}

	n, err := h.Service.UnreadCount(r.Context(), sess)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, UnreadCountResponse{UnreadCount: n})
}

func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.CurrentSession(h.BaseHandler, w, r)
	if !ok {
		return
	}
	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	if err := h.Service.MarkRead(r.Context(), sess, id); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.CurrentSession(h.BaseHandler, w, r)
	if !ok {
		return
	}

	n, err := h.Service.MarkAllRead(r.Context(), sess)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteSuccess(w, map[string]interface{}{"updated": n})
}

// NotifyMissingEmployeeCode is mounted behind the admin guard.
func (h *Handler) NotifyMissingEmployeeCode(w http.ResponseWriter, r *http.Request) {
	n, err := h.Service.NotifyMissingEmployeeCode(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteSuccess(w, map[string]interface{}{"notified": n})
}
