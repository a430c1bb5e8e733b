package project

import (
	"context"
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

func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.CurrentSession(h.BaseHandler, w, r)
	if !ok {
		return
	}

	projects, err := h.Service.ListProjects(r.Context(), sess, r.URL.Query().Get("all") == "true")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, ProjectsResponse{Projects: projects})
}

func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.CurrentSession(h.BaseHandler, w, r)
	if !ok {
		return
	}

	projects, err := h.Service.ListMine(r.Context(), sess)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, ProjectsResponse{Projects: projects})
}

func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.CurrentSession(h.BaseHandler, w, r)
	if !ok {
		return
	}
	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	p, err := h.Service.GetProject(r.Context(), sess, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.CurrentSession(h.BaseHandler, w, r)
	if !ok {
		return
	}
	var dto CreateProjectDTO
	if err := h.DecodeJSON(r, &dto, false); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	p, err := h.Service.CreateProject(r.Context(), sess, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.CurrentSession(h.BaseHandler, w, r)
	if !ok {
		return
	}
	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	var dto UpdateProjectDTO
	if err := h.DecodeJSON(r, &dto, false); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	p, err := h.Service.UpdateProject(r.Context(), sess, id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) ListAssignments(w http.ResponseWriter, r *http.Request) {
	h.listMembers(w, r, h.Service.ListAssignments)
}

func (h *Handler) ListHeads(w http.ResponseWriter, r *http.Request) {
	h.listMembers(w, r, h.Service.ListHeads)
}

func (h *Handler) Assign(w http.ResponseWriter, r *http.Request) {
	h.grant(w, r, h.Service.Assign)
}

func (h *Handler) AddHead(w http.ResponseWriter, r *http.Request) {
	h.grant(w, r, h.Service.AddHead)
}

func (h *Handler) Unassign(w http.ResponseWriter, r *http.Request) {
	h.revoke(w, r, h.Service.Unassign)
}

func (h *Handler) RemoveHead(w http.ResponseWriter, r *http.Request) {
	h.revoke(w, r, h.Service.RemoveHead)
}

func (h *Handler) ReplaceHeads(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.CurrentSession(h.BaseHandler, w, r)
	if !ok {
		return
	}
	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	var dto ReplaceHeadsDTO
	if err := h.DecodeJSON(r, &dto, false); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	if err := dto.Validate(); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	if err := h.Service.ReplaceHeads(r.Context(), sess, id, dto.AccountIDs); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteSuccess(w, nil)
}

type membersFunc func(ctx context.Context, sess *auth.Session, projectID int64) ([]Member, error)
type memberFunc func(ctx context.Context, sess *auth.Session, projectID int64, accountID string) error

func (h *Handler) listMembers(w http.ResponseWriter, r *http.Request, list membersFunc) {
	sess, ok := auth.CurrentSession(h.BaseHandler, w, r)
	if !ok {
		return
	}
	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	members, err := list(r.Context(), sess, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	if members == nil {
		members = []Member{}
	}
	h.WriteJSON(w, http.StatusOK, MembersResponse{Members: members})
}

func (h *Handler) grant(w http.ResponseWriter, r *http.Request, fn memberFunc) {
	sess, ok := auth.CurrentSession(h.BaseHandler, w, r)
	if !ok {
		return
	}
	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	var dto MemberDTO
	if err := h.DecodeJSON(r, &dto, false); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	if err := dto.Validate(); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	if err := fn(r.Context(), sess, id, dto.AccountID); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, map[string]interface{}{"success": true})
}

func (h *Handler) revoke(w http.ResponseWriter, r *http.Request, fn memberFunc) {
	sess, ok := auth.CurrentSession(h.BaseHandler, w, r)
	if !ok {
		return
	}
	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	accountID, err := h.ParseUUIDParam(r, "accountID")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	if err := fn(r.Context(), sess, id, accountID); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
