package account

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

// GetMe godoc
// @Summary      Current account
// @Tags         accounts
// @Produce      json
// @Success      200  {object}  Me
// @Router       /accounts/me [get]
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.CurrentSession(h.BaseHandler, w, r)
	if !ok {
		return
	}
	me, err := h.Service.Me(r.Context(), sess)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, me)
}

func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.CurrentSession(h.BaseHandler, w, r)
	if !ok {
		return
	}
	var dto UpdateMeDTO
	if err := h.DecodeJSON(r, &dto, false); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	me, err := h.Service.UpdateMe(r.Context(), sess, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, me)
}

func (h *Handler) Directory(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.CurrentSession(h.BaseHandler, w, r)
	if !ok {
		return
	}
	entries, err := h.Service.Directory(r.Context(), sess)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, DirectoryResponse{Accounts: entries})
}

// CreateAccount godoc
// @Summary      Create an account (admin)
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        body  body  CreateAccountDTO  true  "new account"
// @Router       /admin/accounts [post]
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.CurrentSession(h.BaseHandler, w, r)
	if !ok {
		return
	}
	var dto CreateAccountDTO
	if err := h.DecodeJSON(r, &dto, false); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	id, err := h.Service.CreateAccount(r.Context(), sess, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteSuccess(w, map[string]interface{}{"userId": id})
}

func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.CurrentSession(h.BaseHandler, w, r)
	if !ok {
		return
	}
	id, err := h.ParseUUIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	var dto UpdateRoleDTO
	if err := h.DecodeJSON(r, &dto, false); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	if err := h.Service.UpdateRole(r.Context(), sess, id, dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteSuccess(w, nil)
}

func (h *Handler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.CurrentSession(h.BaseHandler, w, r)
	if !ok {
		return
	}
	id, err := h.ParseUUIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	var dto UpdatePasswordDTO
	if err := h.DecodeJSON(r, &dto, false); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	if err := h.Service.UpdatePassword(r.Context(), sess, id, dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteSuccess(w, nil)
}

func (h *Handler) UpdateEmployeeID(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.CurrentSession(h.BaseHandler, w, r)
	if !ok {
		return
	}
	id, err := h.ParseUUIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	var dto UpdateEmployeeIDDTO
	if err := h.DecodeJSON(r, &dto, true); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	code, err := h.Service.UpdateEmployeeID(r.Context(), sess, id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteSuccess(w, map[string]interface{}{"employeeId": code})
}

func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.CurrentSession(h.BaseHandler, w, r)
	if !ok {
		return
	}
	users, err := h.Service.ListAll(r.Context(), sess)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, RosterResponse{Success: true, Users: users})
}

func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.CurrentSession(h.BaseHandler, w, r)
	if !ok {
		return
	}
	id, err := h.ParseUUIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	if err := h.Service.DeleteAccount(r.Context(), sess, id); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteSuccess(w, nil)
}
