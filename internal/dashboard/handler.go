package dashboard

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

// GetSummary godoc
// @Summary      Hour totals and weekly trend
// @Description  Admin-wide for admins, otherwise scoped to the caller
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  Summary
// @Router       /dashboard [get]
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.CurrentSession(h.BaseHandler, w, r)
	if !ok {
		return
	}
	summary, err := h.Service.Summary(r.Context(), sess)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, summary)
}
