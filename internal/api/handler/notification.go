package handler

import (
	"net/http"

	"github.com/edvin/flowline/internal/api/request"
	"github.com/edvin/flowline/internal/api/response"
	"github.com/edvin/flowline/internal/core"
)

type Notification struct {
	svc *core.NotificationService
}

func NewNotification(svc *core.NotificationService) *Notification {
	return &Notification{svc: svc}
}

// List godoc
//
//	@Summary		List notifications for a recipient
//	@Tags			Notifications
//	@Param			recipient_id query string true "Recipient user ID"
//	@Param			limit query int false "Page size" default(50)
//	@Success		200 {array} model.Notification
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/notifications [get]
func (h *Notification) List(w http.ResponseWriter, r *http.Request) {
	recipientID, err := request.RequireID(r.URL.Query().Get("recipient_id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, "recipient_id is required")
		return
	}
	pg := request.ParsePagination(r)

	notifications, err := h.svc.ListByRecipient(r.Context(), recipientID, pg.Limit)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusOK, notifications)
}
