package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edvin/flowline/internal/api/request"
	"github.com/edvin/flowline/internal/api/response"
	"github.com/edvin/flowline/internal/approval"
	"github.com/edvin/flowline/internal/core"
)

type Approval struct {
	svc  *core.ApprovalService
	gate *approval.Gate
}

func NewApproval(svc *core.ApprovalService, gate *approval.Gate) *Approval {
	return &Approval{svc: svc, gate: gate}
}

// List godoc
//
//	@Summary		List approval requests
//	@Tags			Approvals
//	@Param			approver_id query string false "Only approvals the user is eligible for"
//	@Param			decision query string false "Filter by decision" Enums(pending, approved, rejected, cancelled)
//	@Param			limit query int false "Page size" default(50)
//	@Param			cursor query string false "Pagination cursor"
//	@Success		200 {object} response.PaginatedResponse{items=[]model.ApprovalRequest}
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/approvals [get]
func (h *Approval) List(w http.ResponseWriter, r *http.Request) {
	pg := request.ParsePagination(r)
	approverID := r.URL.Query().Get("approver_id")
	decision := r.URL.Query().Get("decision")

	approvals, hasMore, err := h.svc.List(r.Context(), approverID, decision, pg.Limit, pg.Cursor)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var nextCursor string
	if hasMore && len(approvals) > 0 {
		nextCursor = approvals[len(approvals)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, approvals, nextCursor, hasMore)
}

// Respond godoc
//
//	@Summary		Approve or reject an approval request
//	@Description	Resolving the request completes or fails the paused step execution and advances the instance.
//	@Tags			Approvals
//	@Param			id path string true "Approval ID"
//	@Param			body body request.RespondApproval true "Decision"
//	@Success		200 {object} model.ApprovalRequest
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		403 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Failure		409 {object} response.ErrorResponse
//	@Router			/approvals/{id}/respond [post]
func (h *Approval) Respond(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.RespondApproval
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	resolved, err := h.gate.Respond(r.Context(), id, req.ResponderID, req.Decision, req.Response)
	if err != nil {
		writeGateError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, resolved)
}

// BulkRespond godoc
//
//	@Summary		Resolve several approval requests with one decision
//	@Description	Best effort: each approval resolves or fails independently; the response reports per-approval outcomes.
//	@Tags			Approvals
//	@Param			body body request.BulkRespondApprovals true "Approvals and decision"
//	@Success		200 {array} approval.BulkResult
//	@Failure		400 {object} response.ErrorResponse
//	@Router			/approvals/bulk [post]
func (h *Approval) BulkRespond(w http.ResponseWriter, r *http.Request) {
	var req request.BulkRespondApprovals
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	results := h.gate.BulkRespond(r.Context(), req.ApprovalIDs, req.ResponderID, req.Decision, req.Response)
	response.WriteJSON(w, http.StatusOK, results)
}

// Delegate godoc
//
//	@Summary		Delegate an approval to another user
//	@Tags			Approvals
//	@Param			id path string true "Approval ID"
//	@Param			body body request.DelegateApproval true "Delegation details"
//	@Success		200 {object} model.ApprovalRequest
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		403 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Failure		409 {object} response.ErrorResponse
//	@Router			/approvals/{id}/delegate [post]
func (h *Approval) Delegate(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.DelegateApproval
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	delegated, err := h.gate.Delegate(r.Context(), id, req.FromUserID, req.ToUserID, req.Reason)
	if err != nil {
		writeGateError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, delegated)
}

func writeGateError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, approval.ErrApprovalNotFound):
		response.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, approval.ErrNotEligible):
		response.WriteError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, approval.ErrAlreadyResolved):
		response.WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, approval.ErrInvalidDecision):
		response.WriteError(w, http.StatusBadRequest, err.Error())
	default:
		response.WriteError(w, http.StatusInternalServerError, err.Error())
	}
}
