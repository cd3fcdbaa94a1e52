package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/edvin/flowline/internal/api/request"
	"github.com/edvin/flowline/internal/api/response"
	"github.com/edvin/flowline/internal/assign"
	"github.com/edvin/flowline/internal/core"
	"github.com/edvin/flowline/internal/model"
	"github.com/edvin/flowline/internal/platform"
)

type Rule struct {
	svc      *core.RuleService
	assigner *assign.Engine
}

func NewRule(svc *core.RuleService, assigner *assign.Engine) *Rule {
	return &Rule{svc: svc, assigner: assigner}
}

// List godoc
//
//	@Summary		List assignment rules
//	@Tags			Assignment rules
//	@Param			tenant_id query string false "Filter by tenant"
//	@Param			limit query int false "Page size" default(50)
//	@Param			cursor query string false "Pagination cursor"
//	@Success		200 {object} response.PaginatedResponse{items=[]model.AssignmentRule}
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/assignment-rules [get]
func (h *Rule) List(w http.ResponseWriter, r *http.Request) {
	pg := request.ParsePagination(r)
	tenantID := r.URL.Query().Get("tenant_id")

	rules, hasMore, err := h.svc.List(r.Context(), tenantID, pg.Limit, pg.Cursor)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var nextCursor string
	if hasMore && len(rules) > 0 {
		nextCursor = rules[len(rules)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, rules, nextCursor, hasMore)
}

// Create godoc
//
//	@Summary		Create an assignment rule
//	@Tags			Assignment rules
//	@Param			body body request.CreateRule true "Rule definition"
//	@Success		201 {object} model.AssignmentRule
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/assignment-rules [post]
func (h *Rule) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateRule
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	now := time.Now()
	rule := &model.AssignmentRule{
		ID:        platform.NewID(),
		TenantID:  req.TenantID,
		Name:      req.Name,
		Priority:  req.Priority,
		IsActive:  true,
		Condition: req.Condition,
		Logic: model.AssignmentLogic{
			Type:              req.Logic.Type,
			Department:        req.Logic.Department,
			RequiredSkills:    req.Logic.RequiredSkills,
			LastAssignedIndex: -1,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}

	if err := h.svc.Create(r.Context(), rule); err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusCreated, rule)
}

// Update godoc
//
//	@Summary		Update an assignment rule
//	@Tags			Assignment rules
//	@Param			id path string true "Rule ID"
//	@Param			body body request.UpdateRule true "Rule updates"
//	@Success		200 {object} model.AssignmentRule
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/assignment-rules/{id} [put]
func (h *Rule) Update(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.UpdateRule
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	rule, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		response.WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	if req.Name != "" {
		rule.Name = req.Name
	}
	if req.Priority != nil {
		rule.Priority = *req.Priority
	}
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}
	if req.Condition != nil {
		rule.Condition = *req.Condition
	}
	if req.Logic != nil {
		// Changing the strategy resets the round-robin cursor.
		rule.Logic = model.AssignmentLogic{
			Type:              req.Logic.Type,
			Department:        req.Logic.Department,
			RequiredSkills:    req.Logic.RequiredSkills,
			LastAssignedIndex: -1,
		}
	}

	if err := h.svc.Update(r.Context(), rule); err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusOK, rule)
}

// Delete godoc
//
//	@Summary		Delete an assignment rule
//	@Tags			Assignment rules
//	@Param			id path string true "Rule ID"
//	@Success		204
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Router			/assignment-rules/{id} [delete]
func (h *Rule) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		if errors.Is(err, core.ErrRuleNotFound) {
			response.WriteError(w, http.StatusNotFound, err.Error())
			return
		}
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AutoAssign godoc
//
//	@Summary		Find the best assignee for a task descriptor
//	@Description	Walks the tenant's active rules in priority order and applies the first matching rule's strategy. Returns assigned=false when no rule matches or the pool is empty.
//	@Tags			Assignment rules
//	@Param			body body request.AutoAssign true "Task descriptor"
//	@Success		200 {object} map[string]any
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/assignments/auto [post]
func (h *Rule) AutoAssign(w http.ResponseWriter, r *http.Request) {
	var req request.AutoAssign
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.assigner.FindBestAssignee(r.Context(), req.TenantID, req.Task)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if user == nil {
		response.WriteJSON(w, http.StatusOK, map[string]any{"assigned": false})
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]any{"assigned": true, "user": user})
}
