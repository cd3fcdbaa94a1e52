package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edvin/flowline/internal/api/request"
	"github.com/edvin/flowline/internal/api/response"
	"github.com/edvin/flowline/internal/core"
	"github.com/edvin/flowline/internal/engine"
)

type Instance struct {
	svc    *core.InstanceService
	engine *engine.Engine
}

func NewInstance(svc *core.InstanceService, eng *engine.Engine) *Instance {
	return &Instance{svc: svc, engine: eng}
}

// Start godoc
//
//	@Summary		Start a workflow instance
//	@Description	Creates an instance of an active template and synchronously runs every step that becomes eligible.
//	@Tags			Instances
//	@Param			id path string true "Template ID"
//	@Param			body body request.StartInstance true "Start parameters"
//	@Success		201 {object} model.WorkflowInstance
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/templates/{id}/instances [post]
func (h *Instance) Start(w http.ResponseWriter, r *http.Request) {
	templateID, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.StartInstance
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	instance, err := h.engine.StartInstance(r.Context(), templateID, req.Context, req.TriggeredBy)
	if err != nil {
		if errors.Is(err, engine.ErrTemplateNotFound) {
			response.WriteError(w, http.StatusNotFound, err.Error())
			return
		}
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusCreated, instance)
}

// List godoc
//
//	@Summary		List workflow instances
//	@Tags			Instances
//	@Param			status query string false "Filter by status"
//	@Param			template_id query string false "Filter by template"
//	@Param			limit query int false "Page size" default(50)
//	@Param			cursor query string false "Pagination cursor"
//	@Success		200 {object} response.PaginatedResponse{items=[]model.WorkflowInstance}
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/instances [get]
func (h *Instance) List(w http.ResponseWriter, r *http.Request) {
	pg := request.ParsePagination(r)
	status := r.URL.Query().Get("status")
	templateID := r.URL.Query().Get("template_id")

	instances, hasMore, err := h.svc.List(r.Context(), status, templateID, pg.Limit, pg.Cursor)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var nextCursor string
	if hasMore && len(instances) > 0 {
		nextCursor = instances[len(instances)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, instances, nextCursor, hasMore)
}

// Get godoc
//
//	@Summary		Get an instance with its executions
//	@Tags			Instances
//	@Param			id path string true "Instance ID"
//	@Success		200 {object} core.InstanceWithExecutions
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Router			/instances/{id} [get]
func (h *Instance) Get(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	instance, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		response.WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusOK, instance)
}

// Cancel godoc
//
//	@Summary		Cancel a running instance
//	@Tags			Instances
//	@Param			id path string true "Instance ID"
//	@Success		202
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Failure		409 {object} response.ErrorResponse
//	@Router			/instances/{id}/cancel [post]
func (h *Instance) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.engine.CancelInstance(r.Context(), id); err != nil {
		if errors.Is(err, engine.ErrInstanceNotFound) {
			response.WriteError(w, http.StatusNotFound, err.Error())
			return
		}
		response.WriteError(w, http.StatusConflict, err.Error())
		return
	}

	w.WriteHeader(http.StatusAccepted)
}
