package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/edvin/flowline/internal/api/request"
	"github.com/edvin/flowline/internal/api/response"
	"github.com/edvin/flowline/internal/core"
	"github.com/edvin/flowline/internal/engine"
	"github.com/edvin/flowline/internal/model"
	"github.com/edvin/flowline/internal/platform"
)

type Template struct {
	svc *core.TemplateService
}

func NewTemplate(svc *core.TemplateService) *Template {
	return &Template{svc: svc}
}

// List godoc
//
//	@Summary		List workflow templates
//	@Tags			Templates
//	@Param			tenant_id query string false "Filter by tenant"
//	@Param			limit query int false "Page size" default(50)
//	@Param			cursor query string false "Pagination cursor"
//	@Success		200 {object} response.PaginatedResponse{items=[]model.WorkflowTemplate}
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/templates [get]
func (h *Template) List(w http.ResponseWriter, r *http.Request) {
	pg := request.ParsePagination(r)
	tenantID := r.URL.Query().Get("tenant_id")

	templates, hasMore, err := h.svc.List(r.Context(), tenantID, pg.Limit, pg.Cursor)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var nextCursor string
	if hasMore && len(templates) > 0 {
		nextCursor = templates[len(templates)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, templates, nextCursor, hasMore)
}

// Create godoc
//
//	@Summary		Create a workflow template
//	@Tags			Templates
//	@Param			body body request.CreateTemplate true "Template definition"
//	@Success		201 {object} model.WorkflowTemplate
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/templates [post]
func (h *Template) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateTemplate
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	now := time.Now()
	template := &model.WorkflowTemplate{
		ID:        platform.NewID(),
		TenantID:  req.TenantID,
		Name:      req.Name,
		Category:  req.Category,
		Version:   1,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, s := range req.Steps {
		step := model.WorkflowStep{
			ID:             s.ID,
			TemplateID:     template.ID,
			Name:           s.Name,
			StepType:       s.StepType,
			Order:          s.Order,
			Configuration:  s.Configuration,
			Dependencies:   s.Dependencies,
			IsRequired:     true,
			TimeoutMinutes: s.TimeoutMinutes,
		}
		if s.IsRequired != nil {
			step.IsRequired = *s.IsRequired
		}
		template.Steps = append(template.Steps, step)
	}

	if err := h.svc.Create(r.Context(), template); err != nil {
		if errors.Is(err, engine.ErrCyclicDependency) || errors.Is(err, engine.ErrStepNotFound) {
			response.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusCreated, template)
}

// Get godoc
//
//	@Summary		Get a workflow template with its steps
//	@Tags			Templates
//	@Param			id path string true "Template ID"
//	@Success		200 {object} model.WorkflowTemplate
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Router			/templates/{id} [get]
func (h *Template) Get(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	template, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		response.WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusOK, template)
}

// Update godoc
//
//	@Summary		Update template metadata
//	@Description	Renames or recategorizes the template and bumps its version. Steps are immutable.
//	@Tags			Templates
//	@Param			id path string true "Template ID"
//	@Param			body body request.UpdateTemplate true "Template updates"
//	@Success		200 {object} model.WorkflowTemplate
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/templates/{id} [put]
func (h *Template) Update(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.UpdateTemplate
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	template, err := h.svc.UpdateMetadata(r.Context(), id, req.Name, req.Category)
	if err != nil {
		if errors.Is(err, engine.ErrTemplateNotFound) {
			response.WriteError(w, http.StatusNotFound, err.Error())
			return
		}
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusOK, template)
}

// Deactivate godoc
//
//	@Summary		Deactivate a workflow template
//	@Description	Blocks new instances. Running instances keep going.
//	@Tags			Templates
//	@Param			id path string true "Template ID"
//	@Success		204
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Router			/templates/{id} [delete]
func (h *Template) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.Deactivate(r.Context(), id); err != nil {
		if errors.Is(err, engine.ErrTemplateNotFound) {
			response.WriteError(w, http.StatusNotFound, err.Error())
			return
		}
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
