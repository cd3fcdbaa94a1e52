package handler

import (
	"net/http"

	"github.com/edvin/flowline/internal/api/request"
	"github.com/edvin/flowline/internal/api/response"
	"github.com/edvin/flowline/internal/core"
)

type Task struct {
	svc *core.TaskService
}

func NewTask(svc *core.TaskService) *Task {
	return &Task{svc: svc}
}

// List godoc
//
//	@Summary		List tasks
//	@Tags			Tasks
//	@Param			tenant_id query string false "Filter by tenant"
//	@Param			limit query int false "Page size" default(50)
//	@Param			cursor query string false "Pagination cursor"
//	@Success		200 {object} response.PaginatedResponse{items=[]model.Task}
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/tasks [get]
func (h *Task) List(w http.ResponseWriter, r *http.Request) {
	pg := request.ParsePagination(r)
	tenantID := r.URL.Query().Get("tenant_id")

	tasks, hasMore, err := h.svc.List(r.Context(), tenantID, pg.Limit, pg.Cursor)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var nextCursor string
	if hasMore && len(tasks) > 0 {
		nextCursor = tasks[len(tasks)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, tasks, nextCursor, hasMore)
}
