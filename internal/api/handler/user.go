package handler

import (
	"net/http"
	"time"

	"github.com/edvin/flowline/internal/api/request"
	"github.com/edvin/flowline/internal/api/response"
	"github.com/edvin/flowline/internal/core"
	"github.com/edvin/flowline/internal/model"
	"github.com/edvin/flowline/internal/platform"
)

type User struct {
	svc *core.UserService
}

func NewUser(svc *core.UserService) *User {
	return &User{svc: svc}
}

// List godoc
//
//	@Summary		List users
//	@Tags			Users
//	@Param			tenant_id query string true "Tenant ID"
//	@Success		200 {array} model.User
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/users [get]
func (h *User) List(w http.ResponseWriter, r *http.Request) {
	tenantID, err := request.RequireID(r.URL.Query().Get("tenant_id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, "tenant_id is required")
		return
	}

	users, err := h.svc.List(r.Context(), tenantID)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusOK, users)
}

// Create godoc
//
//	@Summary		Create a user
//	@Tags			Users
//	@Param			body body request.CreateUser true "User details"
//	@Success		201 {object} model.User
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/users [post]
func (h *User) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateUser
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	user := &model.User{
		ID:         platform.NewID(),
		TenantID:   req.TenantID,
		Name:       req.Name,
		Email:      req.Email,
		Department: req.Department,
		Skills:     req.Skills,
		IsActive:   true,
		CreatedAt:  time.Now(),
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := h.svc.Create(r.Context(), user); err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusCreated, user)
}
