package http

import (
	"net/http"

	"github.com/cmlabs-hris/absence-workflow/internal/domain/absence"
	"github.com/cmlabs-hris/absence-workflow/internal/domain/user"
	"github.com/cmlabs-hris/absence-workflow/internal/handler/http/middleware"
	"github.com/cmlabs-hris/absence-workflow/internal/handler/http/response"
)

type UserHandler interface {
	Me(w http.ResponseWriter, r *http.Request)
	Employees(w http.ResponseWriter, r *http.Request)
}

type userHandlerImpl struct {
	visibility absence.VisibilityService
}

func NewUserHandler(visibility absence.VisibilityService) UserHandler {
	return &userHandlerImpl{visibility: visibility}
}

// Me returns the session actor
func (h *userHandlerImpl) Me(w http.ResponseWriter, r *http.Request) {
	response.Success(w, user.ToSessionUserResponse(middleware.ActorFromContext(r.Context())))
}

// Employees lists employees for approvers and back office roles
func (h *userHandlerImpl) Employees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.visibility.Employees(r.Context(), middleware.ActorFromContext(r.Context()))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	out := make([]user.EmployeeResponse, len(employees))
	for i, e := range employees {
		out[i] = user.ToEmployeeResponse(e)
	}
	response.Success(w, out)
}
