package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/absence-workflow/internal/domain/absence"
	"github.com/cmlabs-hris/absence-workflow/internal/domain/approval"
	"github.com/cmlabs-hris/absence-workflow/internal/handler/http/middleware"
	"github.com/cmlabs-hris/absence-workflow/internal/handler/http/response"
	"github.com/cmlabs-hris/absence-workflow/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
)

type AbsenceHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	Decide(w http.ResponseWriter, r *http.Request)
	Archive(w http.ResponseWriter, r *http.Request)

	List(w http.ResponseWriter, r *http.Request)
	MyRequests(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	History(w http.ResponseWriter, r *http.Request)
	Pending(stage absence.Stage) http.HandlerFunc
	Approved(w http.ResponseWriter, r *http.Request)
}

type absenceHandlerImpl struct {
	workflow   absence.WorkflowService
	visibility absence.VisibilityService
	ledger     approval.Ledger
}

func NewAbsenceHandler(workflow absence.WorkflowService, visibility absence.VisibilityService, ledger approval.Ledger) AbsenceHandler {
	return &absenceHandlerImpl{
		workflow:   workflow,
		visibility: visibility,
		ledger:     ledger,
	}
}

// Create implements AbsenceHandler.
func (h *absenceHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	var req absence.CreateAbsenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.workflow.Create(r.Context(), middleware.ActorFromContext(r.Context()), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Absence request submitted", result)
}

// Decide implements AbsenceHandler.
func (h *absenceHandlerImpl) Decide(w http.ResponseWriter, r *http.Request) {
	var req absence.DecideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	if err := h.workflow.Decide(r.Context(), middleware.ActorFromContext(r.Context()), req); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Decision recorded", nil)
}

// Archive implements AbsenceHandler.
func (h *absenceHandlerImpl) Archive(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.workflow.Archive(r.Context(), middleware.ActorFromContext(r.Context()), id); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Absence request archived", nil)
}

// List implements AbsenceHandler.
func (h *absenceHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := absence.CalendarFilter{
		StartDate:  query.Get("startDate"),
		EndDate:    query.Get("endDate"),
		EmployeeID: query.Get("employeeId"),
		Status:     query.Get("status"),
		SortOrder:  query.Get("sort"),
	}

	requests, err := h.visibility.List(r.Context(), middleware.ActorFromContext(r.Context()), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, absence.ListAbsenceResponse{Requests: absence.ToResponses(requests)})
}

// MyRequests implements AbsenceHandler.
func (h *absenceHandlerImpl) MyRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := h.visibility.MyRequests(r.Context(), middleware.ActorFromContext(r.Context()))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, absence.ListAbsenceResponse{Requests: absence.ToResponses(requests)})
}

// Get implements AbsenceHandler.
func (h *absenceHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	request, err := h.visibility.Get(r.Context(), middleware.ActorFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, absence.ToResponse(request))
}

// History implements AbsenceHandler.
func (h *absenceHandlerImpl) History(w http.ResponseWriter, r *http.Request) {
	request, err := h.visibility.Get(r.Context(), middleware.ActorFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	entries, err := h.ledger.History(r.Context(), request.ID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, approval.ToHistoryResponse(request.ID, entries))
}

// Pending returns a handler for the queue of one approval stage
func (h *absenceHandlerImpl) Pending(stage absence.Stage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requests, err := h.visibility.Pending(r.Context(), middleware.ActorFromContext(r.Context()), stage)
		if err != nil {
			response.HandleError(w, err)
			return
		}

		response.Success(w, absence.ListAbsenceResponse{Requests: absence.ToResponses(requests)})
	}
}

// Approved implements AbsenceHandler.
func (h *absenceHandlerImpl) Approved(w http.ResponseWriter, r *http.Request) {
	var filter absence.ApprovedFilter
	var errs validator.ValidationErrors

	for key, dst := range map[string]**int{"month": &filter.Month, "year": &filter.Year} {
		raw := r.URL.Query().Get(key)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			errs = append(errs, validator.ValidationError{Field: key, Message: key + " must be an integer"})
			continue
		}
		*dst = &v
	}
	if len(errs) > 0 {
		response.HandleError(w, errs)
		return
	}

	requests, err := h.visibility.Approved(r.Context(), middleware.ActorFromContext(r.Context()), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, absence.ListAbsenceResponse{Requests: absence.ToResponses(requests)})
}
