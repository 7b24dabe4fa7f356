package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/absence-workflow/internal/domain/absence"
	"github.com/cmlabs-hris/absence-workflow/internal/domain/approval"
	"github.com/cmlabs-hris/absence-workflow/internal/domain/notification"
	"github.com/cmlabs-hris/absence-workflow/internal/domain/user"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type Config struct {
	// RejectOrphans refuses requests from employees without a supervisor.
	// When false such requests are accepted and left for the orphan sweep.
	RejectOrphans bool
}

type WorkflowServiceImpl struct {
	requestRepo absence.RequestRepository
	userRepo    user.UserRepository
	ledger      approval.Ledger
	dispatcher  notification.Dispatcher
	tx          absence.TxManager
	config      Config
	tracer      trace.Tracer
}

func NewWorkflowService(
	requestRepo absence.RequestRepository,
	userRepo user.UserRepository,
	ledger approval.Ledger,
	dispatcher notification.Dispatcher,
	tx absence.TxManager,
	config Config,
) absence.WorkflowService {
	return &WorkflowServiceImpl{
		requestRepo: requestRepo,
		userRepo:    userRepo,
		ledger:      ledger,
		dispatcher:  dispatcher,
		tx:          tx,
		config:      config,
		tracer:      otel.Tracer("github.com/cmlabs-hris/absence-workflow/internal/service/workflow"),
	}
}

func finishSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// Create implements absence.WorkflowService.
func (s *WorkflowServiceImpl) Create(ctx context.Context, actor user.Actor, req absence.CreateAbsenceRequest) (result absence.CreateAbsenceResponse, err error) {
	ctx, span := s.tracer.Start(ctx, "workflow.Create", trace.WithAttributes(
		attribute.String("actor.id", actor.ID),
		attribute.String("actor.role", string(actor.Role)),
	))
	defer func() { finishSpan(span, err) }()

	if !actor.Authenticated() {
		return absence.CreateAbsenceResponse{}, absence.ErrNoActor
	}
	if err := req.Validate(); err != nil {
		return absence.CreateAbsenceResponse{}, fmt.Errorf("%w: %w", absence.ErrValidation, err)
	}

	employee, err := s.userRepo.GetByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return absence.CreateAbsenceResponse{}, absence.ErrNoActor
		}
		return absence.CreateAbsenceResponse{}, fmt.Errorf("failed to load employee: %w", err)
	}

	orphaned := !employee.HasSupervisor()
	if orphaned && s.config.RejectOrphans {
		return absence.CreateAbsenceResponse{}, absence.ErrNoSupervisor
	}

	created, err := s.requestRepo.Create(ctx, req.ToEntity(employee.ID))
	if err != nil {
		return absence.CreateAbsenceResponse{}, fmt.Errorf("failed to create absence request: %w", err)
	}
	span.SetAttributes(attribute.String("request.id", created.ID))

	slog.Info("Absence request created", "request_id", created.ID, "employee_id", employee.ID, "orphaned", orphaned)

	if orphaned {
		slog.Warn("Absence request has no supervisor to decide it", "request_id", created.ID, "employee_id", employee.ID)
	} else {
		msg := fmt.Sprintf(notification.MsgRequestSubmitted, employee.Name)
		if err := s.dispatcher.Notify(ctx, []string{*employee.SupervisorID}, created.ID, msg); err != nil {
			slog.Error("Failed to notify supervisor", "request_id", created.ID, "error", err)
		}
	}

	return absence.CreateAbsenceResponse{RequestID: created.ID, Orphaned: orphaned}, nil
}

// Decide implements absence.WorkflowService.
func (s *WorkflowServiceImpl) Decide(ctx context.Context, actor user.Actor, req absence.DecideRequest) (err error) {
	ctx, span := s.tracer.Start(ctx, "workflow.Decide", trace.WithAttributes(
		attribute.String("actor.id", actor.ID),
		attribute.String("actor.role", string(actor.Role)),
		attribute.String("request.id", req.RequestID),
		attribute.String("decision.stage", string(req.Stage)),
		attribute.String("decision.action", string(req.Action)),
	))
	defer func() { finishSpan(span, err) }()

	if !actor.Authenticated() {
		return absence.ErrNoActor
	}
	if err := req.Validate(); err != nil {
		return fmt.Errorf("%w: %w", absence.ErrValidation, err)
	}
	if !absence.RoleMayDecide(actor.Role, req.Stage) {
		return absence.ErrRoleNotPermitted
	}

	request, err := s.requestRepo.GetByID(ctx, req.RequestID)
	if err != nil {
		return err
	}

	if req.Stage == absence.StageSupervisor {
		employee, err := s.userRepo.GetByID(ctx, request.EmployeeID)
		if err != nil {
			return fmt.Errorf("failed to load request owner: %w", err)
		}
		if !employee.HasSupervisor() || *employee.SupervisorID != actor.ID {
			return absence.ErrNotDirectReport
		}
	}

	outcome, err := absence.Transition(req.Stage, req.Action)
	if err != nil {
		return err
	}
	if request.State() != outcome.From {
		return absence.ErrStageMismatch
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.requestRepo.UpdateStageConditional(ctx, request.ID, outcome.From, outcome.To); err != nil {
			return err
		}
		_, err := s.ledger.Append(ctx, approval.Entry{
			RequestID:  request.ID,
			ApproverID: actor.ID,
			Stage:      req.Stage,
			Action:     req.Action,
			Comments:   req.Comments,
		})
		return err
	})
	if err != nil {
		return err
	}

	slog.Info("Absence request decided",
		"request_id", request.ID,
		"approver_id", actor.ID,
		"stage", req.Stage,
		"action", req.Action,
		"status", outcome.To.Status,
		"next_stage", outcome.To.Stage,
		"completed", outcome.Completed(),
	)

	s.notifyOutcome(ctx, actor, request, outcome)
	return nil
}

// notifyOutcome runs after commit; failures are logged and never undo the transition
func (s *WorkflowServiceImpl) notifyOutcome(ctx context.Context, actor user.Actor, request absence.AbsenceRequest, outcome absence.Outcome) {
	if outcome.NotifyEmployee {
		msg := notification.MsgRequestApproved
		if outcome.To.Status == absence.StatusDeclined {
			msg = fmt.Sprintf(notification.MsgRequestDeclined, actor.Name)
		}
		if err := s.dispatcher.Notify(ctx, []string{request.EmployeeID}, request.ID, msg); err != nil {
			slog.Error("Failed to notify employee", "request_id", request.ID, "error", err)
		}
	}

	for _, role := range outcome.NotifyRoles {
		msg := notification.MsgStagePending
		if role == user.RolePayroll {
			msg = notification.MsgPayrollPending
		}
		if err := s.dispatcher.NotifyRole(ctx, role, request.ID, msg); err != nil {
			slog.Error("Failed to notify role", "request_id", request.ID, "role", role, "error", err)
		}
	}
}

// Archive implements absence.WorkflowService.
func (s *WorkflowServiceImpl) Archive(ctx context.Context, actor user.Actor, requestID string) (err error) {
	ctx, span := s.tracer.Start(ctx, "workflow.Archive", trace.WithAttributes(
		attribute.String("actor.id", actor.ID),
		attribute.String("request.id", requestID),
	))
	defer func() { finishSpan(span, err) }()

	if !actor.Authenticated() {
		return absence.ErrNoActor
	}

	request, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return err
	}
	if request.EmployeeID != actor.ID {
		return absence.ErrNotOwner
	}
	if request.Status == absence.StatusArchived {
		return absence.ErrAlreadyArchived
	}

	if err := s.requestRepo.Archive(ctx, request.ID, actor.ID); err != nil {
		return err
	}

	slog.Info("Absence request archived", "request_id", request.ID, "employee_id", actor.ID, "frozen_stage", request.Stage)
	return nil
}
