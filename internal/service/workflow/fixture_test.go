package workflow_test

import (
	"context"
	"testing"

	"github.com/cmlabs-hris/absence-workflow/internal/domain/absence"
	"github.com/cmlabs-hris/absence-workflow/internal/domain/approval"
	"github.com/cmlabs-hris/absence-workflow/internal/domain/notification"
	"github.com/cmlabs-hris/absence-workflow/internal/domain/user"
	"github.com/cmlabs-hris/absence-workflow/internal/pkg/sse"
	"github.com/cmlabs-hris/absence-workflow/internal/repository/memory"
	"github.com/cmlabs-hris/absence-workflow/internal/service/ledger"
	notificationsvc "github.com/cmlabs-hris/absence-workflow/internal/service/notification"
	"github.com/cmlabs-hris/absence-workflow/internal/service/workflow"
	"github.com/stretchr/testify/require"
)

type env struct {
	engine        absence.WorkflowService
	requests      absence.RequestRepository
	users         user.UserRepository
	ledger        approval.Ledger
	notifications notification.Service

	employee, otherEmployee, orphan user.User
	supervisor, otherSupervisor     user.User
	manager1, manager2, hr, payroll user.User
}

type option func(*envDeps)

type envDeps struct {
	config     workflow.Config
	ledger     approval.Ledger
	dispatcher notification.Dispatcher
}

func withConfig(cfg workflow.Config) option {
	return func(d *envDeps) { d.config = cfg }
}

func withLedger(l approval.Ledger) option {
	return func(d *envDeps) { d.ledger = l }
}

func withDispatcher(dispatcher notification.Dispatcher) option {
	return func(d *envDeps) { d.dispatcher = dispatcher }
}

func newEnv(t *testing.T, opts ...option) *env {
	t.Helper()
	ctx := context.Background()

	store := memory.NewStore()
	e := &env{
		requests: memory.NewAbsenceRequestRepository(store),
		users:    memory.NewUserRepository(store),
		ledger:   ledger.NewLedgerService(memory.NewApprovalHistoryRepository(store)),
	}
	e.notifications = notificationsvc.NewNotificationService(memory.NewNotificationRepository(store), e.users, sse.NewHub(10))

	add := func(email, name string, role user.Role, supervisor *user.User) user.User {
		u := user.User{Email: email, Name: name, Role: role}
		if supervisor != nil {
			u.SupervisorID = &supervisor.ID
		}
		created, err := e.users.Create(ctx, u)
		require.NoError(t, err)
		return created
	}

	e.supervisor = add("sup@company.com", "Sam Supervisor", user.RoleSupervisor, nil)
	e.otherSupervisor = add("sup2@company.com", "Sue Supervisor", user.RoleSupervisor, nil)
	e.manager1 = add("m1@company.com", "Max Manager", user.RoleManager, nil)
	e.manager2 = add("m2@company.com", "Mia Manager", user.RoleManager, nil)
	e.hr = add("hr@company.com", "Hana HR", user.RoleHR, nil)
	e.payroll = add("payroll@company.com", "Pat Payroll", user.RolePayroll, nil)
	e.employee = add("emp@company.com", "Eve Employee", user.RoleEmployee, &e.supervisor)
	e.otherEmployee = add("emp2@company.com", "Ed Employee", user.RoleEmployee, &e.otherSupervisor)
	e.orphan = add("orphan@company.com", "Olly Orphan", user.RoleEmployee, nil)

	deps := envDeps{
		config:     workflow.Config{RejectOrphans: true},
		ledger:     e.ledger,
		dispatcher: e.notifications,
	}
	for _, opt := range opts {
		opt(&deps)
	}

	e.engine = workflow.NewWorkflowService(e.requests, e.users, deps.ledger, deps.dispatcher, memory.NewTxManager(store), deps.config)
	return e
}

func actorOf(u user.User) user.Actor {
	return user.ActorFromUser(u)
}

func trip() absence.CreateAbsenceRequest {
	return absence.CreateAbsenceRequest{
		RequestType: "vacation",
		StartDate:   "2025-03-10",
		EndDate:     "2025-03-12",
		TotalDays:   3,
		Reason:      "Trip",
	}
}

func (e *env) create(t *testing.T, owner user.User) string {
	t.Helper()
	res, err := e.engine.Create(context.Background(), actorOf(owner), trip())
	require.NoError(t, err)
	return res.RequestID
}

func (e *env) state(t *testing.T, id string) absence.State {
	t.Helper()
	req, err := e.requests.GetByID(context.Background(), id)
	require.NoError(t, err)
	return req.State()
}

func (e *env) inbox(t *testing.T, u user.User) []notification.NotificationResponse {
	t.Helper()
	list, err := e.notifications.GetNotifications(context.Background(), u.ID, notification.ListNotificationsRequest{PageSize: 100})
	require.NoError(t, err)
	return list.Notifications
}

func (e *env) history(t *testing.T, id string) []approval.Entry {
	t.Helper()
	entries, err := e.ledger.History(context.Background(), id)
	require.NoError(t, err)
	return entries
}
