package postgresql_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/absence-workflow/internal/domain/absence"
	"github.com/cmlabs-hris/absence-workflow/internal/domain/approval"
	"github.com/cmlabs-hris/absence-workflow/internal/domain/notification"
	"github.com/cmlabs-hris/absence-workflow/internal/domain/user"
	"github.com/cmlabs-hris/absence-workflow/internal/pkg/sse"
	"github.com/cmlabs-hris/absence-workflow/internal/repository/postgresql"
	"github.com/cmlabs-hris/absence-workflow/internal/service/ledger"
	notificationService "github.com/cmlabs-hris/absence-workflow/internal/service/notification"
	"github.com/cmlabs-hris/absence-workflow/internal/service/workflow"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository(t *testing.T) {
	db := openTestDB(t)
	r := newRepos(db)
	ctx := context.Background()

	supervisor := createTestUser(t, r.users, "sup@company.com", user.RoleSupervisor, nil)
	employee := createTestUser(t, r.users, "emp@company.com", user.RoleEmployee, &supervisor.ID)

	t.Run("get by id and email", func(t *testing.T) {
		got, err := r.users.GetByID(ctx, employee.ID)
		require.NoError(t, err)
		assert.Equal(t, "emp@company.com", got.Email)
		require.True(t, got.HasSupervisor())
		assert.Equal(t, supervisor.ID, *got.SupervisorID)

		got, err = r.users.GetByEmail(ctx, "sup@company.com")
		require.NoError(t, err)
		assert.Equal(t, supervisor.ID, got.ID)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := r.users.GetByID(ctx, uuid.NewString())
		assert.ErrorIs(t, err, user.ErrUserNotFound)
		_, err = r.users.GetByID(ctx, "not-a-uuid")
		assert.ErrorIs(t, err, user.ErrUserNotFound)
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := r.users.Create(ctx, user.User{Email: "emp@company.com", Name: "Dup", Role: user.RoleEmployee})
		assert.ErrorIs(t, err, user.ErrUserEmailExists)
	})

	t.Run("list by role", func(t *testing.T) {
		ids, err := r.users.ListIDsByRole(ctx, user.RoleSupervisor)
		require.NoError(t, err)
		assert.Equal(t, []string{supervisor.ID}, ids)

		ids, err = r.users.ListIDsByRole(ctx, user.RolePayroll)
		require.NoError(t, err)
		assert.Empty(t, ids)
	})
}

func TestAbsenceRequestRepository_ConditionalUpdate(t *testing.T) {
	db := openTestDB(t)
	r := newRepos(db)
	ctx := context.Background()

	employee := createTestUser(t, r.users, "emp@company.com", user.RoleEmployee, nil)
	req := createTestRequest(t, r.requests, employee.ID, "2025-03-10", "2025-03-12")

	got, err := r.requests.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, absence.StatusPending, got.Status)
	assert.Equal(t, absence.StageSupervisor, got.Stage)
	assert.InDelta(t, 3.0, got.TotalDays, 0.001)
	require.NotNil(t, got.EmployeeEmail)
	assert.Equal(t, "emp@company.com", *got.EmployeeEmail)

	from := absence.State{Status: absence.StatusPending, Stage: absence.StageSupervisor}
	to := absence.State{Status: absence.StatusPending, Stage: absence.StageManager}

	require.NoError(t, r.requests.UpdateStageConditional(ctx, req.ID, from, to))
	assert.ErrorIs(t, r.requests.UpdateStageConditional(ctx, req.ID, from, to), absence.ErrStageMismatch)

	got, err = r.requests.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, absence.StageManager, got.Stage)
}

func TestAbsenceRequestRepository_Archive(t *testing.T) {
	db := openTestDB(t)
	r := newRepos(db)
	ctx := context.Background()

	owner := createTestUser(t, r.users, "emp@company.com", user.RoleEmployee, nil)
	other := createTestUser(t, r.users, "emp2@company.com", user.RoleEmployee, nil)
	req := createTestRequest(t, r.requests, owner.ID, "2025-03-10", "2025-03-12")

	assert.Error(t, r.requests.Archive(ctx, req.ID, other.ID))
	require.NoError(t, r.requests.Archive(ctx, req.ID, owner.ID))
	assert.ErrorIs(t, r.requests.Archive(ctx, req.ID, owner.ID), absence.ErrAlreadyArchived)

	got, err := r.requests.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, absence.StatusArchived, got.Status)
	assert.Equal(t, absence.StageSupervisor, got.Stage)
}

func TestAbsenceRequestRepository_List(t *testing.T) {
	db := openTestDB(t)
	r := newRepos(db)
	ctx := context.Background()

	supervisor := createTestUser(t, r.users, "sup@company.com", user.RoleSupervisor, nil)
	report := createTestUser(t, r.users, "emp@company.com", user.RoleEmployee, &supervisor.ID)
	orphan := createTestUser(t, r.users, "orphan@company.com", user.RoleEmployee, nil)

	march := createTestRequest(t, r.requests, report.ID, "2025-03-10", "2025-03-12")
	spanning := createTestRequest(t, r.requests, report.ID, "2025-03-30", "2025-04-02")
	april := createTestRequest(t, r.requests, orphan.ID, "2025-04-10", "2025-04-11")
	archived := createTestRequest(t, r.requests, report.ID, "2025-03-01", "2025-03-01")
	require.NoError(t, r.requests.Archive(ctx, archived.ID, report.ID))

	ids := func(requests []absence.AbsenceRequest) []string {
		out := make([]string, len(requests))
		for i, req := range requests {
			out[i] = req.ID
		}
		return out
	}

	t.Run("supervisor scope excludes archived", func(t *testing.T) {
		got, err := r.requests.List(ctx, absence.ListQuery{SupervisorID: &supervisor.ID, ExcludeArchived: true})
		require.NoError(t, err)
		assert.Equal(t, []string{march.ID, spanning.ID}, ids(got))
	})

	t.Run("interval intersection", func(t *testing.T) {
		from := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC)
		got, err := r.requests.List(ctx, absence.ListQuery{From: &from, To: &to, ExcludeArchived: true})
		require.NoError(t, err)
		assert.Equal(t, []string{spanning.ID, april.ID}, ids(got))
	})

	t.Run("endpoint in month, newest first", func(t *testing.T) {
		got, err := r.requests.List(ctx, absence.ListQuery{
			EndpointIn: &absence.DateRange{
				From: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
				To:   time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
			},
			ExcludeArchived: true,
			Desc:            true,
		})
		require.NoError(t, err)
		assert.Equal(t, []string{spanning.ID, march.ID}, ids(got))
	})

	t.Run("orphans", func(t *testing.T) {
		stage := absence.StageSupervisor
		status := absence.StatusPending
		got, err := r.requests.List(ctx, absence.ListQuery{NoSupervisor: true, Stage: &stage, Status: &status})
		require.NoError(t, err)
		assert.Equal(t, []string{april.ID}, ids(got))
	})
}

func TestTxManager_RollsBack(t *testing.T) {
	db := openTestDB(t)
	r := newRepos(db)
	ctx := context.Background()

	boom := errors.New("boom")
	err := r.tx.WithinTx(ctx, func(ctx context.Context) error {
		_, err := r.users.Create(ctx, user.User{Email: "ghost@company.com", Name: "Ghost", Role: user.RoleEmployee})
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = r.users.GetByEmail(ctx, "ghost@company.com")
	assert.ErrorIs(t, err, user.ErrUserNotFound)
}

func TestApprovalHistoryRepository(t *testing.T) {
	db := openTestDB(t)
	r := newRepos(db)
	history := postgresql.NewApprovalHistoryRepository(db)
	ctx := context.Background()

	approver := createTestUser(t, r.users, "sup@company.com", user.RoleSupervisor, nil)
	employee := createTestUser(t, r.users, "emp@company.com", user.RoleEmployee, &approver.ID)
	req := createTestRequest(t, r.requests, employee.ID, "2025-03-10", "2025-03-12")

	comments := "ok"
	first, err := history.Append(ctx, approval.Entry{RequestID: req.ID, ApproverID: approver.ID, Stage: absence.StageSupervisor, Action: absence.ActionApproved, Comments: &comments})
	require.NoError(t, err)
	second, err := history.Append(ctx, approval.Entry{RequestID: req.ID, ApproverID: approver.ID, Stage: absence.StageManager, Action: absence.ActionDeclined})
	require.NoError(t, err)

	entries, err := history.ListByRequest(ctx, req.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, first.ID, entries[0].ID)
	assert.Equal(t, second.ID, entries[1].ID)
	require.NotNil(t, entries[0].ApproverName)
	assert.Equal(t, "sup@company.com", *entries[0].ApproverName)
	require.NotNil(t, entries[0].Comments)
	assert.Equal(t, "ok", *entries[0].Comments)
}

func TestNotificationRepository(t *testing.T) {
	db := openTestDB(t)
	r := newRepos(db)
	notifications := postgresql.NewNotificationRepository(db)
	ctx := context.Background()

	recipient := createTestUser(t, r.users, "sup@company.com", user.RoleSupervisor, nil)
	other := createTestUser(t, r.users, "hr@company.com", user.RoleHR, nil)
	employee := createTestUser(t, r.users, "emp@company.com", user.RoleEmployee, &recipient.ID)
	req := createTestRequest(t, r.requests, employee.ID, "2025-03-10", "2025-03-12")

	batch := []*notification.Notification{
		{RecipientID: recipient.ID, RequestID: req.ID, Message: "first"},
		{RecipientID: recipient.ID, RequestID: req.ID, Message: "second"},
		{RecipientID: other.ID, RequestID: req.ID, Message: "third"},
	}
	require.NoError(t, notifications.CreateBatch(ctx, batch))
	for _, n := range batch {
		assert.NotEmpty(t, n.ID)
	}

	count, err := notifications.GetUnreadCount(ctx, recipient.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// Only the recipient may mark; malformed ids are ignored
	require.NoError(t, notifications.MarkAsRead(ctx, []string{batch[0].ID, batch[2].ID, "not-a-uuid"}, recipient.ID))

	count, err = notifications.GetUnreadCount(ctx, recipient.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	count, err = notifications.GetUnreadCount(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	unread, total, err := notifications.GetByUserID(ctx, recipient.ID, 1, 10, true)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, unread, 1)
	assert.Equal(t, "second", unread[0].Message)

	require.NoError(t, notifications.MarkAllAsRead(ctx, recipient.ID))
	count, err = notifications.GetUnreadCount(ctx, recipient.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

// Concurrent decisions on one request: the conditional update lets exactly one through.
func TestConcurrentDecisions(t *testing.T) {
	db := openTestDB(t)
	r := newRepos(db)
	ctx := context.Background()

	supervisor := createTestUser(t, r.users, "sup@company.com", user.RoleSupervisor, nil)
	employee := createTestUser(t, r.users, "emp@company.com", user.RoleEmployee, &supervisor.ID)

	historyRepo := postgresql.NewApprovalHistoryRepository(db)
	ledgerSvc := ledger.NewLedgerService(historyRepo)
	notifSvc := notificationService.NewNotificationService(postgresql.NewNotificationRepository(db), r.users, sse.NewHub(10))
	engine := workflow.NewWorkflowService(r.requests, r.users, ledgerSvc, notifSvc, r.tx, workflow.Config{RejectOrphans: true})

	created, err := engine.Create(ctx, user.ActorFromUser(employee), absence.CreateAbsenceRequest{
		RequestType: "vacation",
		StartDate:   "2025-03-10",
		EndDate:     "2025-03-12",
		TotalDays:   3,
		Reason:      "Trip",
	})
	require.NoError(t, err)

	const deciders = 16
	var wg sync.WaitGroup
	results := make(chan error, deciders)
	for i := 0; i < deciders; i++ {
		action := absence.ActionApproved
		if i%2 == 1 {
			action = absence.ActionDeclined
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- engine.Decide(ctx, user.ActorFromUser(supervisor), absence.DecideRequest{
				RequestID: created.RequestID,
				Action:    action,
				Stage:     absence.StageSupervisor,
			})
		}()
	}
	wg.Wait()
	close(results)

	var wins, conflicts int
	for err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, absence.ErrStageMismatch):
			conflicts++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, deciders-1, conflicts)

	entries, err := historyRepo.ListByRequest(ctx, created.RequestID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
