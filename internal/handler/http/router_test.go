package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cmlabs-hris/absence-workflow/internal/config"
	"github.com/cmlabs-hris/absence-workflow/internal/domain/user"
	"github.com/cmlabs-hris/absence-workflow/internal/pkg/jwt"
	"github.com/cmlabs-hris/absence-workflow/internal/pkg/sse"
	"github.com/cmlabs-hris/absence-workflow/internal/repository/memory"
	"github.com/cmlabs-hris/absence-workflow/internal/service/ledger"
	notificationService "github.com/cmlabs-hris/absence-workflow/internal/service/notification"
	"github.com/cmlabs-hris/absence-workflow/internal/service/visibility"
	"github.com/cmlabs-hris/absence-workflow/internal/service/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	t       *testing.T
	handler http.Handler
	jwt     jwt.Service
	users   map[string]user.User
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()

	store := memory.NewStore()
	userRepo := memory.NewUserRepository(store)
	requestRepo := memory.NewAbsenceRequestRepository(store)
	ledgerSvc := ledger.NewLedgerService(memory.NewApprovalHistoryRepository(store))
	notifSvc := notificationService.NewNotificationService(memory.NewNotificationRepository(store), userRepo, sse.NewHub(10))
	workflowSvc := workflow.NewWorkflowService(requestRepo, userRepo, ledgerSvc, notifSvc, memory.NewTxManager(store), workflow.Config{RejectOrphans: true})
	visibilitySvc := visibility.NewVisibilityService(requestRepo, userRepo)
	jwtSvc := jwt.NewJWTService("test-secret", time.Hour)

	s := &testServer{t: t, jwt: jwtSvc, users: make(map[string]user.User)}
	add := func(key, name string, role user.Role, supervisor string) {
		u := user.User{Email: key + "@company.com", Name: name, Role: role}
		if supervisor != "" {
			id := s.users[supervisor].ID
			u.SupervisorID = &id
		}
		created, err := userRepo.Create(ctx, u)
		require.NoError(t, err)
		s.users[key] = created
	}
	add("supervisor", "Sam Supervisor", user.RoleSupervisor, "")
	add("manager", "Max Manager", user.RoleManager, "")
	add("hr", "Hana HR", user.RoleHR, "")
	add("payroll", "Pat Payroll", user.RolePayroll, "")
	add("employee", "Eve Employee", user.RoleEmployee, "supervisor")

	s.handler = NewRouter(
		config.AppConfig{Name: "absence-workflow-test", Env: "test", FrontendOrigin: "http://localhost:3000"},
		jwtSvc,
		NewAbsenceHandler(workflowSvc, visibilitySvc, ledgerSvc),
		NewUserHandler(visibilitySvc),
		NewNotificationHandler(notifSvc, jwtSvc, time.Second),
	)
	return s
}

func (s *testServer) do(as, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if as != "" {
		token, _, err := s.jwt.GenerateAccessToken(user.ActorFromUser(s.users[as]))
		require.NoError(s.t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var env envelope
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

type requestList struct {
	Requests []struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Stage  string `json:"current_approval_stage"`
	} `json:"requests"`
}

var tripBody = map[string]any{
	"request_type": "vacation",
	"start_date":   "2025-03-10",
	"end_date":     "2025-03-12",
	"total_days":   3,
	"reason":       "Trip",
}

func (s *testServer) submit() string {
	s.t.Helper()
	rec, env := s.do("employee", http.MethodPost, "/api/v1/requests", tripBody)
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[struct {
		RequestID string `json:"request_id"`
		Orphaned  bool   `json:"orphaned"`
	}](s.t, env.Data)
	require.NotEmpty(s.t, created.RequestID)
	assert.False(s.t, created.Orphaned)
	return created.RequestID
}

func decision(id, stage, action string) map[string]any {
	return map[string]any{"request_id": id, "stage": stage, "action": action}
}

func TestRouter_Heartbeat(t *testing.T) {
	s := newTestServer(t)
	rec, _ := s.do("", http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_RequiresAuthentication(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/api/v1/requests", "/api/v1/requests/my", "/api/v1/notifications", "/api/v1/users/me"} {
		rec, env := s.do("", http.MethodGet, path, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
		assert.False(t, env.Success, path)
	}
}

func TestRouter_RoleGates(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		as   string
		path string
		want int
	}{
		{as: "employee", path: "/api/v1/requests/pending/supervisor", want: http.StatusForbidden},
		{as: "manager", path: "/api/v1/requests/pending/supervisor", want: http.StatusForbidden},
		{as: "supervisor", path: "/api/v1/requests/pending/supervisor", want: http.StatusOK},
		{as: "manager", path: "/api/v1/requests/pending/manager", want: http.StatusOK},
		{as: "hr", path: "/api/v1/requests/pending/manager", want: http.StatusForbidden},
		{as: "hr", path: "/api/v1/requests/pending/hr", want: http.StatusOK},
		{as: "hr", path: "/api/v1/requests/approved", want: http.StatusForbidden},
		{as: "payroll", path: "/api/v1/requests/approved", want: http.StatusOK},
		{as: "employee", path: "/api/v1/users/employees", want: http.StatusForbidden},
		{as: "supervisor", path: "/api/v1/users/employees", want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.as+" "+tt.path, func(t *testing.T) {
			rec, _ := s.do(tt.as, http.MethodGet, tt.path, nil)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRouter_CreateValidation(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do("employee", http.MethodPost, "/api/v1/requests", map[string]any{
		"request_type": "vacation",
		"start_date":   "2025-03-12",
		"end_date":     "2025-03-10",
		"total_days":   0,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.NotNil(t, env.Error)
	assert.Contains(t, env.Error.Details, "end_date")
	assert.Contains(t, env.Error.Details, "total_days")
}

func TestRouter_ApprovalChain(t *testing.T) {
	s := newTestServer(t)
	id := s.submit()

	rec, env := s.do("supervisor", http.MethodGet, "/api/v1/requests/pending/supervisor", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	pending := decode[requestList](t, env.Data)
	require.Len(t, pending.Requests, 1)
	assert.Equal(t, id, pending.Requests[0].ID)

	rec, _ = s.do("supervisor", http.MethodPost, "/api/v1/requests/decide", decision(id, "SUPERVISOR", "APPROVED"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// A second decision against the stage that already moved on
	rec, _ = s.do("supervisor", http.MethodPost, "/api/v1/requests/decide", decision(id, "SUPERVISOR", "APPROVED"))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, _ = s.do("manager", http.MethodPost, "/api/v1/requests/decide", decision(id, "MANAGER", "APPROVED"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec, _ = s.do("hr", http.MethodPost, "/api/v1/requests/decide", decision(id, "HR", "APPROVED"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, env = s.do("employee", http.MethodGet, "/api/v1/requests/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[struct {
		Status string `json:"status"`
		Stage  string `json:"current_approval_stage"`
	}](t, env.Data)
	assert.Equal(t, "APPROVED", got.Status)
	assert.Equal(t, "COMPLETED", got.Stage)

	rec, env = s.do("payroll", http.MethodGet, "/api/v1/requests/approved?month=3&year=2025", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[requestList](t, env.Data).Requests, 1)

	rec, env = s.do("payroll", http.MethodGet, "/api/v1/requests/approved?month=4&year=2025", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[requestList](t, env.Data).Requests)

	rec, env = s.do("employee", http.MethodGet, "/api/v1/requests/"+id+"/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	history := decode[struct {
		Entries []struct {
			Stage  string `json:"stage"`
			Action string `json:"action"`
		} `json:"entries"`
	}](t, env.Data)
	require.Len(t, history.Entries, 3)
	assert.Equal(t, "SUPERVISOR", history.Entries[0].Stage)
	assert.Equal(t, "MANAGER", history.Entries[1].Stage)
	assert.Equal(t, "HR", history.Entries[2].Stage)
}

func TestRouter_ApprovedRejectsBadMonth(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do("payroll", http.MethodGet, "/api/v1/requests/approved?month=march&year=2025", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.NotNil(t, env.Error)
	assert.Contains(t, env.Error.Details, "month")

	rec, _ = s.do("payroll", http.MethodGet, "/api/v1/requests/approved?month=3", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestRouter_Archive(t *testing.T) {
	s := newTestServer(t)
	id := s.submit()

	rec, _ := s.do("supervisor", http.MethodPatch, "/api/v1/requests/"+id+"/archive", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = s.do("employee", http.MethodPatch, "/api/v1/requests/"+id+"/archive", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, _ = s.do("employee", http.MethodPatch, "/api/v1/requests/"+id+"/archive", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, _ = s.do("employee", http.MethodGet, "/api/v1/requests/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, env := s.do("employee", http.MethodGet, "/api/v1/requests/my", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[requestList](t, env.Data).Requests)
}

func TestRouter_UnknownRequest(t *testing.T) {
	s := newTestServer(t)

	rec, _ := s.do("employee", http.MethodGet, "/api/v1/requests/not-a-uuid", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = s.do("supervisor", http.MethodPost, "/api/v1/requests/decide", decision("0190b3c2-0000-7000-8000-000000000000", "SUPERVISOR", "APPROVED"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_Notifications(t *testing.T) {
	s := newTestServer(t)
	s.submit()

	rec, env := s.do("supervisor", http.MethodGet, "/api/v1/notifications/unread-count", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[struct {
		UnreadCount int `json:"unread_count"`
	}](t, env.Data).UnreadCount)

	rec, env = s.do("supervisor", http.MethodGet, "/api/v1/notifications?unread_only=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Notifications []struct {
			ID      string `json:"id"`
			Message string `json:"message"`
		} `json:"notifications"`
	}](t, env.Data)
	require.Len(t, list.Notifications, 1)
	assert.Contains(t, list.Notifications[0].Message, "Eve Employee")

	rec, _ = s.do("supervisor", http.MethodPost, "/api/v1/notifications/read", map[string]any{"notification_ids": []string{}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec, _ = s.do("supervisor", http.MethodPost, "/api/v1/notifications/read", map[string]any{
		"notification_ids": []string{list.Notifications[0].ID},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, env = s.do("supervisor", http.MethodGet, "/api/v1/notifications/unread-count", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, decode[struct {
		UnreadCount int `json:"unread_count"`
	}](t, env.Data).UnreadCount)

	rec, _ = s.do("supervisor", http.MethodPost, "/api/v1/notifications/read-all", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_StreamToken(t *testing.T) {
	s := newTestServer(t)

	rec, _ := s.do("", http.MethodGet, "/api/v1/notifications/stream", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	access, _, err := s.jwt.GenerateAccessToken(user.ActorFromUser(s.users["employee"]))
	require.NoError(t, err)
	rec, _ = s.do("", http.MethodGet, "/api/v1/notifications/stream?token="+access, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, env := s.do("employee", http.MethodGet, "/api/v1/notifications/sse-token", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	token := decode[struct {
		Token     string `json:"token"`
		ExpiresIn int    `json:"expires_in"`
	}](t, env.Data)
	assert.NotEmpty(t, token.Token)
	assert.Equal(t, 300, token.ExpiresIn)
}

func TestRouter_StreamDeliversNotification(t *testing.T) {
	s := newTestServer(t)

	token, _, err := s.jwt.GenerateSSEToken(s.users["supervisor"].ID)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/notifications/stream?token="+token, nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.handler.ServeHTTP(rec, req)
	}()

	// The subscription is registered before the connected event is written.
	// Give the stream a moment before submitting.
	time.Sleep(100 * time.Millisecond)
	s.submit()
	time.Sleep(100 * time.Millisecond)
	cancel()
	<-done

	body := rec.Body.String()
	assert.Contains(t, body, "event: connected")
	assert.Contains(t, body, "event: notification")
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
}
