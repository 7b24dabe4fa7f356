package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/absence-workflow/internal/config"
	"github.com/cmlabs-hris/absence-workflow/internal/domain/absence"
	"github.com/cmlabs-hris/absence-workflow/internal/domain/approval"
	"github.com/cmlabs-hris/absence-workflow/internal/domain/notification"
	"github.com/cmlabs-hris/absence-workflow/internal/domain/user"
	"github.com/cmlabs-hris/absence-workflow/internal/fixtures"
	appHTTP "github.com/cmlabs-hris/absence-workflow/internal/handler/http"
	"github.com/cmlabs-hris/absence-workflow/internal/pkg/cron"
	"github.com/cmlabs-hris/absence-workflow/internal/pkg/database"
	"github.com/cmlabs-hris/absence-workflow/internal/pkg/jwt"
	"github.com/cmlabs-hris/absence-workflow/internal/pkg/sse"
	"github.com/cmlabs-hris/absence-workflow/internal/pkg/telemetry"
	"github.com/cmlabs-hris/absence-workflow/internal/repository/memory"
	"github.com/cmlabs-hris/absence-workflow/internal/repository/postgresql"
	ledgerService "github.com/cmlabs-hris/absence-workflow/internal/service/ledger"
	notificationService "github.com/cmlabs-hris/absence-workflow/internal/service/notification"
	visibilityService "github.com/cmlabs-hris/absence-workflow/internal/service/visibility"
	workflowService "github.com/cmlabs-hris/absence-workflow/internal/service/workflow"
)

type repositories struct {
	users         user.UserRepository
	requests      absence.RequestRepository
	history       approval.Repository
	notifications notification.Repository
	tx            absence.TxManager
	close         func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})).With(
		slog.String("app", cfg.App.Name),
		slog.String("env", cfg.App.Env),
	))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry := telemetry.Setup(ctx, telemetry.Config{
		ServiceName: cfg.App.Name,
		Endpoint:    cfg.Telemetry.Endpoint,
		Insecure:    cfg.Telemetry.Insecure,
	})
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(ctx); err != nil {
			slog.Error("Telemetry shutdown failed", "error", err)
		}
	}()

	repos, err := openRepositories(ctx, cfg)
	if err != nil {
		slog.Error("Failed to initialize store", "driver", cfg.Database.Driver, "error", err)
		os.Exit(1)
	}
	defer repos.close()

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)

	if cfg.Database.Driver == config.DriverMemory {
		seedMemoryStore(ctx, repos, JWTService)
	}

	hub := sse.NewHub(cfg.Notification.SSEBufferSize)
	notifSvc := notificationService.NewNotificationService(repos.notifications, repos.users, hub)
	ledgerSvc := ledgerService.NewLedgerService(repos.history)
	workflowSvc := workflowService.NewWorkflowService(
		repos.requests,
		repos.users,
		ledgerSvc,
		notifSvc,
		repos.tx,
		workflowService.Config{RejectOrphans: cfg.Workflow.RejectOrphans},
	)
	visibilitySvc := visibilityService.NewVisibilityService(repos.requests, repos.users)

	scheduler := cron.NewScheduler()
	cron.NewOrphanJobs(repos.requests, cfg.Cron.OrphanSweepInterval).RegisterJobs(scheduler)
	scheduler.Start()
	defer scheduler.Stop()

	router := appHTTP.NewRouter(
		cfg.App,
		JWTService,
		appHTTP.NewAbsenceHandler(workflowSvc, visibilitySvc, ledgerSvc),
		appHTTP.NewUserHandler(visibilitySvc),
		appHTTP.NewNotificationHandler(notifSvc, JWTService, cfg.Notification.SSEKeepalive),
	)

	// No write timeout: notification streams stay open.
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("Server running", "addr", server.Addr, "driver", cfg.Database.Driver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Graceful shutdown failed", "error", err)
	}
}

func openRepositories(ctx context.Context, cfg *config.Config) (*repositories, error) {
	switch cfg.Database.Driver {
	case config.DriverMemory:
		store := memory.NewStore()
		return &repositories{
			users:         memory.NewUserRepository(store),
			requests:      memory.NewAbsenceRequestRepository(store),
			history:       memory.NewApprovalHistoryRepository(store),
			notifications: memory.NewNotificationRepository(store),
			tx:            memory.NewTxManager(store),
			close:         func() {},
		}, nil

	case config.DriverPostgres:
		db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolConfig{
			MaxConns: cfg.Database.MaxConns,
			MinConns: cfg.Database.MinConns,
		})
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return &repositories{
			users:         postgresql.NewUserRepository(db),
			requests:      postgresql.NewAbsenceRequestRepository(db),
			history:       postgresql.NewApprovalHistoryRepository(db),
			notifications: postgresql.NewNotificationRepository(db),
			tx:            postgresql.NewTxManager(db),
			close:         db.Close,
		}, nil
	}
	return nil, fmt.Errorf("unsupported store driver %q", cfg.Database.Driver)
}

// seedMemoryStore loads the demo accounts so an in-memory instance is usable right away
func seedMemoryStore(ctx context.Context, repos *repositories, JWTService jwt.Service) {
	users, err := fixtures.SeedDemoUsers(ctx, repos.users, repos.tx, fixtures.DefaultDemoPassword)
	if err != nil {
		slog.Error("Failed to seed demo users", "error", err)
		return
	}
	for _, u := range users {
		token, _, err := JWTService.GenerateAccessToken(user.ActorFromUser(u))
		if err != nil {
			slog.Error("Failed to mint demo token", "email", u.Email, "error", err)
			continue
		}
		slog.Info("Demo user", "email", u.Email, "role", u.Role, "access_token", token)
	}
}
