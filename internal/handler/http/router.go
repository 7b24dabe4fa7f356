package http

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/cmlabs-hris/absence-workflow/internal/config"
	"github.com/cmlabs-hris/absence-workflow/internal/domain/absence"
	"github.com/cmlabs-hris/absence-workflow/internal/domain/user"
	"github.com/cmlabs-hris/absence-workflow/internal/handler/http/middleware"
	"github.com/cmlabs-hris/absence-workflow/internal/handler/http/response"
	"github.com/cmlabs-hris/absence-workflow/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func NewRouter(
	app config.AppConfig,
	JWTService jwt.Service,
	absenceHandler AbsenceHandler,
	userHandler UserHandler,
	notificationHandler NotificationHandler,
) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(app.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", app.Name),
		slog.String("version", "v1.0.0"),
		slog.String("env", app.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{app.FrontendOrigin},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(otelhttp.NewMiddleware(app.Name))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {

		// EventSource cannot set headers; authenticated by the short-lived token in the query string
		r.Get("/notifications/stream", notificationHandler.Stream)

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired)
			r.Use(chiMiddleware.AllowContentType("application/json"))

			r.Route("/requests", func(r chi.Router) {
				r.Post("/", absenceHandler.Create)
				r.Get("/", absenceHandler.List)
				r.Post("/decide", absenceHandler.Decide)
				r.Get("/my", absenceHandler.MyRequests)

				r.Route("/pending", func(r chi.Router) {
					r.With(middleware.RequireRoles(user.RoleSupervisor)).Get("/supervisor", absenceHandler.Pending(absence.StageSupervisor))
					r.With(middleware.RequireRoles(user.RoleManager)).Get("/manager", absenceHandler.Pending(absence.StageManager))
					r.With(middleware.RequireRoles(user.RoleHR)).Get("/hr", absenceHandler.Pending(absence.StageHR))
				})

				r.With(middleware.RequireRoles(user.RolePayroll)).Get("/approved", absenceHandler.Approved)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", absenceHandler.Get)
					r.Get("/history", absenceHandler.History)
					r.Patch("/archive", absenceHandler.Archive)
				})
			})

			r.Route("/users", func(r chi.Router) {
				r.Get("/me", userHandler.Me)
				r.With(middleware.RequireRoles(user.RoleSupervisor, user.RoleManager, user.RoleHR, user.RolePayroll)).
					Get("/employees", userHandler.Employees)
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", notificationHandler.List)
				r.Get("/unread-count", notificationHandler.UnreadCount)
				r.Post("/read", notificationHandler.MarkAsRead)
				r.Post("/read-all", notificationHandler.MarkAllAsRead)
				r.Get("/sse-token", notificationHandler.GetSSEToken)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, "Route not found")
	})
	return r
}
