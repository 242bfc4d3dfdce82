package handler

import (
	"database/sql"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"opsdesk/docs"
	"opsdesk/internal/http/middleware"
	"opsdesk/internal/model"
	"opsdesk/internal/service"
	"opsdesk/internal/storage"
)

// Deps carries everything the routes need. A nil Metrics gatherer disables /metrics;
// a nil LoginLimiter disables login throttling; a nil Storage is left out of /health.
type Deps struct {
	DB           *sql.DB
	Storage      storage.Storage
	Metrics      prometheus.Gatherer
	LoginLimiter *middleware.LimiterStore

	Auth      service.AuthService
	Users     service.UserService
	Projects  service.ProjectService
	TimeLogs  service.TimeLogService
	Leaves    service.LeaveService
	Policies  service.PolicyService
	Analytics service.AnalyticsService
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, d Deps) {
	app.Get("/health", HealthCheck(d.DB, d.Storage))
	app.Get("/healthz", Liveness())
	if d.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(d.Metrics, promhttp.HandlerOpts{})))
	}

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	login := []fiber.Handler{}
	if d.LoginLimiter != nil {
		login = append(login, middleware.RateLimit(d.LoginLimiter))
	}
	app.Post("/auth/login", append(login, Login(d.Auth))...)

	// Auth is attached per prefix so unknown paths still answer 404.
	authed := middleware.Auth(d.Auth)
	manager := middleware.RequireRole(model.RoleManager)
	admin := middleware.RequireRole(model.RoleAdmin)

	app.Get("/auth/me", authed, Me(d.Auth))

	app.Put("/users/me/password", authed, ChangePassword(d.Users))
	users := app.Group("/users", authed, admin)
	users.Get("/", ListUsers(d.Users))
	users.Post("/", CreateUser(d.Users))
	users.Get("/:id", GetUser(d.Users))
	users.Patch("/:id", UpdateUser(d.Users))
	users.Delete("/:id", DeleteUser(d.Users))
	users.Post("/:id/active", SetUserActive(d.Users))
	users.Put("/:id/password", ResetPassword(d.Users))

	projects := app.Group("/projects", authed)
	projects.Get("/", ListProjects(d.Projects))
	projects.Post("/", manager, CreateProject(d.Projects))
	projects.Get("/:id", GetProject(d.Projects))
	projects.Patch("/:id", manager, UpdateProject(d.Projects))
	projects.Delete("/:id", admin, DeleteProject(d.Projects))
	projects.Get("/:id/progress", ProjectProgress(d.Projects))

	timelogs := app.Group("/timelogs", authed)
	timelogs.Get("/export", ExportTimeLogs(d.TimeLogs, d.Projects, d.Users))
	timelogs.Get("/", ListTimeLogs(d.TimeLogs))
	timelogs.Post("/", CreateTimeLog(d.TimeLogs))
	timelogs.Get("/:id", GetTimeLog(d.TimeLogs))
	timelogs.Patch("/:id", UpdateTimeLog(d.TimeLogs))
	timelogs.Delete("/:id", DeleteTimeLog(d.TimeLogs))

	leaves := app.Group("/leaves", authed)
	leaves.Get("/balance", LeaveBalance(d.Leaves))
	leaves.Put("/allocations", admin, SetLeaveAllocation(d.Leaves))
	leaves.Get("/", ListLeaves(d.Leaves))
	leaves.Post("/", ApplyLeave(d.Leaves))
	leaves.Get("/:id", GetLeave(d.Leaves))
	leaves.Post("/:id/approve", manager, ApproveLeave(d.Leaves))
	leaves.Post("/:id/reject", manager, RejectLeave(d.Leaves))
	leaves.Post("/:id/cancel", CancelLeave(d.Leaves))

	policies := app.Group("/policies", authed)
	policies.Get("/", ListPolicies(d.Policies))
	policies.Post("/", admin, UploadPolicy(d.Policies))
	policies.Get("/:id", GetPolicy(d.Policies))
	policies.Get("/:id/download", PolicyDownload(d.Policies))
	policies.Get("/:id/file", PolicyFile(d.Policies))
	policies.Delete("/:id", admin, DeletePolicy(d.Policies))

	analytics := app.Group("/analytics", authed, manager)
	analytics.Get("/revenue", Revenue(d.Analytics))
	analytics.Get("/revenue/monthly", MonthlyRevenue(d.Analytics))
	analytics.Get("/revenue/export", ExportRevenue(d.Analytics))
	analytics.Get("/projects/:id/revenue", ProjectRevenue(d.Analytics))
	analytics.Get("/hours/work-types", HoursByWorkType(d.Analytics))
	analytics.Get("/hours/users", HoursByUser(d.Analytics))
	analytics.Get("/dashboard", Dashboard(d.Analytics))
}
