package api

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/franchisehub/backoffice/api/routes"
	"github.com/franchisehub/backoffice/internal/assignments"
	"github.com/franchisehub/backoffice/internal/audit"
	"github.com/franchisehub/backoffice/internal/auth"
	"github.com/franchisehub/backoffice/internal/franchises"
	"github.com/franchisehub/backoffice/internal/roles"
	"github.com/franchisehub/backoffice/internal/usercontext"
	"github.com/franchisehub/backoffice/internal/users"
	"github.com/franchisehub/backoffice/pkg/auth/session"
	"github.com/franchisehub/backoffice/pkg/config"
	"github.com/franchisehub/backoffice/pkg/db"
	"github.com/franchisehub/backoffice/pkg/logger"
	"github.com/franchisehub/backoffice/pkg/metrics"
	pkgredis "github.com/franchisehub/backoffice/pkg/redis"
	"github.com/franchisehub/backoffice/pkg/security"
)

// HandlerParams lists the process-level resources the API is built on.
// Redis and Registry may be nil.
type HandlerParams struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       *db.Client
	Redis    *pkgredis.Client
	Registry *prometheus.Registry
}

// NewHandler builds every repository and service and returns the routed
// HTTP handler that cmd/api serves.
func NewHandler(p HandlerParams) (http.Handler, error) {
	if p.Config == nil || p.DB == nil {
		return nil, fmt.Errorf("config and database are required")
	}
	cfg, logg, gdb := p.Config, p.Logger, p.DB.DB()

	var (
		httpMetrics    *metrics.HTTPMetrics
		sessionMetrics *metrics.SessionMetrics
		gatherer       prometheus.Gatherer
	)
	if p.Registry != nil {
		httpMetrics = metrics.NewHTTPMetrics(p.Registry)
		sessionMetrics = metrics.NewSessionMetrics(p.Registry)
		gatherer = p.Registry
	}

	usersRepo := users.NewRepository(gdb)
	auditLogger := audit.NewLogger(gdb, logg)

	roleSvc, err := roles.NewService(roles.NewRepository(gdb), logg)
	if err != nil {
		return nil, fmt.Errorf("role service: %w", err)
	}
	franchiseSvc, err := franchises.NewService(franchises.NewRepository(gdb), auditLogger)
	if err != nil {
		return nil, fmt.Errorf("franchise service: %w", err)
	}
	assignmentSvc, err := assignments.NewService(assignments.ServiceParams{
		Repo:       assignments.NewRepository(gdb),
		Users:      usersRepo,
		Roles:      roleSvc,
		Franchises: franchiseSvc,
		Audit:      auditLogger,
		Logger:     logg,
	})
	if err != nil {
		return nil, fmt.Errorf("assignment service: %w", err)
	}
	passwords := security.NewHasher(cfg.Password)
	userSvc, err := users.NewService(users.ServiceParams{
		Repo:      usersRepo,
		Passwords: passwords,
		Audit:     auditLogger,
		Logger:    logg,
	})
	if err != nil {
		return nil, fmt.Errorf("user service: %w", err)
	}
	resolver, err := usercontext.NewResolver(assignmentSvc, roleSvc, franchiseSvc, logg)
	if err != nil {
		return nil, fmt.Errorf("context resolver: %w", err)
	}
	manager, err := session.NewManager(cfg.JWT, usersRepo, sessionMetrics)
	if err != nil {
		return nil, fmt.Errorf("session manager: %w", err)
	}
	authSvc, err := auth.NewService(auth.ServiceParams{
		UserRepo:       usersRepo,
		Contexts:       resolver,
		SessionManager: manager,
		Passwords:      passwords,
		Metrics:        sessionMetrics,
		Logger:         logg,
	})
	if err != nil {
		return nil, fmt.Errorf("auth service: %w", err)
	}

	return routes.NewRouter(routes.Dependencies{
		Config:         cfg,
		Logger:         logg,
		DB:             p.DB,
		Redis:          p.Redis,
		Gatherer:       gatherer,
		HTTPMetrics:    httpMetrics,
		SessionMetrics: sessionMetrics,
		Versions:       usersRepo,
		Auth:           authSvc,
		Assignments:    assignmentSvc,
		Franchises:     franchiseSvc,
		Users:          userSvc,
		Roles:          roleSvc,
	}), nil
}
