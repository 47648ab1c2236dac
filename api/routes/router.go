package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/franchisehub/backoffice/api/controllers"
	assignmentcontrollers "github.com/franchisehub/backoffice/api/controllers/assignments"
	authcontrollers "github.com/franchisehub/backoffice/api/controllers/auth"
	franchisecontrollers "github.com/franchisehub/backoffice/api/controllers/franchises"
	usercontrollers "github.com/franchisehub/backoffice/api/controllers/users"
	"github.com/franchisehub/backoffice/api/middleware"
	"github.com/franchisehub/backoffice/internal/auth"
	pkgAuth "github.com/franchisehub/backoffice/pkg/auth"
	"github.com/franchisehub/backoffice/pkg/config"
	"github.com/franchisehub/backoffice/pkg/logger"
	"github.com/franchisehub/backoffice/pkg/metrics"
	"github.com/franchisehub/backoffice/pkg/ratelimit"
	pkgredis "github.com/franchisehub/backoffice/pkg/redis"
)

// Dependencies carries everything the router wires into handlers. Redis
// and the metrics fields are optional; without Redis, login attempts are
// limited in-process and idempotency keys are not enforced.
type Dependencies struct {
	Config         *config.Config
	Logger         *logger.Logger
	DB             controllers.Pinger
	Redis          *pkgredis.Client
	Gatherer       prometheus.Gatherer
	HTTPMetrics    *metrics.HTTPMetrics
	SessionMetrics *metrics.SessionMetrics
	Versions       middleware.VersionChecker
	Auth           auth.Service
	Assignments    assignmentcontrollers.Service
	Franchises     franchisecontrollers.Service
	Users          usercontrollers.Service
	Roles          controllers.RoleLister
}

func NewRouter(d Dependencies) http.Handler {
	cfg, logg := d.Config, d.Logger

	var (
		limiter pkgredis.RateLimiter
		idem    pkgredis.IdempotencyStore
		cache   controllers.Pinger
	)
	if d.Redis != nil {
		limiter, idem, cache = d.Redis, d.Redis, d.Redis
	} else {
		limiter = ratelimit.NewLocal(ratelimit.DefaultMaxScopes, cfg.AuthRateLimit.LoginWindow)
	}

	gates := middleware.NewGates(logg, d.SessionMetrics)
	cookies := authcontrollers.NewCookies(cfg.App, cfg.JWT)
	authenticate := middleware.Authenticate(cfg.JWT, d.Versions, logg)
	idempotent := middleware.Idempotency(idem, logg)
	system := gates.RequireMoreContext(pkgAuth.SystemRules)
	systemAndFranchise := gates.RequireMoreContext(pkgAuth.SystemAndFranchiseRules)

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
		middleware.Logging(logg),
		middleware.Metrics(d.HTTPMetrics),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, d.DB, cache))
	})
	if d.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/auth", func(r chi.Router) {
		r.With(middleware.LoginRateLimit(middleware.LoginPolicyFromConfig(cfg.AuthRateLimit), limiter, logg)).
			Post("/login", authcontrollers.Login(d.Auth, cookies, logg))
		r.Get("/refresh-token", authcontrollers.Refresh(d.Auth, cookies, logg))

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Get("/", authcontrollers.Me(d.Auth, logg))
			r.Post("/logout", authcontrollers.Logout(d.Auth, cookies, logg))
			r.Post("/switch-context", authcontrollers.SwitchContext(d.Auth, cookies, logg))
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(authenticate)

		r.Route("/assignments", func(r chi.Router) {
			r.With(system, idempotent).Post("/", assignmentcontrollers.Create(d.Assignments, logg))
			r.With(systemAndFranchise).Post("/search", assignmentcontrollers.Search(d.Assignments, logg))
			r.With(systemAndFranchise).Get("/user/{userId}", assignmentcontrollers.ListByUser(d.Assignments, logg))
			r.With(systemAndFranchise).Get("/{id}", assignmentcontrollers.Get(d.Assignments, logg))
			r.With(system).Put("/{id}", assignmentcontrollers.Update(d.Assignments, logg))
			r.With(system).Delete("/{id}", assignmentcontrollers.Delete(d.Assignments, logg))
			r.With(system).Patch("/{id}/restore", assignmentcontrollers.Restore(d.Assignments, logg))
		})

		r.Route("/franchises", func(r chi.Router) {
			r.With(gates.RequireGlobalRole(), idempotent).Post("/", franchisecontrollers.Create(d.Franchises, logg))
			r.With(gates.RequireGlobalRole()).Post("/search", franchisecontrollers.Search(d.Franchises, logg))
			r.With(gates.RequireGlobalRole()).Get("/select", franchisecontrollers.Select(d.Franchises, logg))

			r.Group(func(r chi.Router) {
				r.Use(systemAndFranchise, gates.RequireFranchiseAccess("id"))
				r.Get("/{id}", franchisecontrollers.Get(d.Franchises, logg))
				r.Get("/{id}/assignments", assignmentcontrollers.ListByFranchise(d.Assignments, logg))
			})

			r.Group(func(r chi.Router) {
				r.Use(gates.RequireGlobalRole())
				r.Put("/{id}", franchisecontrollers.Update(d.Franchises, logg))
				r.Patch("/{id}/status", franchisecontrollers.ChangeStatus(d.Franchises, logg))
				r.Delete("/{id}", franchisecontrollers.Delete(d.Franchises, logg))
				r.Patch("/{id}/restore", franchisecontrollers.Restore(d.Franchises, logg))
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.With(gates.RequireGlobalRole()).Post("/", usercontrollers.Create(d.Users, logg))
			r.With(systemAndFranchise).Post("/search", usercontrollers.Search(d.Users, logg))
			r.Get("/{id}", usercontrollers.Get(d.Users, logg))
			r.With(systemAndFranchise).Put("/{id}/change-status", usercontrollers.ChangeStatus(d.Users, logg))
		})

		r.With(gates.RequireGlobalRole()).Get("/roles", controllers.ListRoles(d.Roles, logg))
	})

	return r
}
