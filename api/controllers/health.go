package controllers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/franchisehub/backoffice/api/responses"
	"github.com/franchisehub/backoffice/pkg/config"
	pkgerrors "github.com/franchisehub/backoffice/pkg/errors"
	"github.com/franchisehub/backoffice/pkg/logger"
)

const readinessTimeout = 2 * time.Second

// Pinger is satisfied by the database and redis clients.
type Pinger interface {
	Ping(context.Context) error
}

// HealthLive reports that the process is serving.
func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Backoffice-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the database and, when configured, redis. Both checks
// run concurrently and every failure is reported.
func HealthReady(cfg *config.Config, logg *logger.Logger, database Pinger, cache Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Backoffice-Env", cfg.App.Env)

		if database == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "database not configured"))
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		var dbErr, cacheErr error
		var g errgroup.Group
		g.Go(func() error {
			dbErr = database.Ping(ctx)
			return nil
		})
		if cache != nil {
			g.Go(func() error {
				cacheErr = cache.Ping(ctx)
				return nil
			})
		}
		_ = g.Wait()

		checks := map[string]string{
			"database": checkStatus(dbErr, true),
			"redis":    checkStatus(cacheErr, cache != nil),
		}
		if err := multierr.Combine(dbErr, cacheErr); err != nil {
			appErr := pkgerrors.Wrap(pkgerrors.CodeDependency, err, "dependency unavailable").WithDetails(checks)
			responses.WriteError(r.Context(), logg, w, appErr)
			return
		}

		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}

func checkStatus(err error, enabled bool) string {
	switch {
	case !enabled:
		return "disabled"
	case err != nil:
		return "down"
	default:
		return "ok"
	}
}
