package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/franchisehub/backoffice/pkg/config"
	"github.com/franchisehub/backoffice/pkg/logger"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/gorm/utils"
)

// queryLogger routes GORM traces into the request-scoped logger. Failed
// statements log at error, slow ones at warn and, with LogQueries, every
// statement at debug.
type queryLogger struct {
	logg  *logger.Logger
	slow  time.Duration
	level gormlogger.LogLevel
}

var (
	_ gormlogger.Interface = (*queryLogger)(nil)
	_ gorm.ParamsFilter    = (*queryLogger)(nil)
)

func newQueryLogger(logg *logger.Logger, cfg config.DBConfig) gormlogger.Interface {
	if logg == nil {
		return gormlogger.Discard
	}
	level := gormlogger.Warn
	if cfg.LogQueries {
		level = gormlogger.Info
	}
	return &queryLogger{logg: logg, slow: cfg.SlowQuery, level: level}
}

func (q *queryLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	cp := *q
	cp.level = level
	return &cp
}

func (q *queryLogger) Info(ctx context.Context, msg string, args ...any) {
	if q.level >= gormlogger.Info {
		q.logg.Info(ctx, fmt.Sprintf(msg, args...))
	}
}

func (q *queryLogger) Warn(ctx context.Context, msg string, args ...any) {
	if q.level >= gormlogger.Warn {
		q.logg.Warn(ctx, fmt.Sprintf(msg, args...))
	}
}

func (q *queryLogger) Error(ctx context.Context, msg string, args ...any) {
	if q.level >= gormlogger.Error {
		q.logg.Error(ctx, "db.error", errors.New(fmt.Sprintf(msg, args...)))
	}
}

func (q *queryLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if q.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && q.level >= gormlogger.Error:
		q.logg.Error(q.statement(ctx, fc, elapsed), "db.query_failed", err)
	case q.slow > 0 && elapsed > q.slow && q.level >= gormlogger.Warn:
		q.logg.Warn(q.statement(ctx, fc, elapsed), "db.query_slow")
	case q.level >= gormlogger.Info:
		q.logg.Debug(q.statement(ctx, fc, elapsed), "db.query")
	}
}

// ParamsFilter drops bound values so hashes and emails never reach the logs.
func (q *queryLogger) ParamsFilter(_ context.Context, sql string, _ ...any) (string, []any) {
	return sql, nil
}

func (q *queryLogger) statement(ctx context.Context, fc func() (string, int64), elapsed time.Duration) context.Context {
	sql, rows := fc()
	fields := map[string]any{
		"sql":        sql,
		"elapsed_ms": float64(elapsed.Microseconds()) / 1000,
		"caller":     utils.FileWithLineNum(),
	}
	if rows >= 0 {
		fields["rows"] = rows
	}
	return q.logg.WithFields(ctx, fields)
}
