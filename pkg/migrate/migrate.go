// Package migrate applies the goose migrations kept per SQL dialect.
// Every command goes through a goose.Provider, so nothing here touches the
// package level goose state.
package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/franchisehub/backoffice/pkg/db"
	"github.com/pressly/goose/v3"
)

// DefaultDir is the root holding one migration folder per dialect.
const DefaultDir = "pkg/migrate/migrations"

var (
	errNoDB   = errors.New("db is required")
	errNoDir  = errors.New("dir is required")
	dialects  = []string{db.DialectPostgres, db.DialectSQLite}
	folderFor = map[string]string{db.DialectPostgres: "postgres", db.DialectSQLite: "sqlite"}
)

// DialectDir maps a database dialect to its migration folder under root.
// Unknown dialects fall back to Postgres.
func DialectDir(root, dialect string) string {
	folder, ok := folderFor[dialect]
	if !ok {
		folder = folderFor[db.DialectPostgres]
	}
	return path.Join(root, folder)
}

func gooseDialect(dialect string) goose.Dialect {
	if dialect == db.DialectSQLite {
		return goose.DialectSQLite3
	}
	return goose.DialectPostgres
}

func newProvider(sqlDB *sql.DB, dialect string, fsys fs.FS) (*goose.Provider, error) {
	if sqlDB == nil {
		return nil, errNoDB
	}
	provider, err := goose.NewProvider(gooseDialect(dialect), sqlDB, fsys)
	if err != nil {
		return nil, fmt.Errorf("goose provider: %w", err)
	}
	return provider, nil
}

// Runner executes the operator commands of cmd/migrate against the
// migration files on disk.
type Runner struct {
	provider *goose.Provider
	out      io.Writer
}

// NewRunner reads migrations from the dialect folder under dir. Progress is
// written to out, or discarded when out is nil.
func NewRunner(sqlDB *sql.DB, dialect, dir string, out io.Writer) (*Runner, error) {
	if dir == "" {
		return nil, errNoDir
	}
	provider, err := newProvider(sqlDB, dialect, os.DirFS(DialectDir(dir, dialect)))
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = io.Discard
	}
	return &Runner{provider: provider, out: out}, nil
}

// Run dispatches up, down and status.
func (r *Runner) Run(ctx context.Context, command string) error {
	switch command {
	case "up":
		return r.Up(ctx)
	case "down":
		return r.Down(ctx)
	case "status":
		return r.Status(ctx)
	default:
		return fmt.Errorf("unsupported command %q", command)
	}
}

// Up applies every pending migration.
func (r *Runner) Up(ctx context.Context) error {
	results, err := r.provider.Up(ctx)
	r.report(results...)
	if err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	if len(results) == 0 {
		fmt.Fprintln(r.out, "no pending migrations")
	}
	return nil
}

// Down rolls back the most recent migration.
func (r *Runner) Down(ctx context.Context) error {
	result, err := r.provider.Down(ctx)
	if result != nil {
		r.report(result)
	}
	if err != nil {
		return fmt.Errorf("goose down: %w", err)
	}
	return nil
}

// Status prints one line per known migration.
func (r *Runner) Status(ctx context.Context) error {
	statuses, err := r.provider.Status(ctx)
	if err != nil {
		return fmt.Errorf("goose status: %w", err)
	}
	tw := tabwriter.NewWriter(r.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "APPLIED AT\tMIGRATION")
	for _, st := range statuses {
		applied := "pending"
		if st.State == goose.StateApplied {
			applied = st.AppliedAt.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%s\t%s\n", applied, path.Base(st.Source.Path))
	}
	return tw.Flush()
}

// Version returns the current schema version.
func (r *Runner) Version(ctx context.Context) (int64, error) {
	v, err := r.provider.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("goose version: %w", err)
	}
	return v, nil
}

// To moves the schema up or down until target (YYYYMMDDHHMMSS) is the
// current version.
func (r *Runner) To(ctx context.Context, target string) error {
	version, err := strconv.ParseInt(target, 10, 64)
	if err != nil || version < 0 {
		return fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS)", target)
	}
	current, err := r.Version(ctx)
	if err != nil {
		return err
	}

	var results []*goose.MigrationResult
	switch {
	case current == version:
		fmt.Fprintf(r.out, "already at version %d\n", version)
		return nil
	case current < version:
		results, err = r.provider.UpTo(ctx, version)
	default:
		results, err = r.provider.DownTo(ctx, version)
	}
	r.report(results...)
	if err != nil {
		return fmt.Errorf("goose migrate to %d: %w", version, err)
	}
	return nil
}

func (r *Runner) report(results ...*goose.MigrationResult) {
	for _, res := range results {
		if res == nil || res.Source == nil {
			continue
		}
		fmt.Fprintf(r.out, "%-4s %s (%s)\n", res.Direction, path.Base(res.Source.Path), res.Duration.Round(time.Millisecond))
	}
}
