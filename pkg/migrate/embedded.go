package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
)

//go:embed migrations
var embedded embed.FS

// Embedded returns the compiled-in migration root, one folder per dialect.
func Embedded() fs.FS {
	sub, err := fs.Sub(embedded, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// UpEmbedded applies the compiled-in migrations for dialect and returns how
// many ran.
func UpEmbedded(ctx context.Context, sqlDB *sql.DB, dialect string) (int, error) {
	fsys, err := fs.Sub(Embedded(), DialectDir(".", dialect))
	if err != nil {
		return 0, fmt.Errorf("open embedded migrations: %w", err)
	}
	provider, err := newProvider(sqlDB, dialect, fsys)
	if err != nil {
		return 0, err
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return 0, fmt.Errorf("goose up: %w", err)
	}
	return len(results), nil
}
