package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/franchisehub/backoffice/internal/seed"
	"github.com/franchisehub/backoffice/pkg/config"
	"github.com/franchisehub/backoffice/pkg/db"
	"github.com/franchisehub/backoffice/pkg/logger"
	"github.com/franchisehub/backoffice/pkg/migrate"
	"github.com/joho/godotenv"
)

var errNeedsDB = errors.New("command needs a database")

type options struct {
	cmd     string
	dir     string
	name    string
	version string
}

func main() {
	var opts options
	flag.StringVar(&opts.cmd, "cmd", "up", "up|down|status|version|create|validate|seed")
	flag.StringVar(&opts.dir, "dir", migrate.DefaultDir, "migration root holding postgres/ and sqlite/")
	flag.StringVar(&opts.name, "name", "", "migration name for -cmd=create")
	flag.StringVar(&opts.version, "version", "", "target YYYYMMDDHHMMSS for -cmd=version")
	flag.Parse()

	if err := offline(opts); !errors.Is(err, errNeedsDB) {
		exitOn(err)
		return
	}

	_ = godotenv.Load()
	cfg, err := config.Load()
	exitOn(err)

	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "cmd": opts.cmd})

	if err := online(ctx, cfg, logg, opts); err != nil {
		logg.Error(ctx, "migrate.failed", err)
		os.Exit(1)
	}
}

// offline handles the commands that only touch the filesystem.
func offline(opts options) error {
	switch opts.cmd {
	case "create":
		if opts.name == "" {
			return fmt.Errorf("-name is required for create")
		}
		paths, err := migrate.CreateSQLMigrations(opts.dir, opts.name, time.Now())
		if err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Println("created", p)
		}
		return nil
	case "validate":
		if err := migrate.ValidateDir(opts.dir); err != nil {
			return err
		}
		fmt.Println("migrations ok")
		return nil
	default:
		return errNeedsDB
	}
}

func online(ctx context.Context, cfg *config.Config, logg *logger.Logger, opts options) error {
	client, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer client.Close()

	if opts.cmd == "seed" {
		res, err := seed.Run(ctx, cfg, client, logg)
		if err != nil {
			return err
		}
		fmt.Printf("seeded %d roles, admin created: %t\n", res.RolesCreated, res.AdminCreated)
		return nil
	}

	sqlDB, err := client.SQL()
	if err != nil {
		return err
	}
	runner, err := migrate.NewRunner(sqlDB, client.Dialect(), opts.dir, os.Stdout)
	if err != nil {
		return err
	}

	if opts.cmd == "version" {
		if opts.version == "" {
			v, err := runner.Version(ctx)
			if err != nil {
				return err
			}
			fmt.Println("current version:", v)
			return nil
		}
		return runner.To(ctx, opts.version)
	}
	return runner.Run(ctx, opts.cmd)
}

func exitOn(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
}
