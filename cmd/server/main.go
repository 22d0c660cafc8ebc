// Package main is the quotes server and its admin commands.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/diewo77/go-quotes/auth"
	"github.com/diewo77/go-quotes/internal/config"
	"github.com/diewo77/go-quotes/internal/db"
	"github.com/diewo77/go-quotes/internal/policy"
	"github.com/diewo77/go-quotes/view"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load environment variables from .env file
	_ = godotenv.Load()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "quotes",
		Short:         "Curtain quoting web application",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML)")

	cmd.AddCommand(
		serveCmd(&configPath),
		migrateCmd(&configPath),
		seedCmd(&configPath),
		allowCmd(&configPath),
	)
	return cmd
}

// env is what every subcommand needs: configuration, a logger and the store.
type env struct {
	cfg *config.Config
	log *slog.Logger
	db  *gorm.DB
}

func setup(configPath string) (*env, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	conn, err := db.Connect(cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, log: logger, db: conn}, nil
}

func newLogger(c config.LogConfig) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(c.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// migrate applies the SQL migrations on postgres when MIGRATIONS is set and
// falls back to AutoMigrate otherwise.
func (e *env) migrate() error {
	if e.cfg.App.Migrations && e.cfg.Database.Driver == "postgres" {
		if err := db.MigrateSQL("migrations", e.cfg.Database.MigrationURL()); err != nil {
			return err
		}
		e.log.Info("sql migrations applied")
		return nil
	}
	if err := db.Migrate(e.db); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	e.log.Info("schema migrated")
	return nil
}

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(*configPath)
			if err != nil {
				return err
			}
			if err := e.migrate(); err != nil {
				return err
			}
			return serve(cmd.Context(), e)
		},
	}
}

func serve(ctx context.Context, e *env) error {
	view.SetDevMode(e.cfg.App.Dev)
	if e.cfg.App.SessionSecret == "" {
		e.log.Warn("SESSION_SECRET not set, using the development secret")
	}

	sessions := auth.NewManager(e.cfg.App.SessionSecret, e.cfg.App.SecureCookies)
	routerCfg := policy.NewRouterConfig(e.db, sessions, e.cfg.Catalog.CacheTTL, e.log)
	app := NewApp(e.db, routerCfg, e.log)

	srv := &http.Server{
		Addr:         ":" + e.cfg.Server.Port,
		Handler:      app,
		ReadTimeout:  time.Duration(e.cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(e.cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(e.cfg.Server.IdleTimeout) * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		e.log.Info("server starting", "port", e.cfg.Server.Port, "dev", e.cfg.App.Dev)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	e.log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	e.log.Info("server stopped gracefully")
	return nil
}

func migrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run DB migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(*configPath)
			if err != nil {
				return err
			}
			return e.migrate()
		},
	}
}

func seedCmd(configPath *string) *cobra.Command {
	var catalogPath string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load products and fabrics from a catalog YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(*configPath)
			if err != nil {
				return err
			}
			if err := e.migrate(); err != nil {
				return err
			}
			f, err := os.Open(catalogPath)
			if err != nil {
				return fmt.Errorf("open catalog: %w", err)
			}
			defer f.Close()

			stats, err := db.SeedCatalog(cmd.Context(), e.db, f)
			if err != nil {
				return err
			}
			e.log.Info("catalog seeded",
				"products", stats.Products, "fabrics", stats.Fabrics, "links", stats.Links)
			return nil
		},
	}
	cmd.Flags().StringVar(&catalogPath, "catalog", "config/catalog.example.yaml", "Catalog YAML file")
	return cmd
}

func allowCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "allow",
		Short: "Manage the emails allowed into the dashboard",
	}

	withList := func(run func(ctx context.Context, list *policy.DBAllowList, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			e, err := setup(*configPath)
			if err != nil {
				return err
			}
			return run(cmd.Context(), policy.NewDBAllowList(e.db), args)
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <email>",
			Short: "Allow an email",
			Args:  cobra.ExactArgs(1),
			RunE: withList(func(ctx context.Context, list *policy.DBAllowList, args []string) error {
				entry, err := list.Add(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Printf("allowed %s\n", entry.Email)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "remove <email>",
			Short: "Revoke an email",
			Args:  cobra.ExactArgs(1),
			RunE: withList(func(ctx context.Context, list *policy.DBAllowList, args []string) error {
				if err := list.Remove(ctx, args[0]); err != nil {
					return err
				}
				fmt.Printf("removed %s\n", args[0])
				return nil
			}),
		},
		&cobra.Command{
			Use:   "list",
			Short: "List allowed emails",
			RunE: withList(func(ctx context.Context, list *policy.DBAllowList, _ []string) error {
				entries, err := list.List(ctx)
				if err != nil {
					return err
				}
				for _, a := range entries {
					fmt.Printf("%s\t%s\n", a.Email, a.CreatedAt.Format(time.DateOnly))
				}
				return nil
			}),
		},
	)
	return cmd
}
