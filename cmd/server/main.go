package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"Pressroom/internal/api/middleware"
	"Pressroom/internal/config"
	"Pressroom/internal/db/postgres"
	"Pressroom/internal/logging"
)

const version = "0.1.0"

type cfgKey struct{}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		log.Error().Err(err).Msg("pressroom exited with error")
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "pressroom",
		Usage:   "Posts service: published and draft posts with comments, likes and images",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "database-url",
				Usage: "Postgres connection string (overrides DATABASE_URL)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error (overrides LOG_LEVEL)",
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			cfg, err := config.Load()
			if err != nil {
				return ctx, err
			}
			if c.IsSet("database-url") {
				cfg.DatabaseURL = c.String("database-url")
			}
			if c.IsSet("log-level") {
				cfg.LogLevel = c.String("log-level")
			}
			if _, err := logging.Setup(cfg.LogLevel, cfg.LogFormat); err != nil {
				return ctx, err
			}
			return context.WithValue(ctx, cfgKey{}, cfg), nil
		},
		Commands: []*cli.Command{
			serveCmd(),
			migrateCmd(),
			tokenCmd(),
		},
	}
}

func configFrom(ctx context.Context) *config.Config {
	cfg, _ := ctx.Value(cfgKey{}).(*config.Config)
	return cfg
}

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "port",
				Usage: "Listen port (overrides PORT)",
			},
			&cli.BoolFlag{
				Name:  "migrate",
				Usage: "Apply pending migrations before serving",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg := configFrom(ctx)
			if c.IsSet("port") {
				cfg.Port = c.String("port")
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return serve(ctx, cfg, c.Bool("migrate"))
		},
	}
}

func migrateCmd() *cli.Command {
	direction := func(name, usage string) *cli.Command {
		return &cli.Command{
			Name:  name,
			Usage: usage,
			Action: func(ctx context.Context, c *cli.Command) error {
				cfg := configFrom(ctx)
				if cfg.DatabaseURL == "" {
					return fmt.Errorf("DATABASE_URL is required")
				}
				sqlDB, _, err := postgres.Open(ctx, cfg.DatabaseURL)
				if err != nil {
					return err
				}
				defer sqlDB.Close()

				if err := postgres.Migrate(sqlDB, name); err != nil {
					return err
				}
				log.Info().Str("direction", name).Msg("migrations completed")
				return nil
			},
		}
	}

	return &cli.Command{
		Name:  "migrate",
		Usage: "Manage the database schema",
		Commands: []*cli.Command{
			direction(postgres.MigrateUp, "Apply all pending migrations"),
			direction(postgres.MigrateDown, "Roll back the latest migration"),
			direction(postgres.MigrateStatus, "Print the migration status"),
		},
	}
}

func tokenCmd() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "Print a bearer token for a user, signed with JWT_SECRET",
		Flags: []cli.Flag{
			&cli.Int64Flag{
				Name:     "user",
				Usage:    "User id to put in the token subject",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "admin",
				Usage: "Mark the token as an administrator",
			},
			&cli.DurationFlag{
				Name:  "ttl",
				Usage: "Token lifetime",
				Value: 24 * time.Hour,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg := configFrom(ctx)
			if cfg.JWTSecret == "" {
				return fmt.Errorf("JWT_SECRET is required to sign tokens")
			}
			if c.Int64("user") <= 0 {
				return fmt.Errorf("--user must be a positive id")
			}
			token, err := middleware.IssueToken(cfg.JWTSecret, c.Int64("user"), c.Bool("admin"), c.Duration("ttl"))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(c.Root().Writer, token)
			return err
		},
	}
}
