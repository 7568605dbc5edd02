package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dropDatabas3/littlejohn/internal/app"
	"github.com/dropDatabas3/littlejohn/internal/bootstrap"
	"github.com/dropDatabas3/littlejohn/internal/config"
	httpx "github.com/dropDatabas3/littlejohn/internal/http"
	"github.com/dropDatabas3/littlejohn/internal/http/handlers"
	"github.com/dropDatabas3/littlejohn/internal/oauth"
	"github.com/dropDatabas3/littlejohn/internal/observability/logger"
	"github.com/dropDatabas3/littlejohn/internal/rate"
	migrations "github.com/dropDatabas3/littlejohn/migrations/postgres"
	rdb "github.com/redis/go-redis/v9"
)

func main() {
	// .env es opcional: en contenedores todo llega por ENV directo.
	_ = godotenv.Load()

	var cfgPath string

	root := &cobra.Command{
		Use:           "littlejohn",
		Short:         "Servidor de autorización OAuth 2.0",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "ruta al config.yaml")

	root.AddCommand(newServeCmd(&cfgPath), newSeedCmd(&cfgPath), newMigrateCmd(&cfgPath))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newServeCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Levanta el servidor HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			initLogger(cfg)
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store, err := bootstrap.BuildStore(ctx, cfg)
			if err != nil {
				return fmt.Errorf("store: %w", err)
			}
			defer store.Close()

			// Con driver memory el registro vive solo en config: se carga
			// siempre al arrancar. Con postgres el seeding es explícito.
			if cfg.Storage.Driver == "memory" {
				if err := bootstrap.Seed(ctx, store, cfg); err != nil {
					return err
				}
			}

			c := &app.Container{
				Store: store,
				OAuth: oauth.NewService(store, oauth.Config{
					CodeTTL:        cfg.CodeTTL(),
					AccessTokenTTL: cfg.AccessTTL(),
				}),
				Auth: oauth.NewAuthenticator(store),
			}

			metricsHandler, err := httpx.RegisterMetrics(prometheus.DefaultRegisterer)
			if err != nil {
				return fmt.Errorf("metrics: %w", err)
			}

			router := httpx.NewRouter(
				handlers.NewAuthorizeHandler(c),
				handlers.NewApproveHandler(c),
				handlers.NewTokenHandler(c),
				handlers.NewIntrospectHandler(c),
				handlers.NewReadyzHandler(c),
				metricsHandler,
				buildLimiter(cfg),
			)

			logger.L().Info("littlejohn up",
				zap.String("addr", cfg.Server.Addr),
				zap.String("storage", cfg.Storage.Driver),
				zap.Bool("rate_limit", cfg.Rate.Enabled),
			)
			return httpx.Start(ctx, cfg.Server.Addr, router)
		},
	}
}

func newSeedCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Carga los clients y usuarios del config en el storage",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			initLogger(cfg)
			defer logger.Sync()

			ctx := cmd.Context()
			store, err := bootstrap.BuildStore(ctx, cfg)
			if err != nil {
				return fmt.Errorf("store: %w", err)
			}
			defer store.Close()

			return bootstrap.Seed(ctx, store, cfg)
		},
	}
}

func newMigrateCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Aplica las migraciones embebidas de Postgres en orden",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			initLogger(cfg)
			defer logger.Sync()

			if cfg.Storage.Driver != "postgres" {
				return fmt.Errorf("migrate: requiere storage.driver=postgres (actual %q)", cfg.Storage.Driver)
			}

			ctx := cmd.Context()
			pool, err := pgxpool.New(ctx, cfg.Storage.DSN)
			if err != nil {
				return fmt.Errorf("pgxpool: %w", err)
			}
			defer pool.Close()

			names, err := fs.Glob(migrations.FS, "*.sql")
			if err != nil {
				return err
			}
			sort.Strings(names)
			for _, name := range names {
				b, err := migrations.FS.ReadFile(name)
				if err != nil {
					return err
				}
				if _, err := pool.Exec(ctx, string(b)); err != nil {
					return fmt.Errorf("migrate %s: %w", name, err)
				}
				logger.L().Info("migration applied", zap.String("file", name))
			}
			return nil
		},
	}
}

func initLogger(cfg *config.Config) {
	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       os.Getenv("LOG_LEVEL"),
		ServiceName: "littlejohn",
	})
}

func buildLimiter(cfg *config.Config) rate.Limiter {
	if !cfg.Rate.Enabled {
		return nil
	}
	if cfg.Rate.Backend == "redis" {
		client := rdb.NewClient(&rdb.Options{
			Addr: cfg.Rate.Redis.Addr,
			DB:   cfg.Rate.Redis.DB,
		})
		return rate.NewRedisLimiter(client, cfg.Rate.Redis.Prefix, cfg.Rate.MaxRequests, cfg.RateWindow())
	}
	return rate.NewMemoryLimiter(cfg.Rate.MaxRequests, cfg.RateWindow())
}
