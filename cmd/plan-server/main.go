package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/clinicops/planengine/internal/config"
	"github.com/clinicops/planengine/internal/domain/adherence"
	"github.com/clinicops/planengine/internal/domain/catalog"
	"github.com/clinicops/planengine/internal/domain/cycle"
	"github.com/clinicops/planengine/internal/domain/plan"
	"github.com/clinicops/planengine/internal/domain/task"
	"github.com/clinicops/planengine/internal/platform/cache"
	"github.com/clinicops/planengine/internal/platform/db"
	"github.com/clinicops/planengine/internal/platform/jobs"
	"github.com/clinicops/planengine/internal/platform/middleware"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "plan-server",
		Short: "Treatment plan scheduling and adherence engine",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(generateTasksCmd())
	rootCmd.AddCommand(reconcileCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return logger
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the plan engine API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func parseDateFlag(cmd *cobra.Command) (time.Time, error) {
	d, _ := cmd.Flags().GetString("date")
	if d == "" {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Parse("2006-01-02", d)
}

func generateTasksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate-tasks",
		Short: "Materialize daily tasks for a date",
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := parseDateFlag(cmd)
			if err != nil {
				return fmt.Errorf("invalid --date, expected YYYY-MM-DD: %w", err)
			}

			logger := newLogger()
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			runner := db.NewRunner(pool)
			taskSvc := task.NewService(task.NewRepoPG(pool), cycle.NewRepoPG(pool), plan.NewRepoPG(pool), runner, logger)
			created, err := taskSvc.GenerateForDate(ctx, date)
			if err != nil {
				return err
			}
			fmt.Printf("Created %d task(s) for %s.\n", created, date.Format("2006-01-02"))
			return nil
		},
	}
	cmd.Flags().String("date", "", "Target date (YYYY-MM-DD, defaults to today)")
	return cmd
}

func reconcileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Complete expired in-progress cycles",
		RunE: func(cmd *cobra.Command, args []string) error {
			asOf, err := parseDateFlag(cmd)
			if err != nil {
				return fmt.Errorf("invalid --date, expected YYYY-MM-DD: %w", err)
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			cycleSvc := cycle.NewService(cycle.NewRepoPG(pool), db.NewRunner(pool))
			updated, err := cycleSvc.ReconcileExpired(ctx, asOf)
			if err != nil {
				return err
			}
			fmt.Printf("Completed %d expired cycle(s) as of %s.\n", updated, asOf.Format("2006-01-02"))
			return nil
		},
	}
	cmd.Flags().String("date", "", "As-of date (YYYY-MM-DD, defaults to today)")
	return cmd
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Optional redis-backed adherence cache
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("invalid REDIS_URL")
		}
		redisClient = redis.NewClient(opts)
		defer redisClient.Close()
		logger.Info().Msg("adherence cache enabled")
	}
	adherenceCache := cache.New(redisClient, cfg.CacheTTL())

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Content-Type", "X-Request-ID"},
	}))

	apiV1 := e.Group("/api/v1")

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))

	// Health
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	// -- Services --

	runner := db.NewRunner(pool)

	catalogRepo := catalog.NewRepoPG(pool)
	catalogSvc := catalog.NewService(catalogRepo)
	catalog.NewHandler(catalogSvc).RegisterRoutes(apiV1)

	cycleRepo := cycle.NewRepoPG(pool)
	cycleSvc := cycle.NewService(cycleRepo, runner)
	cycle.NewHandler(cycleSvc).RegisterRoutes(apiV1)

	planRepo := plan.NewRepoPG(pool)
	planSvc := plan.NewService(planRepo, cycleRepo, catalogRepo, runner)
	plan.NewHandler(planSvc).RegisterRoutes(apiV1)

	taskRepo := task.NewRepoPG(pool)
	taskSvc := task.NewService(taskRepo, cycleRepo, planRepo, runner, logger)
	task.NewHandler(taskSvc).RegisterRoutes(apiV1)

	adherenceSvc := adherence.NewService(adherence.NewRepoPG(pool), adherenceCache)
	adherence.NewHandler(adherenceSvc).RegisterRoutes(apiV1)

	// In-process batch scheduler. External cron can call the batch endpoints
	// instead; disable with SCHEDULER_ENABLED=false to avoid double runs.
	if cfg.SchedulerEnabled {
		cronRunner := jobs.NewRunner(logger)
		if err := cronRunner.Add(cfg.GenerateCron, "generate_tasks", func(ctx context.Context) error {
			now := time.Now()
			today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
			created, err := taskSvc.GenerateForDate(ctx, today)
			if err != nil {
				return err
			}
			logger.Info().Int("created", created).Msg("daily task generation done")
			return nil
		}); err != nil {
			logger.Fatal().Err(err).Msg("invalid GENERATE_CRON")
		}
		if err := cronRunner.Add(cfg.ReconcileCron, "reconcile_cycles", func(ctx context.Context) error {
			updated, err := cycleSvc.ReconcileExpired(ctx, time.Now())
			if err != nil {
				return err
			}
			logger.Info().Int("updated", updated).Msg("cycle reconciliation done")
			return nil
		}); err != nil {
			logger.Fatal().Err(err).Msg("invalid RECONCILE_CRON")
		}
		cronRunner.Start()
		defer cronRunner.Stop()
		logger.Info().
			Str("generate", cfg.GenerateCron).
			Str("reconcile", cfg.ReconcileCron).
			Msg("batch scheduler started")
	}

	// Start server with graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
