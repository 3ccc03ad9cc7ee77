package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Ksohaib16/Test-Generator/internal/handler"
	"github.com/Ksohaib16/Test-Generator/internal/middleware"
	"github.com/Ksohaib16/Test-Generator/internal/repository"
	"github.com/Ksohaib16/Test-Generator/internal/service"
	"github.com/Ksohaib16/Test-Generator/pkg/cache"
	"github.com/Ksohaib16/Test-Generator/pkg/config"
	"github.com/Ksohaib16/Test-Generator/pkg/database"
	"github.com/Ksohaib16/Test-Generator/pkg/export"
	"github.com/Ksohaib16/Test-Generator/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

// application holds the wired services the router is built from.
type application struct {
	cfg         *config.Config
	logger      *zap.Logger
	metrics     *service.MetricsService
	auth        *service.AuthService
	questions   *service.QuestionService
	tests       *service.TestService
	papers      *service.RenderService
	assignments *service.AssignmentService
	approvals   *service.ApprovalService
	dashboard   *service.DashboardService
	audit       middleware.AuditWriter
	db          handler.Pinger
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if f := cmd.Flags().Lookup("port"); f != nil && f.Changed {
		cfg.Port, _ = cmd.Flags().GetInt("port")
	}
	if f := cmd.Flags().Lookup("env"); f != nil && f.Changed {
		cfg.Env, _ = cmd.Flags().GetString("env")
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logr, err := logger.New(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	if err := database.EnsureSchema(ctx, db); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, dashboard cache disabled", zap.Error(err))
		redisClient = nil
	}

	app := wire(cfg, logr, db, redisClient)
	defer app.closeCache(redisClient)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           newRouter(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runSeed(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logr, err := logger.New(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx := cmd.Context()
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	if err := database.EnsureSchema(ctx, db); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	questions := service.NewQuestionService(repository.NewQuestionRepository(db), nil, logr)
	inserted, err := questions.Seed(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "seeded %d sample questions\n", inserted)
	return nil
}

// wire builds every service on top of Postgres and the optional Redis client.
func wire(cfg *config.Config, logr *zap.Logger, db *sqlx.DB, redisClient *redis.Client) *application {
	validate := service.NewValidator()
	metrics := service.NewMetricsService()

	users := repository.NewUserRepository(db)
	links := repository.NewLinkRepository(db)

	cacheSvc := service.NewCacheService(
		repository.NewCacheRepository(redisClient, logr),
		metrics,
		cfg.Dashboard.CacheTTL,
		logr,
		cfg.Dashboard.CacheEnabled && redisClient != nil,
	)
	dashboard := service.NewDashboardService(repository.NewStatsRepository(db), cacheSvc, cfg.Dashboard.CacheTTL, logr)

	questions := service.NewQuestionService(repository.NewQuestionRepository(db), validate, logr)
	tests := service.NewTestService(repository.NewTestRepository(db), questions, dashboard, validate, logr)

	return &application{
		cfg:     cfg,
		logger:  logr,
		metrics: metrics,
		auth: service.NewAuthService(users, dashboard, validate, logr, service.AuthConfig{
			SessionSecret: cfg.Session.Secret,
			SessionTTL:    cfg.Session.TTL,
			BcryptCost:    cfg.Session.BcryptCost,
		}),
		questions: questions,
		tests:     tests,
		papers:    service.NewRenderService(tests, users, export.NewTestPaperRenderer(), metrics, cfg.PDF.DefaultInstitution, logr),
		assignments: service.NewAssignmentService(service.AssignmentServiceParams{
			Repo:      repository.NewAssignmentRepository(db),
			Tests:     tests,
			Roster:    links,
			CSV:       export.NewCSVExporter(),
			Dashboard: dashboard,
			Metrics:   metrics,
			Validator: validate,
			Logger:    logr,
		}),
		approvals: service.NewApprovalService(links, users, dashboard, metrics, validate, logr),
		dashboard: dashboard,
		audit:     users,
		db:        db,
	}
}

func (a *application) closeCache(client *redis.Client) {
	if client == nil {
		return
	}
	if err := client.Close(); err != nil {
		a.logger.Warn("closing redis", zap.Error(err))
	}
}

func setGinMode(cfg *config.Config) {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}
}
