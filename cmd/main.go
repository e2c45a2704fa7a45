package main

import (
	"context"
	"time"

	"github.com/hellofresh/health-go/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/nexboard/nexboard/internal/api"
	"github.com/nexboard/nexboard/internal/auth"
	"github.com/nexboard/nexboard/internal/authz"
	"github.com/nexboard/nexboard/internal/config"
	"github.com/nexboard/nexboard/internal/db"
	"github.com/nexboard/nexboard/internal/realtime"
	"github.com/nexboard/nexboard/internal/repository"
	"github.com/nexboard/nexboard/internal/service"
	"github.com/nexboard/nexboard/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	logger, err := logger.NewLogger()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	logger.Info("starting application")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}
	auth.TokenSecretKey = cfg.TokenSecret

	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err = pool.Ping(context.Background()); err != nil {
		logger.Fatal("failed to ping database", zap.Error(err))
	}

	logger.Info("database connection established")

	transactor := db.NewPgxTransactor(pool)
	resolver := authz.NewResolver()

	userRepo := repository.NewPgxUserRepository(pool)
	projectRepo := repository.NewPgxProjectRepository(pool)
	taskRepo := repository.NewPgxTaskRepository(pool)
	messageRepo := repository.NewPgxMessageRepository(pool)
	linkRepo := repository.NewPgxLinkRepository(pool)
	invitationRepo := repository.NewPgxInvitationRepository(pool)

	users := service.NewUserService().WithUserRepo(userRepo)
	projects := service.NewProjectService(transactor, resolver).
		WithProjectRepo(projectRepo).
		WithUserRepo(userRepo).
		WithTaskRepo(taskRepo).
		WithMessageRepo(messageRepo).
		WithLinkRepo(linkRepo)
	invitations := service.NewInvitationService(transactor, resolver).
		WithInvitationRepo(invitationRepo).
		WithProjectRepo(projectRepo).
		WithUserRepo(userRepo)
	tasks := service.NewTaskService().WithTaskRepo(taskRepo).WithUserRepo(userRepo)
	messages := service.NewMessageService(resolver).
		WithMessageRepo(messageRepo).
		WithProjectRepo(projectRepo).
		WithUserRepo(userRepo)
	links := service.NewLinkService(resolver).
		WithLinkRepo(linkRepo).
		WithProjectRepo(projectRepo).
		WithUserRepo(userRepo)

	hub := realtime.NewHub()
	router := realtime.NewRouter(hub, logger).
		WithTaskService(tasks).
		WithMessageService(messages).
		WithLinkService(links)

	healthChecker := api.MustNewHealthChecker(health.Config{
		Name:    "postgres",
		Timeout: 5 * time.Second,
		Check: func(ctx context.Context) error {
			return pool.Ping(ctx)
		},
	})

	e := echo.New()

	handler := api.NewHandler(logger).
		WithHealthChecker(healthChecker).
		WithRealtimeHandler(router.Handler()).
		WithTokenTTL(cfg.TokenTTL).
		WithUserService(users).
		WithProjectService(projects).
		WithInvitationService(invitations).
		WithMessageService(messages).
		WithLinkService(links)

	handler.RegisterRoutes(e)

	logger.Info("server starting", zap.String("addr", cfg.HTTPAddr))
	if err = e.Start(cfg.HTTPAddr); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}
