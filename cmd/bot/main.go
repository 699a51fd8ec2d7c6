package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/staffrep-bot/internal/api/http"
	"github.com/spec-kit/staffrep-bot/internal/api/http/handlers"
	"github.com/spec-kit/staffrep-bot/internal/auth"
	"github.com/spec-kit/staffrep-bot/internal/config"
	"github.com/spec-kit/staffrep-bot/internal/discord"
	"github.com/spec-kit/staffrep-bot/internal/domain"
	"github.com/spec-kit/staffrep-bot/internal/events"
	"github.com/spec-kit/staffrep-bot/internal/observability"
	"github.com/spec-kit/staffrep-bot/internal/persistence"
	"github.com/spec-kit/staffrep-bot/internal/repository"
	"github.com/spec-kit/staffrep-bot/internal/rolecache"
	"github.com/spec-kit/staffrep-bot/internal/service"
	"github.com/spec-kit/staffrep-bot/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	session, err := discord.NewSession(cfg.Discord, logger)
	if err != nil {
		logger.Fatal("failed to create discord session", zap.Error(err))
	}
	if err := session.Open(); err != nil {
		logger.Fatal("failed to open discord gateway", zap.Error(err))
	}
	defer session.Close()

	roleCache := rolecache.New(staffHierarchy(cfg.Staff), session, rolecache.Options{
		RefreshInterval: cfg.Cache.RefreshInterval(),
		AbandonTimeout:  cfg.Cache.AbandonTimeout(),
	}, logger)
	roleCache.Initialize(ctx, cfg.Discord.GuildID, true)
	defer roleCache.StopAutoUpdate()

	pool := pg.PoolHandle()
	userRepo := repository.NewStaffUserRepository(pool)
	leaveRepo := repository.NewLeaveRequestRepository(pool)
	historyRepo := repository.NewPointHistoryRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()

	reputationService := service.NewReputationService(cfg.Reputation, service.ReputationDependencies{
		UserRepo:    userRepo,
		HistoryRepo: historyRepo,
		RoleCache:   roleCache,
		Redis:       redis.Client,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	leaveService := service.NewLeaveService(service.LeaveDependencies{
		UserRepo:   userRepo,
		LeaveRepo:  leaveRepo,
		RoleCache:  roleCache,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	leaderboardService := service.NewLeaderboardService(cfg.Leaderboard, service.LeaderboardDependencies{
		UserRepo:  userRepo,
		RoleCache: roleCache,
		Redis:     redis.Client,
		Messenger: session,
		Logger:    logger,
	})
	notificationService := service.NewNotificationService(dispatcher, session, logger, cfg.Reputation)
	worker.StartNotificationWorker(notificationService)

	leaderboardWorker := worker.NewLeaderboardWorker(leaderboardService, cfg.Leaderboard.Interval(), logger)
	leaderboardWorker.Start(ctx)
	defer leaderboardWorker.Stop()

	if cfg.Discord.RegisterCommands {
		if err := session.RegisterCommands(cfg.Reputation.MaxPointsPerAward); err != nil {
			logger.Fatal("failed to register commands", zap.Error(err))
		}
	}
	interactions := discord.NewHandler(cfg.Reputation, discord.HandlerDependencies{
		Session:     session,
		RoleCache:   roleCache,
		Reputation:  reputationService,
		Leaves:      leaveService,
		Leaderboard: leaderboardService,
		Metrics:     metrics,
		Logger:      logger,
	})
	interactions.Register()

	tokens := auth.NewTokenManager(cfg.Admin.JWTSecret, cfg.Admin.AccessTokenTTLMinutes)
	authMiddleware := auth.NewAuthMiddleware(tokens)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Admin:          handlers.NewAdminHandler(cfg.Admin, tokens, roleCache, leaveService, metrics),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	logger.Info("bot started",
		zap.String("guild_id", cfg.Discord.GuildID),
		zap.String("http_addr", cfg.App.Addr()),
	)

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}

func staffHierarchy(roles []config.StaffRoleConfig) []domain.StaffRole {
	hierarchy := make([]domain.StaffRole, 0, len(roles))
	for _, role := range roles {
		hierarchy = append(hierarchy, domain.StaffRole{ID: role.ID, Name: role.Name, Rank: role.Rank})
	}
	return hierarchy
}
