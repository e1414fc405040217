package app

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/godilite/feedback-analytics/internal/config"
	handler "github.com/godilite/feedback-analytics/internal/grpc"
	"github.com/godilite/feedback-analytics/internal/repository"
	"github.com/godilite/feedback-analytics/internal/service"
	"github.com/godilite/feedback-analytics/pkg/cache"
	dbbuilder "github.com/godilite/feedback-analytics/pkg/database"
	grpcsrv "github.com/godilite/feedback-analytics/pkg/grpc/server"

	"go.uber.org/zap"
	"google.golang.org/grpc"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	logger     *zap.Logger
	dbPool     *sql.DB
	cache      *cache.Cache
	grpcServer *grpcsrv.Server
}

type Option func(*options)

type options struct {
	listener net.Listener
}

// WithListener serves gRPC on lis instead of GRPC_PORT.
func WithListener(lis net.Listener) Option {
	return func(o *options) { o.listener = lis }
}

func isMemoryDSN(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	dbOpts := []dbbuilder.Option{
		dbbuilder.WithDriver(cfg.DBDriver),
		dbbuilder.WithDataSource(cfg.DBPath),
		dbbuilder.WithLogger(logger),
	}
	if isMemoryDSN(cfg.DBPath) {
		// every connection to :memory: is a separate database
		dbOpts = append(dbOpts, dbbuilder.WithMaxOpenConns(1), dbbuilder.WithMaxIdleConns(1))
	}
	dbPool, err := dbbuilder.New(dbOpts...)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}
	logger.Info("Database pool initialized", zap.String("path", cfg.DBPath))

	if cfg.DBMigrate {
		version, err := dbbuilder.Migrate(dbPool)
		if err != nil {
			_ = dbPool.Close()
			return nil, fmt.Errorf("database migration failed: %w", err)
		}
		logger.Info("Database schema up to date", zap.Uint("version", version))
	}

	var (
		cacheClient *cache.Cache
		cacher      handler.Cacher
	)
	if cfg.CachingEnabled() {
		cacheClient, err = cache.New(ctx,
			cache.WithAddress(cfg.RedisAddr),
			cache.WithPassword(cfg.RedisPassword),
			cache.WithDB(cfg.RedisDB),
			cache.WithKeyPrefix("feedback:"),
		)
		if err != nil {
			_ = dbPool.Close()
			return nil, fmt.Errorf("cache init failed: %w", err)
		}
		cacher = cacheClient
		logger.Info("Cache client initialized", zap.String("addr", cfg.RedisAddr))
	} else {
		logger.Info("Caching disabled")
	}

	feedbackRepo := repository.NewFeedbackRepository(dbPool)

	analytics := service.NewAnalyticsService(feedbackRepo, logger,
		service.WithAtParThreshold(cfg.AtParThreshold),
		service.WithDBTimeout(cfg.DBTimeout),
	)

	grpcHandlers := handler.NewGRPCHandlers(analytics, cacher, logger, cfg.CacheTTL,
		handler.WithRequestTimeout(cfg.GRPCRequestTimeout),
	)

	srvOpts := []grpcsrv.Option{
		grpcsrv.WithPort(cfg.GRPCPort),
		grpcsrv.WithLogger(logger),
		grpcsrv.WithReflection(cfg.GRPCReflectionEnabled),
		grpcsrv.WithLogging(true),
		grpcsrv.WithRecovery(true),
	}
	if o.listener != nil {
		srvOpts = append(srvOpts, grpcsrv.WithListener(o.listener))
	}
	grpcServer, err := grpcsrv.New(srvOpts...)
	if err != nil {
		if cacheClient != nil {
			_ = cacheClient.Close()
		}
		_ = dbPool.Close()
		return nil, fmt.Errorf("failed to create gRPC server: %w", err)
	}

	grpcServer.RegisterServiceWithHealth(handler.ServiceName, func(s *grpc.Server) {
		handler.RegisterFeedbackAnalyticsServer(s, grpcHandlers)
	})

	return &App{
		logger:     logger,
		dbPool:     dbPool,
		cache:      cacheClient,
		grpcServer: grpcServer,
	}, nil
}

// Addr returns the address the gRPC server listens on.
func (a *App) Addr() net.Addr {
	return a.grpcServer.Addr()
}

// Run starts the application and blocks until ctx is done or a shutdown signal is received.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("application starting")

	a.grpcServer.Start()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	a.logger.Info("application shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return a.Shutdown(shutdownCtx)
}

// Shutdown stops the gRPC server and releases the cache and database.
func (a *App) Shutdown(ctx context.Context) error {
	err := a.grpcServer.Shutdown(ctx)
	if err != nil {
		a.logger.Warn("gRPC shutdown did not complete gracefully", zap.Error(err))
	}

	if a.cache != nil {
		if cerr := a.cache.Close(); cerr != nil {
			a.logger.Error("cache shutdown error", zap.Error(cerr))
		}
	}
	if cerr := a.dbPool.Close(); cerr != nil {
		a.logger.Error("database shutdown error", zap.Error(cerr))
	}

	if err == nil {
		a.logger.Info("graceful shutdown completed successfully")
	}
	_ = a.logger.Sync()
	return err
}
