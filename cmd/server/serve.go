package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"uni-timetable/backend/internal/api/handler"
	"uni-timetable/backend/internal/api/router"
	"uni-timetable/backend/internal/engine"
	"uni-timetable/backend/internal/metrics"
	"uni-timetable/backend/internal/repository"
	"uni-timetable/backend/internal/service"
	"uni-timetable/backend/pkg/database"
	"uni-timetable/backend/pkg/jwt"
	"uni-timetable/backend/pkg/redis"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "启动 HTTP 服务",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	}
}

func (a *app) serve(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, logger := a.cfg, a.logger
	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
	)

	// 1. 数据库与迁移
	db, err := database.NewDB(ctx, &cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		return fmt.Errorf("数据库连接失败: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	defer sqlDB.Close()

	if err := database.RunMigrations(sqlDB, logger); err != nil {
		return fmt.Errorf("数据库迁移失败: %w", err)
	}

	// 2. Redis（可选：连接失败时降级运行，黑名单与限流不可用）
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，令牌黑名单与限流将不可用", zap.Error(err))
		rdb = nil
	} else {
		defer rdb.Close()
	}

	// 3. 指标
	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector, err = metrics.NewPrometheus(prometheus.DefaultRegisterer, cfg.Metrics.Namespace)
		if err != nil {
			return fmt.Errorf("注册指标失败: %w", err)
		}
	}

	// 4. 排课引擎：先从持久层恢复，再启动过期扫描
	repo := repository.NewRepository(db)
	opts := []engine.Option{
		engine.WithStore(repo.Store),
		engine.WithLogger(logger.Named("engine")),
	}
	if collector != nil {
		opts = append(opts, engine.WithMetrics(collector))
	}
	eng := engine.New(engine.Config{
		DefaultHoldTTL: cfg.Scheduler.DefaultHoldTTL,
		MaxHoldTTL:     cfg.Scheduler.MaxHoldTTL,
		SweepInterval:  cfg.Scheduler.SweepInterval,
		HoldRetention:  cfg.Scheduler.HoldRetention,
	}, repo.Reference, opts...)

	if err := eng.Restore(ctx); err != nil {
		return fmt.Errorf("恢复排课状态失败: %w", err)
	}
	go eng.Run(ctx)

	// 5. 依赖注入: Repository → Service → Handler → Router
	svc := service.NewService(cfg, repo, eng, logger)
	h := handler.NewHandler(svc)
	deps := router.Deps{
		Config:  cfg,
		Handler: h,
		JWT:     jwt.NewManager(&cfg.Auth),
		Redis:   rdb,
		Logger:  logger,
	}
	if collector != nil {
		deps.Collector = collector
		deps.Gatherer = prometheus.DefaultGatherer
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router.Setup(deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second, // 导出大课表时写入较慢
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// 6. 等待信号或服务器异常，优雅关闭
	select {
	case <-ctx.Done():
		logger.Info("收到关闭信号，开始优雅关闭...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP 服务器异常: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	logger.Info("服务器已关闭")
	return nil
}
