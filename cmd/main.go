package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/KuiHua-JAC/winsports-cron/internal/adapter"
	_ "github.com/KuiHua-JAC/winsports-cron/internal/adapter/oddsapi"
	"github.com/KuiHua-JAC/winsports-cron/internal/api"
	"github.com/KuiHua-JAC/winsports-cron/internal/config"
	"github.com/KuiHua-JAC/winsports-cron/internal/ratelimit"
	"github.com/KuiHua-JAC/winsports-cron/internal/repository"
	"github.com/KuiHua-JAC/winsports-cron/internal/runguard"
	"github.com/KuiHua-JAC/winsports-cron/internal/scheduler"
	"github.com/KuiHua-JAC/winsports-cron/internal/service"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	// 1. 加载配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("加载配置文件失败: %v", err)
	}

	// 2. 初始化日志
	logrusLogger := logrus.New()
	logrusLogger.SetLevel(logrus.InfoLevel)
	logrusLogger.Info("配置文件加载成功")

	// 3. 初始化文档存储；失败时只禁用赔率功能，进程继续提供结算
	store, err := repository.NewDocumentStore(context.Background(), &cfg.Store, logrusLogger)
	if err != nil {
		logrusLogger.WithError(err).Warn("文档存储初始化失败，赔率拉取功能不可用")
	} else {
		defer func() {
			if err := store.Close(); err != nil {
				logrusLogger.Errorf("关闭文档存储失败: %v", err)
			}
		}()
	}
	if cfg.Settle.URL == "" || cfg.Settle.Secret == "" {
		logrusLogger.Warn("未配置 SETTLE_URL/SETTLE_SECRET，结算触发将直接失败")
	}
	if cfg.Odds.APIKey == "" {
		logrusLogger.Warn("未配置 ODDS_API_KEY，赔率拉取将直接失败")
	}

	// 4. 组装服务（同一 guard 保证每类任务同一时刻最多一次运行）
	provider, err := adapter.NewOddsProvider(&cfg.Odds, logrusLogger)
	if err != nil {
		logrusLogger.Fatalf("初始化赔率提供方失败: %v", err)
	}
	guard := runguard.New()
	settleService := service.NewSettleService(&cfg.Settle, guard, logrusLogger)
	oddsService := service.NewOddsSyncService(
		&cfg.Odds,
		provider,
		store,
		ratelimit.NewLimiter(cfg.Odds.RequestIntervalDuration()),
		guard,
		logrusLogger,
	)

	// 5. 定时任务（UTC）
	sched := scheduler.NewScheduler(cfg, settleService, oddsService, logrusLogger)
	if err := sched.Start(); err != nil {
		logrusLogger.Fatalf("启动定时任务失败: %v", err)
	}

	// 6. 配置Gin运行模式（从配置读取：debug/release）
	gin.SetMode(cfg.Server.Mode)
	r := gin.Default()

	// 注册ppof 方便调试和监测性能问题
	pprof.Register(r)
	logrusLogger.Infof("Gin运行模式: %s", cfg.Server.Mode)

	// 7. 注册路由
	triggerHandler := api.NewTriggerHandler(settleService, oddsService, cfg.Odds.FetchSecret, logrusLogger)
	oddsHandler := api.NewOddsHandler(store, cfg.Odds.Collection, cfg.Odds.SportPrefix, logrusLogger)
	api.RegisterRoutes(r, triggerHandler, oddsHandler)

	// 8. 启动服务（从配置读取端口），收到退出信号后优雅关闭
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logrusLogger.Infof("服务启动成功，端口：%d", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrusLogger.Fatalf("启动服务失败: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrusLogger.Info("收到退出信号，开始关闭")

	sched.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrusLogger.Errorf("关闭HTTP服务失败: %v", err)
	}
	logrusLogger.Info("服务已退出")
}
