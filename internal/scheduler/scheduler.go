package scheduler

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/KuiHua-JAC/winsports-cron/internal/config"
	"github.com/KuiHua-JAC/winsports-cron/internal/service"

	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"
)

const (
	tagSettle = "settle"
	tagOdds   = "odds-fetch"
)

// SettleRunner 结算触发
type SettleRunner interface {
	PostSettle(ctx context.Context, gameID string) *service.SettleResult
}

// OddsRunner 赔率拉取
type OddsRunner interface {
	FetchAndCacheOdds(ctx context.Context) *service.OddsFetchResult
}

// Scheduler 按 UTC 运行两个定时任务：结算（带随机抖动）与每日赔率拉取
type Scheduler struct {
	cron   *gocron.Scheduler
	cfg    *config.Config
	settle SettleRunner
	odds   OddsRunner
	logger *logrus.Logger

	ctx    context.Context
	cancel context.CancelFunc

	// jitter 返回本次触发前的等待时间，测试中替换
	jitter func(maxSec int) time.Duration
}

func NewScheduler(cfg *config.Config, settle SettleRunner, odds OddsRunner, logger *logrus.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	s := gocron.NewScheduler(time.UTC)
	// 上一次未结束时跳过本次触发
	s.SingletonModeAll()
	return &Scheduler{
		cron:   s,
		cfg:    cfg,
		settle: settle,
		odds:   odds,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
		jitter: randomJitter,
	}
}

func randomJitter(maxSec int) time.Duration {
	if maxSec <= 0 {
		return 0
	}
	return time.Duration(rand.Intn(maxSec+1)) * time.Second
}

// Register 注册全部任务，不启动
func (s *Scheduler) Register() error {
	if _, err := s.cron.Cron(s.cfg.Settle.Cron).Tag(tagSettle).Do(s.runSettle); err != nil {
		return fmt.Errorf("注册结算任务失败: %w, cron: %s", err, s.cfg.Settle.Cron)
	}
	s.logger.Infof("结算任务已注册: %s (抖动<=%ds)", s.cfg.Settle.Cron, s.cfg.Settle.JitterSec)

	if _, err := s.cron.Cron(s.cfg.Odds.Cron).Tag(tagOdds).Do(s.runOddsFetch); err != nil {
		return fmt.Errorf("注册赔率拉取任务失败: %w, cron: %s", err, s.cfg.Odds.Cron)
	}
	s.logger.Infof("赔率拉取任务已注册: %s (UTC)", s.cfg.Odds.Cron)
	return nil
}

// Start 注册并异步启动
func (s *Scheduler) Start() error {
	if err := s.Register(); err != nil {
		return err
	}
	s.cron.StartAsync()
	s.logger.Info("定时调度已启动")
	return nil
}

// Stop 停止调度并取消正在等待抖动的任务
func (s *Scheduler) Stop() {
	s.cancel()
	s.cron.Stop()
	s.logger.Info("定时调度已停止")
}

func (s *Scheduler) runSettle() {
	if d := s.jitter(s.cfg.Settle.JitterSec); d > 0 {
		select {
		case <-time.After(d):
		case <-s.ctx.Done():
			return
		}
	}

	res := s.settle.PostSettle(s.ctx, "")
	log := s.logger.WithFields(logrus.Fields{"job": tagSettle, "status": res.Status})
	if !res.OK {
		log.WithField("error", res.Error).Warn("定时结算失败")
		return
	}
	log.Info("定时结算完成")
}

func (s *Scheduler) runOddsFetch() {
	res := s.odds.FetchAndCacheOdds(s.ctx)
	log := s.logger.WithFields(logrus.Fields{
		"job":    tagOdds,
		"run_id": res.RunID,
		"count":  res.Count,
		"errors": res.Errors,
	})
	if !res.OK {
		log.WithField("error", res.Error).Warn("定时赔率拉取失败")
		return
	}
	log.Info("定时赔率拉取完成")
}
