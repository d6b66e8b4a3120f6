package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/KuiHua-JAC/winsports-cron/internal/config"
	"github.com/KuiHua-JAC/winsports-cron/internal/interfaces"
	"github.com/KuiHua-JAC/winsports-cron/internal/model"
	"github.com/KuiHua-JAC/winsports-cron/internal/ratelimit"
	"github.com/KuiHua-JAC/winsports-cron/internal/runguard"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const jobOddsFetch = "odds-fetch"

var (
	// ErrMissingAPIKey 未配置赔率提供方 API Key
	ErrMissingAPIKey = errors.New("odds api key not configured")
	// ErrStoreUnavailable 文档存储未初始化
	ErrStoreUnavailable = errors.New("document store not initialized")
)

// EventResult 单场处理结果
type EventResult struct {
	EventID string `json:"eventId"`
	OK      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
}

// OddsFetchResult 一次拉取运行的汇总结果
type OddsFetchResult struct {
	OK         bool          `json:"ok"`
	RunID      string        `json:"runId,omitempty"`
	Count      int           `json:"count"`
	Errors     int           `json:"errors"`
	DurationMs int64         `json:"durationMs"`
	Message    string        `json:"message,omitempty"`
	Error      string        `json:"error,omitempty"`
	Results    []EventResult `json:"results,omitempty"`
}

// OddsSyncService 拉取赛事列表，逐场拉取多盘口赔率并写入文档缓存；单场失败不阻塞整次运行
type OddsSyncService struct {
	cfg      *config.OddsConfig
	provider interfaces.OddsProvider
	store    interfaces.DocumentStore
	limiter  interfaces.RateLimiter
	guard    *runguard.Guard
	logger   *logrus.Logger
	now      func() time.Time
}

// NewOddsSyncService 创建赔率同步服务；store 可为 nil（存储初始化失败时），此时每次运行直接失败
func NewOddsSyncService(
	cfg *config.OddsConfig,
	provider interfaces.OddsProvider,
	store interfaces.DocumentStore,
	limiter interfaces.RateLimiter,
	guard *runguard.Guard,
	logger *logrus.Logger,
) *OddsSyncService {
	if guard == nil {
		guard = runguard.New()
	}
	if limiter == nil {
		limiter = ratelimit.NewLimiter(cfg.RequestIntervalDuration())
	}
	return &OddsSyncService{
		cfg:      cfg,
		provider: provider,
		store:    store,
		limiter:  limiter,
		guard:    guard,
		logger:   logger,
		now:      time.Now,
	}
}

// FetchAndCacheOdds 对外入口：同一时刻只有一次运行，重叠的调用方共享其结果；不会向外抛出 panic
func (s *OddsSyncService) FetchAndCacheOdds(ctx context.Context) *OddsFetchResult {
	result, shared := runguard.Do(s.guard, ctx, jobOddsFetch, s.run)
	if shared {
		s.logger.WithField("run_id", result.RunID).Info("OddsFetch: 已有运行进行中，复用其结果")
	}
	return result
}

func (s *OddsSyncService) run(ctx context.Context) (result *OddsFetchResult) {
	start := s.now()
	runID := uuid.NewString()
	log := s.logger.WithField("run_id", runID)

	defer func() {
		if p := recover(); p != nil {
			log.Errorf("OddsFetch: 运行异常: %v", p)
			result = s.failure(runID, start, fmt.Errorf("panic: %v", p))
		}
	}()

	if s.cfg.APIKey == "" {
		log.Warn("OddsFetch: 未配置API Key，跳过")
		return s.failure(runID, start, ErrMissingAPIKey)
	}
	if s.store == nil {
		log.Warn("OddsFetch: 文档存储不可用，跳过")
		return s.failure(runID, start, ErrStoreUnavailable)
	}

	events, err := s.provider.FetchEvents(ctx)
	if err != nil {
		log.WithError(err).Error("OddsFetch: 拉取赛事列表失败")
		return s.failure(runID, start, err)
	}
	if len(events) == 0 {
		log.Info("OddsFetch: 无赛事")
		return &OddsFetchResult{
			OK:         true,
			RunID:      runID,
			DurationMs: s.since(start),
			Message:    "no events",
			Results:    []EventResult{},
		}
	}

	results := make([]EventResult, 0, len(events))
	success, failed := 0, 0
	for _, ev := range events {
		if ev.ID == "" {
			log.WithFields(logrus.Fields{
				"home_team": ev.HomeTeam,
				"away_team": ev.AwayTeam,
			}).Warn("OddsFetch: 赛事缺少id，跳过")
			continue
		}

		// 限速在每次单场请求前取令牌，失败的场次同样占用
		if err := s.limiter.Wait(ctx); err != nil {
			failed++
			results = append(results, EventResult{EventID: ev.ID, Error: err.Error()})
			continue
		}

		if err := s.syncEvent(ctx, ev); err != nil {
			log.WithError(err).WithField("event_id", ev.ID).Warn("OddsFetch: 单场处理失败，继续下一场")
			failed++
			results = append(results, EventResult{EventID: ev.ID, Error: err.Error()})
			continue
		}
		success++
		results = append(results, EventResult{EventID: ev.ID, OK: true})
	}

	res := &OddsFetchResult{
		OK:         true,
		RunID:      runID,
		Count:      success,
		Errors:     failed,
		DurationMs: s.since(start),
		Results:    results,
	}
	log.WithFields(logrus.Fields{
		"count":       res.Count,
		"errors":      res.Errors,
		"duration_ms": res.DurationMs,
	}).Info("OddsFetch: 运行完成")
	return res
}

// syncEvent 拉取单场赔率 -> 归类到固定盘口 -> merge 写入缓存文档
func (s *OddsSyncService) syncEvent(ctx context.Context, ev model.Event) error {
	bookmakers, err := s.provider.FetchEventOdds(ctx, ev.ID)
	if err != nil {
		return fmt.Errorf("拉取赔率失败: %w", err)
	}

	sportKey := ev.SportKey
	if sportKey == "" {
		sportKey = s.cfg.Sport
	}
	doc := &model.CacheDocument{
		EventID:      ev.ID,
		GameID:       ev.ID,
		SportKey:     sportKey,
		HomeTeam:     ev.HomeTeam,
		AwayTeam:     ev.AwayTeam,
		CommenceTime: ev.CommenceTime,
		LastFetched:  s.now().UnixMilli(),
		Markets:      BuildMarkets(bookmakers),
	}

	key := model.DocumentKey(s.cfg.SportPrefix, ev.ID)
	if err := s.store.Upsert(ctx, s.cfg.Collection, key, doc.Fields()); err != nil {
		return fmt.Errorf("写入缓存失败: %w", err)
	}
	return nil
}

// BuildMarkets 把 bookmaker -> market -> outcome 展平为固定盘口下的有序报价；不在固定集合中的盘口丢弃
func BuildMarkets(bookmakers []model.Bookmaker) model.Markets {
	markets := model.NewMarkets()
	for _, b := range bookmakers {
		bookmaker := b.Key
		if bookmaker == "" {
			bookmaker = b.Title
		}
		for _, m := range b.Markets {
			lastUpdate := m.LastUpdate
			if lastUpdate == "" {
				lastUpdate = b.LastUpdate
			}
			for _, o := range m.Outcomes {
				markets.Add(m.Key, model.MarketEntry{
					Bookmaker:   bookmaker,
					Selection:   o.Name,
					Description: o.Description,
					Odds:        o.Price,
					Point:       o.Point,
					LastUpdate:  lastUpdate,
				})
			}
		}
	}
	return markets
}

func (s *OddsSyncService) failure(runID string, start time.Time, err error) *OddsFetchResult {
	return &OddsFetchResult{
		OK:         false,
		RunID:      runID,
		DurationMs: s.since(start),
		Error:      err.Error(),
	}
}

func (s *OddsSyncService) since(start time.Time) int64 {
	return s.now().Sub(start).Milliseconds()
}
