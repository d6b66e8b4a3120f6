package interfaces

import (
	"context"

	"github.com/KuiHua-JAC/winsports-cron/internal/config"
	"github.com/KuiHua-JAC/winsports-cron/internal/model"

	"github.com/sirupsen/logrus"
)

// OddsProvider 赔率提供方：赛事列表 + 单场多盘口赔率
type OddsProvider interface {
	GetName() string
	FetchEvents(ctx context.Context) ([]model.Event, error)
	FetchEventOdds(ctx context.Context, eventID string) ([]model.Bookmaker, error)
}

// OddsProviderFactory 提供方工厂函数签名，由各提供方包在 init 中注册
type OddsProviderFactory func(cfg *config.OddsConfig, logger *logrus.Logger) OddsProvider

// RateLimiter 事件间节流
type RateLimiter interface {
	Wait(ctx context.Context) error
}
