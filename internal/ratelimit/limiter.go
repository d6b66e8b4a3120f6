package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter 进程内令牌桶，用于对提供方的逐场请求节流
type Limiter struct {
	limiter *rate.Limiter
}

// NewLimiter 每 interval 放行一次，桶容量为 1；interval<=0 时不限速
func NewLimiter(interval time.Duration) *Limiter {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Limiter{limiter: rate.NewLimiter(limit, 1)}
}

// Wait 阻塞直到可以发出下一次请求或 ctx 结束
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// SetInterval 运行时调整速率，不影响调用方控制流
func (l *Limiter) SetInterval(interval time.Duration) {
	if interval <= 0 {
		l.limiter.SetLimit(rate.Inf)
		return
	}
	l.limiter.SetLimit(rate.Every(interval))
}
