package api

import (
	"context"
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/KuiHua-JAC/winsports-cron/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const headerOddsFetchSecret = "x-odds-fetch-secret"

// SettleRunner 结算触发
type SettleRunner interface {
	PostSettle(ctx context.Context, gameID string) *service.SettleResult
}

// OddsRunner 赔率拉取
type OddsRunner interface {
	FetchAndCacheOdds(ctx context.Context) *service.OddsFetchResult
}

// TriggerHandler 健康检查与手动触发接口
type TriggerHandler struct {
	settle      SettleRunner
	odds        OddsRunner
	fetchSecret string
	logger      *logrus.Logger
	now         func() time.Time
}

// NewTriggerHandler fetchSecret 为空时 /trigger-odds-fetch 不校验密钥
func NewTriggerHandler(settle SettleRunner, odds OddsRunner, fetchSecret string, logger *logrus.Logger) *TriggerHandler {
	return &TriggerHandler{
		settle:      settle,
		odds:        odds,
		fetchSecret: fetchSecret,
		logger:      logger,
		now:         time.Now,
	}
}

// Health GET /health
func (h *TriggerHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ok":   true,
		"time": h.now().UTC().Format(time.RFC3339Nano),
	})
}

// TriggerSettle 手动触发一次结算
// GET /trigger?gameId=<id>
func (h *TriggerHandler) TriggerSettle(c *gin.Context) {
	gameID := c.Query("gameId")
	res := h.settle.PostSettle(c.Request.Context(), gameID)
	if !res.OK {
		h.logger.WithFields(logrus.Fields{"game_id": gameID, "status": res.Status}).
			Errorf("手动结算失败: %s", res.Error)
		c.JSON(http.StatusInternalServerError, res)
		return
	}
	c.JSON(http.StatusOK, res)
}

// TriggerOddsFetch 手动触发一次赔率拉取；配置了密钥时 query secret 或 header 必须完全一致
// GET /trigger-odds-fetch?secret=<s>
func (h *TriggerHandler) TriggerOddsFetch(c *gin.Context) {
	if h.fetchSecret != "" {
		provided := c.Query("secret")
		if provided == "" {
			provided = c.GetHeader(headerOddsFetchSecret)
		}
		if subtle.ConstantTimeCompare([]byte(provided), []byte(h.fetchSecret)) != 1 {
			h.logger.WithField("client_ip", c.ClientIP()).Warn("赔率拉取触发密钥不匹配")
			c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "unauthorized"})
			return
		}
	}

	res := h.odds.FetchAndCacheOdds(c.Request.Context())
	if !res.OK {
		h.logger.WithField("run_id", res.RunID).Errorf("手动赔率拉取失败: %s", res.Error)
		c.JSON(http.StatusInternalServerError, res)
		return
	}
	c.JSON(http.StatusOK, res)
}
