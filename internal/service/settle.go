package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/KuiHua-JAC/winsports-cron/internal/config"
	"github.com/KuiHua-JAC/winsports-cron/internal/runguard"
	"github.com/KuiHua-JAC/winsports-cron/internal/utils/httpclient"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrSettleNotConfigured 未配置结算地址或密钥
var ErrSettleNotConfigured = errors.New("settle url or secret not configured")

const (
	jobSettle       = "settle"
	headerSettleKey = "x-settle-secret"
	headerRequestID = "x-request-id"
	contentTypeJSON = "application/json"
)

// SettleResult 结算调用结果，body 原样返回不做解析
type SettleResult struct {
	OK     bool   `json:"ok"`
	Status int    `json:"status,omitempty"`
	Body   string `json:"body,omitempty"`
	Error  string `json:"error,omitempty"`
}

// SettleService 调用外部结算接口
type SettleService struct {
	cfg        *config.SettleConfig
	httpClient *http.Client
	guard      *runguard.Guard
	logger     *logrus.Logger
}

func NewSettleService(cfg *config.SettleConfig, guard *runguard.Guard, logger *logrus.Logger) *SettleService {
	if guard == nil {
		guard = runguard.New()
	}
	return &SettleService{
		cfg: cfg,
		httpClient: httpclient.NewHTTPClient(httpclient.Options{
			Timeout: timeoutSeconds(cfg.Timeout),
			Proxy:   cfg.Proxy,
		}, logger),
		guard:  guard,
		logger: logger,
	}
}

// PostSettle 发起一次结算；gameID 为空时请求体为 {}。同一 gameID 的重叠调用共享一次请求
func (s *SettleService) PostSettle(ctx context.Context, gameID string) *SettleResult {
	result, _ := runguard.Do(s.guard, ctx, jobSettle+":"+gameID, func(ctx context.Context) *SettleResult {
		return s.post(ctx, gameID)
	})
	return result
}

func (s *SettleService) post(ctx context.Context, gameID string) (result *SettleResult) {
	defer func() {
		if p := recover(); p != nil {
			s.logger.Errorf("Settle: 调用异常: %v", p)
			result = &SettleResult{Error: fmt.Sprintf("panic: %v", p)}
		}
	}()

	if s.cfg.URL == "" || s.cfg.Secret == "" {
		s.logger.Warn("Settle: 未配置结算地址或密钥，跳过")
		return &SettleResult{Error: ErrSettleNotConfigured.Error()}
	}

	payload := map[string]string{}
	if gameID != "" {
		payload["gameId"] = gameID
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return &SettleResult{Error: err.Error()}
	}

	settleURL := strings.TrimSuffix(s.cfg.URL, "/") + s.cfg.Path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, settleURL, bytes.NewReader(body))
	if err != nil {
		return &SettleResult{Error: fmt.Sprintf("构建结算请求失败: %v", err)}
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", contentTypeJSON)
	req.Header.Set(headerSettleKey, s.cfg.Secret)
	req.Header.Set(headerRequestID, requestID)

	log := s.logger.WithFields(logrus.Fields{"game_id": gameID, "request_id": requestID})
	resp, err := s.httpClient.Do(req)
	if err != nil {
		log.WithError(err).Error("Settle: 请求失败")
		return &SettleResult{Error: err.Error()}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Errorf("关闭结算响应体失败: %v", err)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		log.WithError(err).Error("Settle: 读取响应失败")
		return &SettleResult{Status: resp.StatusCode, Error: err.Error()}
	}

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	res := &SettleResult{OK: ok, Status: resp.StatusCode, Body: string(respBody)}
	if !ok {
		res.Error = fmt.Sprintf("settle endpoint returned HTTP %d", resp.StatusCode)
		log.WithField("status", resp.StatusCode).Warn("Settle: 结算接口返回非2xx")
	} else {
		log.WithField("status", resp.StatusCode).Info("Settle: 结算完成")
	}
	return res
}

func timeoutSeconds(sec int) time.Duration {
	if sec <= 0 {
		return 30 * time.Second
	}
	return time.Duration(sec) * time.Second
}
