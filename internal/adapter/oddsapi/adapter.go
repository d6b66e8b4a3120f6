package oddsapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/KuiHua-JAC/winsports-cron/internal/adapter"
	"github.com/KuiHua-JAC/winsports-cron/internal/config"
	"github.com/KuiHua-JAC/winsports-cron/internal/interfaces"
	"github.com/KuiHua-JAC/winsports-cron/internal/model"
	"github.com/KuiHua-JAC/winsports-cron/internal/utils/httpclient"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

// 提供方 id 可能是字符串也可能是数字，统一用 Number 解析后再转字符串
var json = jsoniter.Config{UseNumber: true}.Froze()

const (
	// ProviderName 注册到提供方工厂表的名称
	ProviderName = "theoddsapi"
	// maxErrorBody 非 2xx 时错误信息中保留的响应体长度
	maxErrorBody = 512
)

func init() {
	adapter.Register(ProviderName, NewOddsAPIAdapter)
}

type Adapter struct {
	cfg        *config.OddsConfig
	httpClient *http.Client
	logger     *logrus.Logger
}

func NewOddsAPIAdapter(cfg *config.OddsConfig, logger *logrus.Logger) interfaces.OddsProvider {
	return &Adapter{
		cfg: cfg,
		httpClient: httpclient.NewHTTPClient(httpclient.Options{
			Timeout: cfg.TimeoutDuration(),
			Proxy:   cfg.Proxy,
		}, logger),
		logger: logger,
	}
}

// GetName 提供方名称
func (a *Adapter) GetName() string {
	return ProviderName
}

// FetchEvents 拉取联赛全部待开赛事件；响应不是数组时视为空列表
func (a *Adapter) FetchEvents(ctx context.Context) ([]model.Event, error) {
	query := url.Values{}
	query.Set("apiKey", a.cfg.APIKey)
	eventsURL := fmt.Sprintf("%s/v4/sports/%s/events?%s",
		strings.TrimSuffix(a.cfg.BaseURL, "/"), url.PathEscape(a.cfg.Sport), query.Encode())

	body, err := a.get(ctx, eventsURL)
	if err != nil {
		return nil, fmt.Errorf("获取赛事列表失败: %w", err)
	}

	var raw interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		a.logger.WithError(err).WithField("sport", a.cfg.Sport).Warn("赛事列表响应无法解析，按空列表处理")
		return []model.Event{}, nil
	}
	items, ok := raw.([]interface{})
	if !ok {
		a.logger.WithField("sport", a.cfg.Sport).Warn("赛事列表响应不是数组，按空列表处理")
		return []model.Event{}, nil
	}

	events := make([]model.Event, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			// 保留位置，由调用方按缺少 id 跳过
			events = append(events, model.Event{})
			continue
		}
		events = append(events, model.Event{
			ID:           stringify(obj["id"]),
			SportKey:     stringify(obj["sport_key"]),
			HomeTeam:     stringify(obj["home_team"]),
			AwayTeam:     stringify(obj["away_team"]),
			CommenceTime: stringify(obj["commence_time"]),
		})
	}

	a.logger.Infof("成功获取%s赛事共%d条", a.cfg.Sport, len(events))
	return events, nil
}

// FetchEventOdds 拉取单场多盘口赔率；bookmakers 缺失或结构异常时返回空列表
func (a *Adapter) FetchEventOdds(ctx context.Context, eventID string) ([]model.Bookmaker, error) {
	query := url.Values{}
	query.Set("apiKey", a.cfg.APIKey)
	query.Set("regions", strings.Join(a.cfg.Regions, ","))
	query.Set("markets", strings.Join(a.cfg.Markets, ","))
	query.Set("oddsFormat", a.cfg.OddsFormat)
	oddsURL := fmt.Sprintf("%s/v4/sports/%s/events/%s/odds?%s",
		strings.TrimSuffix(a.cfg.BaseURL, "/"), url.PathEscape(a.cfg.Sport), url.PathEscape(eventID), query.Encode())

	body, err := a.get(ctx, oddsURL)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Bookmakers jsoniter.RawMessage `json:"bookmakers"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		if !json.Valid(body) {
			return nil, fmt.Errorf("解析赔率响应失败: %w", err)
		}
		// 合法 JSON 但不是对象
		a.logger.WithField("event_id", eventID).Warn("赔率响应不是对象，按空列表处理")
		return []model.Bookmaker{}, nil
	}
	if len(envelope.Bookmakers) == 0 {
		return []model.Bookmaker{}, nil
	}
	var bookmakers []model.Bookmaker
	if err := json.Unmarshal(envelope.Bookmakers, &bookmakers); err != nil {
		a.logger.WithError(err).WithField("event_id", eventID).Warn("bookmakers结构异常，按空列表处理")
		return []model.Bookmaker{}, nil
	}
	if bookmakers == nil {
		bookmakers = []model.Bookmaker{}
	}
	return bookmakers, nil
}

func (a *Adapter) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("构建请求失败: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			a.logger.Errorf("关闭响应体失败: %v", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应失败: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := string(body)
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, snippet)
	}
	return body, nil
}

// stringify 任意 JSON 标量转字符串，null/缺失为空串
func stringify(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}
