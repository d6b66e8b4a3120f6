package config

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 全局配置结构体（匹配config.yaml），启动时加载一次后显式传入各组件
type Config struct {
	Server ServerConfig `mapstructure:"server"` // 服务器配置
	Settle SettleConfig `mapstructure:"settle"` // 结算触发配置
	Odds   OddsConfig   `mapstructure:"odds"`   // 赔率拉取配置
	Store  StoreConfig  `mapstructure:"store"`  // 文档存储配置
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port int    `mapstructure:"port"` // 服务端口
	Mode string `mapstructure:"mode"` // Gin运行模式：debug/release/test
}

// SettleConfig 结算接口配置
type SettleConfig struct {
	URL       string `mapstructure:"url"`        // 结算服务基础地址
	Path      string `mapstructure:"path"`       // 结算接口路径
	Secret    string `mapstructure:"secret"`     // x-settle-secret 共享密钥
	Timeout   int    `mapstructure:"timeout"`    // 请求超时（秒）
	Cron      string `mapstructure:"cron"`       // 定时表达式（默认每3分钟）
	JitterSec int    `mapstructure:"jitter_sec"` // 触发前随机抖动上限（秒）
	Proxy     string `mapstructure:"proxy"`      // 代理地址
}

// OddsConfig 赔率提供方配置
type OddsConfig struct {
	Provider        string   `mapstructure:"provider"`         // 提供方名称，对应已注册的工厂函数
	BaseURL         string   `mapstructure:"base_url"`         // API基础地址
	APIKey          string   `mapstructure:"api_key"`          // 提供方API Key（query参数）
	Sport           string   `mapstructure:"sport"`            // 体育/联赛 key，如 basketball_nba
	SportPrefix     string   `mapstructure:"sport_prefix"`     // 文档 key 前缀，如 nba
	Regions         []string `mapstructure:"regions"`          // 地区列表
	Markets         []string `mapstructure:"markets"`          // 请求的盘口 key 列表
	OddsFormat      string   `mapstructure:"odds_format"`      // 赔率格式：decimal
	Timeout         int      `mapstructure:"timeout"`          // 单次请求超时（秒）
	RequestInterval int      `mapstructure:"request_interval"` // 事件间请求间隔（毫秒）
	Cron            string   `mapstructure:"cron"`             // 定时表达式（默认每天 UTC 0 点）
	FetchSecret     string   `mapstructure:"fetch_secret"`     // 手动触发接口密钥，空则不校验
	Collection      string   `mapstructure:"collection"`       // 文档集合名
	Proxy           string   `mapstructure:"proxy"`            // 代理地址
}

// StoreConfig 文档存储配置
type StoreConfig struct {
	Driver      string         `mapstructure:"driver"`      // postgres/redis/memory
	Credentials string         `mapstructure:"credentials"` // base64 或原始 JSON 凭证
	Postgres    PostgresConfig `mapstructure:"postgres"`
	Redis       RedisConfig    `mapstructure:"redis"`
}

// PostgresConfig PostgreSQL配置
type PostgresConfig struct {
	DSN             string        `mapstructure:"dsn"`               // 连接DSN
	MaxOpenConns    int           `mapstructure:"max_open_conns"`    // 最大打开连接数
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`    // 最大空闲连接数
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"` // 连接最大存活时间
}

// RedisConfig Redis配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// StoreCredentials STORE_CREDENTIALS 解码后的凭证内容
type StoreCredentials struct {
	Driver   string `json:"driver"`
	DSN      string `json:"dsn"`
	Addr     string `json:"addr"`
	Username string `json:"username"`
	Password string `json:"password"`
	DB       *int   `json:"db"`
}

// LoadConfig 加载配置文件（config/config.yaml），敏感项从 .env / 环境变量覆盖
func LoadConfig() (*Config, error) {
	// .env 可不存在
	_ = godotenv.Load()
	return LoadConfigFrom("./config")
}

// LoadConfigFrom 从指定目录读取 config.yaml；文件不存在时只使用默认值与环境变量
func LoadConfigFrom(dir string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	v.SetTypeByDefaultValue(true)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 敏感字段：env > yaml
	overrideFromEnv(&cfg)
	if err := cfg.applyStoreCredentials(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")

	v.SetDefault("settle.path", "/api/settle")
	v.SetDefault("settle.timeout", 30)
	v.SetDefault("settle.cron", "*/3 * * * *")
	v.SetDefault("settle.jitter_sec", 15)

	v.SetDefault("odds.provider", "theoddsapi")
	v.SetDefault("odds.base_url", "https://api.the-odds-api.com")
	v.SetDefault("odds.sport", "basketball_nba")
	v.SetDefault("odds.sport_prefix", "nba")
	v.SetDefault("odds.regions", []string{"us", "us2"})
	v.SetDefault("odds.markets", []string{
		"h2h", "totals",
		"player_points", "player_rebounds", "player_assists", "player_threes",
		"player_points_rebounds_assists", "player_double_double",
	})
	v.SetDefault("odds.odds_format", "decimal")
	v.SetDefault("odds.timeout", 30)
	v.SetDefault("odds.request_interval", 1000)
	v.SetDefault("odds.cron", "0 0 * * *")
	v.SetDefault("odds.collection", "odds_cache")

	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.postgres.max_open_conns", 10)
	v.SetDefault("store.postgres.max_idle_conns", 2)
	v.SetDefault("store.postgres.conn_max_lifetime", 20*time.Minute)
	v.SetDefault("store.redis.addr", "127.0.0.1:6379")
}

// overrideFromEnv 用环境变量覆盖敏感配置
func overrideFromEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("SETTLE_URL"); v != "" {
		cfg.Settle.URL = v
	}
	if v := os.Getenv("SETTLE_SECRET"); v != "" {
		cfg.Settle.Secret = v
	}
	if v := os.Getenv("ODDS_API_KEY"); v != "" {
		cfg.Odds.APIKey = v
	}
	if v := os.Getenv("ODDS_FETCH_SECRET"); v != "" {
		cfg.Odds.FetchSecret = v
	}
	if v := os.Getenv("STORE_DRIVER"); v != "" {
		cfg.Store.Driver = v
	}
	if v := os.Getenv("STORE_CREDENTIALS"); v != "" {
		cfg.Store.Credentials = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		cfg.Store.Postgres.DSN = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Store.Redis.Addr = v
	}
}

// applyStoreCredentials 解析凭证并覆盖存储连接参数
func (c *Config) applyStoreCredentials() error {
	if strings.TrimSpace(c.Store.Credentials) == "" {
		return nil
	}
	creds, err := DecodeStoreCredentials(c.Store.Credentials)
	if err != nil {
		return err
	}
	if creds.Driver != "" {
		c.Store.Driver = creds.Driver
	}
	if creds.DSN != "" {
		c.Store.Postgres.DSN = creds.DSN
	}
	if creds.Addr != "" {
		c.Store.Redis.Addr = creds.Addr
	}
	if creds.Username != "" {
		c.Store.Redis.Username = creds.Username
	}
	if creds.Password != "" {
		c.Store.Redis.Password = creds.Password
	}
	if creds.DB != nil {
		c.Store.Redis.DB = *creds.DB
	}
	return nil
}

// DecodeStoreCredentials 兼容 base64 编码与原始 JSON 两种写法
func DecodeStoreCredentials(raw string) (*StoreCredentials, error) {
	raw = strings.TrimSpace(raw)
	data := []byte(raw)
	if !strings.HasPrefix(raw, "{") {
		decoded, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			return nil, fmt.Errorf("存储凭证既不是JSON也不是base64: %w", err)
		}
		data = decoded
	}
	var creds StoreCredentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("解析存储凭证失败: %w", err)
	}
	return &creds, nil
}

// RequestIntervalDuration 事件间请求间隔
func (o *OddsConfig) RequestIntervalDuration() time.Duration {
	return time.Duration(o.RequestInterval) * time.Millisecond
}

// TimeoutDuration 单次请求超时
func (o *OddsConfig) TimeoutDuration() time.Duration {
	return time.Duration(o.Timeout) * time.Second
}
