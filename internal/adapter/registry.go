package adapter

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/KuiHua-JAC/winsports-cron/internal/config"
	"github.com/KuiHua-JAC/winsports-cron/internal/interfaces"

	"github.com/sirupsen/logrus"
)

// ========== 提供方工厂函数注册表 ==========
var (
	mu              sync.RWMutex
	factoryRegistry = make(map[string]interfaces.OddsProviderFactory)
)

// Register 供提供方包 init 调用，注册工厂函数；同名重复注册时覆盖
func Register(name string, factory interfaces.OddsProviderFactory) {
	if factory == nil {
		panic(fmt.Sprintf("提供方%s的工厂函数不能为nil", name))
	}
	key := strings.ToLower(name)
	mu.Lock()
	defer mu.Unlock()
	if _, exists := factoryRegistry[key]; exists {
		logrus.Warnf("提供方%s已注册，将覆盖原有实现", name)
	}
	factoryRegistry[key] = factory
}

// GetFactory 获取指定提供方的工厂函数
func GetFactory(name string) (interfaces.OddsProviderFactory, bool) {
	mu.RLock()
	defer mu.RUnlock()
	factory, ok := factoryRegistry[strings.ToLower(name)]
	return factory, ok
}

// ListFactories 已注册的提供方名称（排序后）
func ListFactories() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(factoryRegistry))
	for name := range factoryRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewOddsProvider 按 cfg.Provider 创建提供方实例
func NewOddsProvider(cfg *config.OddsConfig, logger *logrus.Logger) (interfaces.OddsProvider, error) {
	factory, ok := GetFactory(cfg.Provider)
	if !ok {
		return nil, fmt.Errorf("未找到提供方%s的工厂函数（已注册：%v）", cfg.Provider, ListFactories())
	}
	provider := factory(cfg, logger)
	if provider == nil {
		return nil, fmt.Errorf("提供方%s的工厂函数返回nil", cfg.Provider)
	}
	if !strings.EqualFold(provider.GetName(), cfg.Provider) {
		return nil, fmt.Errorf("提供方名称不匹配: 配置=%s 实例=%s", cfg.Provider, provider.GetName())
	}
	logger.WithField("provider", provider.GetName()).Info("赔率提供方初始化成功")
	return provider, nil
}
