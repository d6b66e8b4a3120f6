package model

// MarketKey 盘口类型 key（与提供方 markets 参数一致）
type MarketKey string

const (
	MarketH2H                        MarketKey = "h2h"
	MarketTotals                     MarketKey = "totals"
	MarketPlayerPoints               MarketKey = "player_points"
	MarketPlayerRebounds             MarketKey = "player_rebounds"
	MarketPlayerAssists              MarketKey = "player_assists"
	MarketPlayerThrees               MarketKey = "player_threes"
	MarketPlayerPointsReboundsAssist MarketKey = "player_points_rebounds_assists"
	MarketPlayerDoubleDouble         MarketKey = "player_double_double"
)

// MarketTaxonomy 固定且封闭的盘口集合，顺序即请求顺序
var MarketTaxonomy = []MarketKey{
	MarketH2H,
	MarketTotals,
	MarketPlayerPoints,
	MarketPlayerRebounds,
	MarketPlayerAssists,
	MarketPlayerThrees,
	MarketPlayerPointsReboundsAssist,
	MarketPlayerDoubleDouble,
}

// IsKnownMarket 是否属于固定盘口集合
func IsKnownMarket(key string) bool {
	for _, k := range MarketTaxonomy {
		if string(k) == key {
			return true
		}
	}
	return false
}

// Event 提供方的单场赛事（每次运行重新拉取，不单独落库）
type Event struct {
	ID           string `json:"id"`
	SportKey     string `json:"sport_key"`
	HomeTeam     string `json:"home_team"`
	AwayTeam     string `json:"away_team"`
	CommenceTime string `json:"commence_time"`
}

// MarketEntry 单个博彩公司在单个盘口下的一个选项报价
type MarketEntry struct {
	Bookmaker   string   `json:"bookmaker"`
	Selection   string   `json:"selection"`
	Description string   `json:"description"`
	Odds        float64  `json:"odds"`
	Point       *float64 `json:"point"` // 让分/大小球线，无则为 null
	LastUpdate  string   `json:"lastUpdate"`
}

// Markets 盘口 key -> 有序报价列表
type Markets map[MarketKey][]MarketEntry

// NewMarkets 八个盘口 key 全部存在（空列表而不是 nil，序列化为 []）
func NewMarkets() Markets {
	m := make(Markets, len(MarketTaxonomy))
	for _, k := range MarketTaxonomy {
		m[k] = []MarketEntry{}
	}
	return m
}

// Add 仅接收固定集合内的盘口，其余静默丢弃；返回是否收录
func (m Markets) Add(marketKey string, entry MarketEntry) bool {
	if !IsKnownMarket(marketKey) {
		return false
	}
	k := MarketKey(marketKey)
	m[k] = append(m[k], entry)
	return true
}

// CacheDocument 每场赛事一份的赔率缓存文档
type CacheDocument struct {
	EventID      string  `json:"eventId"`
	GameID       string  `json:"gameId"`
	SportKey     string  `json:"sportKey"`
	HomeTeam     string  `json:"homeTeam"`
	AwayTeam     string  `json:"awayTeam"`
	CommenceTime string  `json:"commenceTime"`
	LastFetched  int64   `json:"lastFetched"` // 毫秒时间戳
	Markets      Markets `json:"markets"`
}

// Fields 转为顶层字段 map，供 merge upsert 使用
func (d *CacheDocument) Fields() map[string]interface{} {
	markets := make(map[string]interface{}, len(d.Markets))
	for k, v := range d.Markets {
		if v == nil {
			v = []MarketEntry{}
		}
		markets[string(k)] = v
	}
	return map[string]interface{}{
		"eventId":      d.EventID,
		"gameId":       d.GameID,
		"sportKey":     d.SportKey,
		"homeTeam":     d.HomeTeam,
		"awayTeam":     d.AwayTeam,
		"commenceTime": d.CommenceTime,
		"lastFetched":  d.LastFetched,
		"markets":      markets,
	}
}

// DocumentKey 文档 key："<sport-prefix>_<eventId>"
func DocumentKey(sportPrefix, eventID string) string {
	return sportPrefix + "_" + eventID
}
