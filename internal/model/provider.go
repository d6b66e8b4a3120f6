package model

// Bookmaker 提供方单场赔率响应中的博彩公司
type Bookmaker struct {
	Key        string           `json:"key"`
	Title      string           `json:"title"`
	LastUpdate string           `json:"last_update"`
	Markets    []ProviderMarket `json:"markets"`
}

// ProviderMarket 博彩公司下的单个盘口
type ProviderMarket struct {
	Key        string            `json:"key"`
	LastUpdate string            `json:"last_update"`
	Outcomes   []ProviderOutcome `json:"outcomes"`
}

// ProviderOutcome 盘口下的单个选项
type ProviderOutcome struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Point       *float64 `json:"point"`
}

// EventOddsResponse 单场赔率接口响应（只关心 bookmakers）
type EventOddsResponse struct {
	ID         string      `json:"id"`
	Bookmakers []Bookmaker `json:"bookmakers"`
}
