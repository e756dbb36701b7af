package dto

import (
	"encoding/json"
	"time"

	"trading-panel/pkg/utils"
)

// ScreenerPair is one high-change instrument from the volatility screener.
type ScreenerPair struct {
	Symbol        string    `json:"symbol"`
	BaseAsset     string    `json:"base_asset"`
	ChangePercent float64   `json:"change_percent"`
	PriceUSDT     float64   `json:"price_usdt"`
	VolumeUSDT    float64   `json:"volume_usdt"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// MarshalJSON rounds the change for display; filtering and ordering use the raw value.
func (p ScreenerPair) MarshalJSON() ([]byte, error) {
	type pair ScreenerPair
	out := pair(p)
	out.ChangePercent = utils.RoundTo(p.ChangePercent, 2)
	return json.Marshal(out)
}

type StakanResponse struct {
	Result []StakanItem `json:"result"`
}

type StakanItem struct {
	Symbol       StakanSymbol `json:"symbol"`
	Ticker       StakanTicker `json:"ticker"`
	PriceInUSDT  float64      `json:"priceInUSDT"`
	VolumeInUSDT float64      `json:"volumeInUSDT"`
}

type StakanSymbol struct {
	ExchangeCode string `json:"exchangeCode"`
	BaseAsset    string `json:"baseAsset"`
}

type StakanTicker struct {
	PriceChangePercent float64 `json:"priceChangePercent"`
}

type ScreenerParam struct {
	MinChangePercent float64 `query:"min_change" validate:"gte=0"`
	Limit            int     `query:"limit" validate:"gte=0,lte=200"`
}
