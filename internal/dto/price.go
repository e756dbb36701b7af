package dto

// PriceQuote is the outcome of a price lookup. Found=false means no usable price.
type PriceQuote struct {
	Symbol         string  `json:"symbol"`
	ResolvedSymbol string  `json:"resolved_symbol,omitempty"`
	Category       string  `json:"category,omitempty"`
	LastPrice      float64 `json:"last_price"`
	MarkPrice      float64 `json:"mark_price,omitempty"`
	IndexPrice     float64 `json:"index_price,omitempty"`
	Change24h      float64 `json:"change_24h,omitempty"`
	Found          bool    `json:"found"`
}

type BybitResponse[T any] struct {
	RetCode int                `json:"retCode"`
	RetMsg  string             `json:"retMsg"`
	Result  BybitListResult[T] `json:"result"`
}

type BybitListResult[T any] struct {
	Category       string `json:"category"`
	List           []T    `json:"list"`
	NextPageCursor string `json:"nextPageCursor"`
}

type BybitTicker struct {
	Symbol       string `json:"symbol"`
	LastPrice    string `json:"lastPrice"`
	MarkPrice    string `json:"markPrice"`
	IndexPrice   string `json:"indexPrice"`
	Price24hPcnt string `json:"price24hPcnt"`
	HighPrice24h string `json:"highPrice24h"`
	LowPrice24h  string `json:"lowPrice24h"`
	Volume24h    string `json:"volume24h"`
}

type BybitInstrument struct {
	Symbol       string `json:"symbol"`
	Status       string `json:"status"`
	BaseCoin     string `json:"baseCoin"`
	QuoteCoin    string `json:"quoteCoin"`
	ContractType string `json:"contractType"`
}
