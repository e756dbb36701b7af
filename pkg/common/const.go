package common

const (
	KEY_LAST_PRICE      = "last_price:%s"
	KEY_SCREENER_RESULT = "screener:pairs"
)

const (
	KEY_LOG_HOOK_SEND_ALERT = "send_alert"
)

const (
	QUOTE_USDT  = "USDT"
	QUOTE_USD   = "USD"
	SUFFIX_PERP = "PERP"
)

const (
	BYBIT_TRADE_URL   = "https://www.bybit.com/trade/usdt/%s"
	BINANCE_TRADE_URL = "https://www.binance.com/en/trade/%s"
)
