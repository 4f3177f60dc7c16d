package dto

// Candle is a single OHLCV bar. Within a series candles are sorted ascending
// by timestamp (milliseconds).
type Candle struct {
	Timestamp int64    `json:"t"`
	Open      float64  `json:"o"`
	High      float64  `json:"h"`
	Low       float64  `json:"l"`
	Close     float64  `json:"c"`
	Volume    *float64 `json:"v,omitempty"`
}

type GetMarketDataParam struct {
	Symbol   string `json:"symbol"`
	Interval string `json:"interval"`
	Limit    int    `json:"limit"`
}

type BinancePrice struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}
