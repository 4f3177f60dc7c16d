package dto

import "encoding/json"

type BacktestEventType string

const (
	EventEntry  BacktestEventType = "ENTRY"
	EventExit   BacktestEventType = "EXIT"
	EventEquity BacktestEventType = "EQUITY"
)

// BacktestEvent is one record of the append-only, time-ordered audit trail a
// backtest run produces. Events are never mutated after being appended.
type BacktestEvent struct {
	Type      BacktestEventType `json:"type"`
	Timestamp int64             `json:"t"`
	Side      string            `json:"side,omitempty"`
	Price     float64           `json:"price,omitempty"`
	Equity    float64           `json:"equity,omitempty"`
	Note      string            `json:"note,omitempty"`
}

// FillModelConfig converts a raw close into an executable fill price.
// Immutable per backtest run.
type FillModelConfig struct {
	Spread             float64 `json:"spread" validate:"gte=0"`
	Slippage           float64 `json:"slippage" validate:"gte=0"`
	CommissionPerTrade float64 `json:"commission_per_trade" validate:"gte=0"`
}

// BacktestRequest drives a run either from pasted raw candles or, when Candles
// is empty, from market data fetched for Symbol/Interval.
type BacktestRequest struct {
	Symbol     string          `json:"symbol"`
	Interval   string          `json:"interval"`
	Candles    json.RawMessage `json:"candles"`
	FastPeriod int             `json:"fast_period" validate:"required,gt=0"`
	SlowPeriod int             `json:"slow_period" validate:"required,gt=0"`
	Fill       FillModelConfig `json:"fill"`
}

type BacktestResult struct {
	Symbol      string          `json:"symbol,omitempty"`
	NetPnl      float64         `json:"net_pnl"`
	Trades      int             `json:"trades"`
	Wins        int             `json:"wins"`
	WinRate     float64         `json:"win_rate"`
	MaxDrawdown float64         `json:"max_drawdown"`
	OpenSide    string          `json:"open_side,omitempty"`
	Events      []BacktestEvent `json:"events"`
}
