package dto

import "encoding/json"

type SignalKind string

const (
	SignalBuy  SignalKind = "BUY"
	SignalSell SignalKind = "SELL"
)

// Signal is a crossover event attributed to a single bar. It is immutable once
// produced and derived only from candle history up to and including Timestamp.
type Signal struct {
	Timestamp int64      `json:"t"`
	Kind      SignalKind `json:"kind"`
	Price     float64    `json:"price"`
	Label     string     `json:"label"`
}

type GenerateSignalsRequest struct {
	Symbol     string          `json:"symbol"`
	Timeframe  string          `json:"timeframe"`
	Candles    json.RawMessage `json:"candles"`
	FastPeriod int             `json:"fast_period" validate:"required,gt=0"`
	SlowPeriod int             `json:"slow_period" validate:"required,gt=0"`
	// ProofMode is an external contract promise recorded on the receipt. It
	// never changes signal arithmetic; signals are causal either way.
	ProofMode bool `json:"proof_mode"`
}

type SignalRunResult struct {
	ReceiptID        uint     `json:"receipt_id"`
	IndicatorID      string   `json:"indicator_id"`
	IndicatorVersion string   `json:"indicator_version"`
	InputHash        string   `json:"input_hash"`
	ProofMode        bool     `json:"proof_mode"`
	Signals          []Signal `json:"signals"`
}
