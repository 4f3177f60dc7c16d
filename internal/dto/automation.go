package dto

type ConditionType string

const (
	ConditionPriceGT     ConditionType = "PRICE_GT"
	ConditionPriceLT     ConditionType = "PRICE_LT"
	ConditionSignalMatch ConditionType = "SIGNAL_MATCH"
)

type Condition struct {
	Type             ConditionType `json:"type" validate:"required,oneof=PRICE_GT PRICE_LT SIGNAL_MATCH"`
	Value            float64       `json:"value,omitempty"`
	IndicatorID      string        `json:"indicator_id,omitempty"`
	IndicatorVersion string        `json:"indicator_version,omitempty"`
	SignalKind       SignalKind    `json:"signal_kind,omitempty"`
}

type ActionType string

const (
	ActionAlertOnly  ActionType = "ALERT_ONLY"
	ActionPaperOrder ActionType = "PAPER_ORDER"
)

type Action struct {
	Type       ActionType `json:"type" validate:"required,oneof=ALERT_ONLY PAPER_ORDER"`
	Message    string     `json:"message,omitempty"`
	Qty        float64    `json:"qty,omitempty"`
	Side       string     `json:"side,omitempty"`
	OrderType  string     `json:"order_type,omitempty"`
	LimitPrice *float64   `json:"limit_price,omitempty"`
	StopPrice  *float64   `json:"stop_price,omitempty"`
}

type RiskConfig struct {
	MaxOrdersPerHour int     `json:"max_orders_per_hour" validate:"gte=0"`
	MaxQtyPerOrder   float64 `json:"max_qty_per_order" validate:"gte=0"`
	KillSwitch       bool    `json:"kill_switch"`
}

type RunReason string

const (
	ReasonDisabled        RunReason = "DISABLED"
	ReasonKillSwitch      RunReason = "KILL_SWITCH"
	ReasonRateLimit       RunReason = "RATE_LIMIT"
	ReasonConditionsFalse RunReason = "CONDITIONS_FALSE"
	ReasonTriggered       RunReason = "TRIGGERED"
)

// SignalReceipt is the evaluator's view of a stored indicator run: evidence
// that the signals came from a specific dataset and settings.
type SignalReceipt struct {
	IndicatorID      string   `json:"indicator_id"`
	IndicatorVersion string   `json:"indicator_version"`
	InputHash        string   `json:"input_hash"`
	ProofMode        bool     `json:"proof_mode"`
	Signals          []Signal `json:"signals"`
}

// EvaluationContext carries the market observations a rule is judged against.
type EvaluationContext struct {
	LastPrice *float64       `json:"last_price,omitempty"`
	Receipt   *SignalReceipt `json:"receipt,omitempty"`
}

// RunResult summarizes one evaluation attempt. Persisted on every call, even
// when no action fires.
type RunResult struct {
	RuleID           uint      `json:"rule_id"`
	Triggered        bool      `json:"triggered"`
	Reason           RunReason `json:"reason"`
	ActionsAttempted int       `json:"actions_attempted"`
	ActionsSucceeded int       `json:"actions_succeeded"`
	ActionsFailed    int       `json:"actions_failed"`
}

type PlaceOrderParam struct {
	RuleID     uint     `json:"rule_id"`
	Symbol     string   `json:"symbol"`
	Qty        float64  `json:"qty"`
	Side       string   `json:"side"`
	Type       string   `json:"type"`
	LimitPrice *float64 `json:"limit_price,omitempty"`
	StopPrice  *float64 `json:"stop_price,omitempty"`
}

type PlacedOrder struct {
	ID          uint   `json:"id"`
	State       string `json:"state"`
	LastMessage string `json:"last_message"`
}

type UpsertRuleRequest struct {
	Name       string      `json:"name" validate:"required"`
	Enabled    bool        `json:"enabled"`
	Symbol     string      `json:"symbol" validate:"required"`
	Timeframe  string      `json:"timeframe" validate:"required"`
	Schedule   string      `json:"schedule,omitempty"`
	Conditions []Condition `json:"conditions" validate:"required,min=1,dive"`
	Actions    []Action    `json:"actions" validate:"required,min=1,dive"`
	Risk       RiskConfig  `json:"risk"`
}
