package common

const (
	KEY_LAST_PRICE      = "last_price:%s"
	KEY_LATEST_RECEIPT  = "latest_receipt:%s:%s"
	KEY_RULE_EVAL_COUNT = "rule_eval_count:%d"
)

const (
	INDICATOR_SMA_CROSS         = "sma-cross"
	INDICATOR_SMA_CROSS_VERSION = "1"
)
