package model

import (
	"time"

	"gorm.io/datatypes"
)

// IndicatorReceipt is the immutable record of one indicator run: which
// indicator, over which inputs (hash), with which settings, and the signals
// it produced. Never updated after creation.
type IndicatorReceipt struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	IndicatorID      string         `gorm:"type:varchar(100);not null;index:idx_receipts_lookup" json:"indicator_id"`
	IndicatorVersion string         `gorm:"type:varchar(20);not null" json:"indicator_version"`
	Symbol           string         `gorm:"type:varchar(50);index:idx_receipts_lookup" json:"symbol"`
	Timeframe        string         `gorm:"type:varchar(20)" json:"timeframe"`
	InputHash        string         `gorm:"type:varchar(64);not null" json:"input_hash"`
	ProofMode        bool           `gorm:"not null" json:"proof_mode"`
	Params           datatypes.JSON `gorm:"type:jsonb" json:"params"`
	Signals          datatypes.JSON `gorm:"type:jsonb;not null" json:"signals"`
	CreatedAt        time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

func (IndicatorReceipt) TableName() string {
	return "indicator_receipts"
}
