package model

import "time"

const (
	OrderStateAccepted = "ACCEPTED"
	OrderStateRejected = "REJECTED"
)

type PaperOrder struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	RuleID      uint      `gorm:"not null;index" json:"rule_id"`
	Symbol      string    `gorm:"type:varchar(50);not null" json:"symbol"`
	Qty         float64   `gorm:"not null" json:"qty"`
	Side        string    `gorm:"type:varchar(10);not null" json:"side"`
	Type        string    `gorm:"type:varchar(20);not null" json:"type"`
	LimitPrice  *float64  `json:"limit_price,omitempty"`
	StopPrice   *float64  `json:"stop_price,omitempty"`
	State       string    `gorm:"type:varchar(20);not null" json:"state"`
	LastMessage string    `gorm:"type:text" json:"last_message"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (PaperOrder) TableName() string {
	return "paper_orders"
}
