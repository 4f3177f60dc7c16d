package model

import (
	"database/sql"
	"time"

	"gorm.io/datatypes"
)

// AutomationRule is owned by a user account, mutated only through explicit
// saves, versionless (overwritten in place).
type AutomationRule struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	UserID           uint           `gorm:"not null" json:"user_id"`
	Name             string         `gorm:"type:varchar(255);not null" json:"name"`
	Enabled          bool           `gorm:"not null" json:"enabled"`
	Symbol           string         `gorm:"type:varchar(50);not null" json:"symbol"`
	Timeframe        string         `gorm:"type:varchar(20);not null" json:"timeframe"`
	Schedule         string         `gorm:"type:varchar(100)" json:"schedule"`
	Conditions       datatypes.JSON `gorm:"type:jsonb;not null" json:"conditions"`
	Actions          datatypes.JSON `gorm:"type:jsonb;not null" json:"actions"`
	Risk             datatypes.JSON `gorm:"type:jsonb;not null" json:"risk"`
	LastEvaluatedAt  sql.NullTime   `json:"last_evaluated_at"`
	NextEvaluationAt sql.NullTime   `gorm:"index" json:"next_evaluation_at"`
	User             User           `gorm:"foreignKey:UserID;references:ID" json:"-"`
	CreatedAt        time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (AutomationRule) TableName() string {
	return "automation_rules"
}

type GetAutomationRulesParam struct {
	IDs       []uint `json:"ids"`
	Enabled   *bool  `json:"enabled"`
	Symbol    string `json:"symbol"`
	Scheduled *bool  `json:"scheduled"`
	Limit     *int   `json:"limit"`
}
