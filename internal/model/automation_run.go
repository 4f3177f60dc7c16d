package model

import "time"

// AutomationRun is the append-only audit record of one evaluation attempt.
// Rows are never updated or deleted by the evaluator; the rate-limit gate
// counts them within the trailing window.
type AutomationRun struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	RuleID           uint      `gorm:"not null;index:idx_runs_rule_started" json:"rule_id"`
	Triggered        bool      `gorm:"not null" json:"triggered"`
	Reason           string    `gorm:"type:varchar(50);not null" json:"reason"`
	ActionsAttempted int       `gorm:"not null" json:"actions_attempted"`
	ActionsSucceeded int       `gorm:"not null" json:"actions_succeeded"`
	ActionsFailed    int       `gorm:"not null" json:"actions_failed"`
	StartedAt        time.Time `gorm:"not null;index:idx_runs_rule_started" json:"started_at"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (AutomationRun) TableName() string {
	return "automation_runs"
}

// AutomationEvent records a single step inside a run (gate hit, action result).
type AutomationEvent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	RuleID    uint      `gorm:"not null;index" json:"rule_id"`
	RunID     *uint     `gorm:"index" json:"run_id,omitempty"`
	Type      string    `gorm:"type:varchar(50);not null" json:"type"`
	Detail    string    `gorm:"type:text" json:"detail"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (AutomationEvent) TableName() string {
	return "automation_events"
}

const (
	EventActionOK   = "ACTION_OK"
	EventActionFail = "ACTION_FAIL"
	EventBlocked    = "BLOCKED"
	EventSkipped    = "SKIPPED"
)
