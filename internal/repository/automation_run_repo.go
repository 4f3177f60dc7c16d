package repository

import (
	"context"
	"time"

	"microtrade/internal/dto"
	"microtrade/internal/model"
	"microtrade/pkg/utils"

	"gorm.io/gorm"
)

// AutomationRunRepository is the durable side of the automation audit trail.
// It backs both the rate-limit counter (contract.RunCounter) and the audit
// log (contract.AuditLog). Runs and events are append-only.
type AutomationRunRepository interface {
	CountRunsSince(ctx context.Context, ruleID uint, since time.Time) (int64, error)
	RecordRun(ctx context.Context, result dto.RunResult, startedAt time.Time) (uint, error)
	RecordEvent(ctx context.Context, ruleID uint, runID *uint, eventType, detail string) error
	GetRuns(ctx context.Context, ruleID uint, limit int, opts ...utils.DBOption) ([]model.AutomationRun, error)
	GetEvents(ctx context.Context, ruleID uint, limit int, opts ...utils.DBOption) ([]model.AutomationEvent, error)
}

type automationRunRepository struct {
	db *gorm.DB
}

func NewAutomationRunRepository(db *gorm.DB) AutomationRunRepository {
	return &automationRunRepository{db: db}
}

func (r *automationRunRepository) CountRunsSince(ctx context.Context, ruleID uint, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.AutomationRun{}).
		Where("rule_id = ? AND started_at >= ?", ruleID, since).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *automationRunRepository) RecordRun(ctx context.Context, result dto.RunResult, startedAt time.Time) (uint, error) {
	run := model.AutomationRun{
		RuleID:           result.RuleID,
		Triggered:        result.Triggered,
		Reason:           string(result.Reason),
		ActionsAttempted: result.ActionsAttempted,
		ActionsSucceeded: result.ActionsSucceeded,
		ActionsFailed:    result.ActionsFailed,
		StartedAt:        startedAt,
	}
	if err := r.db.WithContext(ctx).Create(&run).Error; err != nil {
		return 0, err
	}
	return run.ID, nil
}

func (r *automationRunRepository) RecordEvent(ctx context.Context, ruleID uint, runID *uint, eventType, detail string) error {
	event := model.AutomationEvent{
		RuleID: ruleID,
		RunID:  runID,
		Type:   eventType,
		Detail: detail,
	}
	return r.db.WithContext(ctx).Create(&event).Error
}

func (r *automationRunRepository) GetRuns(ctx context.Context, ruleID uint, limit int, opts ...utils.DBOption) ([]model.AutomationRun, error) {
	tx := utils.ApplyOptions(r.db.WithContext(ctx), opts...)

	var runs []model.AutomationRun
	err := tx.Where("rule_id = ?", ruleID).
		Order("started_at DESC").
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, err
	}
	return runs, nil
}

func (r *automationRunRepository) GetEvents(ctx context.Context, ruleID uint, limit int, opts ...utils.DBOption) ([]model.AutomationEvent, error) {
	tx := utils.ApplyOptions(r.db.WithContext(ctx), opts...)

	var events []model.AutomationEvent
	err := tx.Where("rule_id = ?", ruleID).
		Order("created_at DESC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}
