package repository

import (
	"context"
	"microtrade/internal/model"
	"microtrade/pkg/utils"
	"time"

	"gorm.io/gorm"
)

type AutomationRuleRepository interface {
	Get(ctx context.Context, param model.GetAutomationRulesParam, opts ...utils.DBOption) ([]model.AutomationRule, error)
	FindByID(ctx context.Context, id uint, opts ...utils.DBOption) (*model.AutomationRule, error)
	FindDueScheduled(ctx context.Context, now time.Time, opts ...utils.DBOption) ([]model.AutomationRule, error)
	Create(ctx context.Context, rule *model.AutomationRule, opts ...utils.DBOption) error
	Update(ctx context.Context, rule *model.AutomationRule, opts ...utils.DBOption) error
	Delete(ctx context.Context, id uint, opts ...utils.DBOption) error
}

type automationRuleRepository struct {
	db *gorm.DB
}

func NewAutomationRuleRepository(db *gorm.DB) AutomationRuleRepository {
	return &automationRuleRepository{db: db}
}

func (r *automationRuleRepository) Get(ctx context.Context, param model.GetAutomationRulesParam, opts ...utils.DBOption) ([]model.AutomationRule, error) {
	tx := utils.ApplyOptions(r.db.WithContext(ctx), opts...)

	if len(param.IDs) > 0 {
		tx = tx.Where("id IN ?", param.IDs)
	}
	if param.Enabled != nil {
		tx = tx.Where("enabled = ?", *param.Enabled)
	}
	if param.Symbol != "" {
		tx = tx.Where("symbol = ?", param.Symbol)
	}
	if param.Scheduled != nil {
		if *param.Scheduled {
			tx = tx.Where("schedule <> ''")
		} else {
			tx = tx.Where("schedule = ''")
		}
	}
	if param.Limit != nil {
		tx = tx.Limit(*param.Limit)
	}

	var rules []model.AutomationRule
	if err := tx.Order("id ASC").Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *automationRuleRepository) FindByID(ctx context.Context, id uint, opts ...utils.DBOption) (*model.AutomationRule, error) {
	var rule model.AutomationRule
	tx := utils.ApplyOptions(r.db.WithContext(ctx), opts...)

	result := tx.First(&rule, id)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, result.Error
	}
	return &rule, nil
}

func (r *automationRuleRepository) FindDueScheduled(ctx context.Context, now time.Time, opts ...utils.DBOption) ([]model.AutomationRule, error) {
	tx := utils.ApplyOptions(r.db.WithContext(ctx), opts...)

	var rules []model.AutomationRule
	err := tx.Where("enabled = ? AND schedule <> ''", true).
		Where("next_evaluation_at IS NULL OR next_evaluation_at <= ?", now).
		Order("id ASC").
		Find(&rules).Error
	if err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *automationRuleRepository) Create(ctx context.Context, rule *model.AutomationRule, opts ...utils.DBOption) error {
	tx := utils.ApplyOptions(r.db.WithContext(ctx), opts...)
	return tx.Create(rule).Error
}

func (r *automationRuleRepository) Update(ctx context.Context, rule *model.AutomationRule, opts ...utils.DBOption) error {
	tx := utils.ApplyOptions(r.db.WithContext(ctx), opts...)
	return tx.Save(rule).Error
}

func (r *automationRuleRepository) Delete(ctx context.Context, id uint, opts ...utils.DBOption) error {
	tx := utils.ApplyOptions(r.db.WithContext(ctx), opts...)
	return tx.Delete(&model.AutomationRule{}, id).Error
}
