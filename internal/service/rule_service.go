package service

import (
	"context"
	"encoding/json"
	"fmt"

	"microtrade/internal/dto"
	"microtrade/internal/model"
	"microtrade/internal/repository"
	"microtrade/pkg/logger"
	"microtrade/pkg/utils"

	"github.com/robfig/cron/v3"
	"gorm.io/datatypes"
)

// RuleService owns the automation rule lifecycle and exposes the audit trail
// a rule has accumulated.
type RuleService interface {
	GetRules(ctx context.Context, param model.GetAutomationRulesParam) ([]model.AutomationRule, error)
	GetRule(ctx context.Context, id uint) (*model.AutomationRule, error)
	CreateRule(ctx context.Context, userID uint, req dto.UpsertRuleRequest) (*model.AutomationRule, error)
	UpdateRule(ctx context.Context, id uint, req dto.UpsertRuleRequest) (*model.AutomationRule, error)
	DeleteRule(ctx context.Context, id uint) error
	GetRuns(ctx context.Context, ruleID uint, limit int) ([]model.AutomationRun, error)
	GetEvents(ctx context.Context, ruleID uint, limit int) ([]model.AutomationEvent, error)
	GetOrders(ctx context.Context, ruleID uint, limit int) ([]model.PaperOrder, error)
}

type ruleService struct {
	log            *logger.Logger
	ruleRepo       repository.AutomationRuleRepository
	runRepo        repository.AutomationRunRepository
	paperOrderRepo repository.PaperOrderRepository
	userRepo       repository.UserRepository
	unitOfWork     repository.UnitOfWork
	cronParser     cron.Parser
}

func NewRuleService(
	log *logger.Logger,
	ruleRepo repository.AutomationRuleRepository,
	runRepo repository.AutomationRunRepository,
	paperOrderRepo repository.PaperOrderRepository,
	userRepo repository.UserRepository,
	unitOfWork repository.UnitOfWork,
) RuleService {
	return &ruleService{
		log:            log,
		ruleRepo:       ruleRepo,
		runRepo:        runRepo,
		paperOrderRepo: paperOrderRepo,
		userRepo:       userRepo,
		unitOfWork:     unitOfWork,
		cronParser:     cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
	}
}

func (s *ruleService) GetRules(ctx context.Context, param model.GetAutomationRulesParam) ([]model.AutomationRule, error) {
	return s.ruleRepo.Get(ctx, param)
}

func (s *ruleService) GetRule(ctx context.Context, id uint) (*model.AutomationRule, error) {
	return s.ruleRepo.FindByID(ctx, id)
}

func (s *ruleService) CreateRule(ctx context.Context, userID uint, req dto.UpsertRuleRequest) (*model.AutomationRule, error) {
	fields, err := s.marshalRuleFields(req)
	if err != nil {
		return nil, err
	}

	rule := &model.AutomationRule{
		UserID:     userID,
		Name:       req.Name,
		Enabled:    req.Enabled,
		Symbol:     req.Symbol,
		Timeframe:  req.Timeframe,
		Schedule:   req.Schedule,
		Conditions: fields.conditions,
		Actions:    fields.actions,
		Risk:       fields.risk,
	}

	err = s.unitOfWork.Run(func(opts ...utils.DBOption) error {
		user, err := s.userRepo.GetByID(ctx, userID, opts...)
		if err != nil {
			return err
		}
		if user == nil {
			user = &model.User{
				ID:           userID,
				Username:     fmt.Sprintf("user-%d", userID),
				Email:        fmt.Sprintf("user-%d@local", userID),
				LastActiveAt: utils.TimeNowUTC(),
			}
			if err := s.userRepo.Create(ctx, user, opts...); err != nil {
				return err
			}
		}
		return s.ruleRepo.Create(ctx, rule, opts...)
	})
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to create automation rule", logger.ErrorField(err), logger.StringField("name", req.Name))
		return nil, fmt.Errorf("failed to create rule: %w", err)
	}

	s.log.InfoContext(ctx, "Automation rule created",
		logger.IntField("rule_id", int(rule.ID)),
		logger.StringField("symbol", rule.Symbol))
	return rule, nil
}

func (s *ruleService) UpdateRule(ctx context.Context, id uint, req dto.UpsertRuleRequest) (*model.AutomationRule, error) {
	rule, err := s.ruleRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rule == nil {
		return nil, ErrRuleNotFound
	}

	fields, err := s.marshalRuleFields(req)
	if err != nil {
		return nil, err
	}

	scheduleChanged := rule.Schedule != req.Schedule

	rule.Name = req.Name
	rule.Enabled = req.Enabled
	rule.Symbol = req.Symbol
	rule.Timeframe = req.Timeframe
	rule.Schedule = req.Schedule
	rule.Conditions = fields.conditions
	rule.Actions = fields.actions
	rule.Risk = fields.risk
	if scheduleChanged {
		// re-plan from scratch on the next scheduler pass
		rule.NextEvaluationAt.Valid = false
	}

	if err := s.ruleRepo.Update(ctx, rule); err != nil {
		s.log.ErrorContext(ctx, "Failed to update automation rule", logger.ErrorField(err), logger.IntField("rule_id", int(id)))
		return nil, fmt.Errorf("failed to update rule: %w", err)
	}
	return rule, nil
}

func (s *ruleService) DeleteRule(ctx context.Context, id uint) error {
	rule, err := s.ruleRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if rule == nil {
		return ErrRuleNotFound
	}
	return s.ruleRepo.Delete(ctx, id)
}

func (s *ruleService) GetRuns(ctx context.Context, ruleID uint, limit int) ([]model.AutomationRun, error) {
	return s.runRepo.GetRuns(ctx, ruleID, limit)
}

func (s *ruleService) GetEvents(ctx context.Context, ruleID uint, limit int) ([]model.AutomationEvent, error) {
	return s.runRepo.GetEvents(ctx, ruleID, limit)
}

func (s *ruleService) GetOrders(ctx context.Context, ruleID uint, limit int) ([]model.PaperOrder, error) {
	return s.paperOrderRepo.GetByRule(ctx, ruleID, limit)
}

type ruleFields struct {
	conditions datatypes.JSON
	actions    datatypes.JSON
	risk       datatypes.JSON
}

func (s *ruleService) marshalRuleFields(req dto.UpsertRuleRequest) (*ruleFields, error) {
	if req.Schedule != "" {
		if _, err := s.cronParser.Parse(req.Schedule); err != nil {
			return nil, dto.NewValidationError("invalid schedule %q: %v", req.Schedule, err)
		}
	}

	conditions, err := json.Marshal(req.Conditions)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal conditions: %w", err)
	}
	actions, err := json.Marshal(req.Actions)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal actions: %w", err)
	}
	risk, err := json.Marshal(req.Risk)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal risk: %w", err)
	}

	return &ruleFields{
		conditions: datatypes.JSON(conditions),
		actions:    datatypes.JSON(actions),
		risk:       datatypes.JSON(risk),
	}, nil
}
