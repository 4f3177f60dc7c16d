package service

import (
	"context"
	"database/sql"
	"fmt"

	"microtrade/config"
	"microtrade/internal/model"
	"microtrade/internal/repository"
	"microtrade/pkg/logger"
	"microtrade/pkg/utils"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"
)

// SchedulerService evaluates every rule whose cron schedule is due. One
// Execute call is one scheduler tick.
type SchedulerService interface {
	Execute(ctx context.Context) error
}

type schedulerService struct {
	cfg               *config.Config
	log               *logger.Logger
	ruleRepo          repository.AutomationRuleRepository
	automationService AutomationService
	cronParser        cron.Parser
}

func NewSchedulerService(
	cfg *config.Config,
	log *logger.Logger,
	ruleRepo repository.AutomationRuleRepository,
	automationService AutomationService,
) SchedulerService {
	return &schedulerService{
		cfg:               cfg,
		log:               log,
		ruleRepo:          ruleRepo,
		automationService: automationService,
		cronParser:        cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
	}
}

func (s *schedulerService) Execute(ctx context.Context) error {
	now := utils.TimeNowUTC()
	rules, err := s.ruleRepo.FindDueScheduled(ctx, now)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to find due rules", logger.ErrorField(err))
		return fmt.Errorf("failed to find due rules: %w", err)
	}

	if len(rules) == 0 {
		s.log.DebugContext(ctx, "No rules due")
		return nil
	}

	s.log.InfoContext(ctx, "Evaluating due rules",
		logger.IntField("rule_count", len(rules)),
		logger.IntField("max_concurrency", s.cfg.Scheduler.MaxConcurrency))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Scheduler.MaxConcurrency)

	for _, rule := range rules {
		rule := rule
		g.Go(func() error {
			if !utils.ShouldContinue(gCtx, s.log) {
				return nil
			}

			if _, err := s.automationService.EvaluateRule(gCtx, rule.ID); err != nil {
				s.log.ErrorContext(gCtx, "Scheduled evaluation failed",
					logger.ErrorField(err),
					logger.IntField("rule_id", int(rule.ID)))
			}

			if err := s.reschedule(gCtx, rule); err != nil {
				s.log.ErrorContext(gCtx, "Failed to reschedule rule",
					logger.ErrorField(err),
					logger.IntField("rule_id", int(rule.ID)))
			}
			return nil
		})
	}

	return g.Wait()
}

func (s *schedulerService) reschedule(ctx context.Context, rule model.AutomationRule) error {
	schedule, err := s.cronParser.Parse(rule.Schedule)
	if err != nil {
		return fmt.Errorf("failed to parse schedule %q: %w", rule.Schedule, err)
	}

	now := utils.TimeNowUTC()
	rule.LastEvaluatedAt = sql.NullTime{Time: now, Valid: true}
	rule.NextEvaluationAt = sql.NullTime{Time: schedule.Next(now), Valid: true}

	return s.ruleRepo.Update(ctx, &rule)
}
