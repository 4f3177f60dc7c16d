package service

import (
	"microtrade/config"
	"microtrade/internal/contract"
	"microtrade/internal/repository"
	"microtrade/pkg/cache"
	"microtrade/pkg/logger"
)

type Service struct {
	BacktestService   BacktestService
	SignalService     SignalService
	RuleService       RuleService
	AutomationService AutomationService
	SchedulerService  SchedulerService
}

func NewService(
	cfg *config.Config,
	log *logger.Logger,
	repo *repository.Repository,
	inmemoryCache cache.Cache,
	notifier contract.Notifier,
) *Service {
	backtestService := NewBacktestService(log, repo.MarketDataRepo)
	signalService := NewSignalService(log, repo.ReceiptRepo, inmemoryCache)
	ruleService := NewRuleService(log, repo.RuleRepo, repo.RunRepo, repo.PaperOrderRepo, repo.UserRepo, repo.UnitOfWork)
	automationService := NewAutomationService(cfg, log, repo.RuleRepo, repo.RunRepo, repo.PaperOrderRepo, repo.RunRepo, notifier, signalService, repo.MarketDataRepo, inmemoryCache)
	schedulerService := NewSchedulerService(cfg, log, repo.RuleRepo, automationService)

	return &Service{
		BacktestService:   backtestService,
		SignalService:     signalService,
		RuleService:       ruleService,
		AutomationService: automationService,
		SchedulerService:  schedulerService,
	}
}
