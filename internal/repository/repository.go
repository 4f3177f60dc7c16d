package repository

import (
	"microtrade/config"
	"microtrade/pkg/logger"

	"gorm.io/gorm"
)

type Repository struct {
	UserRepo       UserRepository
	RuleRepo       AutomationRuleRepository
	RunRepo        AutomationRunRepository
	ReceiptRepo    ReceiptRepository
	PaperOrderRepo PaperOrderRepository
	MarketDataRepo MarketDataRepository
	UnitOfWork     UnitOfWork
}

func NewRepository(cfg *config.Config, db *gorm.DB, log *logger.Logger) *Repository {
	return &Repository{
		UserRepo:       NewUserRepository(db),
		RuleRepo:       NewAutomationRuleRepository(db),
		RunRepo:        NewAutomationRunRepository(db),
		ReceiptRepo:    NewReceiptRepository(db),
		PaperOrderRepo: NewPaperOrderRepository(db),
		MarketDataRepo: NewMarketDataRepository(cfg, log),
		UnitOfWork:     NewUnitOfWork(db),
	}
}
