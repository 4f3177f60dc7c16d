package repository

import (
	"context"
	"microtrade/internal/dto"
	"microtrade/internal/model"
	"microtrade/pkg/utils"

	"gorm.io/gorm"
)

// PaperOrderRepository is the order-placement sink behind PAPER_ORDER
// actions. Orders are simulated, never routed to a broker.
type PaperOrderRepository interface {
	PlaceOrder(ctx context.Context, param dto.PlaceOrderParam) (*dto.PlacedOrder, error)
	GetByRule(ctx context.Context, ruleID uint, limit int, opts ...utils.DBOption) ([]model.PaperOrder, error)
}

type paperOrderRepository struct {
	db *gorm.DB
}

func NewPaperOrderRepository(db *gorm.DB) PaperOrderRepository {
	return &paperOrderRepository{db: db}
}

func (r *paperOrderRepository) PlaceOrder(ctx context.Context, param dto.PlaceOrderParam) (*dto.PlacedOrder, error) {
	order := model.PaperOrder{
		RuleID:      param.RuleID,
		Symbol:      param.Symbol,
		Qty:         param.Qty,
		Side:        param.Side,
		Type:        param.Type,
		LimitPrice:  param.LimitPrice,
		StopPrice:   param.StopPrice,
		State:       model.OrderStateAccepted,
		LastMessage: "paper order accepted",
	}
	if err := r.db.WithContext(ctx).Create(&order).Error; err != nil {
		return nil, err
	}

	return &dto.PlacedOrder{
		ID:          order.ID,
		State:       order.State,
		LastMessage: order.LastMessage,
	}, nil
}

func (r *paperOrderRepository) GetByRule(ctx context.Context, ruleID uint, limit int, opts ...utils.DBOption) ([]model.PaperOrder, error) {
	tx := utils.ApplyOptions(r.db.WithContext(ctx), opts...)

	var orders []model.PaperOrder
	err := tx.Where("rule_id = ?", ruleID).
		Order("created_at DESC").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}
