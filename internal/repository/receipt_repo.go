package repository

import (
	"context"
	"microtrade/internal/model"
	"microtrade/pkg/utils"

	"gorm.io/gorm"
)

type ReceiptRepository interface {
	Create(ctx context.Context, receipt *model.IndicatorReceipt, opts ...utils.DBOption) error
	FindByID(ctx context.Context, id uint, opts ...utils.DBOption) (*model.IndicatorReceipt, error)
	GetLatest(ctx context.Context, indicatorID, symbol, timeframe string, opts ...utils.DBOption) (*model.IndicatorReceipt, error)
}

type receiptRepository struct {
	db *gorm.DB
}

func NewReceiptRepository(db *gorm.DB) ReceiptRepository {
	return &receiptRepository{db: db}
}

func (r *receiptRepository) Create(ctx context.Context, receipt *model.IndicatorReceipt, opts ...utils.DBOption) error {
	tx := utils.ApplyOptions(r.db.WithContext(ctx), opts...)
	return tx.Create(receipt).Error
}

func (r *receiptRepository) FindByID(ctx context.Context, id uint, opts ...utils.DBOption) (*model.IndicatorReceipt, error) {
	var receipt model.IndicatorReceipt
	tx := utils.ApplyOptions(r.db.WithContext(ctx), opts...)

	result := tx.First(&receipt, id)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, result.Error
	}
	return &receipt, nil
}

func (r *receiptRepository) GetLatest(ctx context.Context, indicatorID, symbol, timeframe string, opts ...utils.DBOption) (*model.IndicatorReceipt, error) {
	var receipt model.IndicatorReceipt
	tx := utils.ApplyOptions(r.db.WithContext(ctx), opts...)

	result := tx.Where("indicator_id = ? AND symbol = ? AND timeframe = ?", indicatorID, symbol, timeframe).
		Order("created_at DESC").
		First(&receipt)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, result.Error
	}
	return &receipt, nil
}
