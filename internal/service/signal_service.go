package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"microtrade/internal/dto"
	"microtrade/internal/indicator"
	"microtrade/internal/model"
	"microtrade/internal/repository"
	"microtrade/pkg/cache"
	"microtrade/pkg/common"
	"microtrade/pkg/logger"

	"gorm.io/datatypes"
)

// SignalService generates crossover signals over a candle series and stores a
// receipt binding the output to the exact input dataset and settings.
type SignalService interface {
	GenerateSignals(ctx context.Context, req dto.GenerateSignalsRequest) (*dto.SignalRunResult, error)
	GetLatestReceipt(ctx context.Context, symbol, timeframe string) (*dto.SignalReceipt, error)
}

type signalService struct {
	log           *logger.Logger
	receiptRepo   repository.ReceiptRepository
	inmemoryCache cache.Cache
}

func NewSignalService(log *logger.Logger, receiptRepo repository.ReceiptRepository, inmemoryCache cache.Cache) SignalService {
	return &signalService{
		log:           log,
		receiptRepo:   receiptRepo,
		inmemoryCache: inmemoryCache,
	}
}

type signalParams struct {
	FastPeriod int `json:"fast_period"`
	SlowPeriod int `json:"slow_period"`
}

func (s *signalService) GenerateSignals(ctx context.Context, req dto.GenerateSignalsRequest) (*dto.SignalRunResult, error) {
	if err := indicator.ValidatePeriods(req.FastPeriod, req.SlowPeriod); err != nil {
		return nil, err
	}

	candles, err := indicator.Normalize(req.Candles)
	if err != nil {
		return nil, err
	}

	signals := indicator.SMACrossSignals(candles, req.FastPeriod, req.SlowPeriod)

	params := signalParams{FastPeriod: req.FastPeriod, SlowPeriod: req.SlowPeriod}
	inputHash, err := hashSignalInput(candles, params)
	if err != nil {
		return nil, fmt.Errorf("failed to hash signal input: %w", err)
	}

	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal params: %w", err)
	}
	signalsJSON, err := json.Marshal(signals)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal signals: %w", err)
	}

	receipt := model.IndicatorReceipt{
		IndicatorID:      common.INDICATOR_SMA_CROSS,
		IndicatorVersion: common.INDICATOR_SMA_CROSS_VERSION,
		Symbol:           req.Symbol,
		Timeframe:        req.Timeframe,
		InputHash:        inputHash,
		ProofMode:        req.ProofMode,
		Params:           datatypes.JSON(paramsJSON),
		Signals:          datatypes.JSON(signalsJSON),
	}
	if err := s.receiptRepo.Create(ctx, &receipt); err != nil {
		s.log.ErrorContext(ctx, "Failed to store indicator receipt",
			logger.ErrorField(err),
			logger.StringField("symbol", req.Symbol))
		return nil, fmt.Errorf("failed to store receipt: %w", err)
	}

	if req.Symbol != "" {
		cacheKey := fmt.Sprintf(common.KEY_LATEST_RECEIPT, req.Symbol, req.Timeframe)
		s.inmemoryCache.Set(cacheKey, dto.SignalReceipt{
			IndicatorID:      receipt.IndicatorID,
			IndicatorVersion: receipt.IndicatorVersion,
			InputHash:        receipt.InputHash,
			ProofMode:        receipt.ProofMode,
			Signals:          signals,
		}, cache.DefaultExpiration)
	}

	s.log.InfoContext(ctx, "Signal generation completed",
		logger.StringField("symbol", req.Symbol),
		logger.IntField("candles", len(candles)),
		logger.IntField("signals", len(signals)))

	return &dto.SignalRunResult{
		ReceiptID:        receipt.ID,
		IndicatorID:      receipt.IndicatorID,
		IndicatorVersion: receipt.IndicatorVersion,
		InputHash:        inputHash,
		ProofMode:        req.ProofMode,
		Signals:          signals,
	}, nil
}

func (s *signalService) GetLatestReceipt(ctx context.Context, symbol, timeframe string) (*dto.SignalReceipt, error) {
	cacheKey := fmt.Sprintf(common.KEY_LATEST_RECEIPT, symbol, timeframe)
	if cached, ok := cache.GetTyped[dto.SignalReceipt](s.inmemoryCache, cacheKey); ok {
		return &cached, nil
	}

	receipt, err := s.receiptRepo.GetLatest(ctx, common.INDICATOR_SMA_CROSS, symbol, timeframe)
	if err != nil {
		return nil, err
	}
	if receipt == nil {
		return nil, nil
	}

	var signals []dto.Signal
	if err := json.Unmarshal(receipt.Signals, &signals); err != nil {
		return nil, fmt.Errorf("failed to unmarshal receipt signals: %w", err)
	}

	result := dto.SignalReceipt{
		IndicatorID:      receipt.IndicatorID,
		IndicatorVersion: receipt.IndicatorVersion,
		InputHash:        receipt.InputHash,
		ProofMode:        receipt.ProofMode,
		Signals:          signals,
	}
	s.inmemoryCache.Set(cacheKey, result, cache.DefaultExpiration)
	return &result, nil
}

// hashSignalInput fingerprints the normalized candle series together with the
// indicator settings, so a receipt can be checked against re-supplied data.
func hashSignalInput(candles []dto.Candle, params signalParams) (string, error) {
	payload := struct {
		Candles []dto.Candle `json:"candles"`
		Params  signalParams `json:"params"`
	}{Candles: candles, Params: params}

	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}
