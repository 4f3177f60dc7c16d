package service

import (
	"context"
	"fmt"
	"microtrade/internal/backtest"
	"microtrade/internal/dto"
	"microtrade/internal/indicator"
	"microtrade/internal/repository"
	"microtrade/pkg/logger"
)

// BacktestService runs a crossover simulation over a candle series, either
// pasted in the request or fetched from market data.
type BacktestService interface {
	RunBacktest(ctx context.Context, req dto.BacktestRequest) (*dto.BacktestResult, error)
}

type backtestService struct {
	log            *logger.Logger
	marketDataRepo repository.MarketDataRepository
}

func NewBacktestService(log *logger.Logger, marketDataRepo repository.MarketDataRepository) BacktestService {
	return &backtestService{
		log:            log,
		marketDataRepo: marketDataRepo,
	}
}

func (s *backtestService) RunBacktest(ctx context.Context, req dto.BacktestRequest) (*dto.BacktestResult, error) {
	if err := indicator.ValidatePeriods(req.FastPeriod, req.SlowPeriod); err != nil {
		return nil, err
	}

	fill := backtest.FillModel{
		Spread:             req.Fill.Spread,
		Slippage:           req.Fill.Slippage,
		CommissionPerTrade: req.Fill.CommissionPerTrade,
	}
	if err := fill.Validate(); err != nil {
		return nil, err
	}

	candles, err := s.resolveCandles(ctx, req)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to resolve candles for backtest",
			logger.ErrorField(err),
			logger.StringField("symbol", req.Symbol))
		return nil, err
	}

	result := backtest.Run(candles, req.FastPeriod, req.SlowPeriod, fill)
	result.Symbol = req.Symbol

	s.log.InfoContext(ctx, "Backtest completed",
		logger.StringField("symbol", req.Symbol),
		logger.IntField("candles", len(candles)),
		logger.IntField("trades", result.Trades),
		logger.Float64Field("net_pnl", result.NetPnl))
	return &result, nil
}

func (s *backtestService) resolveCandles(ctx context.Context, req dto.BacktestRequest) ([]dto.Candle, error) {
	if len(req.Candles) > 0 {
		return indicator.Normalize(req.Candles)
	}

	if req.Symbol == "" || req.Interval == "" {
		return nil, dto.NewValidationError("either candles or symbol and interval are required")
	}

	candles, err := s.marketDataRepo.GetKlines(ctx, dto.GetMarketDataParam{
		Symbol:   req.Symbol,
		Interval: req.Interval,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch candles: %w", err)
	}
	return candles, nil
}
