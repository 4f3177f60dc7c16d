package repository

import (
	"context"
	"fmt"
	"microtrade/config"
	"microtrade/internal/dto"
	"microtrade/pkg/httpclient"
	"microtrade/pkg/logger"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// MarketDataRepository fetches OHLCV series and last prices from the Binance
// public REST API. Requests share one rate limiter so backtests and the
// scheduler cannot exceed the configured budget together.
type MarketDataRepository interface {
	GetKlines(ctx context.Context, param dto.GetMarketDataParam) ([]dto.Candle, error)
	GetLastPrice(ctx context.Context, symbol string) (float64, error)
}

type marketDataRepository struct {
	httpClient     httpclient.HTTPClient
	cfg            *config.Config
	logger         *logger.Logger
	requestLimiter *rate.Limiter
}

func NewMarketDataRepository(cfg *config.Config, log *logger.Logger) MarketDataRepository {
	secondsPerRequest := time.Minute / time.Duration(cfg.MarketData.MaxRequestPerMinute)
	requestLimiter := rate.NewLimiter(rate.Every(secondsPerRequest), 1)

	return &marketDataRepository{
		httpClient:     httpclient.New(cfg.MarketData.BaseURL, cfg.MarketData.Timeout),
		cfg:            cfg,
		logger:         log,
		requestLimiter: requestLimiter,
	}
}

func (r *marketDataRepository) GetKlines(ctx context.Context, param dto.GetMarketDataParam) ([]dto.Candle, error) {
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	limit := param.Limit
	if limit <= 0 {
		limit = r.cfg.MarketData.KlineLimit
	}

	endpoint := "/api/v3/klines"
	queryParams := map[string]string{
		"symbol":   param.Symbol,
		"interval": param.Interval,
		"limit":    strconv.Itoa(limit),
	}

	var klines [][]interface{}
	resp, err := r.httpClient.Get(ctx, endpoint, queryParams, nil, &klines)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch klines: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		r.logger.Error("Market data API returned Non-OK status for klines",
			logger.IntField("status_code", resp.StatusCode),
			logger.StringField("body", string(resp.Body)))
		return nil, fmt.Errorf("market data api returned status: %d", resp.StatusCode)
	}

	candles := make([]dto.Candle, 0, len(klines))
	for _, k := range klines {
		if len(k) < 6 {
			continue
		}
		openTime, _ := k[0].(float64)
		open, _ := parseKlineNumber(k[1])
		high, _ := parseKlineNumber(k[2])
		low, _ := parseKlineNumber(k[3])
		closePrice, _ := parseKlineNumber(k[4])
		volume, _ := parseKlineNumber(k[5])

		candles = append(candles, dto.Candle{
			Timestamp: int64(openTime),
			Open:      open,
			High:      high,
			Low:       low,
			Close:     closePrice,
			Volume:    &volume,
		})
	}

	return candles, nil
}

func (r *marketDataRepository) GetLastPrice(ctx context.Context, symbol string) (float64, error) {
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return 0, err
	}

	endpoint := "/api/v3/ticker/price"
	queryParams := map[string]string{"symbol": symbol}

	var price dto.BinancePrice
	resp, err := r.httpClient.Get(ctx, endpoint, queryParams, nil, &price)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch last price: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("market data api returned status: %d", resp.StatusCode)
	}

	lastPrice, err := strconv.ParseFloat(price.Price, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse last price %q: %w", price.Price, err)
	}
	return lastPrice, nil
}

// Binance sends kline prices as strings and times as numbers.
func parseKlineNumber(v interface{}) (float64, bool) {
	switch value := v.(type) {
	case float64:
		return value, true
	case string:
		n, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
