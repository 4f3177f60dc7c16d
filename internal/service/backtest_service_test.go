package service

import (
	"context"
	"encoding/json"
	"testing"

	"microtrade/internal/dto"
	"microtrade/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBacktestFixture(t *testing.T, market *stubMarketData) BacktestService {
	t.Helper()
	log, err := logger.New("error", "console")
	require.NoError(t, err)
	return NewBacktestService(log, market)
}

func TestRunBacktest_InlineCandles(t *testing.T) {
	svc := newBacktestFixture(t, &stubMarketData{})

	raw, err := json.Marshal([]map[string]interface{}{
		{"t": 1, "o": 10, "h": 10, "l": 10, "c": 10},
		{"t": 2, "o": 11, "h": 11, "l": 11, "c": 11},
		{"t": 3, "o": 9, "h": 9, "l": 9, "c": 9},
		{"t": 4, "o": 14, "h": 14, "l": 14, "c": 14},
	})
	require.NoError(t, err)

	result, err := svc.RunBacktest(context.Background(), dto.BacktestRequest{
		Symbol:     "BTCUSDT",
		Candles:    raw,
		FastPeriod: 2,
		SlowPeriod: 3,
	})

	require.NoError(t, err)
	assert.Equal(t, "BTCUSDT", result.Symbol)
	assert.Equal(t, "LONG", result.OpenSide)
	assert.Zero(t, result.Trades)
}

func TestRunBacktest_FetchesWhenNoCandles(t *testing.T) {
	market := &stubMarketData{candles: []dto.Candle{
		{Timestamp: 1, Open: 10, High: 10, Low: 10, Close: 10},
		{Timestamp: 2, Open: 12, High: 12, Low: 12, Close: 12},
		{Timestamp: 3, Open: 11, High: 11, Low: 11, Close: 11},
	}}
	svc := newBacktestFixture(t, market)

	result, err := svc.RunBacktest(context.Background(), dto.BacktestRequest{
		Symbol:     "ETHUSDT",
		Interval:   "1h",
		FastPeriod: 1,
		SlowPeriod: 2,
	})

	require.NoError(t, err)
	assert.Equal(t, "ETHUSDT", result.Symbol)
}

func TestRunBacktest_InvalidPeriods(t *testing.T) {
	svc := newBacktestFixture(t, &stubMarketData{})

	_, err := svc.RunBacktest(context.Background(), dto.BacktestRequest{
		Symbol:     "BTCUSDT",
		FastPeriod: 0,
		SlowPeriod: 2,
	})

	var validationErr *dto.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestRunBacktest_NegativeSpread(t *testing.T) {
	svc := newBacktestFixture(t, &stubMarketData{})

	_, err := svc.RunBacktest(context.Background(), dto.BacktestRequest{
		Symbol:     "BTCUSDT",
		FastPeriod: 1,
		SlowPeriod: 2,
		Fill:       dto.FillModelConfig{Spread: -0.1},
	})

	var computationErr *dto.ComputationError
	assert.ErrorAs(t, err, &computationErr)
}

func TestRunBacktest_MissingSymbolAndCandles(t *testing.T) {
	svc := newBacktestFixture(t, &stubMarketData{})

	_, err := svc.RunBacktest(context.Background(), dto.BacktestRequest{
		FastPeriod: 1,
		SlowPeriod: 2,
	})

	var validationErr *dto.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}
