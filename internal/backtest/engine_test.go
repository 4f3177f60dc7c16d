package backtest

import (
	"testing"

	"microtrade/internal/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candlesFromCloses(closes ...float64) []dto.Candle {
	candles := make([]dto.Candle, len(closes))
	for i, c := range closes {
		candles[i] = dto.Candle{Timestamp: int64(i + 1), Open: c, High: c, Low: c, Close: c}
	}
	return candles
}

func TestRun_EntryOnFirstCross_PositionLeftOpen(t *testing.T) {
	// First BUY fires on the final bar, so the run ends with an open LONG,
	// zero completed trades, and a win rate of exactly 0 (no NaN).
	candles := candlesFromCloses(10, 11, 9, 14)

	result := Run(candles, 2, 3, FillModel{})

	require.Len(t, result.Events, 1)
	entry := result.Events[0]
	assert.Equal(t, dto.EventEntry, entry.Type)
	assert.Equal(t, int64(4), entry.Timestamp)
	assert.Equal(t, "LONG", entry.Side)
	assert.Equal(t, 14.0, entry.Price)

	assert.Equal(t, 0, result.Trades)
	assert.Zero(t, result.WinRate)
	assert.Equal(t, "LONG", result.OpenSide)
}

func TestRun_FullCycle_ZeroCosts(t *testing.T) {
	// BUY at close 14, SELL cross at close 10: net PnL is the raw
	// close-to-close difference since every cost is zero.
	candles := candlesFromCloses(10, 11, 9, 14, 13, 10)

	result := Run(candles, 2, 3, FillModel{})

	assert.Equal(t, 1, result.Trades)
	assert.Equal(t, 0, result.Wins)
	assert.InDelta(t, -4.0, result.NetPnl, 1e-12)
	assert.InDelta(t, 4.0, result.MaxDrawdown, 1e-12)
	assert.Empty(t, result.OpenSide)

	require.Len(t, result.Events, 3)
	assert.Equal(t, dto.EventEntry, result.Events[0].Type)
	assert.Equal(t, dto.EventExit, result.Events[1].Type)
	assert.Equal(t, dto.EventEquity, result.Events[2].Type)
	assert.Equal(t, 10.0, result.Events[1].Price)
	assert.InDelta(t, -4.0, result.Events[2].Equity, 1e-12)
}

func TestRun_CommissionDeductedOnBothLegs(t *testing.T) {
	candles := candlesFromCloses(10, 11, 9, 14, 13, 10)

	result := Run(candles, 2, 3, FillModel{CommissionPerTrade: 1})

	// -4 raw, minus commission at entry and again at exit
	assert.InDelta(t, -6.0, result.NetPnl, 1e-12)
}

func TestRun_SpreadAppliedToEntryFill(t *testing.T) {
	candles := candlesFromCloses(10, 11, 9, 14)

	result := Run(candles, 2, 3, FillModel{Spread: 0.10})

	require.Len(t, result.Events, 1)
	assert.InDelta(t, 14.05, result.Events[0].Price, 1e-12)
}

func TestRun_WinningTrade(t *testing.T) {
	candles := candlesFromCloses(10, 10, 12, 20, 18)

	result := Run(candles, 1, 2, FillModel{})

	assert.Equal(t, 1, result.Trades)
	assert.Equal(t, 1, result.Wins)
	assert.Equal(t, 1.0, result.WinRate)
	assert.InDelta(t, 6.0, result.NetPnl, 1e-12)
	assert.Zero(t, result.MaxDrawdown)
}

func TestRun_AtMostOneOpenPosition(t *testing.T) {
	candles := candlesFromCloses(10, 11, 9, 14, 13, 10, 9, 12, 15, 11, 8, 13)

	result := Run(candles, 2, 3, FillModel{Spread: 0.02, Slippage: 0.01, CommissionPerTrade: 0.5})

	open := false
	for _, event := range result.Events {
		switch event.Type {
		case dto.EventEntry:
			require.False(t, open, "two consecutive ENTRY events without an EXIT")
			open = true
		case dto.EventExit:
			require.True(t, open, "EXIT without a matching ENTRY")
			open = false
		}
	}
}

func TestRun_EquityConservationFromEvents(t *testing.T) {
	// Recompute net PnL independently from the event trail and check it
	// matches both the reported NetPnl and the final EQUITY event.
	fill := FillModel{Spread: 0.02, Slippage: 0.01, CommissionPerTrade: 0.5}
	candles := candlesFromCloses(10, 11, 9, 14, 13, 10, 9, 12, 15, 11, 8, 13)

	result := Run(candles, 2, 3, fill)
	require.Greater(t, result.Trades, 0)

	var (
		recomputed float64
		entryPrice float64
		entrySide  string
		lastEquity float64
	)
	for _, event := range result.Events {
		switch event.Type {
		case dto.EventEntry:
			entryPrice = event.Price
			entrySide = event.Side
			recomputed -= fill.CommissionPerTrade
		case dto.EventExit:
			pnl := event.Price - entryPrice
			if entrySide == "SHORT" {
				pnl = -pnl
			}
			recomputed += pnl - fill.CommissionPerTrade
		case dto.EventEquity:
			lastEquity = event.Equity
		}
	}

	// an open position at series end contributes only its entry commission
	assert.InDelta(t, result.NetPnl, recomputed, 1e-9)
	if result.OpenSide == "" {
		assert.InDelta(t, result.NetPnl, lastEquity, 1e-9)
	}

	assert.GreaterOrEqual(t, result.WinRate, 0.0)
	assert.LessOrEqual(t, result.WinRate, 1.0)
}

func TestRun_ShortEntryWhileFlat(t *testing.T) {
	// SELL cross with no open position opens a SHORT.
	candles := candlesFromCloses(12, 12, 10)

	result := Run(candles, 1, 2, FillModel{})

	require.Len(t, result.Events, 1)
	assert.Equal(t, "SHORT", result.Events[0].Side)
	assert.Equal(t, "SHORT", result.OpenSide)
}
