package backtest

import (
	"fmt"

	"microtrade/internal/dto"
	"microtrade/internal/indicator"
)

// position is the single transient open position of a run.
type position struct {
	side       Side
	entryPrice float64
	entryTime  int64
}

// Run drives the crossover tracker and the fill model through a candle
// series: FLAT -> (entry signal) -> IN_POSITION -> (opposite signal) -> FLAT,
// until candles are exhausted. At most one position is open at a time; a
// position still open at series end is left open, not force-closed.
//
// Candles must already be normalized; the engine itself is pure computation
// with no recoverable error paths.
func Run(candles []dto.Candle, fastPeriod, slowPeriod int, fill FillModel) dto.BacktestResult {
	tracker := indicator.NewCrossTracker(fastPeriod, slowPeriod)

	var (
		events      []dto.BacktestEvent
		pos         *position
		equity      float64
		peak        float64
		maxDrawdown float64
		trades      int
		wins        int
	)

	for _, candle := range candles {
		signal, ok := tracker.Update(candle)
		if !ok {
			continue
		}

		switch {
		case pos == nil:
			side := Long
			if signal.Kind == dto.SignalSell {
				side = Short
			}
			fillPrice := ApplyFill(candle.Close, side, fill, Entry)
			equity -= fill.CommissionPerTrade
			pos = &position{side: side, entryPrice: fillPrice, entryTime: candle.Timestamp}
			events = append(events, dto.BacktestEvent{
				Type:      dto.EventEntry,
				Timestamp: candle.Timestamp,
				Side:      string(side),
				Price:     fillPrice,
				Note:      signal.Label,
			})

		case opposes(pos.side, signal.Kind):
			exitPrice := ApplyFill(candle.Close, pos.side, fill, Exit)
			pnl := exitPrice - pos.entryPrice
			if pos.side == Short {
				pnl = -pnl
			}
			equity += pnl - fill.CommissionPerTrade
			trades++
			if pnl > 0 {
				wins++
			}

			events = append(events, dto.BacktestEvent{
				Type:      dto.EventExit,
				Timestamp: candle.Timestamp,
				Side:      string(pos.side),
				Price:     exitPrice,
				Note:      fmt.Sprintf("pnl %.6f", pnl),
			})
			events = append(events, dto.BacktestEvent{
				Type:      dto.EventEquity,
				Timestamp: candle.Timestamp,
				Equity:    equity,
			})

			// drawdown tracked at exit points only, equity is not
			// marked-to-market intrabar
			if equity > peak {
				peak = equity
			}
			if dd := peak - equity; dd > maxDrawdown {
				maxDrawdown = dd
			}

			pos = nil
		}
	}

	result := dto.BacktestResult{
		NetPnl:      equity,
		Trades:      trades,
		Wins:        wins,
		MaxDrawdown: maxDrawdown,
		Events:      events,
	}
	if trades > 0 {
		result.WinRate = float64(wins) / float64(trades)
	}
	if pos != nil {
		result.OpenSide = string(pos.side)
	}

	return result
}

func opposes(side Side, kind dto.SignalKind) bool {
	return (side == Long && kind == dto.SignalSell) ||
		(side == Short && kind == dto.SignalBuy)
}
