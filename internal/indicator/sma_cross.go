package indicator

import (
	"fmt"

	"microtrade/internal/dto"
)

// CrossTracker walks bars in time order and emits SMA crossover signals using
// only data available at each bar's close. A signal attributed to bar i never
// depends on any later bar, so appending future bars can never change a past
// signal (the non-repaint property).
type CrossTracker struct {
	fastPeriod int
	slowPeriod int
	closes     []float64
}

func NewCrossTracker(fastPeriod, slowPeriod int) *CrossTracker {
	return &CrossTracker{
		fastPeriod: fastPeriod,
		slowPeriod: slowPeriod,
	}
}

// Update appends the bar's close and reports the signal fired at this bar, if
// any. No signal is possible while either average, at this bar or the
// previous one, is still warming up.
func (t *CrossTracker) Update(candle dto.Candle) (dto.Signal, bool) {
	prevFast, prevFastOK := MovingAverage(t.closes, t.fastPeriod)
	prevSlow, prevSlowOK := MovingAverage(t.closes, t.slowPeriod)

	t.closes = append(t.closes, candle.Close)

	fast, fastOK := MovingAverage(t.closes, t.fastPeriod)
	slow, slowOK := MovingAverage(t.closes, t.slowPeriod)

	if !prevFastOK || !prevSlowOK || !fastOK || !slowOK {
		return dto.Signal{}, false
	}

	// Boundary is deliberately inclusive on the previous bar: an exact touch
	// followed by a break counts as a cross attributed to this bar.
	if prevFast <= prevSlow && fast > slow {
		return t.signalAt(candle, dto.SignalBuy), true
	}
	if prevFast >= prevSlow && fast < slow {
		return t.signalAt(candle, dto.SignalSell), true
	}

	return dto.Signal{}, false
}

func (t *CrossTracker) signalAt(candle dto.Candle, kind dto.SignalKind) dto.Signal {
	return dto.Signal{
		Timestamp: candle.Timestamp,
		Kind:      kind,
		Price:     candle.Close,
		Label:     fmt.Sprintf("SMA %d/%d cross", t.fastPeriod, t.slowPeriod),
	}
}

// SMACrossSignals runs the tracker over a full series.
func SMACrossSignals(candles []dto.Candle, fastPeriod, slowPeriod int) []dto.Signal {
	tracker := NewCrossTracker(fastPeriod, slowPeriod)
	var signals []dto.Signal
	for _, candle := range candles {
		if signal, ok := tracker.Update(candle); ok {
			signals = append(signals, signal)
		}
	}
	return signals
}

// ValidatePeriods rejects non-positive moving average periods before any
// computation runs.
func ValidatePeriods(fastPeriod, slowPeriod int) error {
	if fastPeriod <= 0 {
		return dto.NewValidationError("fast period must be positive, got %d", fastPeriod)
	}
	if slowPeriod <= 0 {
		return dto.NewValidationError("slow period must be positive, got %d", slowPeriod)
	}
	return nil
}
