package indicator

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

func TestSMACrossSignals_FirstCross(t *testing.T) {
	// fast=2, slow=3: the previous-bar pair is first complete at bar index 3,
	// where fast moves from 10 (<= slow 10) to 11.5 (> slow 11.33).
	candles := candlesFromCloses(10, 11, 9, 14)

	signals := SMACrossSignals(candles, 2, 3)

	require.Len(t, signals, 1)
	assert.Equal(t, dto.SignalBuy, signals[0].Kind)
	assert.Equal(t, int64(4), signals[0].Timestamp)
	assert.Equal(t, 14.0, signals[0].Price)
}

func TestSMACrossSignals_SellOnReverseFlip(t *testing.T) {
	candles := candlesFromCloses(10, 11, 9, 14, 13, 10)

	signals := SMACrossSignals(candles, 2, 3)

	require.Len(t, signals, 2)
	assert.Equal(t, dto.SignalBuy, signals[0].Kind)
	assert.Equal(t, dto.SignalSell, signals[1].Kind)
	assert.Equal(t, int64(6), signals[1].Timestamp)
	assert.Equal(t, 10.0, signals[1].Price)
}

func TestSMACrossSignals_NoSignalDuringWarmup(t *testing.T) {
	candles := candlesFromCloses(10, 11, 9)
	assert.Empty(t, SMACrossSignals(candles, 2, 3))
}

func TestSMACrossSignals_NonRepaint(t *testing.T) {
	// Appending future bars must never change a signal already attributed to
	// an earlier bar: the run over every prefix agrees with the full run.
	candles := candlesFromCloses(10, 11, 9, 14, 13, 10, 9, 12, 15, 11, 8, 13)
	full := SMACrossSignals(candles, 2, 3)

	for i := 1; i <= len(candles); i++ {
		prefix := SMACrossSignals(candles[:i], 2, 3)
		for j, signal := range prefix {
			assert.Equal(t, full[j], signal, "prefix of %d bars diverged at signal %d", i, j)
		}
	}
}

func TestSMACrossSignals_InclusiveBoundary(t *testing.T) {
	// prev fast == prev slow exactly, then fast breaks above: that is a BUY.
	// With fast=1, slow=2: closes 10,10 give prev fast 10 == prev slow 10;
	// close 12 gives fast 12 > slow 11.
	candles := candlesFromCloses(10, 10, 12)

	signals := SMACrossSignals(candles, 1, 2)

	require.Len(t, signals, 1)
	assert.Equal(t, dto.SignalBuy, signals[0].Kind)
	assert.Equal(t, int64(3), signals[0].Timestamp)
}

func TestValidatePeriods(t *testing.T) {
	assert.NoError(t, ValidatePeriods(2, 3))

	err := ValidatePeriods(0, 3)
	require.Error(t, err)
	var vErr *dto.ValidationError
	assert.ErrorAs(t, err, &vErr)

	assert.Error(t, ValidatePeriods(2, -1))
}
