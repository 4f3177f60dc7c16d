package indicator

import (
	"encoding/json"
	"sort"
	"strconv"

	"microtrade/internal/dto"
)

// Normalize converts raw pasted bar records into a strictly time-ascending
// candle series. Numeric fields may arrive as JSON numbers or numeric strings.
// Bars with duplicate timestamps are kept in their original relative order.
func Normalize(raw json.RawMessage) ([]dto.Candle, error) {
	var bars []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &bars); err != nil {
		return nil, dto.NewValidationError("candles must be a JSON array of bars: %v", err)
	}

	candles := make([]dto.Candle, 0, len(bars))
	for i, bar := range bars {
		t, err := numericField(bar, "t")
		if err != nil {
			return nil, dto.NewValidationError("bar %d: %v", i, err)
		}
		o, err := numericField(bar, "o")
		if err != nil {
			return nil, dto.NewValidationError("bar %d: %v", i, err)
		}
		h, err := numericField(bar, "h")
		if err != nil {
			return nil, dto.NewValidationError("bar %d: %v", i, err)
		}
		l, err := numericField(bar, "l")
		if err != nil {
			return nil, dto.NewValidationError("bar %d: %v", i, err)
		}
		c, err := numericField(bar, "c")
		if err != nil {
			return nil, dto.NewValidationError("bar %d: %v", i, err)
		}

		candle := dto.Candle{
			Timestamp: int64(t),
			Open:      o,
			High:      h,
			Low:       l,
			Close:     c,
		}

		// volume is optional per bar
		if _, ok := bar["v"]; ok {
			v, err := numericField(bar, "v")
			if err != nil {
				return nil, dto.NewValidationError("bar %d: %v", i, err)
			}
			candle.Volume = &v
		}

		candles = append(candles, candle)
	}

	sort.SliceStable(candles, func(i, j int) bool {
		return candles[i].Timestamp < candles[j].Timestamp
	})

	return candles, nil
}

func numericField(bar map[string]json.RawMessage, key string) (float64, error) {
	raw, ok := bar[key]
	if !ok {
		return 0, dto.NewValidationError("missing required field %q", key)
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, dto.NewValidationError("field %q is neither a number nor a numeric string", key)
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, dto.NewValidationError("field %q: %q is not numeric", key, s)
	}
	return n, nil
}
