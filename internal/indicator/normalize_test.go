package indicator

import (
	"encoding/json"
	"testing"

	"microtrade/internal/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_SortsAscending(t *testing.T) {
	raw := json.RawMessage(`[
		{"t": 3000, "o": 3, "h": 3, "l": 3, "c": 3},
		{"t": 1000, "o": 1, "h": 1, "l": 1, "c": 1},
		{"t": 2000, "o": 2, "h": 2, "l": 2, "c": 2}
	]`)

	candles, err := Normalize(raw)
	require.NoError(t, err)
	require.Len(t, candles, 3)
	assert.Equal(t, int64(1000), candles[0].Timestamp)
	assert.Equal(t, int64(2000), candles[1].Timestamp)
	assert.Equal(t, int64(3000), candles[2].Timestamp)
}

func TestNormalize_StringTypedNumerics(t *testing.T) {
	raw := json.RawMessage(`[{"t": "1000", "o": "1.5", "h": "2.5", "l": "0.5", "c": "2.0", "v": "100"}]`)

	candles, err := Normalize(raw)
	require.NoError(t, err)
	require.Len(t, candles, 1)
	assert.Equal(t, 1.5, candles[0].Open)
	assert.Equal(t, 2.0, candles[0].Close)
	require.NotNil(t, candles[0].Volume)
	assert.Equal(t, 100.0, *candles[0].Volume)
}

func TestNormalize_VolumeOptional(t *testing.T) {
	raw := json.RawMessage(`[{"t": 1000, "o": 1, "h": 1, "l": 1, "c": 1}]`)

	candles, err := Normalize(raw)
	require.NoError(t, err)
	assert.Nil(t, candles[0].Volume)
}

func TestNormalize_NotAnArray(t *testing.T) {
	_, err := Normalize(json.RawMessage(`{"t": 1}`))
	require.Error(t, err)

	var vErr *dto.ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestNormalize_MissingRequiredField(t *testing.T) {
	raw := json.RawMessage(`[{"t": 1000, "o": 1, "h": 1, "l": 1}]`)

	_, err := Normalize(raw)
	require.Error(t, err)

	var vErr *dto.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Error(), `"c"`)
}

func TestNormalize_NonNumericField(t *testing.T) {
	raw := json.RawMessage(`[{"t": 1000, "o": "abc", "h": 1, "l": 1, "c": 1}]`)

	_, err := Normalize(raw)
	var vErr *dto.ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestNormalize_DuplicateTimestampsKeptStable(t *testing.T) {
	raw := json.RawMessage(`[
		{"t": 1000, "o": 1, "h": 1, "l": 1, "c": 1},
		{"t": 1000, "o": 2, "h": 2, "l": 2, "c": 2}
	]`)

	candles, err := Normalize(raw)
	require.NoError(t, err)
	require.Len(t, candles, 2)
	assert.Equal(t, 1.0, candles[0].Close)
	assert.Equal(t, 2.0, candles[1].Close)
}
