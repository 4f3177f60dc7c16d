package indicator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMovingAverage(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		period int
		want   float64
		ok     bool
	}{
		{name: "exact window", values: []float64{1, 2, 3}, period: 3, want: 2, ok: true},
		{name: "last period elements only", values: []float64{100, 1, 2, 3}, period: 3, want: 2, ok: true},
		{name: "period one", values: []float64{5, 7}, period: 1, want: 7, ok: true},
		{name: "warming up", values: []float64{1, 2}, period: 3, ok: false},
		{name: "empty series", values: nil, period: 2, ok: false},
		{name: "non-positive period", values: []float64{1, 2, 3}, period: 0, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MovingAverage(tt.values, tt.period)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.want, got, 1e-12)
			}
		})
	}
}
