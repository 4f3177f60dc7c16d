package indicator

// MovingAverage computes the arithmetic mean of the last period elements.
// The second return is false while the series is still warming up
// (len(values) < period); that is a control-flow signal, not a failure.
func MovingAverage(values []float64, period int) (float64, bool) {
	if period <= 0 || len(values) < period {
		return 0, false
	}

	var sum float64
	for _, v := range values[len(values)-period:] {
		sum += v
	}
	return sum / float64(period), true
}
