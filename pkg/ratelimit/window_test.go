package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWindowCounter_CountSince(t *testing.T) {
	now := time.Now()
	w := NewWindowCounter(time.Hour)

	w.Record("rule-1", now.Add(-50*time.Minute))
	w.Record("rule-1", now.Add(-10*time.Minute))
	w.Record("rule-1", now)
	w.Record("rule-2", now)

	assert.Equal(t, 3, w.CountSince("rule-1", now.Add(-time.Hour)))
	assert.Equal(t, 2, w.CountSince("rule-1", now.Add(-30*time.Minute)))
	assert.Equal(t, 1, w.CountSince("rule-2", now.Add(-time.Hour)))
	assert.Equal(t, 0, w.CountSince("rule-3", now.Add(-time.Hour)))
}

func TestWindowCounter_PrunesOldEvents(t *testing.T) {
	now := time.Now()
	w := NewWindowCounter(time.Hour)

	w.Record("rule-1", now.Add(-2*time.Hour))
	w.Record("rule-1", now)

	// the 2h-old event is outside retention and gone after the next Record
	assert.Equal(t, 1, w.CountSince("rule-1", now.Add(-3*time.Hour)))
}
