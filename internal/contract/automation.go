package contract

import (
	"context"
	"time"

	"microtrade/internal/dto"
)

// RunCounter reports how many evaluation runs a rule has recorded inside the
// trailing window. It counts every run, triggered or not.
type RunCounter interface {
	CountRunsSince(ctx context.Context, ruleID uint, since time.Time) (int64, error)
}

// OrderPlacer is the external order-placement sink for PAPER_ORDER actions.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, param dto.PlaceOrderParam) (*dto.PlacedOrder, error)
}

// AuditLog receives the append-only trail of automation behavior: one run
// record per evaluation plus the per-step events inside it.
type AuditLog interface {
	RecordRun(ctx context.Context, result dto.RunResult, startedAt time.Time) (runID uint, err error)
	RecordEvent(ctx context.Context, ruleID uint, runID *uint, eventType, detail string) error
}

// Notifier delivers ALERT_ONLY action messages.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}
