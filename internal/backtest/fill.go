package backtest

import "microtrade/internal/dto"

type Side string

const (
	Long  Side = "LONG"
	Short Side = "SHORT"
)

type Phase string

const (
	Entry Phase = "ENTRY"
	Exit  Phase = "EXIT"
)

// FillModel converts a raw close price into an executable fill price.
// Immutable per run; identical inputs always yield the identical fill.
type FillModel struct {
	Spread             float64
	Slippage           float64
	CommissionPerTrade float64
}

func (m FillModel) Validate() error {
	if m.Spread < 0 {
		return dto.NewComputationError("spread must be >= 0, got %v", m.Spread)
	}
	if m.Slippage < 0 {
		return dto.NewComputationError("slippage must be >= 0, got %v", m.Slippage)
	}
	if m.CommissionPerTrade < 0 {
		return dto.NewComputationError("commission must be >= 0, got %v", m.CommissionPerTrade)
	}
	return nil
}

// ApplyFill prices an execution against the trader on both legs: a LONG pays
// the ask to enter and receives the bid to exit, a SHORT the reverse, and
// slippage always pushes the fill further from the trader's favor.
func ApplyFill(midPrice float64, side Side, model FillModel, phase Phase) float64 {
	sideSign := 1.0
	if side == Short {
		sideSign = -1.0
	}
	phaseSign := 1.0
	if phase == Exit {
		phaseSign = -1.0
	}

	return midPrice + sideSign*phaseSign*(model.Spread/2+model.Slippage)
}
