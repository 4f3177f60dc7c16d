package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"microtrade/config"
	"microtrade/internal/dto"
	"microtrade/internal/model"
	"microtrade/pkg/cache"
	"microtrade/pkg/logger"
	"microtrade/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

type mockRunCounter struct{ mock.Mock }

func (m *mockRunCounter) CountRunsSince(ctx context.Context, ruleID uint, since time.Time) (int64, error) {
	args := m.Called(ctx, ruleID, since)
	return args.Get(0).(int64), args.Error(1)
}

type mockOrderPlacer struct{ mock.Mock }

func (m *mockOrderPlacer) PlaceOrder(ctx context.Context, param dto.PlaceOrderParam) (*dto.PlacedOrder, error) {
	args := m.Called(ctx, param)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.PlacedOrder), args.Error(1)
}

type mockAuditLog struct{ mock.Mock }

func (m *mockAuditLog) RecordRun(ctx context.Context, result dto.RunResult, startedAt time.Time) (uint, error) {
	args := m.Called(ctx, result, startedAt)
	return args.Get(0).(uint), args.Error(1)
}

func (m *mockAuditLog) RecordEvent(ctx context.Context, ruleID uint, runID *uint, eventType, detail string) error {
	args := m.Called(ctx, ruleID, runID, eventType, detail)
	return args.Error(0)
}

type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) Notify(ctx context.Context, message string) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

type stubRuleRepo struct {
	rule *model.AutomationRule
}

func (s *stubRuleRepo) Get(ctx context.Context, param model.GetAutomationRulesParam, opts ...utils.DBOption) ([]model.AutomationRule, error) {
	if s.rule == nil {
		return nil, nil
	}
	return []model.AutomationRule{*s.rule}, nil
}

func (s *stubRuleRepo) FindByID(ctx context.Context, id uint, opts ...utils.DBOption) (*model.AutomationRule, error) {
	if s.rule == nil || s.rule.ID != id {
		return nil, nil
	}
	return s.rule, nil
}

func (s *stubRuleRepo) FindDueScheduled(ctx context.Context, now time.Time, opts ...utils.DBOption) ([]model.AutomationRule, error) {
	return nil, nil
}

func (s *stubRuleRepo) Create(ctx context.Context, rule *model.AutomationRule, opts ...utils.DBOption) error {
	return nil
}

func (s *stubRuleRepo) Update(ctx context.Context, rule *model.AutomationRule, opts ...utils.DBOption) error {
	return nil
}

func (s *stubRuleRepo) Delete(ctx context.Context, id uint, opts ...utils.DBOption) error {
	return nil
}

type stubSignalService struct {
	receipt *dto.SignalReceipt
	err     error
}

func (s *stubSignalService) GenerateSignals(ctx context.Context, req dto.GenerateSignalsRequest) (*dto.SignalRunResult, error) {
	return nil, nil
}

func (s *stubSignalService) GetLatestReceipt(ctx context.Context, symbol, timeframe string) (*dto.SignalReceipt, error) {
	return s.receipt, s.err
}

type stubMarketData struct {
	lastPrice float64
	err       error
	candles   []dto.Candle
}

func (s *stubMarketData) GetKlines(ctx context.Context, param dto.GetMarketDataParam) ([]dto.Candle, error) {
	return s.candles, s.err
}

func (s *stubMarketData) GetLastPrice(ctx context.Context, symbol string) (float64, error) {
	return s.lastPrice, s.err
}

type automationFixture struct {
	service     AutomationService
	runCounter  *mockRunCounter
	orderPlacer *mockOrderPlacer
	auditLog    *mockAuditLog
	notifier    *mockNotifier
}

func newAutomationFixture(t *testing.T, rule *model.AutomationRule, receipt *dto.SignalReceipt, lastPrice float64) *automationFixture {
	t.Helper()

	log, err := logger.New("error", "console")
	require.NoError(t, err)

	cfg := &config.Config{
		Automation: config.Automation{
			RateLimitWindow:     time.Hour,
			OrderTimeout:        time.Second,
			LastPriceExpiration: time.Minute,
		},
	}

	f := &automationFixture{
		runCounter:  new(mockRunCounter),
		orderPlacer: new(mockOrderPlacer),
		auditLog:    new(mockAuditLog),
		notifier:    new(mockNotifier),
	}
	f.service = NewAutomationService(
		cfg,
		log,
		&stubRuleRepo{rule: rule},
		f.runCounter,
		f.orderPlacer,
		f.auditLog,
		f.notifier,
		&stubSignalService{receipt: receipt},
		&stubMarketData{lastPrice: lastPrice},
		cache.NewCache(time.Minute, time.Minute),
	)
	return f
}

func makeRule(t *testing.T, enabled bool, conditions []dto.Condition, actions []dto.Action, risk dto.RiskConfig) *model.AutomationRule {
	t.Helper()

	conditionsJSON, err := json.Marshal(conditions)
	require.NoError(t, err)
	actionsJSON, err := json.Marshal(actions)
	require.NoError(t, err)
	riskJSON, err := json.Marshal(risk)
	require.NoError(t, err)

	return &model.AutomationRule{
		ID:         1,
		UserID:     1,
		Name:       "btc breakout",
		Enabled:    enabled,
		Symbol:     "BTCUSDT",
		Timeframe:  "1h",
		Conditions: datatypes.JSON(conditionsJSON),
		Actions:    datatypes.JSON(actionsJSON),
		Risk:       datatypes.JSON(riskJSON),
	}
}

func expectRun(f *automationFixture) {
	f.auditLog.On("RecordRun", mock.Anything, mock.Anything, mock.Anything).Return(uint(7), nil)
	f.auditLog.On("RecordEvent", mock.Anything, uint(1), mock.Anything, mock.Anything, mock.Anything).Return(nil)
}

func TestEvaluateRule_Disabled(t *testing.T) {
	rule := makeRule(t, false,
		[]dto.Condition{{Type: dto.ConditionPriceGT, Value: 10}},
		[]dto.Action{{Type: dto.ActionAlertOnly}},
		dto.RiskConfig{})
	f := newAutomationFixture(t, rule, nil, 100)
	expectRun(f)

	result, err := f.service.EvaluateRule(context.Background(), 1)

	require.NoError(t, err)
	assert.False(t, result.Triggered)
	assert.Equal(t, dto.ReasonDisabled, result.Reason)
	assert.Zero(t, result.ActionsAttempted)
	f.auditLog.AssertCalled(t, "RecordRun", mock.Anything, mock.Anything, mock.Anything)
	f.orderPlacer.AssertNotCalled(t, "PlaceOrder", mock.Anything, mock.Anything)
	f.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
}

func TestEvaluateRule_KillSwitch(t *testing.T) {
	rule := makeRule(t, true,
		[]dto.Condition{{Type: dto.ConditionPriceGT, Value: 10}},
		[]dto.Action{{Type: dto.ActionPaperOrder, Qty: 1}},
		dto.RiskConfig{KillSwitch: true})
	f := newAutomationFixture(t, rule, nil, 100)
	expectRun(f)

	result, err := f.service.EvaluateRule(context.Background(), 1)

	require.NoError(t, err)
	assert.False(t, result.Triggered)
	assert.Equal(t, dto.ReasonKillSwitch, result.Reason)
	f.orderPlacer.AssertNotCalled(t, "PlaceOrder", mock.Anything, mock.Anything)
	f.auditLog.AssertCalled(t, "RecordEvent", mock.Anything, uint(1), mock.Anything, model.EventBlocked, mock.Anything)
}

func TestEvaluateRule_RateLimited(t *testing.T) {
	rule := makeRule(t, true,
		[]dto.Condition{{Type: dto.ConditionPriceGT, Value: 10}},
		[]dto.Action{{Type: dto.ActionPaperOrder, Qty: 1}},
		dto.RiskConfig{MaxOrdersPerHour: 2})
	f := newAutomationFixture(t, rule, nil, 100)
	f.runCounter.On("CountRunsSince", mock.Anything, uint(1), mock.Anything).Return(int64(3), nil)
	expectRun(f)

	result, err := f.service.EvaluateRule(context.Background(), 1)

	require.NoError(t, err)
	assert.False(t, result.Triggered)
	assert.Equal(t, dto.ReasonRateLimit, result.Reason)
	f.orderPlacer.AssertNotCalled(t, "PlaceOrder", mock.Anything, mock.Anything)
	f.auditLog.AssertCalled(t, "RecordRun", mock.Anything, mock.Anything, mock.Anything)
}

func TestEvaluateRule_ConditionsFalse(t *testing.T) {
	rule := makeRule(t, true,
		[]dto.Condition{{Type: dto.ConditionPriceGT, Value: 200}},
		[]dto.Action{{Type: dto.ActionAlertOnly}},
		dto.RiskConfig{})
	f := newAutomationFixture(t, rule, nil, 100)
	expectRun(f)

	result, err := f.service.EvaluateRule(context.Background(), 1)

	require.NoError(t, err)
	assert.False(t, result.Triggered)
	assert.Equal(t, dto.ReasonConditionsFalse, result.Reason)
	f.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
}

func TestEvaluateRule_SignalMatchMissingReceipt(t *testing.T) {
	rule := makeRule(t, true,
		[]dto.Condition{{Type: dto.ConditionSignalMatch, SignalKind: dto.SignalBuy}},
		[]dto.Action{{Type: dto.ActionAlertOnly}},
		dto.RiskConfig{})
	f := newAutomationFixture(t, rule, nil, 100)
	expectRun(f)

	result, err := f.service.EvaluateRule(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, dto.ReasonConditionsFalse, result.Reason)
}

func TestEvaluateRule_Triggered(t *testing.T) {
	rule := makeRule(t, true,
		[]dto.Condition{
			{Type: dto.ConditionPriceGT, Value: 50},
			{Type: dto.ConditionSignalMatch, IndicatorID: "sma-cross", SignalKind: dto.SignalBuy},
		},
		[]dto.Action{
			{Type: dto.ActionAlertOnly, Message: "breakout"},
			{Type: dto.ActionPaperOrder, Qty: 0.5, Side: "BUY", OrderType: "MARKET"},
		},
		dto.RiskConfig{MaxQtyPerOrder: 1})
	receipt := &dto.SignalReceipt{
		IndicatorID:      "sma-cross",
		IndicatorVersion: "1",
		Signals: []dto.Signal{
			{Timestamp: 1, Kind: dto.SignalSell, Price: 40},
			{Timestamp: 2, Kind: dto.SignalBuy, Price: 60},
		},
	}
	f := newAutomationFixture(t, rule, receipt, 100)
	f.notifier.On("Notify", mock.Anything, "breakout").Return(nil)
	f.orderPlacer.On("PlaceOrder", mock.Anything, mock.MatchedBy(func(p dto.PlaceOrderParam) bool {
		return p.RuleID == 1 && p.Symbol == "BTCUSDT" && p.Qty == 0.5
	})).Return(&dto.PlacedOrder{ID: 11, State: model.OrderStateAccepted}, nil)
	expectRun(f)

	result, err := f.service.EvaluateRule(context.Background(), 1)

	require.NoError(t, err)
	assert.True(t, result.Triggered)
	assert.Equal(t, dto.ReasonTriggered, result.Reason)
	assert.Equal(t, 2, result.ActionsAttempted)
	assert.Equal(t, 2, result.ActionsSucceeded)
	assert.Zero(t, result.ActionsFailed)
	f.notifier.AssertExpectations(t)
	f.orderPlacer.AssertExpectations(t)
}

func TestEvaluateRule_SignalMatchEarlierSignal(t *testing.T) {
	rule := makeRule(t, true,
		[]dto.Condition{{Type: dto.ConditionSignalMatch, SignalKind: dto.SignalBuy}},
		[]dto.Action{{Type: dto.ActionAlertOnly, Message: "matched"}},
		dto.RiskConfig{})
	// the requested kind is present but not the most recent signal
	receipt := &dto.SignalReceipt{
		IndicatorID:      "sma-cross",
		IndicatorVersion: "1",
		Signals: []dto.Signal{
			{Timestamp: 1, Kind: dto.SignalBuy, Price: 40},
			{Timestamp: 2, Kind: dto.SignalSell, Price: 35},
		},
	}
	f := newAutomationFixture(t, rule, receipt, 100)
	f.notifier.On("Notify", mock.Anything, "matched").Return(nil)
	expectRun(f)

	result, err := f.service.EvaluateRule(context.Background(), 1)

	require.NoError(t, err)
	assert.True(t, result.Triggered)
	assert.Equal(t, dto.ReasonTriggered, result.Reason)
	f.notifier.AssertExpectations(t)
}

func TestEvaluateRule_AuditFailureDoesNotMaskResult(t *testing.T) {
	rule := makeRule(t, true,
		[]dto.Condition{{Type: dto.ConditionPriceGT, Value: 50}},
		[]dto.Action{{Type: dto.ActionAlertOnly, Message: "fired"}},
		dto.RiskConfig{})
	f := newAutomationFixture(t, rule, nil, 100)
	f.notifier.On("Notify", mock.Anything, "fired").Return(nil)
	f.auditLog.On("RecordRun", mock.Anything, mock.Anything, mock.Anything).Return(uint(0), errors.New("audit store down"))
	f.auditLog.On("RecordEvent", mock.Anything, uint(1), (*uint)(nil), mock.Anything, mock.Anything).Return(nil)

	result, err := f.service.EvaluateRule(context.Background(), 1)

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.Triggered)
	assert.Equal(t, dto.ReasonTriggered, result.Reason)
	assert.Equal(t, 1, result.ActionsSucceeded)
	f.auditLog.AssertCalled(t, "RecordEvent", mock.Anything, uint(1), (*uint)(nil), mock.Anything, mock.Anything)
}

func TestEvaluateRule_ZeroMaxOrdersMeansUnlimited(t *testing.T) {
	rule := makeRule(t, true,
		[]dto.Condition{{Type: dto.ConditionPriceGT, Value: 50}},
		[]dto.Action{{Type: dto.ActionAlertOnly, Message: "no cap"}},
		dto.RiskConfig{MaxOrdersPerHour: 0})
	f := newAutomationFixture(t, rule, nil, 100)
	f.notifier.On("Notify", mock.Anything, "no cap").Return(nil)
	expectRun(f)

	result, err := f.service.EvaluateRule(context.Background(), 1)

	require.NoError(t, err)
	assert.True(t, result.Triggered)
	f.runCounter.AssertNotCalled(t, "CountRunsSince", mock.Anything, mock.Anything, mock.Anything)
}

func TestEvaluateRule_QtyCapRejectsOrderOnly(t *testing.T) {
	rule := makeRule(t, true,
		[]dto.Condition{{Type: dto.ConditionPriceGT, Value: 50}},
		[]dto.Action{
			{Type: dto.ActionPaperOrder, Qty: 5, Side: "BUY", OrderType: "MARKET"},
			{Type: dto.ActionAlertOnly, Message: "still fires"},
		},
		dto.RiskConfig{MaxQtyPerOrder: 1})
	f := newAutomationFixture(t, rule, nil, 100)
	f.notifier.On("Notify", mock.Anything, "still fires").Return(nil)
	expectRun(f)

	result, err := f.service.EvaluateRule(context.Background(), 1)

	require.NoError(t, err)
	assert.True(t, result.Triggered)
	assert.Equal(t, 2, result.ActionsAttempted)
	assert.Equal(t, 1, result.ActionsSucceeded)
	assert.Equal(t, 1, result.ActionsFailed)
	f.orderPlacer.AssertNotCalled(t, "PlaceOrder", mock.Anything, mock.Anything)
	f.notifier.AssertExpectations(t)
}

func TestEvaluateRule_OrderErrorDoesNotPropagate(t *testing.T) {
	rule := makeRule(t, true,
		[]dto.Condition{{Type: dto.ConditionPriceLT, Value: 200}},
		[]dto.Action{{Type: dto.ActionPaperOrder, Qty: 1, Side: "SELL", OrderType: "MARKET"}},
		dto.RiskConfig{})
	f := newAutomationFixture(t, rule, nil, 100)
	f.orderPlacer.On("PlaceOrder", mock.Anything, mock.Anything).Return(nil, errors.New("sink unavailable"))
	expectRun(f)

	result, err := f.service.EvaluateRule(context.Background(), 1)

	require.NoError(t, err)
	assert.True(t, result.Triggered)
	assert.Equal(t, 1, result.ActionsAttempted)
	assert.Equal(t, 1, result.ActionsFailed)
	f.auditLog.AssertCalled(t, "RecordEvent", mock.Anything, uint(1), mock.Anything, model.EventActionFail, mock.Anything)
}

func TestEvaluateRule_NotFound(t *testing.T) {
	f := newAutomationFixture(t, nil, nil, 0)

	_, err := f.service.EvaluateRule(context.Background(), 99)

	assert.ErrorIs(t, err, ErrRuleNotFound)
	f.auditLog.AssertNotCalled(t, "RecordRun", mock.Anything, mock.Anything, mock.Anything)
}
