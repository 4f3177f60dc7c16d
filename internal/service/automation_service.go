package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"microtrade/config"
	"microtrade/internal/contract"
	"microtrade/internal/dto"
	"microtrade/internal/model"
	"microtrade/internal/repository"
	"microtrade/pkg/cache"
	"microtrade/pkg/common"
	"microtrade/pkg/logger"
	"microtrade/pkg/ratelimit"
	"microtrade/pkg/utils"
)

var ErrRuleNotFound = errors.New("automation rule not found")

// AutomationService evaluates automation rules. Every evaluation attempt,
// whatever its outcome, leaves a run record in the audit trail. Evaluations
// of the same rule are serialized.
type AutomationService interface {
	EvaluateRule(ctx context.Context, ruleID uint) (*dto.RunResult, error)
}

type automationService struct {
	cfg            *config.Config
	log            *logger.Logger
	ruleRepo       repository.AutomationRuleRepository
	runCounter     contract.RunCounter
	orderPlacer    contract.OrderPlacer
	auditLog       contract.AuditLog
	notifier       contract.Notifier
	signalService  SignalService
	marketDataRepo repository.MarketDataRepository
	inmemoryCache  cache.Cache
	windowCounter  *ratelimit.WindowCounter
	ruleLocks      sync.Map
}

func NewAutomationService(
	cfg *config.Config,
	log *logger.Logger,
	ruleRepo repository.AutomationRuleRepository,
	runCounter contract.RunCounter,
	orderPlacer contract.OrderPlacer,
	auditLog contract.AuditLog,
	notifier contract.Notifier,
	signalService SignalService,
	marketDataRepo repository.MarketDataRepository,
	inmemoryCache cache.Cache,
) AutomationService {
	return &automationService{
		cfg:            cfg,
		log:            log,
		ruleRepo:       ruleRepo,
		runCounter:     runCounter,
		orderPlacer:    orderPlacer,
		auditLog:       auditLog,
		notifier:       notifier,
		signalService:  signalService,
		marketDataRepo: marketDataRepo,
		inmemoryCache:  inmemoryCache,
		windowCounter:  ratelimit.NewWindowCounter(cfg.Automation.RateLimitWindow),
	}
}

type runEvent struct {
	eventType string
	detail    string
}

func (s *automationService) EvaluateRule(ctx context.Context, ruleID uint) (*dto.RunResult, error) {
	rule, err := s.ruleRepo.FindByID(ctx, ruleID)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to load automation rule", logger.ErrorField(err), logger.IntField("rule_id", int(ruleID)))
		return nil, fmt.Errorf("failed to load rule: %w", err)
	}
	if rule == nil {
		return nil, ErrRuleNotFound
	}

	lock := s.lockFor(rule.ID)
	lock.Lock()
	defer lock.Unlock()

	startedAt := utils.TimeNowUTC()
	result := &dto.RunResult{RuleID: rule.ID}
	var events []runEvent

	if !rule.Enabled {
		result.Reason = dto.ReasonDisabled
		events = append(events, runEvent{model.EventSkipped, "rule disabled"})
		return s.finishRun(ctx, rule, result, startedAt, events)
	}

	var risk dto.RiskConfig
	if err := json.Unmarshal(rule.Risk, &risk); err != nil {
		return nil, fmt.Errorf("failed to parse risk config: %w", err)
	}
	var conditions []dto.Condition
	if err := json.Unmarshal(rule.Conditions, &conditions); err != nil {
		return nil, fmt.Errorf("failed to parse conditions: %w", err)
	}
	var actions []dto.Action
	if err := json.Unmarshal(rule.Actions, &actions); err != nil {
		return nil, fmt.Errorf("failed to parse actions: %w", err)
	}

	if risk.KillSwitch {
		result.Reason = dto.ReasonKillSwitch
		events = append(events, runEvent{model.EventBlocked, "kill switch active"})
		return s.finishRun(ctx, rule, result, startedAt, events)
	}

	if risk.MaxOrdersPerHour > 0 {
		blocked, err := s.rateLimited(ctx, rule.ID, risk.MaxOrdersPerHour)
		if err != nil {
			s.log.ErrorContext(ctx, "Failed to count runs for rate limit", logger.ErrorField(err), logger.IntField("rule_id", int(rule.ID)))
			return nil, fmt.Errorf("failed to count runs: %w", err)
		}
		if blocked {
			result.Reason = dto.ReasonRateLimit
			events = append(events, runEvent{model.EventBlocked, fmt.Sprintf("rate limit reached, max %d runs per window", risk.MaxOrdersPerHour)})
			return s.finishRun(ctx, rule, result, startedAt, events)
		}
	}

	evalCtx := s.buildEvaluationContext(ctx, rule, conditions)
	if !conditionsMet(conditions, evalCtx) {
		result.Reason = dto.ReasonConditionsFalse
		events = append(events, runEvent{model.EventSkipped, "conditions not met"})
		return s.finishRun(ctx, rule, result, startedAt, events)
	}

	result.Triggered = true
	result.Reason = dto.ReasonTriggered
	events = append(events, s.dispatchActions(ctx, rule, actions, risk, result)...)

	return s.finishRun(ctx, rule, result, startedAt, events)
}

func (s *automationService) lockFor(ruleID uint) *sync.Mutex {
	lock, _ := s.ruleLocks.LoadOrStore(ruleID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

// rateLimited counts every prior evaluation attempt inside the trailing
// window, triggered or not. The in-memory counter short-circuits the common
// case; the run table stays authoritative across restarts.
func (s *automationService) rateLimited(ctx context.Context, ruleID uint, maxRuns int) (bool, error) {
	now := utils.TimeNowUTC()
	since := now.Add(-s.cfg.Automation.RateLimitWindow)
	key := fmt.Sprintf(common.KEY_RULE_EVAL_COUNT, ruleID)

	if s.windowCounter.CountSince(key, since) >= maxRuns {
		return true, nil
	}

	count, err := s.runCounter.CountRunsSince(ctx, ruleID, since)
	if err != nil {
		return false, err
	}
	return count >= int64(maxRuns), nil
}

func (s *automationService) buildEvaluationContext(ctx context.Context, rule *model.AutomationRule, conditions []dto.Condition) dto.EvaluationContext {
	var evalCtx dto.EvaluationContext

	needPrice, needReceipt := false, false
	for _, c := range conditions {
		switch c.Type {
		case dto.ConditionPriceGT, dto.ConditionPriceLT:
			needPrice = true
		case dto.ConditionSignalMatch:
			needReceipt = true
		}
	}

	if needPrice {
		price, err := s.lastPrice(ctx, rule.Symbol)
		if err != nil {
			s.log.WarnContext(ctx, "Failed to get last price, price conditions will not match",
				logger.ErrorField(err),
				logger.StringField("symbol", rule.Symbol))
		} else {
			evalCtx.LastPrice = &price
		}
	}

	if needReceipt {
		receipt, err := s.signalService.GetLatestReceipt(ctx, rule.Symbol, rule.Timeframe)
		if err != nil {
			s.log.WarnContext(ctx, "Failed to get latest receipt, signal conditions will not match",
				logger.ErrorField(err),
				logger.StringField("symbol", rule.Symbol))
		} else {
			evalCtx.Receipt = receipt
		}
	}

	return evalCtx
}

func (s *automationService) lastPrice(ctx context.Context, symbol string) (float64, error) {
	cacheKey := fmt.Sprintf(common.KEY_LAST_PRICE, symbol)
	if price, ok := cache.GetTyped[float64](s.inmemoryCache, cacheKey); ok {
		return price, nil
	}

	price, err := s.marketDataRepo.GetLastPrice(ctx, symbol)
	if err != nil {
		return 0, err
	}
	s.inmemoryCache.Set(cacheKey, price, s.cfg.Automation.LastPriceExpiration)
	return price, nil
}

// conditionsMet applies AND semantics. A condition whose required market
// observation is missing evaluates to false, never to an error.
func conditionsMet(conditions []dto.Condition, evalCtx dto.EvaluationContext) bool {
	for _, c := range conditions {
		if !conditionMet(c, evalCtx) {
			return false
		}
	}
	return len(conditions) > 0
}

func conditionMet(c dto.Condition, evalCtx dto.EvaluationContext) bool {
	switch c.Type {
	case dto.ConditionPriceGT:
		return evalCtx.LastPrice != nil && *evalCtx.LastPrice > c.Value
	case dto.ConditionPriceLT:
		return evalCtx.LastPrice != nil && *evalCtx.LastPrice < c.Value
	case dto.ConditionSignalMatch:
		r := evalCtx.Receipt
		if r == nil {
			return false
		}
		if c.IndicatorID != "" && c.IndicatorID != r.IndicatorID {
			return false
		}
		if c.IndicatorVersion != "" && c.IndicatorVersion != r.IndicatorVersion {
			return false
		}
		// any signal of the requested kind anywhere in the receipt matches
		for _, signal := range r.Signals {
			if signal.Kind == c.SignalKind {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// dispatchActions runs every action in declaration order. A failing action
// is recorded and never stops its siblings.
func (s *automationService) dispatchActions(ctx context.Context, rule *model.AutomationRule, actions []dto.Action, risk dto.RiskConfig, result *dto.RunResult) []runEvent {
	var events []runEvent

	for _, action := range actions {
		result.ActionsAttempted++

		switch action.Type {
		case dto.ActionAlertOnly:
			events = append(events, s.dispatchAlert(ctx, rule, action, result))
		case dto.ActionPaperOrder:
			events = append(events, s.dispatchPaperOrder(ctx, rule, action, risk, result))
		default:
			result.ActionsFailed++
			events = append(events, runEvent{model.EventActionFail, fmt.Sprintf("unsupported action type %q", action.Type)})
		}
	}

	return events
}

func (s *automationService) dispatchAlert(ctx context.Context, rule *model.AutomationRule, action dto.Action, result *dto.RunResult) runEvent {
	message := action.Message
	if message == "" {
		message = fmt.Sprintf("Rule %q triggered for %s", rule.Name, rule.Symbol)
	}

	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, message); err != nil {
			s.log.ErrorContext(ctx, "Failed to send alert", logger.ErrorField(err), logger.IntField("rule_id", int(rule.ID)))
			result.ActionsFailed++
			return runEvent{model.EventActionFail, fmt.Sprintf("alert delivery failed: %v", err)}
		}
	} else {
		s.log.InfoContext(ctx, "Alert action", logger.IntField("rule_id", int(rule.ID)), logger.StringField("message", message))
	}

	result.ActionsSucceeded++
	return runEvent{model.EventActionOK, "alert sent"}
}

func (s *automationService) dispatchPaperOrder(ctx context.Context, rule *model.AutomationRule, action dto.Action, risk dto.RiskConfig, result *dto.RunResult) runEvent {
	if risk.MaxQtyPerOrder > 0 && action.Qty > risk.MaxQtyPerOrder {
		result.ActionsFailed++
		return runEvent{model.EventActionFail, fmt.Sprintf("qty %v exceeds risk limit %v", action.Qty, risk.MaxQtyPerOrder)}
	}

	orderCtx, cancel := context.WithTimeout(ctx, s.cfg.Automation.OrderTimeout)
	defer cancel()

	order, err := s.orderPlacer.PlaceOrder(orderCtx, dto.PlaceOrderParam{
		RuleID:     rule.ID,
		Symbol:     rule.Symbol,
		Qty:        action.Qty,
		Side:       action.Side,
		Type:       action.OrderType,
		LimitPrice: action.LimitPrice,
		StopPrice:  action.StopPrice,
	})
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to place paper order", logger.ErrorField(err), logger.IntField("rule_id", int(rule.ID)))
		result.ActionsFailed++
		return runEvent{model.EventActionFail, fmt.Sprintf("order placement failed: %v", err)}
	}

	result.ActionsSucceeded++
	return runEvent{model.EventActionOK, fmt.Sprintf("paper order %d %s", order.ID, order.State)}
}

// finishRun persists the run record and its events. The run is written even
// when the rule was skipped or blocked before any condition was checked.
func (s *automationService) finishRun(ctx context.Context, rule *model.AutomationRule, result *dto.RunResult, startedAt time.Time, events []runEvent) (*dto.RunResult, error) {
	s.windowCounter.Record(fmt.Sprintf(common.KEY_RULE_EVAL_COUNT, rule.ID), startedAt)

	// audit writes are best-effort: losing the trail is logged loudly but
	// must not mask an evaluation that already dispatched actions
	var runRef *uint
	runID, err := s.auditLog.RecordRun(ctx, *result, startedAt)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to record automation run", logger.ErrorField(err), logger.IntField("rule_id", int(rule.ID)))
	} else {
		runRef = &runID
	}

	for _, event := range events {
		if err := s.auditLog.RecordEvent(ctx, rule.ID, runRef, event.eventType, event.detail); err != nil {
			s.log.ErrorContext(ctx, "Failed to record automation event", logger.ErrorField(err), logger.IntField("rule_id", int(rule.ID)))
		}
	}

	s.log.InfoContext(ctx, "Rule evaluation completed",
		logger.IntField("rule_id", int(rule.ID)),
		logger.StringField("reason", string(result.Reason)),
		logger.IntField("actions_attempted", result.ActionsAttempted),
		logger.IntField("actions_failed", result.ActionsFailed))
	return result, nil
}
