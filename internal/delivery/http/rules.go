package http

import (
	"errors"
	"strconv"

	"microtrade/internal/dto"
	"microtrade/internal/model"
	"microtrade/internal/service"
	"net/http"

	"github.com/labstack/echo/v4"
)

const defaultUserID = 1

func (h *HttpAPIHandler) SetupRules(base *echo.Group) {
	ruleGroup := base.Group("/rules")
	{
		ruleGroup.GET("", h.listRules)
		ruleGroup.POST("", h.createRule)
		ruleGroup.GET("/:id", h.getRule)
		ruleGroup.PUT("/:id", h.updateRule)
		ruleGroup.DELETE("/:id", h.deleteRule)
		ruleGroup.POST("/:id/evaluate", h.evaluateRule)
		ruleGroup.GET("/:id/runs", h.listRuns)
		ruleGroup.GET("/:id/events", h.listEvents)
		ruleGroup.GET("/:id/orders", h.listOrders)
	}
}

func (h *HttpAPIHandler) listRules(c echo.Context) error {
	ctx := c.Request().Context()

	param := model.GetAutomationRulesParam{
		Symbol: c.QueryParam("symbol"),
	}
	if enabled := c.QueryParam("enabled"); enabled != "" {
		val, err := strconv.ParseBool(enabled)
		if err != nil {
			return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid enabled filter"))
		}
		param.Enabled = &val
	}

	rules, err := h.service.RuleService.GetRules(ctx, param)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, dto.NewBaseResponse(http.StatusInternalServerError, "failed to list rules", nil))
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("rules retrieved", rules))
}

func (h *HttpAPIHandler) createRule(c echo.Context) error {
	ctx := c.Request().Context()

	req := new(dto.UpsertRuleRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid request body"))
	}
	if err := h.validator.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse(err.Error()))
	}

	rule, err := h.service.RuleService.CreateRule(ctx, defaultUserID, *req)
	if err != nil {
		var validationErr *dto.ValidationError
		if errors.As(err, &validationErr) {
			return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse(validationErr.Error()))
		}
		return c.JSON(http.StatusInternalServerError, dto.NewBaseResponse(http.StatusInternalServerError, "failed to create rule", nil))
	}
	return c.JSON(http.StatusCreated, dto.NewBaseResponse(http.StatusCreated, "rule created", rule))
}

func (h *HttpAPIHandler) getRule(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := ruleIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid rule id"))
	}

	rule, err := h.service.RuleService.GetRule(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, dto.NewBaseResponse(http.StatusInternalServerError, "failed to get rule", nil))
	}
	if rule == nil {
		return c.JSON(http.StatusNotFound, dto.NewNotFoundResponse("rule not found"))
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("rule retrieved", rule))
}

func (h *HttpAPIHandler) updateRule(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := ruleIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid rule id"))
	}

	req := new(dto.UpsertRuleRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid request body"))
	}
	if err := h.validator.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse(err.Error()))
	}

	rule, err := h.service.RuleService.UpdateRule(ctx, id, *req)
	if err != nil {
		if errors.Is(err, service.ErrRuleNotFound) {
			return c.JSON(http.StatusNotFound, dto.NewNotFoundResponse("rule not found"))
		}
		var validationErr *dto.ValidationError
		if errors.As(err, &validationErr) {
			return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse(validationErr.Error()))
		}
		return c.JSON(http.StatusInternalServerError, dto.NewBaseResponse(http.StatusInternalServerError, "failed to update rule", nil))
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("rule updated", rule))
}

func (h *HttpAPIHandler) deleteRule(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := ruleIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid rule id"))
	}

	if err := h.service.RuleService.DeleteRule(ctx, id); err != nil {
		if errors.Is(err, service.ErrRuleNotFound) {
			return c.JSON(http.StatusNotFound, dto.NewNotFoundResponse("rule not found"))
		}
		return c.JSON(http.StatusInternalServerError, dto.NewBaseResponse(http.StatusInternalServerError, "failed to delete rule", nil))
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("rule deleted", nil))
}

func (h *HttpAPIHandler) evaluateRule(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := ruleIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid rule id"))
	}

	result, err := h.service.AutomationService.EvaluateRule(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrRuleNotFound) {
			return c.JSON(http.StatusNotFound, dto.NewNotFoundResponse("rule not found"))
		}
		return c.JSON(http.StatusInternalServerError, dto.NewBaseResponse(http.StatusInternalServerError, "failed to evaluate rule", nil))
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("rule evaluated", result))
}

func (h *HttpAPIHandler) listRuns(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := ruleIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid rule id"))
	}

	runs, err := h.service.RuleService.GetRuns(ctx, id, historyLimit(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, dto.NewBaseResponse(http.StatusInternalServerError, "failed to list runs", nil))
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("runs retrieved", runs))
}

func (h *HttpAPIHandler) listEvents(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := ruleIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid rule id"))
	}

	events, err := h.service.RuleService.GetEvents(ctx, id, historyLimit(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, dto.NewBaseResponse(http.StatusInternalServerError, "failed to list events", nil))
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("events retrieved", events))
}

func (h *HttpAPIHandler) listOrders(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := ruleIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid rule id"))
	}

	orders, err := h.service.RuleService.GetOrders(ctx, id, historyLimit(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, dto.NewBaseResponse(http.StatusInternalServerError, "failed to list orders", nil))
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("orders retrieved", orders))
}

func ruleIDParam(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

func historyLimit(c echo.Context) int {
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit <= 0 || limit > 500 {
		return 50
	}
	return limit
}
