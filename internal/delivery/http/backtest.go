package http

import (
	"errors"
	"microtrade/internal/dto"
	"net/http"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupBacktest(base *echo.Group) {
	backtestGroup := base.Group("/backtest")
	backtestGroup.POST("", h.runBacktest)
}

func (h *HttpAPIHandler) runBacktest(c echo.Context) error {
	ctx := c.Request().Context()

	req := new(dto.BacktestRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid request body"))
	}

	if err := h.validator.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse(err.Error()))
	}

	result, err := h.service.BacktestService.RunBacktest(ctx, *req)
	if err != nil {
		var validationErr *dto.ValidationError
		var computationErr *dto.ComputationError
		if errors.As(err, &validationErr) || errors.As(err, &computationErr) {
			return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse(err.Error()))
		}
		return c.JSON(http.StatusInternalServerError, dto.NewBaseResponse(http.StatusInternalServerError, "failed to run backtest", nil))
	}

	return c.JSON(http.StatusOK, dto.NewSuccessResponse("backtest completed", result))
}
