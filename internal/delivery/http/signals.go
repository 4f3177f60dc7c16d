package http

import (
	"errors"
	"microtrade/internal/dto"
	"net/http"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupSignals(base *echo.Group) {
	signalGroup := base.Group("/signals")
	signalGroup.POST("", h.generateSignals)
}

func (h *HttpAPIHandler) generateSignals(c echo.Context) error {
	ctx := c.Request().Context()

	req := new(dto.GenerateSignalsRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid request body"))
	}

	if err := h.validator.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse(err.Error()))
	}

	result, err := h.service.SignalService.GenerateSignals(ctx, *req)
	if err != nil {
		var validationErr *dto.ValidationError
		if errors.As(err, &validationErr) {
			return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse(validationErr.Error()))
		}
		return c.JSON(http.StatusInternalServerError, dto.NewBaseResponse(http.StatusInternalServerError, "failed to generate signals", nil))
	}

	return c.JSON(http.StatusOK, dto.NewSuccessResponse("signals generated", result))
}
