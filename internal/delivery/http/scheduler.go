package http

import (
	"microtrade/internal/dto"
	"net/http"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupScheduler(base *echo.Group) {
	schedulerGroup := base.Group("/scheduler")
	schedulerGroup.POST("/run", h.runScheduler)
}

// runScheduler forces a scheduler tick outside the cron cadence.
func (h *HttpAPIHandler) runScheduler(c echo.Context) error {
	response := dto.NewSuccessResponse("scheduler tick started", nil)
	if err := h.service.SchedulerService.Execute(c.Request().Context()); err != nil {
		response.Code = http.StatusInternalServerError
		response.Message = err.Error()
	}
	return c.JSON(response.Code, response)
}
