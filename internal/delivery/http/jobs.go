package http

import (
	"net/http"

	"trading-panel/internal/dto"
	"trading-panel/internal/strategy"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupJobs(base *echo.Group) {
	v1 := base.Group("/v1/jobs")
	{
		v1.GET("", h.ListJobs)
		v1.POST("/:type/run", h.RunJob)
	}
}

func (h *HttpAPIHandler) ListJobs(c echo.Context) error {
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("ok", h.service.SchedulerService.Jobs()))
}

func (h *HttpAPIHandler) RunJob(c echo.Context) error {
	jobType := strategy.JobType(c.Param("type"))
	if !jobType.Valid() {
		return respondError(c, dto.NewValidationError().Add("type", "unknown job type"))
	}

	result, err := h.service.SchedulerService.RunJob(c.Request().Context(), jobType)
	response := dto.NewSuccessResponse("job finished", result)
	if err != nil {
		response.Code = http.StatusInternalServerError
		response.Message = err.Error()
	}
	return c.JSON(response.Code, response)
}
