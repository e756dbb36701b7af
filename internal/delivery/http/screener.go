package http

import (
	"net/http"

	"trading-panel/internal/dto"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupScreener(base *echo.Group) {
	base.GET("/v1/screener", h.GetScreener)
}

// GetScreener serves the cached ranking; missing query values fall back to the configured defaults.
func (h *HttpAPIHandler) GetScreener(c echo.Context) error {
	minChange, limit := h.service.ScreenerService.Defaults()
	param := dto.ScreenerParam{MinChangePercent: minChange, Limit: limit}
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &param); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid query"))
	}
	if param.MinChangePercent < 0 || param.Limit < 0 {
		return respondError(c, dto.NewValidationError().Add("query", "min_change and limit must not be negative"))
	}

	pairs := h.service.ScreenerService.Scan(c.Request().Context(), param.MinChangePercent, param.Limit)
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("ok", pairs))
}
