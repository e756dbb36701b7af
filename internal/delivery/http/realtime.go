package http

import (
	"context"
	"net/http"
	"time"

	"trading-panel/internal/dto"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupRealtime(base *echo.Group) {
	base.GET("/v1/ws", h.ServeWS)
}

func (h *HttpAPIHandler) ServeWS(c echo.Context) error {
	// a failed upgrade has already written its response
	_ = h.hub.ServeWS(c.Response(), c.Request())
	return nil
}

func (h *HttpAPIHandler) SetupHealth(base *echo.Group) {
	base.GET("/health", h.Health)
}

func (h *HttpAPIHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status := map[string]interface{}{
		"database":         "ok",
		"price_source":     h.service.PriceService.Enabled(),
		"realtime_clients": h.hub.ClientCount(),
	}
	if h.db != nil {
		if err := h.db.Ping(ctx); err != nil {
			status["database"] = err.Error()
			return c.JSON(http.StatusServiceUnavailable, dto.NewBaseResponse(http.StatusServiceUnavailable, "unhealthy", status))
		}
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("ok", status))
}
