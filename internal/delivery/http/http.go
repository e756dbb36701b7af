package http

import (
	"context"
	"strconv"

	"trading-panel/internal/dto"
	"trading-panel/internal/realtime"
	"trading-panel/internal/service"

	"github.com/labstack/echo/v4"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HttpAPIHandler struct {
	echo    *echo.Echo
	service *service.Service
	hub     *realtime.Hub
	db      Pinger
}

func NewHttpAPIHandler(echo *echo.Echo, service *service.Service, hub *realtime.Hub, db Pinger) *HttpAPIHandler {
	return &HttpAPIHandler{
		echo:    echo,
		service: service,
		hub:     hub,
		db:      db,
	}
}

func (h *HttpAPIHandler) SetupRoutes() {
	base := h.echo.Group("/api")
	h.SetupHealth(base)
	h.SetupPositions(base)
	h.SetupAlerts(base)
	h.SetupScreener(base)
	h.SetupJobs(base)
	h.SetupRealtime(base)
}

func respondError(c echo.Context, err error) error {
	response := dto.NewErrorResponse(err)
	return c.JSON(response.Code, response)
}

func parseID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, dto.NewValidationError().Add("id", "must be a positive integer")
	}
	return uint(id), nil
}
