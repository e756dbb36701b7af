package http

import (
	"net/http"

	"trading-panel/internal/dto"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupAlerts(base *echo.Group) {
	v1 := base.Group("/v1/alerts")
	{
		v1.GET("", h.ListAlerts)
		v1.POST("", h.CreateAlert)
		v1.DELETE("/:id", h.RemoveAlert)
	}
}

func (h *HttpAPIHandler) ListAlerts(c echo.Context) error {
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("ok", h.service.AlertRegistry.List()))
}

func (h *HttpAPIHandler) CreateAlert(c echo.Context) error {
	var req dto.CreateAlertRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid request body"))
	}

	alert, err := h.service.AlertRegistry.Create(c.Request().Context(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, dto.NewBaseResponse(http.StatusCreated, "alert armed", alert))
}

func (h *HttpAPIHandler) RemoveAlert(c echo.Context) error {
	if !h.service.AlertRegistry.Remove(c.Param("id")) {
		return respondError(c, dto.ErrNotFound)
	}
	return c.NoContent(http.StatusNoContent)
}
