package http

import (
	"net/http"
	"strconv"

	"trading-panel/internal/dto"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupPositions(base *echo.Group) {
	v1 := base.Group("/v1/positions")
	{
		v1.GET("", h.ListPositions)
		v1.POST("", h.CreatePosition)
		v1.GET("/:id", h.GetPosition)
		v1.PATCH("/:id", h.UpdatePosition)
		v1.POST("/:id/close", h.ClosePosition)
		v1.DELETE("/:id", h.DeletePosition)
		v1.GET("/:id/audit", h.GetPositionAudit)
	}
}

func (h *HttpAPIHandler) ListPositions(c echo.Context) error {
	activeOnly, _ := strconv.ParseBool(c.QueryParam("active"))
	positions, err := h.service.PositionService.List(c.Request().Context(), activeOnly)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("ok", positions))
}

func (h *HttpAPIHandler) CreatePosition(c echo.Context) error {
	var req dto.CreatePositionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid request body"))
	}

	position, err := h.service.PositionService.Create(c.Request().Context(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, dto.NewBaseResponse(http.StatusCreated, "position created", position))
}

func (h *HttpAPIHandler) GetPosition(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return respondError(c, err)
	}
	position, err := h.service.PositionService.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("ok", position))
}

func (h *HttpAPIHandler) UpdatePosition(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return respondError(c, err)
	}
	var req dto.UpdatePositionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid request body"))
	}

	updated, err := h.service.PositionService.Update(c.Request().Context(), id, req)
	if err != nil {
		return respondError(c, err)
	}
	if !updated {
		return respondError(c, dto.ErrNotFound)
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("position updated", nil))
}

func (h *HttpAPIHandler) ClosePosition(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return respondError(c, err)
	}
	var req dto.ClosePositionRequest
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid request body"))
		}
	}

	position, err := h.service.PositionService.Close(c.Request().Context(), id, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("position closed", position))
}

func (h *HttpAPIHandler) DeletePosition(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return respondError(c, err)
	}
	deleted, err := h.service.PositionService.Delete(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	if !deleted {
		return respondError(c, dto.ErrNotFound)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *HttpAPIHandler) GetPositionAudit(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return respondError(c, err)
	}
	history, logs, err := h.service.PositionService.GetAudit(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("ok", map[string]interface{}{
		"history": history,
		"logs":    logs,
	}))
}
