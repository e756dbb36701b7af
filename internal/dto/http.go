package dto

import (
	"errors"
	"net/http"
)

type BaseResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func NewBaseResponse(code int, message string, data interface{}) *BaseResponse {
	return &BaseResponse{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

func NewBadRequestResponse(message string) *BaseResponse {
	return NewBaseResponse(http.StatusBadRequest, message, nil)
}

func NewSuccessResponse(message string, data interface{}) *BaseResponse {
	return NewBaseResponse(http.StatusOK, message, data)
}

// NewErrorResponse maps domain errors onto HTTP status codes.
func NewErrorResponse(err error) *BaseResponse {
	var vErr *ValidationError
	switch {
	case errors.As(err, &vErr):
		return NewBaseResponse(http.StatusBadRequest, err.Error(), vErr.Fields)
	case errors.Is(err, ErrValidation):
		return NewBadRequestResponse(err.Error())
	case errors.Is(err, ErrNotFound):
		return NewBaseResponse(http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, ErrPositionClosed):
		return NewBaseResponse(http.StatusConflict, err.Error(), nil)
	case errors.Is(err, ErrPriceUnavailable):
		return NewBaseResponse(http.StatusUnprocessableEntity, err.Error(), nil)
	case errors.Is(err, ErrPriceSourceDisabled):
		return NewBaseResponse(http.StatusServiceUnavailable, err.Error(), nil)
	default:
		return NewBaseResponse(http.StatusInternalServerError, err.Error(), nil)
	}
}
