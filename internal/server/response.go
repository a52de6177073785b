package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Response is the envelope of every JSON answer.
type Response struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func dataResponse(c echo.Context, status int, data any) error {
	return c.JSON(status, Response{
		Status:  status,
		Message: http.StatusText(status),
		Data:    data,
	})
}

func success(c echo.Context, data any) error {
	return dataResponse(c, http.StatusOK, data)
}

func badRequest(c echo.Context, errs []ValidationError) error {
	return dataResponse(c, http.StatusBadRequest, errs)
}

func errorResponse(c echo.Context, status int, err error) error {
	return c.JSON(status, Response{
		Status:  status,
		Message: err.Error(),
	})
}
