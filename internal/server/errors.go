package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// JSONErrorHandler renders every error echo surfaces (unknown routes, bad
// methods, auth and rate-limit rejections) as an ErrorResponse
func JSONErrorHandler() echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		// Don't send response if already committed
		if c.Response().Committed {
			return
		}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			msg := http.StatusText(he.Code)
			if s, ok := he.Message.(string); ok && s != "" {
				msg = s
			}
			_ = c.JSON(he.Code, ErrorResponse{Error: msg, Code: he.Code})
			return
		}

		// Handle all other errors as internal server error
		_ = c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "internal server error",
			Code:  http.StatusInternalServerError,
		})
	}
}
