package errors

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ToHTTPStatus converts an error code to an HTTP status.
func ToHTTPStatus(code string) int {
	return GetCodeMapping(code)
}

// ToHTTPError converts err to an echo HTTP error carrying the user-facing message.
func ToHTTPError(err error) *echo.HTTPError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if As(err, &appErr) {
		return echo.NewHTTPError(appErr.Status(), appErr.Message()).SetInternal(err)
	}

	var echoErr *echo.HTTPError
	if As(err, &echoErr) {
		return echoErr
	}

	return echo.NewHTTPError(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)).SetInternal(err)
}

// FromHTTPError converts an echo HTTP error into an AppError.
func FromHTTPError(err error) error {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if As(err, &appErr) {
		return err
	}

	var echoErr *echo.HTTPError
	if As(err, &echoErr) {
		msg, ok := echoErr.Message.(string)
		if !ok {
			msg = http.StatusText(echoErr.Code)
		}
		return NewAppError(CodeFromHTTPStatus(echoErr.Code), msg, nil).WithStatus(echoErr.Code)
	}

	return NewAppError(ErrInternal, err.Error(), err)
}
