package errors

import "net/http"

var codeMapping = map[string]int{
	ErrInternal:        http.StatusInternalServerError,
	ErrNotFound:        http.StatusNotFound,
	ErrInvalidArgument: http.StatusBadRequest,
	ErrUnauthenticated: http.StatusUnauthorized,
	ErrUnauthorized:    http.StatusForbidden,
	ErrConflict:        http.StatusConflict,
	ErrRateLimited:     http.StatusTooManyRequests,
	ErrBadGateway:      http.StatusBadGateway,
	ErrTimeout:         http.StatusGatewayTimeout,
	ErrNotImplemented:  http.StatusNotImplemented,
}

// GetCodeMapping returns the HTTP status for an error code.
// Unknown codes map to 500.
func GetCodeMapping(code string) int {
	if status, ok := codeMapping[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// CodeFromHTTPStatus maps an HTTP status back to an error code.
func CodeFromHTTPStatus(status int) string {
	switch status {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusBadRequest:
		return ErrInvalidArgument
	case http.StatusUnauthorized:
		return ErrUnauthenticated
	case http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusConflict:
		return ErrConflict
	case http.StatusTooManyRequests:
		return ErrRateLimited
	case http.StatusBadGateway:
		return ErrBadGateway
	case http.StatusGatewayTimeout:
		return ErrTimeout
	case http.StatusNotImplemented:
		return ErrNotImplemented
	default:
		return ErrInternal
	}
}
