package httpx

import (
	"context"
	"errors"
	"net/http"
)

// Sentinel errors for the handler layer.
var (
	ErrNotFound   = errors.New("resource not found")
	ErrValidation = errors.New("validation failed")
)

// RespondError maps errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		Problem(w, http.StatusGatewayTimeout, "Timeout", "")
	case errors.Is(err, context.Canceled):
		Problem(w, http.StatusRequestTimeout, "Request Cancelled", "")
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
