package controller

import (
	"net/http"

	"github.com/containerd/errdefs"
)

// statusFor maps service errors to HTTP status codes.
// Failures of the upstream game client surface as gateway errors.
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errdefs.IsNotFound(err):
		return http.StatusNotFound
	case errdefs.IsInvalidArgument(err):
		return http.StatusBadRequest
	case errdefs.IsNotImplemented(err):
		return http.StatusNotImplemented
	case errdefs.IsResourceExhausted(err):
		return http.StatusTooManyRequests
	case errdefs.IsUnavailable(err):
		return http.StatusServiceUnavailable
	case errdefs.IsDeadlineExceeded(err):
		return http.StatusGatewayTimeout
	case errdefs.IsUnauthorized(err), errdefs.IsPermissionDenied(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
