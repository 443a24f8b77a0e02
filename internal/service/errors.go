package service

import (
	"errors"
	"net/http"
)

// ErrorStatus maps the service's own errors to HTTP status codes.
func ErrorStatus(err error) (int, bool) {
	switch {
	case errors.Is(err, ErrDefaultSiteExists):
		return http.StatusConflict, true
	case errors.Is(err, ErrSiteNotMovable), errors.Is(err, ErrInvalidMove):
		return http.StatusBadRequest, true
	case errors.Is(err, ErrCyclicMove):
		return http.StatusConflict, true
	}
	return 0, false
}
