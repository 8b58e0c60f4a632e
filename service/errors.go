package service

import (
	"errors"
	"fmt"
	e "memdump/error"
	"net/http"
)

// HTTPStatus maps pipeline errors to the status a server answers with.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, e.OversizeRequest):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, e.RemoteReadFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// FromHTTPStatus rebuilds an error a client can test with errors.Is.
func FromHTTPStatus(status int, msg string) error {
	switch status {
	case http.StatusRequestEntityTooLarge:
		return fmt.Errorf("%w: %s", e.OversizeRequest, msg)
	case http.StatusBadGateway:
		return fmt.Errorf("%w: %s", e.RemoteReadFailure, msg)
	default:
		return fmt.Errorf("server returned %d: %s", status, msg)
	}
}
