package client

import (
	"net/http"

	"github.com/bornholm/taskmarket/internal/core/model"
	"github.com/bornholm/taskmarket/internal/core/port"
)

// errorFromStatus maps an API response status back to the sentinel the server
// derived it from, so callers can use errors.Is across the wire.
func errorFromStatus(status int) error {
	switch status {
	case http.StatusBadRequest:
		return model.ErrInvalidInput
	case http.StatusUnauthorized, http.StatusForbidden:
		return model.ErrUnauthorized
	case http.StatusNotFound:
		return port.ErrNotFound
	case http.StatusConflict:
		return model.ErrInvalidState
	case http.StatusBadGateway:
		return model.ErrTransferFailed
	default:
		return nil
	}
}
