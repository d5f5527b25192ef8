package model

import "errors"

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInvalidState   = errors.New("invalid state")
	ErrInvalidInput   = errors.New("invalid input")
	ErrTransferFailed = errors.New("transfer failed")
)
