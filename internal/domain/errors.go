package domain

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrAlreadyExists    = errors.New("already exists")
	ErrInvalidInput     = errors.New("invalid input")
	ErrHalted           = errors.New("trading halted")
	ErrExecution        = errors.New("execution failed")
	ErrPriceUnavailable = errors.New("price unavailable")
	ErrRateLimited      = errors.New("rate limited")
	ErrWSDisconnect     = errors.New("websocket disconnected")
)
