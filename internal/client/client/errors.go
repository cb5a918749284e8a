package client

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrWriteFailed  = errors.New("write failed")
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
)
