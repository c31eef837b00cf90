package client

import "errors"

var (
	ErrUnavailable = errors.New("server unavailable")
	ErrUnexpected  = errors.New("unexpected server response")
)
