package bundb

import "errors"

var (
	ErrConnectFailed     = errors.New("bundb: failed to connect")
	ErrPingFailed        = errors.New("bundb: failed to ping")
	ErrUnsupportedDriver = errors.New("bundb: unsupported driver")
)
