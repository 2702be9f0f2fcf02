package mongodb

import "errors"

var (
	ErrConnectFailed = errors.New("mongodb: failed to connect")
	ErrPingFailed    = errors.New("mongodb: failed to ping")
)
