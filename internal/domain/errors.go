package domain

import "errors"

var (
	ErrConfigNotFound  = errors.New("config not found")
	ErrUnknownScreen   = errors.New("unknown screen")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrInvalidOrder    = errors.New("order is not a permutation of the server list")
)
