package jitter

import "errors"

var (
	ErrInvalidArgument = errors.New("jitter: invalid argument")
	ErrBroken          = errors.New("jitter: sequence comparator self-check failed")
	ErrLate            = errors.New("jitter: packet too late")
	ErrDuplicate       = errors.New("jitter: packet already exists")
	ErrNotReady        = errors.New("jitter: no packet ready for playout")
	ErrEmpty           = errors.New("jitter: buffer is empty")
	ErrUnsupported     = errors.New("jitter: statistics not supported in this build")
	ErrPayloadReleased = errors.New("jitter: payload already released")
)
