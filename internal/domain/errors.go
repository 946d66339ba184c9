package domain

import "errors"

var (
	ErrRobotBusy           = errors.New("robot is busy")
	ErrModelLoadFailed     = errors.New("model load failed")
	ErrPickExecutionFailed = errors.New("pick execution failed")
	ErrOrderNotFound       = errors.New("order not found")
	ErrInvalidColor        = errors.New("invalid box color")
	ErrInvalidOrder        = errors.New("invalid order")
)
