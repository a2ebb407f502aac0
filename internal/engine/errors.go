package engine

import "errors"

var (
	ErrNegativeAmount       = errors.New("amount must not be negative")
	ErrInvalidAmount        = errors.New("amount is not a base-10 integer")
	ErrMissingReserve       = errors.New("reserve value is missing")
	ErrUnknownDirection     = errors.New("trade direction must be buy or sell")
	ErrBpsOutOfRange        = errors.New("basis points exceed 10000")
	ErrShareExceedsTotal    = errors.New("fee shares exceed 100%")
	ErrInconsistentSchedule = errors.New("max dump fee is below base fee")
)
