package bridge

import (
	"errors"
	"strconv"
)

var (
	// ErrOutOfRange is reported for values outside [MinDuty, MaxDuty].
	ErrOutOfRange = errors.New("pwm value out of range")
	// ErrUnparseable is reported in strict mode for input without digits.
	ErrUnparseable = errors.New("pwm value not a number")
)

// RejectError is returned by Poll when a message did not change the pin.
type RejectError struct {
	Input string // Message as received, without the newline.
	Value int32  // Parsed value.
	Err   error
}

func (e *RejectError) Error() string {
	return "reject " + strconv.Quote(e.Input) + " (" + strconv.FormatInt(int64(e.Value), 10) + "): " + e.Err.Error()
}

func (e *RejectError) Unwrap() error { return e.Err }
