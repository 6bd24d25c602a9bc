//go:build tinygo

package pwmout

import (
	"errors"
	"machine"
)

// Slice is the method set TinyGo's RP2 PWM slices provide.
type Slice interface {
	Group
	Configure(config machine.PWMConfig) error
	Channel(pin machine.Pin) (uint8, error)
}

// Configure sets up the slice driving pin at the given period (in nanoseconds)
// and returns an Output for it. On the RP2040/RP2350 GP14/GP15 are driven by
// PWM7, GP0/GP1 by PWM0 and so on.
func Configure(group Slice, pin machine.Pin, period uint64) (*Output, error) {
	if period == 0 {
		period = DefaultPeriod
	}
	err := group.Configure(machine.PWMConfig{Period: period})
	if err != nil {
		return nil, errors.New("configure PWM: " + err.Error())
	}
	ch, err := group.Channel(pin)
	if err != nil {
		return nil, errors.New("get channel for pin: " + err.Error())
	}
	return New(group, ch), nil
}
