// Package periphpwm drives a Linux PWM-capable pin through periph.io.
package periphpwm

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

// Pin writes 8-bit duty values to a periph.io pin.
type Pin struct {
	pin  gpio.PinIO
	freq physic.Frequency
}

// Open initializes the host drivers and looks up the pin by name.
func Open(name string, freqHz int64) (*Pin, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("pin %s not found", name)
	}
	return New(p, physic.Frequency(freqHz)*physic.Hertz), nil
}

// New wraps an already resolved pin.
func New(pin gpio.PinIO, freq physic.Frequency) *Pin {
	return &Pin{pin: pin, freq: freq}
}

// Set applies duty/255 at the configured frequency.
func (p *Pin) Set(duty uint8) error {
	if err := p.pin.PWM(Duty(duty), p.freq); err != nil {
		return fmt.Errorf("pwm %s: %w", p.pin.Name(), err)
	}
	return nil
}

// Duty converts an 8-bit duty value to periph's 24-bit scale.
func Duty(duty uint8) gpio.Duty {
	return gpio.Duty(int64(duty) * int64(gpio.DutyMax) / 255)
}
