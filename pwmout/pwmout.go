// Package pwmout drives a single hardware PWM channel with 8-bit duty values.
package pwmout

import "time"

// DefaultPeriod is the PWM carrier period. 500Hz is close to the ~490Hz that
// Arduino's analogWrite produces on most pins.
const DefaultPeriod = uint64(1*time.Second) / 500

// Group is a PWM slice as exposed by TinyGo's machine package (machine.PWM0..PWM7).
type Group interface {
	Top() uint32
	Set(channel uint8, value uint32)
}

// Output writes 0..255 duty values to one channel of a Group.
type Output struct {
	group   Group
	channel uint8
}

// New returns an Output for a channel obtained from group.Channel(pin).
func New(group Group, channel uint8) *Output {
	return &Output{group: group, channel: channel}
}

// Set scales duty onto the group's counter range. 0 is always off and 255 is
// always fully on.
func (o *Output) Set(duty uint8) error {
	o.group.Set(o.channel, Scale(duty, o.group.Top()))
	return nil
}

// Scale maps an 8-bit duty value onto [0, top].
func Scale(duty uint8, top uint32) uint32 {
	return uint32(uint64(duty) * uint64(top) / 255)
}
