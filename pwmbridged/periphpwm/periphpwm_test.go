package periphpwm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/physic"
)

func TestDuty(t *testing.T) {
	assert.Equal(t, gpio.Duty(0), Duty(0))
	assert.Equal(t, gpio.DutyMax, Duty(255))
	assert.Equal(t, gpio.DutyMax/5, Duty(51))
}

func TestPin_Set(t *testing.T) {
	fake := &gpiotest.Pin{N: "GPIO18", Num: 18}
	p := New(fake, 500*physic.Hertz)

	require.NoError(t, p.Set(255))
	assert.Equal(t, gpio.DutyMax, fake.D)
	assert.Equal(t, 500*physic.Hertz, fake.F)

	require.NoError(t, p.Set(0))
	assert.Equal(t, gpio.Duty(0), fake.D)
}
