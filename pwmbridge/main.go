//go:build tinygo

// Command pwmbridge is Pico firmware that sets a PWM duty cycle from decimal
// numbers sent over the USB serial port.
//
// Send a value between 0 and 255 followed by a newline (or pause for a
// second) and the LED/driver on GP15 follows. Diagnostics are logged on UART0
// (GP0/GP1) so they do not mix with the serial protocol. Flash with:
//
//	tinygo flash -target=pico -serial=usb ./pwmbridge
package main

import (
	"context"
	"log/slog"
	"machine"
	"time"

	"github.com/harveysanders/pwmbridge/bridge"
	"github.com/harveysanders/pwmbridge/display"
	"github.com/harveysanders/pwmbridge/pwmout"
)

func main() {
	logger := newDebugLogger()

	err := machine.Serial.Configure(machine.UARTConfig{BaudRate: bridge.DefaultBaudRate})
	if err != nil {
		printErrForever(logger, "configure serial", slog.Any("reason", err))
	}
	// Short delay so the host side has the port open before the notice.
	time.Sleep(50 * time.Millisecond)

	// GP14/GP15 are driven by PWM slice 7 on the RP2040/RP2350.
	out, err := pwmout.Configure(machine.PWM7, machine.GP15, pwmout.DefaultPeriod)
	if err != nil {
		printErrForever(logger, "configure PWM", slog.Any("reason", err))
	}

	lcdMessages := startDisplay(logger)

	b := bridge.New(machine.Serial, out, bridge.Config{
		Logger: logger,
		OnApply: func(ev bridge.DutyEvent) {
			display.Post(lcdMessages, display.DutyMessage(ev.Duty))
		},
	})
	if err := b.Start(); err != nil {
		logger.Error("bridge:start", slog.Any("reason", err))
	}
	b.Run(context.Background())
}

// newDebugLogger logs to UART0 at 115200 baud.
func newDebugLogger() *slog.Logger {
	machine.UART0.Configure(machine.UARTConfig{
		BaudRate: 115200,
		TX:       machine.UART0_TX_PIN,
		RX:       machine.UART0_RX_PIN,
	})
	return slog.New(slog.NewTextHandler(machine.UART0, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// startDisplay starts the LCD handler if a display is attached to I2C0
// (SDA GP4, SCL GP5). Messages sent to the returned channel are dropped when
// there is no display.
func startDisplay(logger *slog.Logger) chan display.Message {
	messages := make(chan display.Message, 4)
	err := machine.I2C0.Configure(machine.I2CConfig{
		SDA: machine.GP4,
		SCL: machine.GP5,
	})
	if err != nil {
		logger.Warn("display:i2c", slog.Any("reason", err))
		return messages
	}
	dev, err := display.Configure(machine.I2C0)
	if err != nil {
		logger.Warn("display:disabled", slog.Any("reason", err))
		return messages
	}
	go display.NewHandler(dev, messages, logger).Run()
	display.Send(messages, "PWM bridge", "Waiting...")
	return messages
}

// printErrForever logs msg @ 1hz in case the serial monitor is not
// ready before the initial messages. It blocks forever.
func printErrForever(logger *slog.Logger, msg string, args ...any) {
	for {
		logger.Error(msg, args...)
		time.Sleep(time.Second)
	}
}
