//go:build tinygo

// Command pwmbridgew is the Pico W variant of pwmbridge. It behaves the same
// on the serial port and additionally publishes every applied duty cycle to an
// MQTT broker over WiFi.
//
// Credentials and the broker address are set at build time:
//
//	tinygo flash -target=pico-w -serial=usb -ldflags="\
//	  -X github.com/harveysanders/pwmbridge/pwmbridgew/netstack.ssid=MyNet \
//	  -X github.com/harveysanders/pwmbridge/pwmbridgew/netstack.pass=secret \
//	  -X main.brokerAddr=10.0.0.9:1883" ./pwmbridgew
package main

import (
	"context"
	"log/slog"
	"machine"
	"time"

	"github.com/harveysanders/pwmbridge/bridge"
	"github.com/harveysanders/pwmbridge/display"
	"github.com/harveysanders/pwmbridge/pwmbridgew/netstack"
	"github.com/harveysanders/pwmbridge/pwmbridgew/telemetry"
	"github.com/harveysanders/pwmbridge/pwmout"
)

const deviceID = "pwmbridge-w"

var brokerAddr = "10.0.0.9:1883"

func main() {
	logger := newDebugLogger()

	err := machine.Serial.Configure(machine.UARTConfig{BaudRate: bridge.DefaultBaudRate})
	if err != nil {
		printErrForever(logger, "configure serial", slog.Any("reason", err))
	}
	time.Sleep(50 * time.Millisecond)

	out, err := pwmout.Configure(machine.PWM7, machine.GP15, pwmout.DefaultPeriod)
	if err != nil {
		printErrForever(logger, "configure PWM", slog.Any("reason", err))
	}

	lcdMessages := startDisplay(logger)

	// Buffered so a slow or absent broker never holds up the bridge loop.
	events := make(chan telemetry.Event, 10)
	go runTelemetry(logger, events, lcdMessages)

	b := bridge.New(machine.Serial, out, bridge.Config{
		Logger: logger,
		OnApply: func(ev bridge.DutyEvent) {
			display.Post(lcdMessages, display.DutyMessage(ev.Duty))
			if !telemetry.Offer(events, telemetry.FromDuty(deviceID, ev)) {
				logger.Warn("telemetry:dropped", slog.Uint64("seq", uint64(ev.Seq)))
			}
		},
	})
	if err := b.Start(); err != nil {
		logger.Error("bridge:start", slog.Any("reason", err))
	}
	b.Run(context.Background())
}

// runTelemetry brings up WiFi and publishes events. Failures are logged and
// leave the bridge running without telemetry.
func runTelemetry(logger *slog.Logger, events <-chan telemetry.Event, status chan<- display.Message) {
	stack, err := netstack.Up(netstack.Config{
		SSID:     netstack.SSID(),
		Password: netstack.Password(),
		Hostname: deviceID,
		Logger:   logger,
	})
	if err != nil {
		logger.Error("telemetry:wifi", slog.Any("reason", err))
		return
	}
	if err := stack.Start(); err != nil {
		logger.Error("telemetry:dhcp", slog.Any("reason", err))
		return
	}

	c := telemetry.Client{
		ID:                deviceID,
		Logger:            logger,
		Timeout:           5 * time.Second,
		TCPBufSize:        2030, // MTU - ethhdr - iphdr - tcphdr
		HeartbeatInterval: 30 * time.Second,
		Status:            status,
	}
	err = c.ConnectAndPublish(stack, brokerAddr, events)
	if err != nil {
		logger.Error("telemetry:mqtt", slog.Any("reason", err))
	}
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
	display.Send(messages, "PWM bridge W", "Joining WiFi...")
	return messages
}

// printErrForever logs msg @ 1hz. It blocks forever.
func printErrForever(logger *slog.Logger, msg string, args ...any) {
	for {
		logger.Error(msg, args...)
		time.Sleep(time.Second)
	}
}
