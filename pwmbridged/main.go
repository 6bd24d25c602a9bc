// Command pwmbridged runs the serial-to-PWM bridge on a Linux board: decimal
// duty values arriving on a serial port drive a PWM pin through periph.io.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/harveysanders/pwmbridge/bridge"
	"github.com/harveysanders/pwmbridge/config"
	"github.com/harveysanders/pwmbridge/pwmbridged/periphpwm"
	"github.com/harveysanders/pwmbridge/serialport"
)

func main() {
	var (
		configPath string
		portFlag   string
		pinFlag    string
		strictFlag bool
	)
	flag.StringVar(&configPath, "config", "", "Path to YAML config")
	flag.StringVar(&portFlag, "port", "", "Serial device (overrides config)")
	flag.StringVar(&pinFlag, "pin", "", "PWM pin name (overrides config)")
	flag.BoolVar(&strictFlag, "strict", false, "Reject input without digits instead of treating it as 0")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("config load failed", slog.Any("reason", err))
		os.Exit(1)
	}
	if portFlag != "" {
		cfg.Serial.Port = portFlag
	}
	if pinFlag != "" {
		cfg.PWM.Pin = pinFlag
	}
	cfg.Bridge.Strict = cfg.Bridge.Strict || strictFlag

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.Log.Level,
	}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("pwmbridged stopped", slog.Any("reason", err))
		os.Exit(1)
	}
	logger.Info("pwmbridged stopped")
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	path := cfg.Serial.Port
	if path == "" {
		if cfg.Serial.Match == "" {
			return errors.New("serial.port or serial.match is required")
		}
		found, err := serialport.Find(cfg.Serial.Match)
		if err != nil {
			return err
		}
		path = found
	}

	port, err := serialport.Open(path, cfg.Serial.Baud, cfg.Serial.PollInterval)
	if err != nil {
		return err
	}
	defer port.Close()

	pin, err := periphpwm.Open(cfg.PWM.Pin, cfg.PWM.FrequencyHz)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	poller := serialport.NewPoller(port, func(err error) {
		cancel(err)
	})

	logger.Info("pwmbridged starting",
		slog.String("port", path),
		slog.Int("baud", cfg.Serial.Baud),
		slog.String("pin", cfg.PWM.Pin),
		slog.Int64("frequencyHz", cfg.PWM.FrequencyHz),
	)
	b := bridge.New(poller, pin, bridge.Config{
		ReadTimeout: cfg.Bridge.ReadTimeout,
		StrictParse: cfg.Bridge.Strict,
		Logger:      logger,
	})
	if err := b.Start(); err != nil {
		return err
	}
	b.Run(ctx)
	return context.Cause(ctx)
}
