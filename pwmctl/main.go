// Command pwmctl sets the output of a serial-to-PWM bridge from a host.
//
// It either sends a raw duty value or maps a requested supply voltage onto the
// PWM range (0..32 V onto 16.7..236 by default), then prints the bridge's reply.
//
//	pwmctl -list
//	pwmctl -port /dev/ttyACM0 -value 128
//	pwmctl -voltage 12.5
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/harveysanders/pwmbridge/config"
	"github.com/harveysanders/pwmbridge/serialport"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("pwmctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		configPath = fs.String("config", "", "Path to YAML config")
		portFlag   = fs.String("port", "", "Serial device (default: discover by serial.match)")
		matchFlag  = fs.String("match", "", "Product description to look for when discovering the port")
		list       = fs.Bool("list", false, "List serial ports and exit")
		voltage    = fs.Float64("voltage", -1, "Supply voltage to request (mapped onto the PWM range)")
		value      = fs.String("value", "", "Raw value to send")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "config load failed: %v\n", err)
		return 1
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.Log.Level}))

	if *list {
		ports, err := serialport.List()
		if err != nil {
			logger.Error("list ports", slog.Any("reason", err))
			return 1
		}
		if len(ports) == 0 {
			fmt.Fprintln(stdout, "No serial ports found")
		}
		for _, p := range ports {
			fmt.Fprintln(stdout, p.String())
		}
		return 0
	}

	msg, err := message(*value, *voltage, cfg.Mapping)
	if err != nil {
		fmt.Fprintln(stderr, err)
		fs.Usage()
		return 2
	}

	path := cfg.Serial.Port
	if *portFlag != "" {
		path = *portFlag
	}
	if *matchFlag != "" {
		cfg.Serial.Match = *matchFlag
	}
	if path == "" {
		path, err = serialport.Find(cfg.Serial.Match)
		if err != nil {
			logger.Error("find bridge port", slog.Any("reason", err))
			return 1
		}
		logger.Info("bridge detected", slog.String("port", path))
	}

	port, err := serialport.Open(path, cfg.Serial.Baud, cfg.Serial.PollInterval)
	if err != nil {
		logger.Error("open port", slog.Any("reason", err))
		return 1
	}
	defer port.Close()

	logger.Debug("sending", slog.String("port", path), slog.String("value", msg))
	reply, err := exchange(port, msg, cfg.Serial.ReplyTimeout)
	if reply != "" {
		fmt.Fprintln(stdout, reply)
	}
	if err != nil {
		logger.Error("set pwm", slog.String("value", msg), slog.Any("reason", err))
		return 1
	}
	if *voltage >= 0 {
		fmt.Fprintf(stdout, "Voltage value set to: %g\n", *voltage)
	}
	return 0
}

// message picks the text to send: the raw value, or the mapped voltage
// truncated to an integer.
func message(value string, voltage float64, m config.MappingConfig) (string, error) {
	switch {
	case value != "" && voltage >= 0:
		return "", errors.New("use either -value or -voltage")
	case value != "":
		return value, nil
	case voltage >= 0:
		pwm := MapValue(voltage, m.InMin, m.InMax, m.OutMin, m.OutMax)
		return strconv.Itoa(int(pwm)), nil
	}
	return "", errors.New("one of -value or -voltage is required")
}
