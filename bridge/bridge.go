// Package bridge reads decimal duty-cycle values from a serial channel and
// applies them to a single PWM output.
//
// The bridge is a cooperative polling loop. It never blocks waiting for input:
// each call to Poll checks whether the port has buffered bytes, and only then
// consumes one message up to a newline or an inter-byte timeout. Values in
// [0,255] are written to the pin and acknowledged; anything else is reported
// with a fixed diagnostic and the pin is left alone.
//
// Example usage:
//
//	b := bridge.New(machine.Serial, out, bridge.Config{})
//	b.Start()
//	b.Run(context.Background())
package bridge

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"runtime"
	"time"
)

const (
	// MinDuty and MaxDuty bound the accepted duty-cycle values.
	MinDuty = 0
	MaxDuty = 255

	// DefaultReadTimeout is the inter-byte gap that ends a message when no
	// newline arrives. Matches the Arduino Stream default.
	DefaultReadTimeout = time.Second

	// DefaultBaudRate is the serial speed the host side expects.
	DefaultBaudRate = 115200

	msgBufSize = 64
)

// Fixed replies written to the serial channel.
const (
	StartupNotice  = "Setup started\n"
	AppliedPrefix  = "PWM Value set to: "
	InvalidMessage = "Invalid PWM value. Please enter a number between 0 and 255."
	lineEnd        = "\r\n"
)

// Port is the serial channel. Buffered and ReadByte must not block.
// machine.Serial and *machine.UART satisfy it.
type Port interface {
	Buffered() int
	ReadByte() (byte, error)
	io.Writer
}

// PinWriter drives the PWM output with a duty cycle in [0,255].
type PinWriter interface {
	Set(duty uint8) error
}

// Outcome is the result of one poll iteration.
type Outcome uint8

const (
	Idle Outcome = iota
	Applied
	Rejected
)

func (o Outcome) String() string {
	switch o {
	case Idle:
		return "idle"
	case Applied:
		return "applied"
	case Rejected:
		return "rejected"
	}
	return "unknown"
}

// DutyEvent describes a successful write to the output pin.
type DutyEvent struct {
	Seq       uint32        // Incremented on every applied write.
	Duty      uint8         // Value written to the pin.
	SinceBoot time.Duration // Time since the bridge was created.
}

// Config tunes a Bridge. The zero value is usable.
type Config struct {
	// ReadTimeout ends a message when no byte arrives for this long.
	// Defaults to DefaultReadTimeout.
	ReadTimeout time.Duration
	// StrictParse rejects input without any digits instead of treating it as 0.
	StrictParse bool
	// OnApply is called after every successful pin write. It runs on the
	// polling loop and must not block.
	OnApply func(DutyEvent)
	// Logger receives diagnostics. Nothing is logged if nil.
	Logger *slog.Logger
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// Bridge connects one serial Port to one PinWriter.
type Bridge struct {
	port    Port
	pin     PinWriter
	timeout time.Duration
	strict  bool
	onApply func(DutyEvent)
	logger  *slog.Logger
	now     func() time.Time

	start   time.Time
	seq     uint32
	last    uint8
	written bool

	parser intParser

	// Preallocated so the loop does not grow the heap.
	msg   []byte
	reply []byte
}

// New returns a Bridge reading from port and writing to pin.
func New(port Port, pin PinWriter, cfg Config) *Bridge {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
			Level: slog.Level(127),
		}))
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	timeout := cfg.ReadTimeout
	if timeout <= 0 {
		timeout = DefaultReadTimeout
	}
	return &Bridge{
		port:    port,
		pin:     pin,
		timeout: timeout,
		strict:  cfg.StrictParse,
		onApply: cfg.OnApply,
		logger:  logger,
		now:     now,
		start:   now(),
		msg:     make([]byte, 0, msgBufSize),
		reply:   make([]byte, 0, len(InvalidMessage)+len(lineEnd)),
	}
}

// Start emits the startup notice.
func (b *Bridge) Start() error {
	b.logger.Info("bridge:start", slog.Duration("readTimeout", b.timeout), slog.Bool("strict", b.strict))
	_, err := io.WriteString(b.port, StartupNotice)
	if err != nil {
		return errors.New("write startup notice: " + err.Error())
	}
	return nil
}

// Run polls until ctx is done. It only returns ctx.Err().
func (b *Bridge) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		outcome, err := b.Poll()
		if err != nil {
			b.logger.Debug("bridge:poll", slog.String("outcome", outcome.String()), slog.String("err", err.Error()))
		}
		if outcome == Idle {
			// TinyGo runs goroutines on one core; let the LCD and network run.
			runtime.Gosched()
		}
	}
}

// Poll runs one iteration of the loop. It returns Idle without side effects
// when no input is buffered. A Rejected outcome comes with an error wrapping
// ErrOutOfRange, ErrUnparseable or the pin's write error.
func (b *Bridge) Poll() (Outcome, error) {
	if b.port.Buffered() == 0 {
		return Idle, nil
	}
	msg, value, ok := b.readMessage()
	var err error
	switch {
	case !ok && b.strict:
		err = &RejectError{Input: string(msg), Value: value, Err: ErrUnparseable}
	case value < MinDuty || value > MaxDuty:
		err = &RejectError{Input: string(msg), Value: value, Err: ErrOutOfRange}
	}
	if err != nil {
		b.logger.Warn("bridge:rejected", slog.String("input", string(msg)), slog.Int64("value", int64(value)))
		b.writeReply(b.appendInvalid(b.reply[:0]))
		return Rejected, err
	}

	duty := uint8(value)
	if werr := b.pin.Set(duty); werr != nil {
		b.logger.Error("bridge:pin-write-failed", slog.Int("duty", int(duty)), slog.String("err", werr.Error()))
		b.writeReply(b.appendInvalid(b.reply[:0]))
		return Rejected, &RejectError{Input: string(msg), Value: value, Err: werr}
	}
	b.last = duty
	b.written = true
	b.seq++

	b.writeReply(AppendApplied(b.reply[:0], duty))
	b.logger.Info("bridge:applied", slog.Int("duty", int(duty)))

	if b.onApply != nil {
		b.onApply(DutyEvent{
			Seq:       b.seq,
			Duty:      duty,
			SinceBoot: b.now().Sub(b.start),
		})
	}
	return Applied, nil
}

// LastDuty returns the last value written to the pin. ok is false until the
// first successful write.
func (b *Bridge) LastDuty() (duty uint8, ok bool) {
	return b.last, b.written
}

func (b *Bridge) writeReply(p []byte) {
	b.reply = p[:0]
	if _, err := b.port.Write(p); err != nil {
		b.logger.Error("bridge:reply-failed", slog.String("err", err.Error()))
	}
}

func (b *Bridge) appendInvalid(dst []byte) []byte {
	dst = append(dst, InvalidMessage...)
	return append(dst, lineEnd...)
}
