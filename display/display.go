// Package display shows bridge status on a 16x2 HD44780 LCD.
//
// Messages are handed to a Handler over a channel so the polling loop never
// waits on the I2C bus:
//
//	messages := make(chan display.Message, 4)
//	handler := display.NewHandler(dev, messages, logger)
//	go handler.Run()
//
//	display.Send(messages, "Bridge ready", "") // drops when full
package display

import (
	"errors"
	"io"
	"log/slog"
	"strconv"

	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/hd44780i2c"
)

const (
	columns = 16
	rows    = 2
)

// Common backpack addresses, PCF8574 then PCF8574A.
var probeAddrs = []uint8{0x27, 0x3F}

// Screen is the subset of *hd44780i2c.Device the handler needs.
type Screen interface {
	ClearDisplay()
	SetCursor(x, y uint8)
	Print(data []byte)
}

// Message represents a two-line LCD message.
type Message struct {
	Line1 []byte
	Line2 []byte
}

// Handler processes LCD messages from a channel.
type Handler struct {
	screen   Screen
	messages <-chan Message
	logger   *slog.Logger
}

// NewHandler creates a new 16x2 LCD message handler.
func NewHandler(screen Screen, messages <-chan Message, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Handler{
		screen:   screen,
		messages: messages,
		logger:   logger,
	}
}

// Run processes messages until the channel is closed.
// Run should be called in a separate goroutine.
func (h *Handler) Run() {
	for msg := range h.messages {
		h.display(msg)
	}
	h.logger.Debug("display:stopped")
}

// display prints msg to the screen, truncating each line in place.
func (h *Handler) display(msg Message) {
	h.screen.ClearDisplay()
	h.screen.SetCursor(0, 0)
	h.screen.Print(truncate(msg.Line1))
	h.screen.SetCursor(0, rows-1)
	h.screen.Print(truncate(msg.Line2))
}

func truncate(line []byte) []byte {
	if len(line) > columns {
		return line[:columns]
	}
	return line
}

// Send queues a two-line text message without blocking. It reports whether
// the message was queued.
func Send(messages chan<- Message, line1, line2 string) bool {
	return Post(messages, Message{Line1: []byte(line1), Line2: []byte(line2)})
}

// Post is Send for a prepared Message.
func Post(messages chan<- Message, msg Message) bool {
	select {
	case messages <- msg:
		return true
	default:
		return false
	}
}

// DutyMessage renders duty as "PWM: <n>" and "<pct>% duty".
func DutyMessage(duty uint8) Message {
	buf := make([]byte, 0, 2*columns)
	buf = append(buf, "PWM: "...)
	buf = strconv.AppendUint(buf, uint64(duty), 10)
	split := len(buf)
	pct := float64(duty) * 100 / 255
	buf = strconv.AppendFloat(buf, pct, 'f', 1, 64)
	buf = append(buf, "% duty"...)
	return Message{Line1: buf[:split:split], Line2: buf[split:]}
}

// Configure looks for an LCD backpack on the bus and initializes it.
// An error is returned when no device answers on 0x27 or 0x3F.
func Configure(bus drivers.I2C) (*hd44780i2c.Device, error) {
	for _, a := range probeAddrs {
		// A single zero byte clears the expander outputs; Configure
		// re-initializes them right after.
		if err := bus.Tx(uint16(a), []byte{0}, nil); err != nil {
			continue
		}
		dev := hd44780i2c.New(bus, a)
		err := dev.Configure(hd44780i2c.Config{
			Width:  columns,
			Height: rows,
		})
		if err != nil {
			return nil, errors.New("configure LCD at 0x" + strconv.FormatUint(uint64(a), 16) + ": " + err.Error())
		}
		return &dev, nil
	}
	return nil, errors.New("LCD not found on addresses: 0x27, 0x3f")
}
