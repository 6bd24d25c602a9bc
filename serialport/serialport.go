// Package serialport opens host serial ports with go.bug.st/serial and adapts
// them to the bridge's non-blocking Port.
package serialport

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// ErrNoPort is returned by Find when no port matches.
var ErrNoPort = errors.New("no matching serial port")

// Open opens path at baud 8N1 with reads returning after at most pollInterval.
func Open(path string, baud int, pollInterval time.Duration) (serial.Port, error) {
	port, err := serial.Open(path, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := port.SetReadTimeout(pollInterval); err != nil {
		port.Close()
		return nil, fmt.Errorf("set read timeout on %s: %w", path, err)
	}
	return port, nil
}

// Info describes an enumerated port.
type Info struct {
	Name    string
	Product string
	USB     bool
	VID     string
	PID     string
}

func (i Info) String() string {
	if !i.USB {
		return i.Name
	}
	return i.Name + " [" + i.VID + ":" + i.PID + "] " + i.Product
}

// List enumerates the serial ports on this host.
func List() ([]Info, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("list ports: %w", err)
	}
	ports := make([]Info, 0, len(details))
	for _, d := range details {
		ports = append(ports, Info{
			Name:    d.Name,
			Product: d.Product,
			USB:     d.IsUSB,
			VID:     d.VID,
			PID:     d.PID,
		})
	}
	return ports, nil
}

// Find returns the first USB port whose product description contains match
// (case-insensitive).
func Find(match string) (string, error) {
	ports, err := List()
	if err != nil {
		return "", err
	}
	return pick(ports, match)
}

func pick(ports []Info, match string) (string, error) {
	match = strings.ToLower(match)
	for _, p := range ports {
		if p.USB && strings.Contains(strings.ToLower(p.Product), match) {
			return p.Name, nil
		}
	}
	return "", fmt.Errorf("%w for %q", ErrNoPort, match)
}

// Poller exposes an io.ReadWriter whose reads return after a short timeout
// as a non-blocking byte source. Buffered performs at most one bounded read.
type Poller struct {
	rw      io.ReadWriter
	buf     []byte
	pending []byte
	onError func(error)
	failed  bool
}

// NewPoller wraps rw. onError is called once, on the first read error
// other than a timeout; after that the poller reports no data.
func NewPoller(rw io.ReadWriter, onError func(error)) *Poller {
	return &Poller{
		rw:      rw,
		buf:     make([]byte, 256),
		onError: onError,
	}
}

// Buffered returns the number of bytes ready for ReadByte.
func (p *Poller) Buffered() int {
	if len(p.pending) == 0 && !p.failed {
		n, err := p.rw.Read(p.buf)
		p.pending = p.buf[:n]
		if err != nil && n == 0 {
			p.failed = true
			if p.onError != nil {
				p.onError(err)
			}
		}
	}
	return len(p.pending)
}

// ReadByte returns the next buffered byte without reading the port.
func (p *Poller) ReadByte() (byte, error) {
	if len(p.pending) == 0 {
		return 0, io.EOF
	}
	c := p.pending[0]
	p.pending = p.pending[1:]
	return c, nil
}

func (p *Poller) Write(b []byte) (int, error) {
	return p.rw.Write(b)
}
