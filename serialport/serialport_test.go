package serialport

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chunkPort returns one queued chunk per Read, and (0, nil) like a timed-out
// serial read once the queue is empty.
type chunkPort struct {
	chunks [][]byte
	err    error
	out    bytes.Buffer
}

func (p *chunkPort) Read(b []byte) (int, error) {
	if len(p.chunks) == 0 {
		return 0, p.err
	}
	n := copy(b, p.chunks[0])
	p.chunks = p.chunks[1:]
	return n, nil
}

func (p *chunkPort) Write(b []byte) (int, error) { return p.out.Write(b) }

func TestPoller_ReadsChunks(t *testing.T) {
	port := &chunkPort{chunks: [][]byte{[]byte("12"), []byte("8\n")}}
	p := NewPoller(port, nil)

	var got []byte
	for p.Buffered() > 0 {
		c, err := p.ReadByte()
		require.NoError(t, err)
		got = append(got, c)
	}
	assert.Equal(t, "128\n", string(got))
	assert.Equal(t, 0, p.Buffered())

	_, err := p.ReadByte()
	assert.ErrorIs(t, err, io.EOF)
}

func TestPoller_ErrorReportedOnce(t *testing.T) {
	port := &chunkPort{err: errors.New("device disconnected")}
	var errs []error
	p := NewPoller(port, func(err error) { errs = append(errs, err) })

	assert.Equal(t, 0, p.Buffered())
	assert.Equal(t, 0, p.Buffered())
	require.Len(t, errs, 1)
	assert.EqualError(t, errs[0], "device disconnected")
}

func TestPoller_Write(t *testing.T) {
	port := &chunkPort{}
	p := NewPoller(port, nil)
	n, err := p.Write([]byte("ok"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "ok", port.out.String())
}

func TestPick(t *testing.T) {
	ports := []Info{
		{Name: "/dev/ttyS0"},
		{Name: "/dev/ttyUSB0", USB: true, Product: "FT232R USB UART"},
		{Name: "/dev/ttyACM0", USB: true, Product: "Pico Serial"},
	}
	name, err := pick(ports, "serial")
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyACM0", name)

	_, err = pick(ports, "arduino")
	require.ErrorIs(t, err, ErrNoPort)
}

func TestInfoString(t *testing.T) {
	assert.Equal(t, "/dev/ttyS0", Info{Name: "/dev/ttyS0"}.String())
	assert.Equal(t, "/dev/ttyACM0 [2E8A:000A] Pico",
		Info{Name: "/dev/ttyACM0", USB: true, VID: "2E8A", PID: "000A", Product: "Pico"}.String())
}
