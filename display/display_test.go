package display

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeScreen struct {
	lines  [rows]string
	cursor uint8
	clears int
}

func (s *fakeScreen) ClearDisplay() {
	s.clears++
	s.lines = [rows]string{}
}

func (s *fakeScreen) SetCursor(x, y uint8) { s.cursor = y }

func (s *fakeScreen) Print(data []byte) { s.lines[s.cursor] += string(data) }

type nackBus struct{ addrs []uint16 }

func (b *nackBus) Tx(addr uint16, w, r []byte) error {
	b.addrs = append(b.addrs, addr)
	return errors.New("nack")
}

func TestHandler_RunTruncates(t *testing.T) {
	screen := &fakeScreen{}
	messages := make(chan Message, 2)
	h := NewHandler(screen, messages, nil)

	require.True(t, Send(messages, "a very long first line", "ok"))
	close(messages)
	h.Run()

	assert.Equal(t, 1, screen.clears)
	assert.Equal(t, "a very long firs", screen.lines[0])
	assert.Equal(t, "ok", screen.lines[1])
}

func TestSend_DropsWhenFull(t *testing.T) {
	messages := make(chan Message, 1)
	assert.True(t, Send(messages, "1", ""))
	assert.False(t, Send(messages, "2", ""))
	assert.Equal(t, "1", string((<-messages).Line1))
}

func TestDutyMessage(t *testing.T) {
	tests := []struct {
		duty         uint8
		line1, line2 string
	}{
		{0, "PWM: 0", "0.0% duty"},
		{128, "PWM: 128", "50.2% duty"},
		{255, "PWM: 255", "100.0% duty"},
	}
	for _, tt := range tests {
		msg := DutyMessage(tt.duty)
		assert.Equal(t, tt.line1, string(msg.Line1))
		assert.Equal(t, tt.line2, string(msg.Line2))
	}
}

func TestConfigure_NotFound(t *testing.T) {
	bus := &nackBus{}
	dev, err := Configure(bus)
	assert.Nil(t, dev)
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "LCD not found"))
	assert.Equal(t, []uint16{0x27, 0x3F}, bus.addrs)
}
