package pwmout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGroup struct {
	top    uint32
	values map[uint8]uint32
}

func (g *fakeGroup) Top() uint32 { return g.top }

func (g *fakeGroup) Set(channel uint8, value uint32) {
	if g.values == nil {
		g.values = make(map[uint8]uint32)
	}
	g.values[channel] = value
}

func TestScale(t *testing.T) {
	tests := []struct {
		duty uint8
		top  uint32
		want uint32
	}{
		{0, 65535, 0},
		{255, 65535, 65535},
		{128, 255, 128},
		{1, 65535, 257},
		{255, 0xFFFFFFFF, 0xFFFFFFFF},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Scale(tt.duty, tt.top), "duty=%d top=%d", tt.duty, tt.top)
	}
}

func TestOutput_Set(t *testing.T) {
	g := &fakeGroup{top: 2550}
	out := New(g, 1)

	require.NoError(t, out.Set(100))
	assert.Equal(t, uint32(1000), g.values[1])

	require.NoError(t, out.Set(255))
	assert.Equal(t, uint32(2550), g.values[1])
	assert.NotContains(t, g.values, uint8(0))
}
