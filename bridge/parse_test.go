package bridge

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseInt(t *testing.T) {
	tests := []struct {
		in     string
		want   int32
		wantOK bool
	}{
		{"0", 0, true},
		{"255", 255, true},
		{"  42", 42, true},
		{"\t-7", -7, true},
		{"+8", 8, true},
		{"12abc", 12, true},
		{"95.40625", 95, true},
		{"17\r", 17, true},
		{"", 0, false},
		{"abc", 0, false},
		{"-", 0, false},
		{"x12", 0, false},
		{"- 5", 0, false},
		{"99999999999", math.MaxInt32, true},
		{"-99999999999", math.MinInt32, true},
		{"00000000000000000000000000000000000000000000000000000000000000000000000300", 300, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseInt([]byte(tt.in))
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestAppendApplied(t *testing.T) {
	buf := make([]byte, 0, 32)
	buf = AppendApplied(buf, 7)
	assert.Equal(t, "PWM Value set to: 7\r\n", string(buf))
}

func TestRejectError(t *testing.T) {
	err := &RejectError{Input: "300", Value: 300, Err: ErrOutOfRange}
	assert.Equal(t, `reject "300" (300): pwm value out of range`, err.Error())
	assert.ErrorIs(t, err, ErrOutOfRange)
}
