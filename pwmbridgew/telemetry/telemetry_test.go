package telemetry

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/harveysanders/pwmbridge/bridge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitHostPort(t *testing.T) {
	tests := []struct {
		addr       string
		host, port string
		wantErr    string
	}{
		{addr: "10.0.0.9:1883", host: "10.0.0.9", port: "1883"},
		{addr: "broker.local:8883", host: "broker.local", port: "8883"},
		{addr: "[fe80::1]:1883", host: "fe80::1", port: "1883"},
		{addr: "broker", wantErr: "missing port in address"},
		{addr: ":1883", wantErr: "empty host"},
		{addr: "broker:", wantErr: "empty port"},
	}
	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			host, port, err := SplitHostPort(tt.addr)
			if tt.wantErr != "" {
				require.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.host, host)
			assert.Equal(t, tt.port, port)
		})
	}
}

func TestParsePort(t *testing.T) {
	assert.Equal(t, uint16(1883), ParsePort("1883"))
	assert.Equal(t, uint16(65535), ParsePort("65535"))
	assert.Equal(t, uint16(0), ParsePort("65536"))
	assert.Equal(t, uint16(0), ParsePort("18a3"))
	assert.Equal(t, uint16(0), ParsePort(""))
}

func TestFromDuty_JSON(t *testing.T) {
	ev := FromDuty("pico-w", bridge.DutyEvent{Seq: 3, Duty: 51, SinceBoot: 1500 * time.Millisecond})
	b, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.JSONEq(t, `{"device":"pico-w","seq":3,"duty":51,"percent":20,"since_boot_ms":1500}`, string(b))
}

func TestOffer_DropsWhenFull(t *testing.T) {
	events := make(chan Event, 1)
	assert.True(t, Offer(events, Event{Seq: 1}))
	assert.False(t, Offer(events, Event{Seq: 2}))
	assert.Equal(t, uint32(1), (<-events).Seq)
}
