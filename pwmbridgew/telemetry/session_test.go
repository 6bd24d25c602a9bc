package telemetry

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	mqtt "github.com/soypat/natiu-mqtt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSession logs calls in order, including deadline extensions.
type recordingSession struct {
	calls   []string
	payload []byte
	topic   string
	pingErr error
}

func (s *recordingSession) PublishPayload(_ mqtt.PacketFlags, vars mqtt.VariablesPublish, payload []byte) error {
	s.calls = append(s.calls, "publish")
	s.payload = payload
	s.topic = string(vars.TopicName)
	return nil
}

func (s *recordingSession) StartPing() error {
	s.calls = append(s.calls, "ping")
	return s.pingErr
}

func (s *recordingSession) HandleNext() error {
	s.calls = append(s.calls, "handle")
	return nil
}

func (s *recordingSession) extend() { s.calls = append(s.calls, "deadline") }

func TestPing_ExtendsDeadlineThenPings(t *testing.T) {
	s := &recordingSession{}
	require.NoError(t, ping(s, s.extend))
	assert.Equal(t, []string{"deadline", "ping", "handle"}, s.calls)
}

func TestPing_Error(t *testing.T) {
	s := &recordingSession{pingErr: errors.New("closed")}
	err := ping(s, s.extend)
	require.EqualError(t, err, "ping: closed")
	assert.Equal(t, []string{"deadline", "ping"}, s.calls)
}

func TestPublish_DrainsAfterPublish(t *testing.T) {
	s := &recordingSession{}
	vars := mqtt.VariablesPublish{TopicName: []byte(DefaultTopic)}
	require.NoError(t, publish(s, s.extend, vars, Event{Device: "d", Seq: 7, Duty: 255, Percent: 100}))
	assert.Equal(t, []string{"deadline", "publish", "handle"}, s.calls)
	assert.Equal(t, DefaultTopic, s.topic)

	var got Event
	require.NoError(t, json.Unmarshal(s.payload, &got))
	assert.Equal(t, uint32(7), got.Seq)
	assert.Equal(t, uint8(255), got.Duty)
}

func TestSettings_Defaults(t *testing.T) {
	var c Client
	s := c.settings()
	require.NotNil(t, s.logger)
	s.logger.Info("no panic without a logger")
	assert.Equal(t, DefaultTopic, s.topic)
	assert.Equal(t, DefaultTimeout, s.timeout)
	assert.Equal(t, DefaultHeartbeat, s.heartbeat)
	assert.Less(t, s.heartbeat, 60*time.Second)

	c = Client{Topic: "lab/psu", Timeout: time.Second, HeartbeatInterval: 10 * time.Second}
	s = c.settings()
	assert.Equal(t, "lab/psu", s.topic)
	assert.Equal(t, time.Second, s.timeout)
	assert.Equal(t, 10*time.Second, s.heartbeat)
}
