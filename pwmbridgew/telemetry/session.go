package telemetry

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/harveysanders/pwmbridge/display"
	mqtt "github.com/soypat/natiu-mqtt"
)

// DefaultHeartbeat is how often an idle connection is pinged. It must stay
// well under the 60s keepalive SetDefaultMQTT requests.
const DefaultHeartbeat = 30 * time.Second

// DefaultTimeout bounds each socket operation.
const DefaultTimeout = 5 * time.Second

var pubFlags, _ = mqtt.NewPublishFlags(mqtt.QoS0, false, false)

// Client publishes duty events to an MQTT broker.
type Client struct {
	ID                string
	Topic             string // Defaults to DefaultTopic.
	Timeout           time.Duration
	TCPBufSize        int
	HeartbeatInterval time.Duration
	Logger            *slog.Logger
	Username          string // MQTT broker username (optional)
	Password          string // MQTT broker password (optional, requires Username)
	// Status receives connection progress for the LCD. Optional.
	Status chan<- display.Message
}

func (c *Client) status(line1, line2 string) {
	if c.Status != nil {
		display.Send(c.Status, line1, line2)
	}
}

// session is the part of *mqtt.Client used once connected.
type session interface {
	PublishPayload(flags mqtt.PacketFlags, vars mqtt.VariablesPublish, payload []byte) error
	StartPing() error
	HandleNext() error
}

type settings struct {
	logger    *slog.Logger
	topic     string
	timeout   time.Duration
	heartbeat time.Duration
}

// settings returns c's options with defaults filled in.
func (c *Client) settings() settings {
	s := settings{
		logger:    c.Logger,
		topic:     c.Topic,
		timeout:   c.Timeout,
		heartbeat: c.HeartbeatInterval,
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
			Level: slog.Level(127),
		}))
	}
	if s.topic == "" {
		s.topic = DefaultTopic
	}
	if s.timeout <= 0 {
		s.timeout = DefaultTimeout
	}
	if s.heartbeat <= 0 {
		s.heartbeat = DefaultHeartbeat
	}
	return s
}

// publish sends ev and then reads whatever the broker queued. extend pushes
// the socket deadline out before any I/O.
func publish(s session, extend func(), vars mqtt.VariablesPublish, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return errors.New("marshal: " + err.Error())
	}
	extend()
	err = s.PublishPayload(pubFlags, vars, payload)
	if err != nil {
		return errors.New("publish: " + err.Error())
	}
	err = s.HandleNext()
	if err != nil {
		return errors.New("handle next: " + err.Error())
	}
	return nil
}

// ping keeps an idle connection alive and reads the PINGRESP.
func ping(s session, extend func()) error {
	extend()
	err := s.StartPing()
	if err != nil {
		return errors.New("ping: " + err.Error())
	}
	err = s.HandleNext()
	if err != nil {
		return errors.New("handle next: " + err.Error())
	}
	return nil
}
