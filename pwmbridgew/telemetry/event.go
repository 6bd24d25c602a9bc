// Package telemetry publishes applied duty cycles to an MQTT broker.
package telemetry

import (
	"time"

	"github.com/harveysanders/pwmbridge/bridge"
)

// DefaultTopic is the MQTT topic events are published on.
const DefaultTopic = "pwmbridge/duty"

// Event is the JSON payload published for each applied duty cycle.
type Event struct {
	Device      string  `json:"device"`
	Seq         uint32  `json:"seq"`
	Duty        uint8   `json:"duty"`
	Percent     float32 `json:"percent"`
	SinceBootMS int64   `json:"since_boot_ms"`
}

// FromDuty converts a bridge event for publishing.
func FromDuty(device string, ev bridge.DutyEvent) Event {
	return Event{
		Device:      device,
		Seq:         ev.Seq,
		Duty:        ev.Duty,
		Percent:     float32(ev.Duty) * 100 / bridge.MaxDuty,
		SinceBootMS: int64(ev.SinceBoot / time.Millisecond),
	}
}

// Offer queues ev without blocking. Events are dropped while the broker is
// unreachable and the queue is full.
func Offer(events chan<- Event, ev Event) bool {
	select {
	case events <- ev:
		return true
	default:
		return false
	}
}
