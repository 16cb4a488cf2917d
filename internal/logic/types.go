// Package logic contains the pure state machines and the tick scheduler of
// the range indicator. This package has NO external dependencies (no GPIO,
// MQTT, OS, or time.Sleep). Every transition is a function of its inputs,
// and the hardware side effects are applied by the caller.
package logic

import "time"

// Context holds the mutable state shared between the tasks.
// Distance is written only by the ranging task; every other task reads it.
type Context struct {
	// Distance is the most recent sonar reading in centimeters.
	Distance float64

	// Duty is the pair computed by the last color blend step.
	Duty DutyCyclePair

	// Private per-task counters.
	LampCount   uint32
	BuzzerCount uint32
	ColorCount  uint32
}

// EventType names an observable transition worth reporting.
type EventType string

const (
	EventPresenceOn     EventType = "PRESENCE_ON"
	EventPresenceOff    EventType = "PRESENCE_OFF"
	EventBuzzerOn       EventType = "BUZZER_ON"
	EventBuzzerOff      EventType = "BUZZER_OFF"
	EventSonarTimeout   EventType = "SONAR_TIMEOUT"
	EventSonarRecovered EventType = "SONAR_RECOVERED"
)

// Event represents a transition to be published.
type Event struct {
	Timestamp time.Time
	Type      EventType
	Distance  float64
}
