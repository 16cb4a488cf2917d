package logic

// AlertState is the state of a blinking alert output (lamp or buzzer).
type AlertState int8

const (
	AlertOff AlertState = iota
	AlertOn
)

func (s AlertState) String() string {
	switch s {
	case AlertOff:
		return "OFF"
	case AlertOn:
		return "ON"
	default:
		return "UNKNOWN"
	}
}

// AlertConfig describes one blinking alert.
type AlertConfig struct {
	// Threshold is the distance at or below which the alert is active.
	Threshold float64
	// OnTicks is how many steps per cycle the output is high.
	OnTicks uint32
	// CycleTicks is the cycle length; the counter wraps here.
	CycleTicks uint32
}

// Reference alert configurations.
var (
	DefaultLamp   = AlertConfig{Threshold: DefaultThreshold, OnTicks: 50, CycleTicks: 500}
	DefaultBuzzer = AlertConfig{Threshold: DefaultThreshold, OnTicks: 20, CycleTicks: 400}
)

// DefaultThreshold is the presence distance in centimeters.
const DefaultThreshold = 10

// AlertStep is the result of one alert transition.
type AlertStep struct {
	State  AlertState
	Count  uint32
	Output bool
}

// StepAlert advances an alert by one step.
//
// Off goes On when distance <= threshold and the counter restarts at 0.
// On goes Off as soon as distance > threshold. While On the output is high
// for counter values below OnTicks. The counter advances every step and
// wraps at CycleTicks. An unknown state recovers to Off.
func StepAlert(state AlertState, count uint32, cfg AlertConfig, distance float64) AlertStep {
	switch state {
	case AlertOff:
		if distance <= cfg.Threshold {
			state = AlertOn
			count = 0
		}
	case AlertOn:
		if distance > cfg.Threshold {
			state = AlertOff
		}
	default:
		state = AlertOff
		count = 0
	}

	out := state == AlertOn && count < cfg.OnTicks

	count++
	if count >= cfg.CycleTicks {
		count = 0
	}

	return AlertStep{State: state, Count: count, Output: out}
}
