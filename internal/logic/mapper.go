package logic

import "math"

// Color window in centimeters.
const (
	MinDistance = 7
	MaxDistance = 15
)

// DefaultCycle is the reference blend cycle length (duty_max) in ticks.
const DefaultCycle = 15

// GreenDuty maps a distance to the green duty value.
//
// Beyond MaxDistance the lamp is full green, below MinDistance it is full
// red. Inside the window the value is dutyMax*(span-position)/span with
// position = 16 - distance. The offset of 16 is kept as is, so the result
// can fall slightly outside [0, dutyMax] near the lower edge; use
// NewDutyCyclePair to get tick counts.
func GreenDuty(distance, dutyMax float64) float64 {
	if distance > MaxDistance {
		return dutyMax
	}
	if distance < MinDistance {
		return 0
	}
	span := float64(MaxDistance - MinDistance)
	position := float64(MaxDistance+1) - distance
	return dutyMax * (span - position) / span
}

// DutyCyclePair splits one blend cycle between the green and red channels.
// Green + Red always equals the cycle length.
type DutyCyclePair struct {
	Green uint32
	Red   uint32
}

// Cycle returns the cycle length the pair was built for.
func (p DutyCyclePair) Cycle() uint32 {
	return p.Green + p.Red
}

// NewDutyCyclePair computes the pair for distance over a cycle of the given
// length. The mapper output is clamped into [0, cycle] and truncated to
// whole ticks.
func NewDutyCyclePair(distance float64, cycle uint32) DutyCyclePair {
	g := GreenDuty(distance, float64(cycle))
	if math.IsNaN(g) || g < 0 {
		g = 0
	}
	if g > float64(cycle) {
		g = float64(cycle)
	}
	green := uint32(g)
	return DutyCyclePair{Green: green, Red: cycle - green}
}
