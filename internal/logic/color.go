package logic

// ColorState is the phase of the two-color blend.
type ColorState int8

const (
	GreenPhase ColorState = iota
	RedPhase
)

func (s ColorState) String() string {
	switch s {
	case GreenPhase:
		return "GREEN"
	case RedPhase:
		return "RED"
	default:
		return "UNKNOWN"
	}
}

// ColorStep is the result of one blend transition.
type ColorStep struct {
	State ColorState
	Count uint32
	Duty  DutyCyclePair
	Green bool
	Red   bool
}

// StepColor advances the software PWM blend by one step.
//
// The duty pair is recomputed from distance on every step, so a moving
// target can stretch or cut the phase in progress. A phase keeps its
// channel high while the counter is below its tick count; the step that
// exhausts it drives both channels low, switches phase and restarts the
// counter. An unknown state recovers to GreenPhase.
func StepColor(state ColorState, count uint32, cycle uint32, distance float64) ColorStep {
	duty := NewDutyCyclePair(distance, cycle)
	step := ColorStep{Duty: duty}

	switch state {
	case GreenPhase:
		if count < duty.Green {
			step.State = GreenPhase
			step.Count = count + 1
			step.Green = true
			return step
		}
		step.State = RedPhase
	case RedPhase:
		if count < duty.Red {
			step.State = RedPhase
			step.Count = count + 1
			step.Red = true
			return step
		}
		step.State = GreenPhase
	default:
		step.State = GreenPhase
	}

	step.Count = 0
	return step
}
