package logic

// SonarState is the state of the ranging task.
type SonarState int8

const (
	SonarHold SonarState = iota
	SonarScan
)

func (s SonarState) String() string {
	switch s {
	case SonarHold:
		return "HOLD"
	case SonarScan:
		return "SCAN"
	default:
		return "UNKNOWN"
	}
}

// SonarStep is the result of one ranging transition.
type SonarStep struct {
	State SonarState
	// Measure is set when the caller must take a reading this firing.
	Measure bool
}

// StepSonar toggles between Hold and Scan. Entering Scan requests a
// measurement, so only every other firing ranges. An unknown state
// recovers to Hold.
func StepSonar(state SonarState) SonarStep {
	switch state {
	case SonarHold:
		return SonarStep{State: SonarScan, Measure: true}
	case SonarScan:
		return SonarStep{State: SonarHold}
	default:
		return SonarStep{State: SonarHold}
	}
}
