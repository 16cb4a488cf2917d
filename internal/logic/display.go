package logic

import "math"

// Segments maps a decimal digit to its gfedcba pattern.
var Segments = [10]byte{
	0b0111111, // 0
	0b0000110, // 1
	0b1011011, // 2
	0b1001111, // 3
	0b1100110, // 4
	0b1101101, // 5
	0b1111101, // 6
	0b0000111, // 7
	0b1111111, // 8
	0b1101111, // 9
}

// DigitCount is the number of positions on the display.
const DigitCount = 3

// DisplayState is the digit position the display shows next.
type DisplayState int8

const (
	Digit1 DisplayState = iota // ones
	Digit2                     // tens
	Digit3                     // hundreds
)

func (s DisplayState) String() string {
	switch s {
	case Digit1:
		return "DIGIT1"
	case Digit2:
		return "DIGIT2"
	case Digit3:
		return "DIGIT3"
	default:
		return "UNKNOWN"
	}
}

// DisplayStep is the result of one multiplex step.
type DisplayStep struct {
	// State is the position to show on the next firing.
	State DisplayState
	// Position is the digit enable line to drive low (0 = ones).
	Position int
	Digit    int
	Pattern  byte
}

// Digits decomposes the integer part of distance into ones, tens and
// hundreds. Negative and NaN distances decode as zero.
func Digits(distance float64) [DigitCount]int {
	var d [DigitCount]int
	if math.IsNaN(distance) || distance < 0 {
		return d
	}
	n := uint64(math.Min(distance, math.MaxUint32))
	for i := range d {
		d[i] = int(n % 10)
		n /= 10
	}
	return d
}

// StepDisplay shows the digit for state and moves to the next position.
// Positions cycle Digit1, Digit2, Digit3. An unknown state recovers to
// Digit1.
func StepDisplay(state DisplayState, distance float64) DisplayStep {
	if state < Digit1 || state > Digit3 {
		state = Digit1
	}
	pos := int(state)
	digit := Digits(distance)[pos]
	return DisplayStep{
		State:    DisplayState((pos + 1) % DigitCount),
		Position: pos,
		Digit:    digit,
		Pattern:  Segments[digit],
	}
}
