package logic

import (
	"math"
	"testing"
)

func TestSegmentTable(t *testing.T) {
	want := map[int]byte{0: 0x3F, 1: 0x06, 2: 0x5B, 3: 0x4F, 4: 0x66, 5: 0x6D, 6: 0x7D, 7: 0x07, 8: 0x7F, 9: 0x6F}
	for d, p := range want {
		if Segments[d] != p {
			t.Errorf("digit %d: got %07b, want %07b", d, Segments[d], p)
		}
	}
}

func TestDigits(t *testing.T) {
	tests := []struct {
		distance float64
		want     [DigitCount]int
	}{
		{0, [3]int{0, 0, 0}},
		{7.9, [3]int{7, 0, 0}},
		{42.5, [3]int{2, 4, 0}},
		{305, [3]int{5, 0, 3}},
		{1234, [3]int{4, 3, 2}},
		{-12, [3]int{0, 0, 0}},
		{math.NaN(), [3]int{0, 0, 0}},
	}

	for _, tt := range tests {
		if got := Digits(tt.distance); got != tt.want {
			t.Errorf("Digits(%v): got %v, want %v", tt.distance, got, tt.want)
		}
	}
}

func TestDisplayCyclesPositions(t *testing.T) {
	state := Digit1
	var order []int
	var patterns []byte
	for i := 0; i < 6; i++ {
		s := StepDisplay(state, 123)
		order = append(order, s.Position)
		patterns = append(patterns, s.Pattern)
		state = s.State
	}

	wantOrder := []int{0, 1, 2, 0, 1, 2}
	wantPatterns := []byte{Segments[3], Segments[2], Segments[1], Segments[3], Segments[2], Segments[1]}
	for i := range wantOrder {
		if order[i] != wantOrder[i] {
			t.Errorf("firing %d: position %d, want %d", i, order[i], wantOrder[i])
		}
		if patterns[i] != wantPatterns[i] {
			t.Errorf("firing %d: pattern %07b, want %07b", i, patterns[i], wantPatterns[i])
		}
	}
}

func TestDisplayDecodesEveryFiring(t *testing.T) {
	s := StepDisplay(Digit1, 18)
	if s.Digit != 8 {
		t.Fatalf("digit: got %d, want 8", s.Digit)
	}
	// Distance changed between firings; tens comes from the new reading.
	s = StepDisplay(s.State, 95)
	if s.Digit != 9 {
		t.Errorf("digit: got %d, want 9", s.Digit)
	}
}

func TestDisplayUnknownStateRecovers(t *testing.T) {
	s := StepDisplay(DisplayState(5), 321)
	if s.Position != 0 || s.Digit != 1 || s.State != Digit2 {
		t.Errorf("got %+v, want position 0, digit 1, next DIGIT2", s)
	}
}
