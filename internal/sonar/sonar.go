// Package sonar measures distance with an HC-SR04 style ultrasonic module.
//
// Measure busy-waits on the echo line. Nothing else runs on the calling
// goroutine while it does, so ranging latency stalls the tick loop. Each
// wait is bounded by a time limit, and optionally by a poll budget, and
// reports ErrTimeout when either runs out.
package sonar

import (
	"errors"
	"fmt"
	"time"

	"github.com/sweeney/sonar-indicator/internal/gpio"
)

// ErrTimeout is returned when the echo line does not toggle in time, e.g.
// because the sensor is disconnected or nothing is in range.
var ErrTimeout = errors.New("sonar: echo timeout")

// CentimetersPerMicrosecond is half the speed of sound (round trip).
const CentimetersPerMicrosecond = 0.034 / 2

// DefaultMaxEcho bounds each echo wait. The HC-SR04 holds echo high for
// at most about 23ms (400cm).
const DefaultMaxEcho = 30 * time.Millisecond

// TriggerPulse is the width of the trigger pulse.
const TriggerPulse = 10 * time.Microsecond

// Ranger drives the trigger line and times the echo line.
type Ranger struct {
	bank     gpio.Bank
	trig     int
	echo     int
	maxEcho  time.Duration
	maxPolls int
	now      func() time.Time
}

// New creates a Ranger on bank. A maxEcho <= 0 selects DefaultMaxEcho.
// A maxPolls > 0 additionally caps the reads per wait; 0 leaves the waits
// bounded by time only.
func New(bank gpio.Bank, trig, echo int, maxEcho time.Duration, maxPolls int) *Ranger {
	return NewWithClock(bank, trig, echo, maxEcho, maxPolls, time.Now)
}

// NewWithClock creates a Ranger that reads time from now.
func NewWithClock(bank gpio.Bank, trig, echo int, maxEcho time.Duration, maxPolls int, now func() time.Time) *Ranger {
	if maxEcho <= 0 {
		maxEcho = DefaultMaxEcho
	}
	return &Ranger{bank: bank, trig: trig, echo: echo, maxEcho: maxEcho, maxPolls: maxPolls, now: now}
}

// Measure pings the sensor and returns the distance in centimeters.
func (r *Ranger) Measure() (float64, error) {
	if err := r.bank.Write(r.trig, true); err != nil {
		return 0, fmt.Errorf("raise trigger: %w", err)
	}
	r.spin(TriggerPulse)
	if err := r.bank.Write(r.trig, false); err != nil {
		return 0, fmt.Errorf("drop trigger: %w", err)
	}

	start, err := r.waitFor(true, r.now().Add(r.maxEcho))
	if err != nil {
		return 0, fmt.Errorf("wait for echo: %w", err)
	}
	end, err := r.waitFor(false, start.Add(r.maxEcho))
	if err != nil {
		return 0, fmt.Errorf("wait for echo end: %w", err)
	}

	return CentimetersPerMicrosecond * float64(end.Sub(start)) / float64(time.Microsecond), nil
}

// waitFor polls the echo line until it reads level and returns the time
// of that read. It gives up with ErrTimeout at deadline, or after maxPolls
// reads when a poll budget is set.
func (r *Ranger) waitFor(level bool, deadline time.Time) (time.Time, error) {
	for i := 0; r.maxPolls <= 0 || i < r.maxPolls; i++ {
		v, err := r.bank.Read(r.echo)
		if err != nil {
			return time.Time{}, err
		}
		t := r.now()
		if v == level {
			return t, nil
		}
		if !t.Before(deadline) {
			return time.Time{}, ErrTimeout
		}
	}
	return time.Time{}, ErrTimeout
}

// spin busy-waits for d. time.Sleep overshoots badly at microsecond scale.
func (r *Ranger) spin(d time.Duration) {
	start := r.now()
	for r.now().Sub(start) < d {
	}
}
