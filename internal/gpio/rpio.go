//go:build linux

package gpio

import (
	"fmt"

	"github.com/stianeikeland/go-rpio/v4"
)

// RpioBank drives pads through memory-mapped /dev/gpiomem registers.
type RpioBank struct {
	pins map[int]rpio.Pin
}

// NewRpioBank maps the GPIO registers and configures the given pads.
func NewRpioBank(outputs, inputs []int) (*RpioBank, error) {
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("open gpiomem: %w", err)
	}

	b := &RpioBank{pins: make(map[int]rpio.Pin)}
	for _, pad := range outputs {
		p := rpio.Pin(pad)
		p.Output()
		p.Low()
		b.pins[pad] = p
	}
	for _, pad := range inputs {
		p := rpio.Pin(pad)
		p.Input()
		p.PullDown()
		b.pins[pad] = p
	}
	return b, nil
}

// Read returns the level of pad.
func (b *RpioBank) Read(pad int) (bool, error) {
	p, ok := b.pins[pad]
	if !ok {
		return false, fmt.Errorf("pin %d not configured", pad)
	}
	return p.Read() == rpio.High, nil
}

// Write drives pad to value. The set/clear registers leave other pads of
// the bank untouched.
func (b *RpioBank) Write(pad int, value bool) error {
	p, ok := b.pins[pad]
	if !ok {
		return fmt.Errorf("pin %d not configured", pad)
	}
	if value {
		p.High()
	} else {
		p.Low()
	}
	return nil
}

// Close returns every pin to input with pull-down and unmaps the registers.
func (b *RpioBank) Close() error {
	for _, p := range b.pins {
		p.Input()
		p.PullDown()
	}
	b.pins = nil
	if err := rpio.Close(); err != nil {
		return fmt.Errorf("close gpiomem: %w", err)
	}
	return nil
}
