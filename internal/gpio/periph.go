//go:build linux

package gpio

import (
	"fmt"
	"strconv"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// PeriphBank drives pads through periph.io host drivers.
type PeriphBank struct {
	pins map[int]gpio.PinIO
}

// NewPeriphBank initializes periph.io and configures the given pads.
func NewPeriphBank(outputs, inputs []int) (*PeriphBank, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init periph host: %w", err)
	}
	return newPeriphBank(outputs, inputs, lookupPin)
}

// newPeriphBank configures pads resolved by lookup. On failure every pin
// configured so far is released again.
func newPeriphBank(outputs, inputs []int, lookup func(pad int) (gpio.PinIO, error)) (*PeriphBank, error) {
	b := &PeriphBank{pins: make(map[int]gpio.PinIO)}
	for _, pad := range outputs {
		p, err := lookup(pad)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.pins[pad] = p
		if err := p.Out(gpio.Low); err != nil {
			b.Close()
			return nil, fmt.Errorf("configure output pin %d: %w", pad, err)
		}
	}
	for _, pad := range inputs {
		p, err := lookup(pad)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.pins[pad] = p
		if err := p.In(gpio.PullDown, gpio.NoEdge); err != nil {
			b.Close()
			return nil, fmt.Errorf("configure input pin %d: %w", pad, err)
		}
	}
	return b, nil
}

func lookupPin(pad int) (gpio.PinIO, error) {
	p := gpioreg.ByName(strconv.Itoa(pad))
	if p == nil {
		return nil, fmt.Errorf("no GPIO pin named: %d", pad)
	}
	return p, nil
}

// Read returns the level of pad.
func (b *PeriphBank) Read(pad int) (bool, error) {
	p, ok := b.pins[pad]
	if !ok {
		return false, fmt.Errorf("pin %d not configured", pad)
	}
	return p.Read() == gpio.High, nil
}

// Write drives pad to value.
func (b *PeriphBank) Write(pad int, value bool) error {
	p, ok := b.pins[pad]
	if !ok {
		return fmt.Errorf("pin %d not configured", pad)
	}
	if err := p.Out(gpio.Level(value)); err != nil {
		return fmt.Errorf("write pin %d: %w", pad, err)
	}
	return nil
}

// Close returns every pin to input with pull-down.
func (b *PeriphBank) Close() error {
	var errs []error
	for pad, p := range b.pins {
		if err := p.In(gpio.PullDown, gpio.NoEdge); err != nil {
			errs = append(errs, fmt.Errorf("release pin %d: %w", pad, err))
		}
	}
	b.pins = nil
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
