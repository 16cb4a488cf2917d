//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// ChipBank drives pads through the Linux GPIO character device.
type ChipBank struct {
	chip  *gpiocdev.Chip
	lines map[int]*gpiocdev.Line
}

// NewChipBank requests outputs (initially low) and inputs on the named chip.
func NewChipBank(chipName string, outputs, inputs []int) (*ChipBank, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	b := &ChipBank{chip: chip, lines: make(map[int]*gpiocdev.Line)}
	for _, pad := range outputs {
		l, err := chip.RequestLine(pad, gpiocdev.AsOutput(0))
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("request output pin %d: %w", pad, err)
		}
		b.lines[pad] = l
	}
	for _, pad := range inputs {
		// Pull-down keeps a disconnected echo line low.
		l, err := chip.RequestLine(pad, gpiocdev.AsInput, gpiocdev.WithPullDown)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("request input pin %d: %w", pad, err)
		}
		b.lines[pad] = l
	}
	return b, nil
}

// Read returns the level of pad.
func (b *ChipBank) Read(pad int) (bool, error) {
	l, ok := b.lines[pad]
	if !ok {
		return false, fmt.Errorf("pin %d not requested", pad)
	}
	v, err := l.Value()
	if err != nil {
		return false, fmt.Errorf("read pin %d: %w", pad, err)
	}
	return v != 0, nil
}

// Write drives pad to value.
func (b *ChipBank) Write(pad int, value bool) error {
	l, ok := b.lines[pad]
	if !ok {
		return fmt.Errorf("pin %d not requested", pad)
	}
	v := 0
	if value {
		v = 1
	}
	if err := l.SetValue(v); err != nil {
		return fmt.Errorf("write pin %d: %w", pad, err)
	}
	return nil
}

// Close releases GPIO resources.
// Lines are returned to input with pull-down (matching Pi boot defaults)
// before closing so nothing is left driven after shutdown.
func (b *ChipBank) Close() error {
	var errs []error

	for pad, l := range b.lines {
		if err := l.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure pin %d: %w", pad, err))
		}
		if err := l.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pin %d: %w", pad, err))
		}
	}
	b.lines = nil
	if b.chip != nil {
		if err := b.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
		b.chip = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
