//go:build !linux

package gpio

import "errors"

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// ChipBank is not available on non-Linux platforms.
type ChipBank struct{}

// NewChipBank returns an error on non-Linux platforms.
func NewChipBank(chipName string, outputs, inputs []int) (*ChipBank, error) {
	return nil, errUnsupported
}

// Read is not implemented on non-Linux platforms.
func (b *ChipBank) Read(pad int) (bool, error) { return false, errUnsupported }

// Write is not implemented on non-Linux platforms.
func (b *ChipBank) Write(pad int, value bool) error { return errUnsupported }

// Close is not implemented on non-Linux platforms.
func (b *ChipBank) Close() error { return nil }

// NewPeriphBank returns an error on non-Linux platforms.
func NewPeriphBank(outputs, inputs []int) (*ChipBank, error) {
	return nil, errUnsupported
}

// NewRpioBank returns an error on non-Linux platforms.
func NewRpioBank(outputs, inputs []int) (*ChipBank, error) {
	return nil, errUnsupported
}
