package gpio

import "fmt"

// Open returns a Bank for the named backend with the given pins requested.
func Open(backend, chip string, pins Pins) (Bank, error) {
	switch backend {
	case BackendGPIOCDev, "":
		b, err := NewChipBank(chip, pins.Outputs(), pins.Inputs())
		if err != nil {
			return nil, err
		}
		return b, nil
	case BackendPeriph:
		b, err := NewPeriphBank(pins.Outputs(), pins.Inputs())
		if err != nil {
			return nil, err
		}
		return b, nil
	case BackendRPIO:
		b, err := NewRpioBank(pins.Outputs(), pins.Inputs())
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unknown gpio backend %q", backend)
	}
}
