package gpio

import "fmt"

// ShiftRegister bit-bangs bytes into a 74HC595 style serial-in,
// parallel-out register.
type ShiftRegister struct {
	Bank  Bank
	Data  int // SER
	Clock int // SRCLK
	Latch int // RCLK
}

// Transmit shifts dat out MSB first, strobing the clock once per bit, then
// raises the latch to copy the shifted byte to the outputs.
func (s ShiftRegister) Transmit(dat byte) error {
	if err := s.Bank.Write(s.Latch, false); err != nil {
		return fmt.Errorf("reset latch: %w", err)
	}
	for i := 7; i >= 0; i-- {
		if err := s.Bank.Write(s.Clock, false); err != nil {
			return fmt.Errorf("reset clock: %w", err)
		}
		if err := s.Bank.Write(s.Data, dat&(1<<uint(i)) != 0); err != nil {
			return fmt.Errorf("write bit %d: %w", i, err)
		}
		if err := s.Bank.Write(s.Clock, true); err != nil {
			return fmt.Errorf("strobe clock: %w", err)
		}
	}
	if err := s.Bank.Write(s.Latch, true); err != nil {
		return fmt.Errorf("strobe latch: %w", err)
	}
	return nil
}
