// Package gpio provides pin bank access with hardware abstraction.
// The real implementations use the Linux GPIO character device, periph.io
// or /dev/gpiomem. The fake implementation allows testing without hardware.
package gpio

// Bank reads and writes individual pads of one GPIO bank.
// Writing a pad never disturbs the other pads of the bank.
type Bank interface {
	// Read returns the level of pad (true = high).
	Read(pad int) (bool, error)

	// Write drives pad to value.
	Write(pad int, value bool) error

	// Close releases GPIO resources.
	Close() error
}

// Pin definitions (BCM numbering)
const (
	DefaultPinTrig   = 23 // sonar trigger
	DefaultPinEcho   = 24 // sonar echo
	DefaultPinLamp   = 17
	DefaultPinBuzzer = 27
	DefaultPinRed    = 5
	DefaultPinGreen  = 6
	DefaultPinData   = 20 // shift register SER
	DefaultPinClock  = 21 // shift register SRCLK
	DefaultPinLatch  = 26 // shift register RCLK
)

// Pins is the wiring of the indicator board.
type Pins struct {
	Trig   int
	Echo   int
	Lamp   int
	Buzzer int
	Red    int
	Green  int
	Data   int
	Clock  int
	Latch  int
	// Digits are the active-low digit enables, ones first.
	Digits [3]int
}

// DefaultPins returns the reference wiring.
func DefaultPins() Pins {
	return Pins{
		Trig:   DefaultPinTrig,
		Echo:   DefaultPinEcho,
		Lamp:   DefaultPinLamp,
		Buzzer: DefaultPinBuzzer,
		Red:    DefaultPinRed,
		Green:  DefaultPinGreen,
		Data:   DefaultPinData,
		Clock:  DefaultPinClock,
		Latch:  DefaultPinLatch,
		Digits: [3]int{12, 13, 19},
	}
}

// Outputs lists every pad driven by the indicator.
func (p Pins) Outputs() []int {
	return []int{p.Trig, p.Lamp, p.Buzzer, p.Red, p.Green, p.Data, p.Clock, p.Latch, p.Digits[0], p.Digits[1], p.Digits[2]}
}

// Inputs lists every pad read by the indicator.
func (p Pins) Inputs() []int {
	return []int{p.Echo}
}

// Backend names accepted by Open.
const (
	BackendGPIOCDev = "gpiocdev"
	BackendPeriph   = "periph"
	BackendRPIO     = "rpio"
)
