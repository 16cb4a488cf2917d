// Package controller binds the pure state machines in internal/logic to
// GPIO. Each task computes its transition first and then applies the
// resulting outputs to the pins.
package controller

import (
	"errors"
	"log"
	"time"

	"github.com/sweeney/sonar-indicator/internal/gpio"
	"github.com/sweeney/sonar-indicator/internal/logic"
	"github.com/sweeney/sonar-indicator/internal/sonar"
)

// Task names in firing order.
const (
	TaskLamp    = "lamp"
	TaskBuzzer  = "buzzer"
	TaskColor   = "color"
	TaskDisplay = "display"
	TaskSonar   = "sonar"
)

// NoTarget is the reading assumed before the first measurement.
const NoTarget = 400

// Config holds task periods and FSM parameters. Periods are in ticks.
type Config struct {
	DisplayPeriod uint32
	SonarPeriod   uint32
	Cycle         uint32
	Lamp          logic.AlertConfig
	Buzzer        logic.AlertConfig
	// InitialDistance seeds the shared reading before the first
	// measurement.
	InitialDistance float64
}

// DefaultConfig returns the reference configuration for a 1ms tick.
func DefaultConfig() Config {
	return Config{
		DisplayPeriod:   5,
		SonarPeriod:     50,
		Cycle:           logic.DefaultCycle,
		Lamp:            logic.DefaultLamp,
		Buzzer:          logic.DefaultBuzzer,
		InitialDistance: NoTarget,
	}
}

// Ranger takes one distance measurement.
type Ranger interface {
	Measure() (float64, error)
}

// Transmitter shifts a byte out to the segment lines.
type Transmitter interface {
	Transmit(dat byte) error
}

// Controller owns the shared context and the scheduled tasks.
type Controller struct {
	cfg      Config
	bank     gpio.Bank
	pins     gpio.Pins
	ranger   Ranger
	segments Transmitter
	now      func() time.Time

	ctx   logic.Context
	sched *logic.Scheduler
	tasks map[string]*logic.Task

	shown    [logic.DigitCount]int
	events   []logic.Event
	readings uint64
	timeouts uint64
	failures uint64

	timingOut    bool
	writeFailing bool
}

// New creates a Controller driving pins on bank. Segment patterns go out
// through the shift register on pins.Data/Clock/Latch.
func New(cfg Config, bank gpio.Bank, pins gpio.Pins, ranger Ranger, now func() time.Time) *Controller {
	c := &Controller{
		cfg:    cfg,
		bank:   bank,
		pins:   pins,
		ranger: ranger,
		segments: gpio.ShiftRegister{
			Bank:  bank,
			Data:  pins.Data,
			Clock: pins.Clock,
			Latch: pins.Latch,
		},
		now: now,
	}
	c.ctx.Distance = cfg.InitialDistance

	ordered := []*logic.Task{
		{Name: TaskLamp, State: int8(logic.AlertOff), Period: 1, Tick: c.tickLamp},
		{Name: TaskBuzzer, State: int8(logic.AlertOff), Period: 1, Tick: c.tickBuzzer},
		{Name: TaskColor, State: int8(logic.GreenPhase), Period: 1, Tick: c.tickColor},
		{Name: TaskDisplay, State: int8(logic.Digit1), Period: cfg.DisplayPeriod, Tick: c.tickDisplay},
		{Name: TaskSonar, State: int8(logic.SonarHold), Period: cfg.SonarPeriod, Tick: c.tickSonar},
	}
	c.tasks = make(map[string]*logic.Task, len(ordered))
	for _, t := range ordered {
		c.tasks[t.Name] = t
	}
	c.sched = logic.NewScheduler(1, ordered...)
	return c
}

// Tick consumes one timer tick and returns the events raised during it.
func (c *Controller) Tick() []logic.Event {
	c.sched.Tick()
	events := c.events
	c.events = nil
	return events
}

// Context returns a copy of the shared context.
func (c *Controller) Context() logic.Context {
	return c.ctx
}

// State is a point-in-time view of the controller.
type State struct {
	Distance float64
	Lamp     logic.AlertState
	Buzzer   logic.AlertState
	Color    logic.ColorState
	Display  logic.DisplayState
	Sonar    logic.SonarState
	Duty     logic.DutyCyclePair
	Digits   [logic.DigitCount]int
	Ticks    uint64
	Readings uint64
	Timeouts uint64
	// Failures counts measurements that failed for reasons other than a
	// missing echo, such as GPIO errors.
	Failures uint64
}

// State returns the current controller state.
func (c *Controller) State() State {
	return State{
		Distance: c.ctx.Distance,
		Lamp:     logic.AlertState(c.tasks[TaskLamp].State),
		Buzzer:   logic.AlertState(c.tasks[TaskBuzzer].State),
		Color:    logic.ColorState(c.tasks[TaskColor].State),
		Display:  logic.DisplayState(c.tasks[TaskDisplay].State),
		Sonar:    logic.SonarState(c.tasks[TaskSonar].State),
		Duty:     c.ctx.Duty,
		Digits:   c.shown,
		Ticks:    c.sched.Ticks(),
		Readings: c.readings,
		Timeouts: c.timeouts,
		Failures: c.failures,
	}
}

// Shutdown drives every output low and disables all digits.
func (c *Controller) Shutdown() error {
	var errs []error
	for _, pad := range []int{c.pins.Lamp, c.pins.Buzzer, c.pins.Red, c.pins.Green, c.pins.Trig} {
		if err := c.bank.Write(pad, false); err != nil {
			errs = append(errs, err)
		}
	}
	for _, pad := range c.pins.Digits {
		if err := c.bank.Write(pad, true); err != nil {
			errs = append(errs, err)
		}
	}
	if err := c.segments.Transmit(0); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (c *Controller) tickLamp(state int8) int8 {
	prev := logic.AlertState(state)
	s := logic.StepAlert(prev, c.ctx.LampCount, c.cfg.Lamp, c.ctx.Distance)
	c.ctx.LampCount = s.Count
	c.write(c.pins.Lamp, s.Output)
	c.alertEvent(prev, s.State, logic.EventPresenceOn, logic.EventPresenceOff)
	return int8(s.State)
}

func (c *Controller) tickBuzzer(state int8) int8 {
	prev := logic.AlertState(state)
	s := logic.StepAlert(prev, c.ctx.BuzzerCount, c.cfg.Buzzer, c.ctx.Distance)
	c.ctx.BuzzerCount = s.Count
	c.write(c.pins.Buzzer, s.Output)
	c.alertEvent(prev, s.State, logic.EventBuzzerOn, logic.EventBuzzerOff)
	return int8(s.State)
}

func (c *Controller) alertEvent(prev, next logic.AlertState, on, off logic.EventType) {
	switch {
	case next == logic.AlertOn && prev != logic.AlertOn:
		c.emit(on)
	case next == logic.AlertOff && prev == logic.AlertOn:
		c.emit(off)
	}
}

func (c *Controller) tickColor(state int8) int8 {
	s := logic.StepColor(logic.ColorState(state), c.ctx.ColorCount, c.cfg.Cycle, c.ctx.Distance)
	c.ctx.ColorCount = s.Count
	c.ctx.Duty = s.Duty

	// Release before asserting so both channels are never high together.
	if s.Green {
		c.write(c.pins.Red, false)
		c.write(c.pins.Green, true)
	} else {
		c.write(c.pins.Green, false)
		c.write(c.pins.Red, s.Red)
	}
	return int8(s.State)
}

func (c *Controller) tickDisplay(state int8) int8 {
	s := logic.StepDisplay(logic.DisplayState(state), c.ctx.Distance)

	// Common anode: every digit off before the segments change.
	for _, pad := range c.pins.Digits {
		c.write(pad, true)
	}
	if err := c.segments.Transmit(s.Pattern); err != nil {
		c.writeFailed(err)
		return int8(s.State)
	}
	c.write(c.pins.Digits[s.Position], false)
	c.shown[s.Position] = s.Digit
	return int8(s.State)
}

func (c *Controller) tickSonar(state int8) int8 {
	s := logic.StepSonar(logic.SonarState(state))
	if !s.Measure {
		return int8(s.State)
	}

	d, err := c.ranger.Measure()
	if err != nil {
		if !errors.Is(err, sonar.ErrTimeout) {
			c.failures++
			log.Printf("sonar error: %v", err)
			return int8(s.State)
		}
		c.timeouts++
		if !c.timingOut {
			c.timingOut = true
			log.Printf("sonar timeout, holding last reading %.1fcm", c.ctx.Distance)
			c.emit(logic.EventSonarTimeout)
		}
		return int8(s.State)
	}

	c.readings++
	c.ctx.Distance = d
	if c.timingOut {
		c.timingOut = false
		log.Printf("sonar recovered: %.1fcm", d)
		c.emit(logic.EventSonarRecovered)
	}
	return int8(s.State)
}

func (c *Controller) emit(t logic.EventType) {
	c.events = append(c.events, logic.Event{
		Timestamp: c.now(),
		Type:      t,
		Distance:  c.ctx.Distance,
	})
}

func (c *Controller) write(pad int, value bool) {
	if err := c.bank.Write(pad, value); err != nil {
		c.writeFailed(err)
		return
	}
	c.writeFailing = false
}

// writeFailed logs the first failure of a streak only; the tick rate
// would otherwise flood the log.
func (c *Controller) writeFailed(err error) {
	if !c.writeFailing {
		log.Printf("gpio write error: %v", err)
		c.writeFailing = true
	}
}
