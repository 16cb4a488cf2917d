package logic

// TickFunc advances a task from state and returns the new state.
type TickFunc func(state int8) int8

// Task is one periodic behavior driven by the Scheduler.
type Task struct {
	Name        string
	State       int8
	Period      uint32 // in tick units
	ElapsedTime uint32
	Tick        TickFunc
}

// Scheduler runs a fixed, ordered set of tasks on every timer tick.
//
// Tasks run in the order they were given. Each tick adds TickPeriod to a
// task's ElapsedTime and fires it once ElapsedTime reaches Period. A task
// with Period <= TickPeriod therefore runs on every tick. Tasks run to
// completion; a tick function that blocks stalls every task behind it.
type Scheduler struct {
	TickPeriod uint32
	Tasks      []*Task
	ticks      uint64
}

// NewScheduler creates a scheduler with a fixed task order.
func NewScheduler(tickPeriod uint32, tasks ...*Task) *Scheduler {
	if tickPeriod == 0 {
		tickPeriod = 1
	}
	for _, t := range tasks {
		// Start due so every task fires on the first tick.
		t.ElapsedTime = t.Period
	}
	return &Scheduler{TickPeriod: tickPeriod, Tasks: tasks}
}

// Tick consumes one timer tick and returns the names of the tasks that
// fired, in firing order.
func (s *Scheduler) Tick() []string {
	s.ticks++
	var fired []string
	for _, t := range s.Tasks {
		if t.ElapsedTime >= t.Period {
			t.State = t.Tick(t.State)
			t.ElapsedTime = 0
			fired = append(fired, t.Name)
		}
		t.ElapsedTime += s.TickPeriod
	}
	return fired
}

// Ticks returns the number of ticks consumed so far.
func (s *Scheduler) Ticks() uint64 {
	return s.ticks
}
