package gpio

// Write records a single pad write.
type Write struct {
	Pad   int
	Value bool
}

// FakeBank is a test double that records writes and returns scripted reads.
type FakeBank struct {
	// Levels holds the last value written to each pad.
	Levels map[int]bool

	// Writes contains every write in order.
	Writes []Write

	// Inputs contains scripted values per pad. Each Read of a scripted pad
	// consumes the next value; the last value repeats once exhausted.
	// Reads of unscripted pads return Levels.
	Inputs map[int][]bool

	// Reads counts calls to Read.
	Reads int

	// ReadError, if set, will be returned by Read.
	ReadError error

	// WriteError, if set, will be returned by Write.
	WriteError error

	// OnWrite, if set, is called after each recorded write.
	OnWrite func(pad int, value bool)

	// Closed tracks if Close was called.
	Closed bool

	index map[int]int
}

// NewFakeBank creates a FakeBank with no scripted inputs.
func NewFakeBank() *FakeBank {
	return &FakeBank{
		Levels: make(map[int]bool),
		Inputs: make(map[int][]bool),
		index:  make(map[int]int),
	}
}

// Script sets the values returned by successive reads of pad.
func (f *FakeBank) Script(pad int, values ...bool) {
	f.Inputs[pad] = values
	f.index[pad] = 0
}

// Read returns the next scripted value for pad, or its last written level.
func (f *FakeBank) Read(pad int) (bool, error) {
	f.Reads++
	if f.ReadError != nil {
		return false, f.ReadError
	}

	samples, ok := f.Inputs[pad]
	if !ok || len(samples) == 0 {
		return f.Levels[pad], nil
	}

	i := f.index[pad]
	v := samples[i]
	if i < len(samples)-1 {
		f.index[pad] = i + 1
	}
	return v, nil
}

// Write records the write and updates the pad level.
func (f *FakeBank) Write(pad int, value bool) error {
	if f.WriteError != nil {
		return f.WriteError
	}
	f.Levels[pad] = value
	f.Writes = append(f.Writes, Write{Pad: pad, Value: value})
	if f.OnWrite != nil {
		f.OnWrite(pad, value)
	}
	return nil
}

// WritesTo returns the recorded values written to pad, in order.
func (f *FakeBank) WritesTo(pad int) []bool {
	var out []bool
	for _, w := range f.Writes {
		if w.Pad == pad {
			out = append(out, w.Value)
		}
	}
	return out
}

// Close marks the bank as closed.
func (f *FakeBank) Close() error {
	f.Closed = true
	return nil
}

// Reset clears recorded writes and levels.
func (f *FakeBank) Reset() {
	f.Levels = make(map[int]bool)
	f.Writes = nil
	f.Reads = 0
	f.Closed = false
	f.ReadError = nil
	f.WriteError = nil
	for pad := range f.index {
		f.index[pad] = 0
	}
}
