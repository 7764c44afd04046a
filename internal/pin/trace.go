package pin

import "sync"

// Run is a stretch of consecutive writes at one level.
type Run struct {
	High   bool
	Writes int
}

// Pulse is one high run followed by the low run that ends it, both
// measured in register writes.
type Pulse struct {
	High, Low int
}

// Trace is an Output that records every write instead of touching
// hardware. It plays the role of a logic analyzer for the sim driver and
// for tests.
type Trace struct {
	mu         sync.Mutex
	runs       []Run
	configured int
	closed     bool
}

func (t *Trace) record(high bool) {
	t.mu.Lock()
	if n := len(t.runs); n > 0 && t.runs[n-1].High == high {
		t.runs[n-1].Writes++
	} else {
		t.runs = append(t.runs, Run{High: high, Writes: 1})
	}
	t.mu.Unlock()
}

func (t *Trace) High() { t.record(true) }
func (t *Trace) Low()  { t.record(false) }

// Configure only counts the call; the line idles low between writes.
func (t *Trace) Configure() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.configured++
	return nil
}

func (t *Trace) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}

// Configured reports how many times Configure was called.
func (t *Trace) Configured() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.configured
}

// Closed reports whether Close was called.
func (t *Trace) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// Runs returns a copy of the recorded runs.
func (t *Trace) Runs() []Run {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Run(nil), t.runs...)
}

// Pulses pairs every high run with the low run following it. Leading low
// runs are skipped; a trailing high run without a low is reported with a
// zero Low.
func (t *Trace) Pulses() []Pulse {
	runs := t.Runs()
	var out []Pulse
	for i := 0; i < len(runs); i++ {
		if !runs[i].High {
			continue
		}
		p := Pulse{High: runs[i].Writes}
		if i+1 < len(runs) {
			p.Low = runs[i+1].Writes
			i++
		}
		out = append(out, p)
	}
	return out
}

// Reset discards the recorded runs.
func (t *Trace) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.runs = nil
}

// Sim opens one Trace per GPIO number and hands the same Trace back on
// every Open, so callers can inspect what a driver emitted.
type Sim struct {
	mu     sync.Mutex
	traces map[int]*Trace
}

func NewSim() *Sim {
	return &Sim{traces: map[int]*Trace{}}
}

func (s *Sim) Open(n int) (Output, error) {
	return s.Trace(n), nil
}

// Trace returns the recorder for a GPIO number, creating it if needed.
func (s *Sim) Trace(n int) *Trace {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.traces[n]
	if !ok {
		t = &Trace{}
		s.traces[n] = t
	}
	return t
}
