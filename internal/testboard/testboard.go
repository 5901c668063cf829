// Package testboard provides canned board descriptions, trace capture, and
// fault-injectable collaborators for driver tests.
package testboard

import (
	"errors"
	"sync"

	"github.com/tcukit/tcu-go/pkg/board"
	"github.com/tcukit/tcu-go/pkg/syscon"
	"github.com/tcukit/tcu-go/pkg/trace"
)

// Describe returns a description with the given channel count, one event
// timer per channel, interrupt specifiers 40, 41, ... and a 1 MHz clock per
// channel.
func Describe(channels int) *board.Description {
	d := &board.Description{
		Name:       "testboard",
		Compatible: "ingenic,jz4740-tcu",
		Clocks:     make(map[string]uint64, channels),
	}
	for i := 0; i < channels; i++ {
		d.Interrupts = append(d.Interrupts, uint32(40+i))
		d.Timers = append(d.Timers, uint32(i))
		d.Clocks[d.ClockName(uint(i))] = 1_000_000
	}
	return d
}

// TraceRecorder is a trace.Logger that keeps every event for assertions.
type TraceRecorder struct {
	mu     sync.Mutex
	events []trace.Event
}

var _ trace.Logger = (*TraceRecorder)(nil)

// Log records the event.
func (r *TraceRecorder) Log(event trace.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

// Events returns a copy of everything recorded so far.
func (r *TraceRecorder) Events() []trace.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]trace.Event(nil), r.events...)
}

// ByCategory returns the recorded events of one category, in order.
func (r *TraceRecorder) ByCategory(c trace.Category) []trace.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []trace.Event
	for _, e := range r.events {
		if e.Category == c {
			out = append(out, e)
		}
	}
	return out
}

// ErrInjected is the error FaultRegmap operations fail with.
var ErrInjected = errors.New("testboard: injected fault")

// FaultRegmap wraps a Regmap and fails selected operations.
type FaultRegmap struct {
	syscon.Regmap

	mu sync.Mutex

	// FailUpdates makes UpdateBits fail while set.
	FailUpdates bool

	// FailWritesTo makes Write to the given offsets fail.
	FailWritesTo map[uint32]bool
}

var _ syscon.Regmap = (*FaultRegmap)(nil)

// NewFaultRegmap wraps rm.
func NewFaultRegmap(rm syscon.Regmap) *FaultRegmap {
	return &FaultRegmap{Regmap: rm, FailWritesTo: make(map[uint32]bool)}
}

// Write fails when the offset is marked, otherwise passes through.
func (f *FaultRegmap) Write(off uint32, v uint32) error {
	f.mu.Lock()
	fail := f.FailWritesTo[off]
	f.mu.Unlock()
	if fail {
		return ErrInjected
	}
	return f.Regmap.Write(off, v)
}

// UpdateBits fails while FailUpdates is set, otherwise passes through.
func (f *FaultRegmap) UpdateBits(off uint32, mask, v uint32) error {
	f.mu.Lock()
	fail := f.FailUpdates
	f.mu.Unlock()
	if fail {
		return ErrInjected
	}
	return f.Regmap.UpdateBits(off, mask, v)
}

// SetFailWrite marks or clears an offset for write failure.
func (f *FaultRegmap) SetFailWrite(off uint32, fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.FailWritesTo[off] = fail
}

// SetFailUpdates switches update failure on or off.
func (f *FaultRegmap) SetFailUpdates(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.FailUpdates = fail
}
