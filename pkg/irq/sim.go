package irq

import (
	"fmt"
	"sync"
)

// simBase is the first line number Sim hands out. Low numbers are left to
// mimic a controller whose first lines are architecturally reserved.
const simBase uint32 = 16

// Sim is an in-memory Controller. Fire delivers synchronously on the calling
// goroutine, so tests and the simulator can step interrupts deterministically.
type Sim struct {
	mu       sync.RWMutex
	next     uint32
	mapped   map[uint32]uint32 // specifier -> line
	lines    map[uint32]*simLine
	rejected map[uint32]bool
}

type simLine struct {
	handler Handler
	flags   Flags
	name    string
}

var _ Controller = (*Sim)(nil)

// NewSim returns an empty controller.
func NewSim() *Sim {
	return &Sim{
		next:     simBase,
		mapped:   make(map[uint32]uint32),
		lines:    make(map[uint32]*simLine),
		rejected: make(map[uint32]bool),
	}
}

// Reject makes future MapSpecifier calls for spec fail with ErrUnmappable,
// for exercising bring-up error paths.
func (s *Sim) Reject(spec uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejected[spec] = true
}

func (s *Sim) MapSpecifier(spec uint32) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rejected[spec] {
		return 0, fmt.Errorf("%w: specifier %d", ErrUnmappable, spec)
	}
	if line, ok := s.mapped[spec]; ok {
		return line, nil
	}
	line := s.next
	s.next++
	s.mapped[spec] = line
	return line, nil
}

func (s *Sim) Request(line uint32, h Handler, flags Flags, name string) error {
	if h == nil {
		return fmt.Errorf("irq: nil handler for line %d", line)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lines[line]; ok {
		return fmt.Errorf("%w: line %d", ErrLineBusy, line)
	}
	s.lines[line] = &simLine{handler: h, flags: flags, name: name}
	return nil
}

func (s *Sim) Free(line uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.lines, line)
}

func (s *Sim) DisposeMapping(line uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for spec, l := range s.mapped {
		if l == line {
			delete(s.mapped, spec)
			return
		}
	}
}

// Fire delivers an interrupt on line, invoking the handler on the calling
// goroutine. The handler runs without the controller lock held, so it may
// free its own line or request another.
func (s *Sim) Fire(line uint32) error {
	s.mu.RLock()
	l, ok := s.lines[line]
	var h Handler
	if ok {
		h = l.handler
	}
	s.mu.RUnlock()
	if h == nil {
		return fmt.Errorf("%w: line %d", ErrNotRequested, line)
	}
	h(line)
	return nil
}

// Requested reports whether line currently has a handler.
func (s *Sim) Requested(line uint32) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.lines[line]
	return ok
}

// Name returns the tag the line was requested under, or "" if unrequested.
func (s *Sim) Name(line uint32) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if l, ok := s.lines[line]; ok {
		return l.name
	}
	return ""
}

// Mapped reports whether spec currently has a line mapping.
func (s *Sim) Mapped(spec uint32) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.mapped[spec]
	return ok
}
