package tcu

import (
	"fmt"
	"sort"
	"sync"

	"github.com/tcukit/tcu-go/pkg/board"
	"github.com/tcukit/tcu-go/pkg/clockevent"
	"github.com/tcukit/tcu-go/pkg/irq"
	"github.com/tcukit/tcu-go/pkg/regs"
	"github.com/tcukit/tcu-go/pkg/trace"
)

const (
	// eventRating positions TCU channels below per-CPU timers.
	eventRating = 200

	// minDeadline is the shortest programmable deadline in ticks.
	minDeadline = 10
)

// channelNames tags the per-channel interrupt lines.
var channelNames = [regs.MaxChannels]string{
	"TCU0", "TCU1", "TCU2", "TCU3", "TCU4", "TCU5", "TCU6", "TCU7",
}

// FailurePolicy selects how Bringup treats a channel that fails to set up.
type FailurePolicy uint8

const (
	// FailFast - tear down every channel already set up and report the
	// first failure.
	FailFast FailurePolicy = iota

	// SkipFailed - leave the failed channel unused and continue with the
	// rest.
	SkipFailed
)

// String returns the policy name.
func (p FailurePolicy) String() string {
	switch p {
	case FailFast:
		return "FAIL_FAST"
	case SkipFailed:
		return "SKIP_FAILED"
	default:
		return "UNKNOWN"
	}
}

// BringupConfig tunes Bringup beyond what the description declares.
type BringupConfig struct {
	// Registry receives the event devices. A fresh one is created when nil.
	Registry *clockevent.Registry

	// CPU is the processor the channels' interrupts are steered to.
	CPU int

	// OnChannelError selects the failure policy. Default is FailFast.
	OnChannelError FailurePolicy
}

// System is a brought-up unit together with its event bindings.
type System struct {
	// Unit is the underlying channel manager.
	Unit *Unit

	// Registry holds the registered event devices.
	Registry *clockevent.Registry

	mu       sync.Mutex
	bindings map[uint]*EventBinding
	skipped  []uint8
	closed   bool
}

// Binding returns the event binding on channel idx, or nil.
func (s *System) Binding(idx uint) *EventBinding {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bindings[idx]
}

// Bindings returns the event bindings in channel order.
func (s *System) Bindings() []*EventBinding {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*EventBinding, 0, len(s.bindings))
	for _, b := range s.bindings {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].channel.idx < out[j].channel.idx
	})
	return out
}

// Skipped returns the channels passed over under SkipFailed, in setup order.
func (s *System) Skipped() []uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]uint8(nil), s.skipped...)
}

// Close disarms every binding and returns its resources. Event devices stay
// listed in the registry but no longer fire. Close is idempotent.
func (s *System) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	for _, b := range s.Unit.bindingsInReverse(s.bindings) {
		b.teardown()
	}
	s.bindings = nil
	return nil
}

// bindingsInReverse orders bindings by descending channel index, the reverse
// of setup order.
func (u *Unit) bindingsInReverse(m map[uint]*EventBinding) []*EventBinding {
	out := make([]*EventBinding, 0, len(m))
	for _, b := range m {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].channel.idx > out[j].channel.idx
	})
	return out
}

// Bringup builds a unit from the description and sets up every channel its
// timer list names as a one-shot event device. Under FailFast a channel
// failure tears the whole system down; under SkipFailed failed channels are
// recorded and the rest keep running.
func Bringup(desc *board.Description, cfg Config, bcfg BringupConfig) (*System, error) {
	if desc == nil {
		return nil, fmt.Errorf("%w: no description", ErrInvalidConfig)
	}
	if err := desc.Validate(); err != nil {
		return nil, err
	}

	cfg.Channels = desc.Channels()
	if cfg.Board == "" {
		cfg.Board = desc.Name
	}
	u, err := NewUnit(cfg)
	if err != nil {
		return nil, err
	}

	registry := bcfg.Registry
	if registry == nil {
		registry = clockevent.NewRegistry()
	}
	sys := &System{
		Unit:     u,
		Registry: registry,
		bindings: make(map[uint]*EventBinding, len(desc.Timers)),
	}

	u.debugLog("tcu bring-up", "board", desc.Name, "channels", desc.Channels(),
		"timers", len(desc.Timers), "policy", bcfg.OnChannelError.String())

	for _, t := range desc.Timers {
		idx := uint(t)
		b, err := u.setupEventChannel(idx, desc, registry, bcfg.CPU)
		if err != nil {
			u.debugLog("channel setup failed", "channel", idx, "err", err)
			u.emit(trace.Event{
				Category: trace.CategoryError,
				Channel:  int8(idx),
				Error:    &trace.ErrorEventData{Message: err.Error(), Context: "setup"},
			})
			if bcfg.OnChannelError == SkipFailed {
				sys.skipped = append(sys.skipped, uint8(idx))
				continue
			}
			sys.Close()
			return nil, fmt.Errorf("tcu: channel %d: %w", idx, err)
		}
		sys.bindings[idx] = b
	}

	u.emit(trace.Event{
		Category: trace.CategoryBringup,
		Channel:  trace.ChannelNone,
		Bringup: &trace.BringupEvent{
			Requested: len(desc.Timers),
			Completed: len(sys.bindings),
			Skipped:   append([]uint8(nil), sys.skipped...),
		},
	})
	return sys, nil
}

// setupEventChannel claims channel idx and builds its event binding. Every
// failure unwinds exactly what succeeded, in reverse order, leaving the
// channel as free as it was found.
func (u *Unit) setupEventChannel(idx uint, desc *board.Description, registry *clockevent.Registry, cpu int) (*EventBinding, error) {
	ch := u.Channel(idx)
	if err := ch.Claim(); err != nil {
		return nil, err
	}

	if err := ch.Reset(); err != nil {
		ch.Release()
		return nil, err
	}

	rate := ch.Rate()
	if rate == 0 {
		ch.Release()
		return nil, fmt.Errorf("%w: %q reports 0 Hz", ErrInvalidRate, ch.clockName())
	}

	line, err := u.irqs.MapSpecifier(desc.Interrupts[idx])
	if err != nil {
		ch.Release()
		return nil, fmt.Errorf("%w: specifier %d: %w", ErrInterruptUnavailable, desc.Interrupts[idx], err)
	}

	b := newEventBinding(ch, line, cpu)
	if err := u.irqs.Request(line, b.handleIRQ, irq.FlagTimer, channelNames[idx]); err != nil {
		u.irqs.DisposeMapping(line)
		ch.Release()
		return nil, fmt.Errorf("%w: line %d: %w", ErrInterruptUnavailable, line, err)
	}

	if err := registry.ConfigAndRegister(b.dev, rate, minDeadline, regs.CounterMask); err != nil {
		u.irqs.Free(line)
		u.irqs.DisposeMapping(line)
		ch.Release()
		return nil, err
	}

	u.debugLog("event channel ready", "channel", idx, "device", b.dev.Name,
		"line", line, "rate", rate)
	return b, nil
}
