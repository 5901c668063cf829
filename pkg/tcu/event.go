package tcu

import (
	"fmt"
	"sync"

	"github.com/tcukit/tcu-go/pkg/clockevent"
	"github.com/tcukit/tcu-go/pkg/regs"
	"github.com/tcukit/tcu-go/pkg/trace"
)

// BindingState represents an event binding's position in its one-shot cycle.
type BindingState uint8

const (
	// StateIdle - no deadline programmed, counter stopped.
	StateIdle BindingState = iota

	// StateArmed - deadline programmed, counter running.
	StateArmed

	// StateFiring - expiry interrupt being serviced.
	StateFiring
)

// String returns the state name.
func (s BindingState) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateArmed:
		return "ARMED"
	case StateFiring:
		return "FIRING"
	default:
		return "UNKNOWN"
	}
}

// EventBinding drives a claimed channel as a one-shot clock event device.
// Arming writes the deadline and starts the counter; the expiry interrupt
// stops the counter again before the event handler runs, so the handler may
// re-arm for the next deadline from within the interrupt.
type EventBinding struct {
	channel *Channel
	dev     *clockevent.Device
	line    uint32

	mu    sync.Mutex
	state BindingState
}

// newEventBinding wires a binding and its event device to ch.
func newEventBinding(ch *Channel, line uint32, cpu int) *EventBinding {
	b := &EventBinding{channel: ch, line: line}
	b.dev = &clockevent.Device{
		Name:             fmt.Sprintf("ingenic-tcu-chan%d", ch.idx),
		Rating:           eventRating,
		Features:         clockevent.FeatureOneShot,
		CPU:              cpu,
		SetNextEvent:     b.Arm,
		SetStateShutdown: b.Disarm,
	}
	return b
}

// Device returns the binding's clock event device.
func (b *EventBinding) Device() *clockevent.Device {
	return b.dev
}

// Channel returns the channel the binding drives.
func (b *EventBinding) Channel() *Channel {
	return b.channel
}

// Line returns the binding's interrupt line.
func (b *EventBinding) Line() uint32 {
	return b.line
}

// State returns the binding's current state.
func (b *EventBinding) State() BindingState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Arm programs a deadline the given number of ticks ahead and starts the
// counter. The reload value and a cleared count are written first; the
// enable bit goes live last, so the counter never runs against a stale
// deadline. Arming an armed binding replaces its deadline.
func (b *EventBinding) Arm(ticks uint32) error {
	if ticks > regs.CounterMask {
		return fmt.Errorf("%w: %d ticks, counter is 16 bits", ErrTicksOutOfRange, ticks)
	}

	u := b.channel.unit
	idx := b.channel.idx

	b.mu.Lock()
	prev := b.state
	u.window.Write32(regs.TDFR(idx), ticks)
	u.window.Write32(regs.TCNT(idx), 0)
	if err := u.enable.Enable(idx); err != nil {
		b.state = StateIdle
		b.mu.Unlock()
		return fmt.Errorf("tcu: start channel %d: %w", idx, err)
	}
	b.state = StateArmed
	b.mu.Unlock()

	u.emit(trace.Event{
		Category: trace.CategoryArm,
		Channel:  int8(idx),
		Arm:      &trace.ArmEvent{Ticks: ticks, Rearm: prev == StateFiring},
	})
	return nil
}

// Disarm stops the counter and drops any programmed deadline. The reload and
// count registers keep their values; a later Arm overwrites them.
func (b *EventBinding) Disarm() error {
	u := b.channel.unit
	idx := b.channel.idx

	b.mu.Lock()
	err := u.enable.Disable(idx)
	b.state = StateIdle
	b.mu.Unlock()

	if err != nil {
		return fmt.Errorf("tcu: stop channel %d: %w", idx, err)
	}
	u.emit(trace.Event{
		Category: trace.CategoryDisarm,
		Channel:  int8(idx),
	})
	return nil
}

// handleIRQ services the channel's expiry interrupt. The counter is stopped
// before the event handler is invoked, and the handler runs without binding
// locks held, so it may arm the next deadline from this call.
func (b *EventBinding) handleIRQ(line uint32) {
	u := b.channel.unit
	idx := b.channel.idx

	b.mu.Lock()
	prev := b.state
	stopErr := u.enable.Disable(idx)
	b.state = StateFiring
	b.mu.Unlock()

	if stopErr != nil {
		u.emit(trace.Event{
			Category: trace.CategoryError,
			Channel:  int8(idx),
			Error:    &trace.ErrorEventData{Message: stopErr.Error(), Context: "handleIRQ"},
		})
	}
	u.emit(trace.Event{
		Category: trace.CategoryInterrupt,
		Channel:  int8(idx),
		IRQ:      &trace.IRQEvent{Line: line, Spurious: prev != StateArmed},
	})

	if handler := b.dev.EventHandler(); handler != nil {
		handler()
	}

	b.mu.Lock()
	rearmed := b.state != StateFiring
	if !rearmed {
		b.state = StateIdle
	}
	b.mu.Unlock()

	if !rearmed {
		u.emit(trace.Event{
			Category:    trace.CategoryState,
			Channel:     int8(idx),
			StateChange: &trace.StateChangeEvent{OldState: StateFiring.String(), NewState: StateIdle.String(), Reason: "handler returned"},
		})
	}
}

// teardown quiesces the binding and returns its resources, in reverse order
// of acquisition: interrupt handler, interrupt mapping, then the channel.
func (b *EventBinding) teardown() {
	u := b.channel.unit
	_ = b.Disarm()
	u.irqs.Free(b.line)
	u.irqs.DisposeMapping(b.line)
	b.channel.Release()
}
