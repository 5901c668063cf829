package tcu

import (
	"fmt"
	"sync"

	"github.com/tcukit/tcu-go/pkg/clk"
	"github.com/tcukit/tcu-go/pkg/regs"
	"github.com/tcukit/tcu-go/pkg/trace"
)

// Channel is one counter of a unit. A channel must be claimed before
// anything else touches it; the claim takes the channel's bit in the shared
// bitmap and brings up its input clock.
type Channel struct {
	unit *Unit
	idx  uint

	mu    sync.Mutex
	clock clk.Clock
}

// Index returns the channel's index within its unit.
func (c *Channel) Index() uint {
	return c.idx
}

// Claimed reports whether the channel is currently claimed.
func (c *Channel) Claimed() bool {
	return c.unit.claimed.Load()&(1<<c.idx) != 0
}

// Claim takes exclusive ownership of the channel and enables its input
// clock. On any failure the channel is left unclaimed with the clock off.
func (c *Channel) Claim() error {
	u := c.unit
	if !u.claim(c.idx) {
		return fmt.Errorf("%w: channel %d", ErrChannelBusy, c.idx)
	}

	name := c.clockName()
	clock, err := u.clocks.Lookup(name)
	if err != nil {
		u.unclaim(c.idx)
		return fmt.Errorf("%w: %q: %w", ErrClockUnavailable, name, err)
	}

	if err := clock.Prepare(); err != nil {
		u.unclaim(c.idx)
		return fmt.Errorf("%w: prepare %q: %w", ErrClockEnable, name, err)
	}
	if err := clock.Enable(); err != nil {
		clock.Unprepare()
		u.unclaim(c.idx)
		return fmt.Errorf("%w: enable %q: %w", ErrClockEnable, name, err)
	}

	c.mu.Lock()
	c.clock = clock
	c.mu.Unlock()

	u.debugLog("channel claimed", "channel", c.idx, "clock", name, "rate", clock.Rate())
	u.emit(trace.Event{
		Category: trace.CategoryClaim,
		Channel:  int8(c.idx),
		Claim:    &trace.ClaimEvent{Acquired: true, Clock: name, Rate: clock.Rate()},
	})
	return nil
}

// Release gives the channel back: the input clock is gated and the claim bit
// cleared. Releasing an unclaimed channel is a no-op.
func (c *Channel) Release() {
	c.mu.Lock()
	clock := c.clock
	c.clock = nil
	c.mu.Unlock()
	if clock == nil {
		return
	}

	clock.Disable()
	clock.Unprepare()
	c.unit.unclaim(c.idx)

	c.unit.debugLog("channel released", "channel", c.idx)
	c.unit.emit(trace.Event{
		Category: trace.CategoryClaim,
		Channel:  int8(c.idx),
		Claim:    &trace.ClaimEvent{Acquired: false, Clock: clock.Name()},
	})
}

// Reset clears the channel's control register through its system-controller
// view. The low reserved bits are left untouched.
func (c *Channel) Reset() error {
	rm := c.unit.tcsr(c.idx)
	if rm == nil {
		return fmt.Errorf("%w: channel %d", ErrNoResetControl, c.idx)
	}
	if err := rm.UpdateBits(0, regs.CounterMask&^regs.TCSRReservedBits, 0); err != nil {
		return fmt.Errorf("tcu: reset channel %d: %w", c.idx, err)
	}
	c.unit.emit(trace.Event{
		Category: trace.CategoryReset,
		Channel:  int8(c.idx),
	})
	return nil
}

// Rate returns the input clock's rate in Hz, or 0 when the channel is
// unclaimed.
func (c *Channel) Rate() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.clock == nil {
		return 0
	}
	return c.clock.Rate()
}

// clockName returns the channel's input clock lookup name.
func (c *Channel) clockName() string {
	return fmt.Sprintf("timer%d", c.idx)
}
