// Package sim provides an in-memory stand-in for the timer/counter unit.
//
// A TCU is built from a board description and owns every collaborator the
// driver needs: the register window, the shared system-controller registers,
// a static clock tree and a synchronous interrupt controller. Advance steps
// the counters the way the hardware would, setting match flags and firing
// interrupt lines. The hardware never disables a channel on its own; only
// software writes to the enable register stop a counter.
package sim

import (
	"fmt"
	"sync"

	"github.com/tcukit/tcu-go/pkg/board"
	"github.com/tcukit/tcu-go/pkg/clk"
	"github.com/tcukit/tcu-go/pkg/irq"
	"github.com/tcukit/tcu-go/pkg/mmio"
	"github.com/tcukit/tcu-go/pkg/regs"
	"github.com/tcukit/tcu-go/pkg/syscon"
	"github.com/tcukit/tcu-go/pkg/tcu"
)

// TCU is a simulated timer/counter unit.
type TCU struct {
	// Desc is the board description the unit was built from.
	Desc *board.Description

	// Window is the memory-mapped register window holding the per-channel
	// data, count and control registers.
	Window *mmio.Mem

	// Shared holds the shared registers (enable, flag, mask) with their
	// set/clear pair semantics.
	Shared *syscon.Mem

	// Clocks serves the per-channel input clocks at the description's rates.
	Clocks *clk.StaticProvider

	// IRQ delivers channel interrupts synchronously.
	IRQ *irq.Sim

	mu sync.Mutex
}

// New builds a simulated unit for the description.
func New(desc *board.Description) (*TCU, error) {
	if desc == nil {
		return nil, fmt.Errorf("%w: no description", board.ErrMalformed)
	}
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	return &TCU{
		Desc:   desc,
		Window: mmio.NewMem(regs.WindowSize),
		Shared: syscon.NewMem(),
		Clocks: clk.NewStaticProvider(desc.Clocks),
		IRQ:    irq.NewSim(),
	}, nil
}

// UnitConfig assembles a driver configuration wired to the simulated
// hardware. The caller may still set BootID, Logger and Tracer before use.
func (t *TCU) UnitConfig() tcu.Config {
	channels := t.Desc.Channels()
	tcsrs := make([]syscon.Regmap, channels)
	for i := 0; i < channels; i++ {
		tcsrs[i] = syscon.NewOffsetView(t.Shared, regs.TCSR(uint(i)))
	}
	return tcu.Config{
		Channels:   channels,
		Window:     t.Window,
		Enable:     syscon.NewEnableReg(t.Shared),
		TCSR:       tcsrs,
		Clocks:     t.Clocks,
		Interrupts: t.IRQ,
		Board:      t.Desc.Name,
	}
}

// Line returns the interrupt line channel c fires on.
func (t *TCU) Line(c uint) (uint32, error) {
	if int(c) >= t.Desc.Channels() {
		return 0, fmt.Errorf("sim: channel %d out of range", c)
	}
	return t.IRQ.MapSpecifier(t.Desc.Interrupts[c])
}

// Enabled reports whether channel c's counter is currently running.
func (t *TCU) Enabled(c uint) bool {
	v, err := t.Shared.Read(regs.TER)
	return err == nil && v&regs.ChannelBit(c) != 0
}

// FlagSet reports whether channel c's match flag is raised.
func (t *TCU) FlagSet(c uint) bool {
	v, err := t.Shared.Read(regs.TFR)
	return err == nil && v&regs.ChannelBit(c) != 0
}

// Advance runs every enabled counter forward by cycles input ticks and
// returns the number of interrupts delivered. When a counter reaches its
// full value the match flag is raised, the count wraps to zero and, unless
// the channel is masked, its line fires on the calling goroutine. Handlers
// may rearm or disable their channel; the change takes effect immediately.
//
// Channels advance independently, each over the full cycle budget. Handlers
// must not call back into Advance.
func (t *TCU) Advance(cycles uint64) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	delivered := 0
	for c := uint(0); c < uint(t.Desc.Channels()); c++ {
		delivered += t.advanceChannel(c, cycles)
	}
	return delivered
}

func (t *TCU) advanceChannel(c uint, cycles uint64) int {
	delivered := 0
	for cycles > 0 {
		ter, err := t.Shared.Read(regs.TER)
		if err != nil || ter&regs.ChannelBit(c) == 0 {
			return delivered
		}

		tcnt := uint64(t.Window.Read32(regs.TCNT(c)) & regs.CounterMask)
		tdfr := uint64(t.Window.Read32(regs.TDFR(c)) & regs.CounterMask)

		// Ticks until the counter reaches the full value. A count at or
		// past the target goes the long way round through the 16-bit wrap.
		var need uint64
		if tdfr > tcnt {
			need = tdfr - tcnt
		} else {
			need = uint64(regs.CounterMask) + 1 - tcnt + tdfr
		}

		if cycles < need {
			t.Window.Write32(regs.TCNT(c), uint32((tcnt+cycles)&uint64(regs.CounterMask)))
			return delivered
		}
		cycles -= need

		t.Window.Write32(regs.TCNT(c), 0)
		t.Shared.Write(regs.TFSR, regs.ChannelBit(c))

		if tmr, err := t.Shared.Read(regs.TMR); err == nil && tmr&regs.ChannelBit(c) != 0 {
			continue
		}
		line, err := t.IRQ.MapSpecifier(t.Desc.Interrupts[c])
		if err != nil {
			continue
		}
		if t.IRQ.Fire(line) == nil {
			delivered++
		}
	}
	return delivered
}
