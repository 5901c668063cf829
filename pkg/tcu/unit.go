package tcu

import (
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/tcukit/tcu-go/pkg/clk"
	"github.com/tcukit/tcu-go/pkg/irq"
	"github.com/tcukit/tcu-go/pkg/mmio"
	"github.com/tcukit/tcu-go/pkg/regs"
	"github.com/tcukit/tcu-go/pkg/syscon"
	"github.com/tcukit/tcu-go/pkg/trace"
)

// Config wires a Unit to its collaborators.
type Config struct {
	// Channels is the number of channels the unit carries, at most
	// regs.MaxChannels.
	Channels int

	// Window is the unit's register window, for the per-channel reload and
	// count registers.
	Window mmio.Window

	// Enable is the shared counter-enable capability.
	Enable *syscon.EnableReg

	// TCSR holds one control-register view per channel, each based at the
	// channel's own register. Entries may be nil; resetting a channel
	// without one fails with ErrNoResetControl.
	TCSR []syscon.Regmap

	// Clocks resolves the channels' input clocks ("timer0", "timer1", ...).
	Clocks clk.Provider

	// Interrupts maps and dispatches the channels' interrupt lines.
	Interrupts irq.Controller

	// Board tags trace events with a board name. Optional.
	Board string

	// BootID identifies this bring-up session in traces.
	// Generated when empty.
	BootID string

	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger

	// Tracer receives structured driver events. Optional.
	Tracer trace.Logger
}

// Validate checks that the configuration can back a unit.
func (c *Config) Validate() error {
	if c.Channels < 1 || c.Channels > regs.MaxChannels {
		return fmt.Errorf("%w: %d channels, want 1..%d",
			ErrInvalidConfig, c.Channels, regs.MaxChannels)
	}
	if c.Window == nil {
		return fmt.Errorf("%w: no register window", ErrInvalidConfig)
	}
	if c.Enable == nil {
		return fmt.Errorf("%w: no enable register", ErrInvalidConfig)
	}
	if c.Clocks == nil {
		return fmt.Errorf("%w: no clock provider", ErrInvalidConfig)
	}
	if c.Interrupts == nil {
		return fmt.Errorf("%w: no interrupt controller", ErrInvalidConfig)
	}
	return nil
}

// Unit is one timer/counter unit: a register window, a shared enable
// register, and up to eight counter channels claimed and released
// independently. All methods are safe for concurrent use.
type Unit struct {
	window mmio.Window
	enable *syscon.EnableReg
	tcsrs  []syscon.Regmap
	clocks clk.Provider
	irqs   irq.Controller

	board  string
	bootID string
	logger *slog.Logger
	tracer trace.Logger

	count    int
	claimed  atomic.Uint32
	channels [regs.MaxChannels]Channel
}

// NewUnit creates a unit over the given collaborators.
func NewUnit(cfg Config) (*Unit, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	bootID := cfg.BootID
	if bootID == "" {
		bootID = uuid.NewString()
	}

	u := &Unit{
		window: cfg.Window,
		enable: cfg.Enable,
		tcsrs:  append([]syscon.Regmap(nil), cfg.TCSR...),
		clocks: cfg.Clocks,
		irqs:   cfg.Interrupts,
		board:  cfg.Board,
		bootID: bootID,
		logger: cfg.Logger,
		tracer: cfg.Tracer,
		count:  cfg.Channels,
	}
	for i := 0; i < u.count; i++ {
		u.channels[i].unit = u
		u.channels[i].idx = uint(i)
	}
	return u, nil
}

// Channels returns the number of channels the unit carries.
func (u *Unit) Channels() int {
	return u.count
}

// Channel returns channel idx. It panics when idx is out of range.
func (u *Unit) Channel(idx uint) *Channel {
	if int(idx) >= u.count {
		panic(fmt.Sprintf("tcu: channel %d of %d", idx, u.count))
	}
	return &u.channels[idx]
}

// ClaimedMask returns the current claim bitmap, bit i for channel i.
func (u *Unit) ClaimedMask() uint32 {
	return u.claimed.Load()
}

// BootID returns the identifier trace events of this unit carry.
func (u *Unit) BootID() string {
	return u.bootID
}

// claim takes channel idx's bit in the claim bitmap. It returns false when
// the bit is already taken.
func (u *Unit) claim(idx uint) bool {
	bit := uint32(1) << idx
	for {
		old := u.claimed.Load()
		if old&bit != 0 {
			return false
		}
		if u.claimed.CompareAndSwap(old, old|bit) {
			return true
		}
	}
}

// unclaim returns channel idx's bit.
func (u *Unit) unclaim(idx uint) {
	bit := uint32(1) << idx
	for {
		old := u.claimed.Load()
		if u.claimed.CompareAndSwap(old, old&^bit) {
			return
		}
	}
}

// tcsr returns channel idx's control-register view, or nil.
func (u *Unit) tcsr(idx uint) syscon.Regmap {
	if int(idx) >= len(u.tcsrs) {
		return nil
	}
	return u.tcsrs[idx]
}

// debugLog logs a debug message if logging is enabled.
func (u *Unit) debugLog(msg string, args ...any) {
	if u.logger != nil {
		u.logger.Debug(msg, args...)
	}
}

// emit records a trace event, filling in the unit-wide fields.
func (u *Unit) emit(event trace.Event) {
	if u.tracer == nil {
		return
	}
	event.Timestamp = time.Now()
	event.BootID = u.bootID
	if event.Board == "" {
		event.Board = u.board
	}
	u.tracer.Log(event)
}
