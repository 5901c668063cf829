// Package interactive provides the interactive command-line interface
// for the simulated timer/counter unit.
package interactive

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/tcukit/tcu-go/pkg/regs"
	"github.com/tcukit/tcu-go/pkg/sim"
	"github.com/tcukit/tcu-go/pkg/tcu"
	"github.com/tcukit/tcu-go/pkg/trace"
)

// Recorder hands the console its in-memory trace history.
type Recorder interface {
	// Events returns the recorded trace events, oldest first.
	Events() []trace.Event
}

// Monitor drives a brought-up unit on the simulator from a prompt.
type Monitor struct {
	sys     *tcu.System
	machine *sim.TCU
	rec     Recorder
	rl      *readline.Instance
}

// New creates a new interactive monitor. rec may be nil when no trace
// history is kept.
func New(sys *tcu.System, machine *sim.TCU, rec Recorder) (*Monitor, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "tcu> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	m := &Monitor{
		sys:     sys,
		machine: machine,
		rec:     rec,
		rl:      rl,
	}

	// Announce expirations on the prompt's writer so they don't tear the
	// input line.
	for _, b := range sys.Bindings() {
		b := b // stored handler outlives the iteration; go.mod targets go < 1.22
		b.Device().SetEventHandler(func() {
			fmt.Fprintf(rl.Stdout(), "[EVENT] channel %d fired\n", b.Channel().Index())
		})
	}

	return m, nil
}

// Stdout returns a writer that coordinates with the readline input.
func (m *Monitor) Stdout() io.Writer {
	return m.rl.Stdout()
}

// Run starts the interactive command loop.
func (m *Monitor) Run(ctx context.Context, cancel context.CancelFunc) {
	defer m.rl.Close()

	m.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := m.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(m.rl.Stdout(), "Exiting...")
			cancel()
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		parts := strings.Fields(input)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "help", "?":
			m.printHelp()

		case "info", "i":
			m.cmdInfo()

		case "regs", "r":
			m.cmdRegs()

		case "arm", "a":
			m.cmdArm(args)

		case "after":
			m.cmdAfter(args)

		case "disarm", "d":
			m.cmdDisarm(args)

		case "tick", "t":
			m.cmdTick(args)

		case "trace":
			m.cmdTrace(args)

		case "quit", "exit", "q":
			fmt.Fprintln(m.rl.Stdout(), "Exiting...")
			cancel()
			return

		default:
			fmt.Fprintf(m.rl.Stdout(), "Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}
}

func (m *Monitor) printHelp() {
	fmt.Fprintln(m.rl.Stdout(), `
TCU Monitor Commands:
  Inspection:
    info               - Show unit, channel and event device state
    regs               - Dump the register window and shared registers
    trace [n]          - Show the last n trace events (default 10)
    trace save <file>  - Write the trace history to a .tlog file

  Control:
    arm <ch> <ticks>   - Program a one-shot deadline in input ticks
    after <ch> <dur>   - Program a deadline from a duration (e.g. 1ms)
    disarm <ch>        - Stop a channel
    tick <cycles>      - Advance the simulated clock

  General:
    help               - Show this help
    quit               - Exit monitor`)
}

func (m *Monitor) cmdInfo() {
	w := m.rl.Stdout()
	u := m.sys.Unit

	fmt.Fprintf(w, "Board:    %s\n", m.machine.Desc.Name)
	fmt.Fprintf(w, "Boot ID:  %s\n", u.BootID())
	fmt.Fprintf(w, "Channels: %d (claimed mask %#04b)\n", u.Channels(), u.ClaimedMask())
	if skipped := m.sys.Skipped(); len(skipped) > 0 {
		fmt.Fprintf(w, "Skipped:  %v\n", skipped)
	}

	for _, b := range m.sys.Bindings() {
		ch := b.Channel()
		dev := b.Device()
		minT, maxT := dev.Bounds()
		fmt.Fprintf(w, "\nChannel %d: %s\n", ch.Index(), b.State())
		fmt.Fprintf(w, "  Device: %s (rating %d)\n", dev.Name, dev.Rating)
		fmt.Fprintf(w, "  Rate:   %d Hz, bounds [%d, %d] ticks\n", dev.Rate(), minT, maxT)
		fmt.Fprintf(w, "  Line:   %d\n", b.Line())
		fmt.Fprintf(w, "  Count:  %d / %d\n",
			m.machine.Window.Read32(regs.TCNT(ch.Index())),
			m.machine.Window.Read32(regs.TDFR(ch.Index())))
	}
}

func (m *Monitor) cmdRegs() {
	w := m.rl.Stdout()

	for _, off := range []uint32{regs.TER, regs.TFR, regs.TMR, regs.TSR, regs.TSTR} {
		v, err := m.machine.Shared.Read(off)
		if err != nil {
			fmt.Fprintf(w, "%-5s <error: %v>\n", regs.Name(off), err)
			continue
		}
		fmt.Fprintf(w, "%-5s 0x%04x\n", regs.Name(off), v)
	}

	for c := uint(0); c < uint(m.sys.Unit.Channels()); c++ {
		tcsr := uint32(0)
		if v, err := m.machine.Shared.Read(regs.TCSR(c)); err == nil {
			tcsr = v
		}
		fmt.Fprintf(w, "ch%d: TDFR=0x%04x TDHR=0x%04x TCNT=0x%04x TCSR=0x%04x\n",
			c,
			m.machine.Window.Read32(regs.TDFR(c)),
			m.machine.Window.Read32(regs.TDHR(c)),
			m.machine.Window.Read32(regs.TCNT(c)),
			tcsr)
	}
}

// binding resolves a channel argument to its event binding.
func (m *Monitor) binding(arg string) (*tcu.EventBinding, error) {
	c, err := strconv.ParseUint(arg, 10, 8)
	if err != nil {
		return nil, fmt.Errorf("invalid channel %q", arg)
	}
	if int(c) >= m.sys.Unit.Channels() {
		return nil, fmt.Errorf("channel %d out of range", c)
	}
	b := m.sys.Binding(uint(c))
	if b == nil {
		return nil, fmt.Errorf("channel %d has no event binding", c)
	}
	return b, nil
}

func (m *Monitor) cmdArm(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(m.rl.Stdout(), "Usage: arm <ch> <ticks>")
		return
	}
	b, err := m.binding(args[0])
	if err != nil {
		fmt.Fprintf(m.rl.Stdout(), "Error: %v\n", err)
		return
	}
	ticks, err := strconv.ParseUint(args[1], 0, 32)
	if err != nil {
		fmt.Fprintf(m.rl.Stdout(), "Invalid tick count %q\n", args[1])
		return
	}
	if err := b.Arm(uint32(ticks)); err != nil {
		fmt.Fprintf(m.rl.Stdout(), "Error: %v\n", err)
		return
	}
	fmt.Fprintf(m.rl.Stdout(), "Channel %d armed for %d ticks\n", b.Channel().Index(), ticks)
}

func (m *Monitor) cmdAfter(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(m.rl.Stdout(), "Usage: after <ch> <duration>")
		fmt.Fprintln(m.rl.Stdout(), "  Example: after 0 1ms")
		return
	}
	b, err := m.binding(args[0])
	if err != nil {
		fmt.Fprintf(m.rl.Stdout(), "Error: %v\n", err)
		return
	}
	d, err := time.ParseDuration(args[1])
	if err != nil {
		fmt.Fprintf(m.rl.Stdout(), "Invalid duration %q\n", args[1])
		return
	}
	dev := b.Device()
	ticks := dev.TicksFor(d)
	if err := dev.NextAfter(d); err != nil {
		fmt.Fprintf(m.rl.Stdout(), "Error: %v\n", err)
		return
	}
	fmt.Fprintf(m.rl.Stdout(), "Channel %d armed for %s (%d ticks at %d Hz)\n",
		b.Channel().Index(), d, ticks, dev.Rate())
}

func (m *Monitor) cmdDisarm(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(m.rl.Stdout(), "Usage: disarm <ch>")
		return
	}
	b, err := m.binding(args[0])
	if err != nil {
		fmt.Fprintf(m.rl.Stdout(), "Error: %v\n", err)
		return
	}
	if err := b.Disarm(); err != nil {
		fmt.Fprintf(m.rl.Stdout(), "Error: %v\n", err)
		return
	}
	fmt.Fprintf(m.rl.Stdout(), "Channel %d disarmed\n", b.Channel().Index())
}

func (m *Monitor) cmdTick(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(m.rl.Stdout(), "Usage: tick <cycles>")
		return
	}
	cycles, err := strconv.ParseUint(args[0], 0, 64)
	if err != nil {
		fmt.Fprintf(m.rl.Stdout(), "Invalid cycle count %q\n", args[0])
		return
	}
	delivered := m.machine.Advance(cycles)
	fmt.Fprintf(m.rl.Stdout(), "Advanced %d cycles, %d interrupts delivered\n", cycles, delivered)
}

func (m *Monitor) cmdTrace(args []string) {
	w := m.rl.Stdout()
	if m.rec == nil {
		fmt.Fprintln(w, "Trace history is not enabled")
		return
	}

	if len(args) >= 2 && args[0] == "save" {
		m.saveTrace(args[1])
		return
	}

	n := 10
	if len(args) >= 1 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v < 1 {
			fmt.Fprintf(w, "Invalid count %q\n", args[0])
			return
		}
		n = v
	}

	events := m.rec.Events()
	if len(events) == 0 {
		fmt.Fprintln(w, "No trace events recorded")
		return
	}
	if len(events) > n {
		events = events[len(events)-n:]
	}
	for _, ev := range events {
		fmt.Fprintln(w, formatTraceLine(ev))
	}
}

func (m *Monitor) saveTrace(path string) {
	w := m.rl.Stdout()
	logger, err := trace.NewFileLogger(path)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}
	defer logger.Close()

	events := m.rec.Events()
	for _, ev := range events {
		logger.Log(ev)
	}
	fmt.Fprintf(w, "Wrote %d events to %s\n", len(events), path)
}

// formatTraceLine renders one event as a compact single line.
func formatTraceLine(ev trace.Event) string {
	ts := ev.Timestamp.Format("15:04:05.000000")

	ch := " -"
	if ev.Channel != trace.ChannelNone {
		ch = fmt.Sprintf("%2d", ev.Channel)
	}

	detail := ""
	switch {
	case ev.Claim != nil && ev.Claim.Acquired:
		detail = fmt.Sprintf("clock=%s rate=%d", ev.Claim.Clock, ev.Claim.Rate)
	case ev.Claim != nil:
		detail = "released"
	case ev.Arm != nil:
		detail = fmt.Sprintf("ticks=%d rearm=%v", ev.Arm.Ticks, ev.Arm.Rearm)
	case ev.IRQ != nil:
		detail = fmt.Sprintf("line=%d spurious=%v", ev.IRQ.Line, ev.IRQ.Spurious)
	case ev.StateChange != nil:
		detail = fmt.Sprintf("%s -> %s", ev.StateChange.OldState, ev.StateChange.NewState)
	case ev.Bringup != nil:
		detail = fmt.Sprintf("requested=%d completed=%d", ev.Bringup.Requested, ev.Bringup.Completed)
	case ev.RegWrite != nil:
		detail = fmt.Sprintf("%s <- 0x%04x", regs.Name(ev.RegWrite.Offset), ev.RegWrite.Value)
	case ev.Error != nil:
		detail = ev.Error.Message
	}

	return fmt.Sprintf("%s ch%s %-9s %s", ts, ch, ev.Category.String(), detail)
}
