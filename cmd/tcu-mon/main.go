// Command tcu-mon is an interactive monitor for a simulated timer/counter
// unit.
//
// It loads a board description, brings the unit's timer channels up as
// one-shot event devices on the in-memory simulator and drops into a prompt
// where channels can be armed, the clock advanced and the register state
// inspected.
//
// Usage:
//
//	tcu-mon [flags]
//
// Flags:
//
//	-board string       Embedded board profile name (default "jz4740")
//	-board-file string  Board description YAML file (overrides -board)
//	-list               List embedded board profiles and exit
//	-policy string      Channel failure policy: failfast, skip (default "failfast")
//	-trace string       Also append trace events to this .tlog file
//	-log-level string   Log level: debug, info, warn, error (default "info")
//
// Examples:
//
//	# Monitor the default board
//	tcu-mon
//
//	# Monitor a JZ4780 with debug logging and a trace file
//	tcu-mon -board jz4780 -log-level debug -trace session.tlog
//
//	# Monitor a custom board description
//	tcu-mon -board-file myboard.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/tcukit/tcu-go/cmd/tcu-mon/interactive"
	"github.com/tcukit/tcu-go/pkg/board"
	"github.com/tcukit/tcu-go/pkg/sim"
	"github.com/tcukit/tcu-go/pkg/tcu"
	"github.com/tcukit/tcu-go/pkg/trace"
)

// Config holds the monitor configuration.
type Config struct {
	Board     string
	BoardFile string
	List      bool
	Policy    string
	TraceFile string
	LogLevel  string
}

var config Config

func init() {
	flag.StringVar(&config.Board, "board", "jz4740", "Embedded board profile name")
	flag.StringVar(&config.BoardFile, "board-file", "", "Board description YAML file (overrides -board)")
	flag.BoolVar(&config.List, "list", false, "List embedded board profiles and exit")
	flag.StringVar(&config.Policy, "policy", "failfast", "Channel failure policy: failfast, skip")
	flag.StringVar(&config.TraceFile, "trace", "", "Also append trace events to this .tlog file")
	flag.StringVar(&config.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
}

func main() {
	flag.Parse()

	if config.List {
		for _, name := range board.Profiles() {
			fmt.Println(name)
		}
		return
	}

	logger, err := buildLogger(config.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	policy, err := parsePolicy(config.Policy)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	desc, err := loadDescription()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	machine, err := sim.New(desc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	history := &traceHistory{}
	tracer, cleanup, err := buildTracer(history)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	cfg := machine.UnitConfig()
	cfg.Logger = logger
	cfg.Tracer = tracer

	sys, err := tcu.Bringup(desc, cfg, tcu.BringupConfig{OnChannelError: policy})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Bring-up failed: %v\n", err)
		os.Exit(1)
	}
	defer sys.Close()

	fmt.Printf("Board %s up: %d channels, %d event devices",
		desc.Name, desc.Channels(), len(sys.Bindings()))
	if skipped := sys.Skipped(); len(skipped) > 0 {
		fmt.Printf(" (skipped %v)", skipped)
	}
	fmt.Println()

	mon, err := interactive.New(sys, machine, history)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	mon.Run(ctx, cancel)
}

// loadDescription resolves the board description from the flags.
func loadDescription() (*board.Description, error) {
	if config.BoardFile != "" {
		return board.Load(config.BoardFile)
	}
	return board.Profile(config.Board)
}

func buildLogger(level string) (*slog.Logger, error) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		return nil, fmt.Errorf("unknown log level: %s", level)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), nil
}

func parsePolicy(s string) (tcu.FailurePolicy, error) {
	switch s {
	case "failfast":
		return tcu.FailFast, nil
	case "skip":
		return tcu.SkipFailed, nil
	default:
		return 0, fmt.Errorf("unknown policy: %s (must be failfast or skip)", s)
	}
}

// buildTracer assembles the trace pipeline: the in-memory history, plus an
// optional trace file. The returned cleanup closes the file logger.
func buildTracer(history *traceHistory) (trace.Logger, func(), error) {
	if config.TraceFile == "" {
		return history, func() {}, nil
	}
	fl, err := trace.NewFileLogger(config.TraceFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open trace file: %w", err)
	}
	return trace.NewMultiLogger(history, fl), func() { fl.Close() }, nil
}

// historyLimit bounds the in-memory trace buffer.
const historyLimit = 1024

// traceHistory keeps the most recent trace events in memory for the
// console's trace command.
type traceHistory struct {
	mu     sync.Mutex
	events []trace.Event
}

var _ trace.Logger = (*traceHistory)(nil)

func (h *traceHistory) Log(event trace.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
	if len(h.events) > historyLimit {
		h.events = h.events[len(h.events)-historyLimit:]
	}
}

// Events returns the recorded events, oldest first.
func (h *traceHistory) Events() []trace.Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]trace.Event(nil), h.events...)
}
