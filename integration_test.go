package tcu_test

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tcukit/tcu-go/pkg/board"
	"github.com/tcukit/tcu-go/pkg/regs"
	"github.com/tcukit/tcu-go/pkg/sim"
	"github.com/tcukit/tcu-go/pkg/tcu"
	"github.com/tcukit/tcu-go/pkg/trace"
)

// TestE2E_SimulatedBringup brings the driver up against a simulated jz4740
// and verifies the resulting system end to end.
func TestE2E_SimulatedBringup(t *testing.T) {
	desc, err := board.Profile("jz4740")
	if err != nil {
		t.Fatalf("Failed to load board profile: %v", err)
	}

	machine, err := sim.New(desc)
	if err != nil {
		t.Fatalf("Failed to create simulated unit: %v", err)
	}

	sys, err := tcu.Bringup(desc, machine.UnitConfig(), tcu.BringupConfig{})
	if err != nil {
		t.Fatalf("Failed to bring up unit: %v", err)
	}
	defer sys.Close()

	// The jz4740 profile declares two event timers on a three-channel unit.
	bindings := sys.Bindings()
	if len(bindings) != 2 {
		t.Fatalf("Expected 2 event bindings, got %d", len(bindings))
	}
	if got := sys.Unit.ClaimedMask(); got != 0b011 {
		t.Errorf("Claimed mask mismatch: expected 0b011, got %#b", got)
	}
	if sys.Unit.Channel(2).Claimed() {
		t.Error("Expected channel 2 to stay unclaimed as the spare")
	}

	// Each binding registered a one-shot event device at the clock rate.
	for i, b := range bindings {
		dev := b.Device()
		wantName := fmt.Sprintf("ingenic-tcu-chan%d", i)
		if dev.Name != wantName {
			t.Errorf("Device name mismatch: expected %q, got %q", wantName, dev.Name)
		}
		if dev.Rating != 200 {
			t.Errorf("Device rating mismatch: expected 200, got %d", dev.Rating)
		}
		if dev.Rate() != 12_000_000 {
			t.Errorf("Device rate mismatch: expected 12000000, got %d", dev.Rate())
		}
		minT, maxT := dev.Bounds()
		if minT != 10 || maxT != 0xffff {
			t.Errorf("Device bounds mismatch: expected (10, 0xffff), got (%d, %#x)", minT, maxT)
		}
	}
	if sys.Registry.Find("ingenic-tcu-chan0") == nil {
		t.Error("Expected chan0 device to be registered")
	}

	// Teardown releases every channel and stops the clocks.
	if err := sys.Close(); err != nil {
		t.Fatalf("Failed to close system: %v", err)
	}
	if got := sys.Unit.ClaimedMask(); got != 0 {
		t.Errorf("Expected no claimed channels after close, got %#b", got)
	}

	t.Logf("Bring-up successful - %d event devices on boot %s", len(bindings), sys.Unit.BootID())
}

// TestE2E_OneShotExpiry programs a deadline through the event device and
// drives the simulated counter across it.
func TestE2E_OneShotExpiry(t *testing.T) {
	desc, err := board.Profile("jz4740")
	if err != nil {
		t.Fatalf("Failed to load board profile: %v", err)
	}
	machine, err := sim.New(desc)
	if err != nil {
		t.Fatalf("Failed to create simulated unit: %v", err)
	}
	sys, err := tcu.Bringup(desc, machine.UnitConfig(), tcu.BringupConfig{})
	if err != nil {
		t.Fatalf("Failed to bring up unit: %v", err)
	}
	defer sys.Close()

	binding := sys.Binding(0)
	dev := binding.Device()

	fired := 0
	enabledInHandler := true
	dev.SetEventHandler(func() {
		fired++
		enabledInHandler = machine.Enabled(0)
	})

	// One millisecond at 12 MHz is 12000 ticks.
	if err := dev.NextAfter(time.Millisecond); err != nil {
		t.Fatalf("Failed to program deadline: %v", err)
	}
	if got := machine.Window.Read32(regs.TDFR(0)); got != 12000 {
		t.Errorf("Reload register mismatch: expected 12000, got %d", got)
	}
	if got := binding.State(); got != tcu.StateArmed {
		t.Errorf("Expected state ARMED, got %v", got)
	}

	// One tick short of the deadline nothing happens.
	if n := machine.Advance(11_999); n != 0 {
		t.Fatalf("Expected no interrupts before the deadline, got %d", n)
	}
	if fired != 0 {
		t.Fatalf("Handler ran %d times before the deadline", fired)
	}

	// The final tick delivers exactly one expiry.
	if n := machine.Advance(1); n != 1 {
		t.Fatalf("Expected 1 interrupt at the deadline, got %d", n)
	}
	if fired != 1 {
		t.Fatalf("Expected handler to run once, ran %d times", fired)
	}
	if enabledInHandler {
		t.Error("Expected counter stopped before the handler runs")
	}
	if got := binding.State(); got != tcu.StateIdle {
		t.Errorf("Expected state IDLE after expiry, got %v", got)
	}
	if machine.Enabled(0) {
		t.Error("Expected channel 0 counter stopped after expiry")
	}

	// A one-shot stays quiet until re-armed.
	if n := machine.Advance(50_000); n != 0 {
		t.Errorf("Expected no further interrupts, got %d", n)
	}

	t.Logf("One-shot expiry successful - fired after %d ticks at %d Hz", 12000, dev.Rate())
}

// TestE2E_HandlerRearm chains deadlines by re-arming from the expiry handler.
func TestE2E_HandlerRearm(t *testing.T) {
	desc, err := board.Profile("jz4740")
	if err != nil {
		t.Fatalf("Failed to load board profile: %v", err)
	}
	machine, err := sim.New(desc)
	if err != nil {
		t.Fatalf("Failed to create simulated unit: %v", err)
	}
	sys, err := tcu.Bringup(desc, machine.UnitConfig(), tcu.BringupConfig{})
	if err != nil {
		t.Fatalf("Failed to bring up unit: %v", err)
	}
	defer sys.Close()

	binding := sys.Binding(0)

	const period = 1000
	count := 0
	binding.Device().SetEventHandler(func() {
		count++
		if count < 5 {
			if err := binding.Arm(period); err != nil {
				t.Errorf("Failed to re-arm from handler: %v", err)
			}
		}
	})

	if err := binding.Arm(period); err != nil {
		t.Fatalf("Failed to arm: %v", err)
	}

	// Five periods fit exactly in the budget; the fifth handler does not
	// re-arm, so the chain ends there.
	if n := machine.Advance(5 * period); n != 5 {
		t.Errorf("Expected 5 interrupts, got %d", n)
	}
	if count != 5 {
		t.Errorf("Expected 5 handler runs, got %d", count)
	}
	if got := binding.State(); got != tcu.StateIdle {
		t.Errorf("Expected state IDLE after the chain, got %v", got)
	}
	if machine.Enabled(0) {
		t.Error("Expected counter stopped after the chain")
	}

	t.Logf("Re-arm chain successful - %d consecutive %d-tick periods", count, period)
}

// TestE2E_SpareChannel exercises the resource-manager side on the channel
// the profile leaves free.
func TestE2E_SpareChannel(t *testing.T) {
	desc, err := board.Profile("jz4740")
	if err != nil {
		t.Fatalf("Failed to load board profile: %v", err)
	}
	machine, err := sim.New(desc)
	if err != nil {
		t.Fatalf("Failed to create simulated unit: %v", err)
	}
	sys, err := tcu.Bringup(desc, machine.UnitConfig(), tcu.BringupConfig{})
	if err != nil {
		t.Fatalf("Failed to bring up unit: %v", err)
	}
	defer sys.Close()

	spare := sys.Unit.Channel(2)
	if spare.Claimed() {
		t.Fatal("Expected channel 2 to start unclaimed")
	}

	// Leave stale bits in the control register from a "previous user".
	if err := machine.Shared.Write(regs.TCSR(2), 0xffff); err != nil {
		t.Fatalf("Failed to seed control register: %v", err)
	}

	if err := spare.Claim(); err != nil {
		t.Fatalf("Failed to claim spare channel: %v", err)
	}
	if got := sys.Unit.ClaimedMask(); got != 0b111 {
		t.Errorf("Claimed mask mismatch: expected 0b111, got %#b", got)
	}
	if got := spare.Rate(); got != 12_000_000 {
		t.Errorf("Clock rate mismatch: expected 12000000, got %d", got)
	}

	// The claim is exclusive.
	if err := spare.Claim(); !errors.Is(err, tcu.ErrChannelBusy) {
		t.Errorf("Expected ErrChannelBusy on double claim, got %v", err)
	}

	// Reset clears everything above the prescaler and clock-source bits.
	if err := spare.Reset(); err != nil {
		t.Fatalf("Failed to reset channel: %v", err)
	}
	v, err := machine.Shared.Read(regs.TCSR(2))
	if err != nil {
		t.Fatalf("Failed to read control register: %v", err)
	}
	if v != 0x003f {
		t.Errorf("Control register mismatch: expected 0x003f, got %#04x", v)
	}

	spare.Release()
	if spare.Claimed() {
		t.Error("Expected channel released")
	}
	if got := sys.Unit.ClaimedMask(); got != 0b011 {
		t.Errorf("Claimed mask mismatch after release: expected 0b011, got %#b", got)
	}

	// Released means claimable again.
	if err := spare.Claim(); err != nil {
		t.Fatalf("Failed to re-claim released channel: %v", err)
	}
	spare.Release()

	t.Logf("Spare channel lifecycle successful - claim, reset, release on channel %d", spare.Index())
}

// TestE2E_SkipFailedBoardFile loads a board description from disk with one
// broken timer and verifies SkipFailed brings up the rest.
func TestE2E_SkipFailedBoardFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")

	// timer1's clock is missing, so channel 1 cannot be claimed.
	descYAML := `name: custom
compatible: ingenic,jz4740-tcu
interrupts: [23, 22, 21]
timers: [0, 1]
clocks:
  timer0: 12000000
  timer2: 750000
`
	if err := os.WriteFile(path, []byte(descYAML), 0o600); err != nil {
		t.Fatalf("Failed to write board file: %v", err)
	}

	desc, err := board.Load(path)
	if err != nil {
		t.Fatalf("Failed to load board file: %v", err)
	}
	machine, err := sim.New(desc)
	if err != nil {
		t.Fatalf("Failed to create simulated unit: %v", err)
	}

	sys, err := tcu.Bringup(desc, machine.UnitConfig(), tcu.BringupConfig{
		OnChannelError: tcu.SkipFailed,
	})
	if err != nil {
		t.Fatalf("Failed to bring up unit: %v", err)
	}
	defer sys.Close()

	skipped := sys.Skipped()
	if len(skipped) != 1 || skipped[0] != 1 {
		t.Errorf("Skipped channels mismatch: expected [1], got %v", skipped)
	}
	if sys.Binding(1) != nil {
		t.Error("Expected no binding on the skipped channel")
	}
	if got := sys.Unit.ClaimedMask(); got != 0b001 {
		t.Errorf("Claimed mask mismatch: expected 0b001, got %#b", got)
	}

	// The surviving channel still delivers events.
	binding := sys.Binding(0)
	if binding == nil {
		t.Fatal("Expected a binding on channel 0")
	}
	fired := 0
	binding.Device().SetEventHandler(func() { fired++ })
	if err := binding.Arm(100); err != nil {
		t.Fatalf("Failed to arm surviving channel: %v", err)
	}
	if n := machine.Advance(100); n != 1 {
		t.Errorf("Expected 1 interrupt on surviving channel, got %d", n)
	}
	if fired != 1 {
		t.Errorf("Expected handler to run once, ran %d times", fired)
	}

	t.Logf("SkipFailed bring-up successful - skipped %v, channel 0 operational", skipped)
}

// TestE2E_TraceRoundTrip records a full session to a trace file and decodes
// it back.
func TestE2E_TraceRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.tlog")

	logger, err := trace.NewFileLogger(path)
	if err != nil {
		t.Fatalf("Failed to create trace logger: %v", err)
	}

	desc, err := board.Profile("jz4740")
	if err != nil {
		t.Fatalf("Failed to load board profile: %v", err)
	}
	machine, err := sim.New(desc)
	if err != nil {
		t.Fatalf("Failed to create simulated unit: %v", err)
	}

	cfg := machine.UnitConfig()
	cfg.BootID = "boot-e2e"
	cfg.Tracer = logger

	// Mirror window writes into the trace alongside the driver's own events.
	machine.Window.Observe(func(off, v uint32) {
		logger.Log(trace.Event{
			Timestamp: time.Now(),
			BootID:    cfg.BootID,
			Category:  trace.CategoryRegister,
			Channel:   trace.ChannelNone,
			Board:     cfg.Board,
			RegWrite:  &trace.RegWriteEvent{Offset: off, Value: v},
		})
	})

	sys, err := tcu.Bringup(desc, cfg, tcu.BringupConfig{})
	if err != nil {
		t.Fatalf("Failed to bring up unit: %v", err)
	}

	dev := sys.Binding(0).Device()
	dev.SetEventHandler(func() {})
	if err := dev.NextAfter(time.Millisecond); err != nil {
		t.Fatalf("Failed to program deadline: %v", err)
	}
	if n := machine.Advance(12_000); n != 1 {
		t.Fatalf("Expected 1 interrupt, got %d", n)
	}

	if err := sys.Close(); err != nil {
		t.Fatalf("Failed to close system: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Failed to close trace logger: %v", err)
	}

	// Decode the session and account for what the driver did.
	reader, err := trace.NewReader(path)
	if err != nil {
		t.Fatalf("Failed to open trace file: %v", err)
	}
	defer reader.Close()

	counts := make(map[trace.Category]int)
	total := 0
	var armTicks uint32
	var bringup trace.BringupEvent
	sawReloadWrite := false
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Failed to decode event %d: %v", total, err)
		}
		total++
		if event.BootID != "boot-e2e" {
			t.Errorf("Event %d boot ID mismatch: expected boot-e2e, got %q", total, event.BootID)
		}
		if event.Board != "jz4740" {
			t.Errorf("Event %d board mismatch: expected jz4740, got %q", total, event.Board)
		}
		counts[event.Category]++

		switch event.Category {
		case trace.CategoryArm:
			armTicks = event.Arm.Ticks
		case trace.CategoryInterrupt:
			if event.IRQ.Spurious {
				t.Error("Expected a non-spurious interrupt")
			}
		case trace.CategoryBringup:
			bringup = *event.Bringup
		case trace.CategoryRegister:
			if event.RegWrite.Offset == regs.TDFR(0) && event.RegWrite.Value == 12000 {
				sawReloadWrite = true
			}
		}
	}

	if counts[trace.CategoryBringup] != 1 {
		t.Errorf("Expected 1 bring-up event, got %d", counts[trace.CategoryBringup])
	}
	if bringup.Requested != 2 || bringup.Completed != 2 {
		t.Errorf("Bring-up event mismatch: expected 2/2, got %d/%d", bringup.Requested, bringup.Completed)
	}
	// Two claims at bring-up, two releases at close.
	if counts[trace.CategoryClaim] != 4 {
		t.Errorf("Expected 4 claim events, got %d", counts[trace.CategoryClaim])
	}
	if counts[trace.CategoryArm] != 1 {
		t.Errorf("Expected 1 arm event, got %d", counts[trace.CategoryArm])
	}
	if armTicks != 12000 {
		t.Errorf("Arm ticks mismatch: expected 12000, got %d", armTicks)
	}
	if counts[trace.CategoryInterrupt] != 1 {
		t.Errorf("Expected 1 interrupt event, got %d", counts[trace.CategoryInterrupt])
	}
	if !sawReloadWrite {
		t.Error("Expected a register event for the reload-register write")
	}

	t.Logf("Trace round-trip successful - %d events decoded from %s", total, filepath.Base(path))
}
