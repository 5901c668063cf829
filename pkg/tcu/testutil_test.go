package tcu

import (
	"testing"

	"github.com/tcukit/tcu-go/internal/testboard"
	"github.com/tcukit/tcu-go/pkg/board"
	"github.com/tcukit/tcu-go/pkg/clk"
	"github.com/tcukit/tcu-go/pkg/irq"
	"github.com/tcukit/tcu-go/pkg/mmio"
	"github.com/tcukit/tcu-go/pkg/regs"
	"github.com/tcukit/tcu-go/pkg/syscon"
	"github.com/tcukit/tcu-go/pkg/trace"
)

// testRig assembles the simulated collaborators driver tests run against.
type testRig struct {
	desc   *board.Description
	window *mmio.Mem
	shared *syscon.Mem
	enable *syscon.EnableReg
	clocks *clk.StaticProvider
	irqs   *irq.Sim
	tracer *testboard.TraceRecorder

	// tcsrs holds the per-channel control-register views, each wrapped
	// for fault injection.
	tcsrs []*testboard.FaultRegmap
}

func newRig(channels int) *testRig {
	desc := testboard.Describe(channels)
	r := &testRig{
		desc:   desc,
		window: mmio.NewMem(regs.WindowSize),
		shared: syscon.NewMem(),
		clocks: clk.NewStaticProvider(desc.Clocks),
		irqs:   irq.NewSim(),
		tracer: &testboard.TraceRecorder{},
	}
	r.enable = syscon.NewEnableReg(r.shared)
	for i := 0; i < channels; i++ {
		view := syscon.NewOffsetView(r.shared, regs.TCSR(uint(i)))
		r.tcsrs = append(r.tcsrs, testboard.NewFaultRegmap(view))
	}
	return r
}

func (r *testRig) config() Config {
	tcsrs := make([]syscon.Regmap, len(r.tcsrs))
	for i, v := range r.tcsrs {
		tcsrs[i] = v
	}
	return Config{
		Channels:   r.desc.Channels(),
		Window:     r.window,
		Enable:     r.enable,
		TCSR:       tcsrs,
		Clocks:     r.clocks,
		Interrupts: r.irqs,
		Board:      r.desc.Name,
		BootID:     "boot-test",
		Tracer:     r.tracer,
	}
}

func (r *testRig) unit(t *testing.T) *Unit {
	t.Helper()
	u, err := NewUnit(r.config())
	if err != nil {
		t.Fatalf("NewUnit failed: %v", err)
	}
	return u
}

// claimed reports whether the rig's channel clock currently holds an enable.
func (r *testRig) clockEnabled(c uint) bool {
	sc := r.clocks.Clock(r.desc.ClockName(c))
	return sc != nil && sc.Enabled()
}

// lastTrace returns the most recent event of the category, failing the test
// when there is none.
func lastTrace(t *testing.T, rec *testboard.TraceRecorder, c trace.Category) trace.Event {
	t.Helper()
	events := rec.ByCategory(c)
	if len(events) == 0 {
		t.Fatalf("no %v trace events", c)
	}
	return events[len(events)-1]
}
