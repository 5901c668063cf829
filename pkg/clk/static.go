package clk

import (
	"fmt"
	"sync"
)

// StaticProvider serves a fixed set of clocks. It backs the simulator and the
// tests; a real integration supplies its own Provider over the platform's
// clock framework.
type StaticProvider struct {
	mu     sync.RWMutex
	clocks map[string]*StaticClock
}

var _ Provider = (*StaticProvider)(nil)

// NewStaticProvider returns a provider with one clock per entry in rates,
// keyed by clock name.
func NewStaticProvider(rates map[string]uint64) *StaticProvider {
	p := &StaticProvider{clocks: make(map[string]*StaticClock, len(rates))}
	for name, rate := range rates {
		p.clocks[name] = &StaticClock{name: name, rate: rate}
	}
	return p
}

func (p *StaticProvider) Lookup(name string) (Clock, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	c, ok := p.clocks[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return c, nil
}

// Clock returns the named StaticClock for test inspection and fault
// injection, or nil if absent.
func (p *StaticProvider) Clock(name string) *StaticClock {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.clocks[name]
}

// StaticClock is a Clock with counters instead of hardware. Prepare and
// enable counts nest the way the real framework's do, and misbalanced calls
// panic so a broken unwind path fails loudly in tests.
type StaticClock struct {
	name string

	mu       sync.Mutex
	rate     uint64
	prepares int
	enables  int

	// PrepareErr and EnableErr make Prepare and Enable fail while non-nil,
	// without changing any count.
	PrepareErr error
	EnableErr  error
}

var _ Clock = (*StaticClock)(nil)

func (c *StaticClock) Name() string { return c.name }

func (c *StaticClock) Prepare() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.PrepareErr != nil {
		return c.PrepareErr
	}
	c.prepares++
	return nil
}

func (c *StaticClock) Unprepare() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.prepares == 0 {
		panic(fmt.Sprintf("clk: unbalanced Unprepare of %q", c.name))
	}
	if c.enables >= c.prepares {
		panic(fmt.Sprintf("clk: Unprepare of %q while enabled", c.name))
	}
	c.prepares--
}

func (c *StaticClock) Enable() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.EnableErr != nil {
		return c.EnableErr
	}
	if c.prepares == 0 {
		return fmt.Errorf("%w: %q", ErrNotPrepared, c.name)
	}
	c.enables++
	return nil
}

func (c *StaticClock) Disable() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.enables == 0 {
		panic(fmt.Sprintf("clk: unbalanced Disable of %q", c.name))
	}
	c.enables--
}

func (c *StaticClock) Rate() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rate
}

// SetRate changes the reported rate. The driver reads the rate once at claim
// time, so changing it later only affects future claims.
func (c *StaticClock) SetRate(rate uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rate = rate
}

// Prepared reports whether the clock currently holds at least one prepare.
func (c *StaticClock) Prepared() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.prepares > 0
}

// Enabled reports whether the clock currently holds at least one enable.
func (c *StaticClock) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enables > 0
}
