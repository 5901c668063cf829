// Package clockevent carries the contract between a one-shot timer driver and
// the framework that consumes its expiry events. The driver fills in a Device
// per channel and hands it to a Registry; the framework installs an event
// handler and programs deadlines through the device's callbacks.
package clockevent

import (
	"sync"
	"time"
)

// Features describes what a device can do.
type Features uint32

const (
	// FeatureOneShot marks a device that fires once per programmed deadline
	// and must be re-armed by its event handler for the next one.
	FeatureOneShot Features = 1 << 0
)

// Device is one programmable event source. The exported fields are filled by
// the driver before registration and are read-only afterwards; the handler
// and timing parameters are guarded because the interrupt path reads them
// while other goroutines reconfigure.
type Device struct {
	// Name identifies the device in logs and listings.
	Name string

	// Rating orders competing devices; higher is preferred.
	Rating int

	// Features describes the device's modes.
	Features Features

	// CPU is the processor the device's interrupt is steered to.
	CPU int

	// SetNextEvent programs a deadline the given number of ticks ahead.
	// It is called with ticks already clamped to the device's bounds.
	SetNextEvent func(ticks uint32) error

	// SetStateShutdown quiesces the device. A shut-down device keeps its
	// registration and may be programmed again.
	SetStateShutdown func() error

	mu       sync.RWMutex
	rate     uint64
	minTicks uint32
	maxTicks uint32
	handler  func()
}

// configure records the timing parameters. Called by the registry.
func (d *Device) configure(rate uint64, minTicks, maxTicks uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rate = rate
	d.minTicks = minTicks
	d.maxTicks = maxTicks
}

// Rate returns the tick rate in Hz recorded at registration.
func (d *Device) Rate() uint64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.rate
}

// Bounds returns the programmable deadline range in ticks.
func (d *Device) Bounds() (minTicks, maxTicks uint32) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.minTicks, d.maxTicks
}

// SetEventHandler installs fn as the expiry callback. The driver invokes it
// from interrupt context with the channel already disarmed, so fn may program
// the next deadline immediately.
func (d *Device) SetEventHandler(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handler = fn
}

// EventHandler returns the installed expiry callback, or nil.
func (d *Device) EventHandler() func() {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.handler
}

// TicksFor converts a duration to ticks at the device's rate, clamped to the
// device's bounds. Durations at or below zero clamp to the minimum.
func (d *Device) TicksFor(dur time.Duration) uint32 {
	d.mu.RLock()
	rate, minT, maxT := d.rate, d.minTicks, d.maxTicks
	d.mu.RUnlock()
	if rate == 0 {
		return minT
	}
	ns := dur.Nanoseconds()
	if ns <= 0 {
		return minT
	}
	// Clamp before multiplying so the product stays inside uint64.
	maxNanos := uint64(maxT) * uint64(time.Second) / rate
	if uint64(ns) >= maxNanos {
		return maxT
	}
	ticks := uint64(ns) * rate / uint64(time.Second)
	if ticks < uint64(minT) {
		return minT
	}
	return uint32(ticks)
}

// NextAfter programs the device to fire dur from now.
func (d *Device) NextAfter(dur time.Duration) error {
	return d.SetNextEvent(d.TicksFor(dur))
}
