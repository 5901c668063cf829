package clockevent

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrInvalidDevice is returned when a device misses a required field.
	ErrInvalidDevice = errors.New("clockevent: invalid device")

	// ErrInvalidBounds is returned for a zero rate or an empty tick range.
	ErrInvalidBounds = errors.New("clockevent: invalid timing bounds")
)

// Observer is notified of device registrations. It runs without registry
// locks held and may call back into the registry.
type Observer func(*Device)

// Registry collects the registered event devices of a system.
type Registry struct {
	mu        sync.RWMutex
	devices   []*Device
	observers []Observer
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// ConfigAndRegister validates dev, records its timing parameters, and adds it
// to the registry. Registration is one-way: devices stay listed until the
// process ends, a shut-down device simply stops firing.
func (r *Registry) ConfigAndRegister(dev *Device, rate uint64, minTicks, maxTicks uint32) error {
	if dev == nil || dev.Name == "" || dev.SetNextEvent == nil || dev.SetStateShutdown == nil {
		return ErrInvalidDevice
	}
	if rate == 0 {
		return fmt.Errorf("%w: zero rate", ErrInvalidBounds)
	}
	if minTicks == 0 || minTicks > maxTicks {
		return fmt.Errorf("%w: ticks [%d, %d]", ErrInvalidBounds, minTicks, maxTicks)
	}

	dev.configure(rate, minTicks, maxTicks)

	r.mu.Lock()
	r.devices = append(r.devices, dev)
	observers := make([]Observer, len(r.observers))
	copy(observers, r.observers)
	r.mu.Unlock()

	for _, fn := range observers {
		fn(dev)
	}
	return nil
}

// Notify registers fn to run for every device already registered and every
// future registration.
func (r *Registry) Notify(fn Observer) {
	r.mu.Lock()
	r.observers = append(r.observers, fn)
	existing := make([]*Device, len(r.devices))
	copy(existing, r.devices)
	r.mu.Unlock()

	for _, dev := range existing {
		fn(dev)
	}
}

// Devices returns the registered devices in registration order.
func (r *Registry) Devices() []*Device {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Device, len(r.devices))
	copy(out, r.devices)
	return out
}

// Find returns the first device with the given name, or nil.
func (r *Registry) Find(name string) *Device {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, dev := range r.devices {
		if dev.Name == name {
			return dev
		}
	}
	return nil
}
