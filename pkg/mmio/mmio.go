// Package mmio defines the 32-bit register window the TCU driver programs
// through, together with a memory-backed implementation for tests, the
// simulator, and tooling. Offsets are byte offsets from the window base;
// accesses are little-endian and must be 4-byte aligned.
package mmio

import (
	"encoding/binary"
	"fmt"
	"sync"
)

// Window is a 32-bit register file. Implementations must be safe for
// concurrent use; the driver reads from interrupt context while another
// goroutine may be arming a channel.
type Window interface {
	// Read32 returns the register at byte offset off.
	Read32(off uint32) uint32

	// Write32 stores v at byte offset off.
	Write32(off uint32, v uint32)
}

// WriteObserver is notified after each committed write. Observers run with
// the window lock held and must not call back into the window.
type WriteObserver func(off uint32, v uint32)

// Mem is a Window backed by plain memory. It panics on out-of-range or
// misaligned access, matching what real hardware would turn into a bus fault.
type Mem struct {
	mu       sync.RWMutex
	data     []byte
	observer WriteObserver
}

var _ Window = (*Mem)(nil)

// NewMem returns a zeroed window of size bytes. Size must be a multiple of 4.
func NewMem(size uint32) *Mem {
	if size%4 != 0 {
		panic(fmt.Sprintf("mmio: window size %#x not 4-byte aligned", size))
	}
	return &Mem{data: make([]byte, size)}
}

// Observe registers fn to run after every write. Passing nil removes the
// observer.
func (m *Mem) Observe(fn WriteObserver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observer = fn
}

func (m *Mem) Read32(off uint32) uint32 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	m.check(off)
	return binary.LittleEndian.Uint32(m.data[off:])
}

func (m *Mem) Write32(off uint32, v uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.check(off)
	binary.LittleEndian.PutUint32(m.data[off:], v)
	if m.observer != nil {
		m.observer(off, v)
	}
}

// SetBits sets the bits in mask at off, read-modify-write.
func (m *Mem) SetBits(off uint32, mask uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.check(off)
	v := binary.LittleEndian.Uint32(m.data[off:]) | mask
	binary.LittleEndian.PutUint32(m.data[off:], v)
	if m.observer != nil {
		m.observer(off, v)
	}
}

// Update replaces the bits in mask at off with the corresponding bits of v,
// as a single read-modify-write.
func (m *Mem) Update(off uint32, mask, v uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.check(off)
	nv := binary.LittleEndian.Uint32(m.data[off:])&^mask | v&mask
	binary.LittleEndian.PutUint32(m.data[off:], nv)
	if m.observer != nil {
		m.observer(off, nv)
	}
}

// ClearBits clears the bits in mask at off, read-modify-write.
func (m *Mem) ClearBits(off uint32, mask uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.check(off)
	v := binary.LittleEndian.Uint32(m.data[off:]) &^ mask
	binary.LittleEndian.PutUint32(m.data[off:], v)
	if m.observer != nil {
		m.observer(off, v)
	}
}

// Size returns the window size in bytes.
func (m *Mem) Size() uint32 {
	return uint32(len(m.data))
}

// Snapshot returns a copy of the whole window, for register dumps.
func (m *Mem) Snapshot() []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]byte, len(m.data))
	copy(out, m.data)
	return out
}

func (m *Mem) check(off uint32) {
	if off%4 != 0 {
		panic(fmt.Sprintf("mmio: misaligned access at %#x", off))
	}
	if int(off)+4 > len(m.data) {
		panic(fmt.Sprintf("mmio: access at %#x beyond window of %#x bytes", off, len(m.data)))
	}
}
