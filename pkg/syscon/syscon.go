// Package syscon models the system-controller regmap through which the TCU's
// shared registers are reached. The shared block is also visible to other
// drivers (PWM, watchdog, OS timer), so every access that could race is a
// dedicated set/clear write or a masked update, never a plain read-modify-write
// in the caller.
package syscon

import (
	"errors"
	"fmt"
	"sync"

	"github.com/tcukit/tcu-go/pkg/regs"
)

// ErrOutOfRange is returned for accesses outside the mapped register block.
var ErrOutOfRange = errors.New("syscon: offset out of range")

// Regmap is the handle a driver holds on a system-controller register block.
// Implementations must be safe for concurrent use.
type Regmap interface {
	// Read returns the register at byte offset off.
	Read(off uint32) (uint32, error)

	// Write stores v at byte offset off.
	Write(off uint32, v uint32) error

	// UpdateBits replaces the bits selected by mask with the corresponding
	// bits of v, atomically with respect to other Regmap calls.
	UpdateBits(off uint32, mask, v uint32) error
}

// Mem is a memory-backed Regmap that models the TCU shared register file,
// including the hardware's set/clear register pairs: a write to TESR sets
// bits in TER, a write to TECR clears them, and likewise for the flag, mask,
// and stop registers. The set/clear registers themselves read back as zero.
type Mem struct {
	mu   sync.RWMutex
	word [regs.WindowSize / 4]uint32
}

var _ Regmap = (*Mem)(nil)

// NewMem returns a zeroed register file.
func NewMem() *Mem {
	return &Mem{}
}

func (m *Mem) Read(off uint32) (uint32, error) {
	if err := check(off); err != nil {
		return 0, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.word[off/4], nil
}

func (m *Mem) Write(off uint32, v uint32) error {
	if err := check(off); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if target, set, aliased := alias(off); aliased {
		if set {
			m.word[target/4] |= v
		} else {
			m.word[target/4] &^= v
		}
		return nil
	}
	m.word[off/4] = v
	return nil
}

func (m *Mem) UpdateBits(off uint32, mask, v uint32) error {
	if err := check(off); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.word[off/4] = m.word[off/4]&^mask | v&mask
	return nil
}

// Snapshot returns a copy of the register file as words, for dumps.
func (m *Mem) Snapshot() []uint32 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]uint32, len(m.word))
	copy(out, m.word[:])
	return out
}

func check(off uint32) error {
	if off%4 != 0 || off >= regs.WindowSize {
		return fmt.Errorf("%w: %#x", ErrOutOfRange, off)
	}
	return nil
}

// alias maps a set/clear register to its status register. The second result
// is true for the set half of the pair.
func alias(off uint32) (target uint32, set, aliased bool) {
	switch off {
	case regs.TESR:
		return regs.TER, true, true
	case regs.TECR:
		return regs.TER, false, true
	case regs.TFSR:
		return regs.TFR, true, true
	case regs.TFCR:
		return regs.TFR, false, true
	case regs.TMSR:
		return regs.TMR, true, true
	case regs.TMCR:
		return regs.TMR, false, true
	case regs.TSSR:
		return regs.TSR, true, true
	case regs.TSCR:
		return regs.TSR, false, true
	case regs.TSTSR:
		return regs.TSTR, true, true
	case regs.TSTCR:
		return regs.TSTR, false, true
	}
	return 0, false, false
}
