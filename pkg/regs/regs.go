// Package regs describes the register geometry of the JZ47xx timer/counter
// unit (TCU). It is pure addressing: byte offsets from the unit's register
// window, the per-channel stride, and the bit masks shared by every channel.
// All behavior lives in pkg/tcu; nothing here touches hardware.
package regs

import "fmt"

// Shared registers, as byte offsets from the unit base. TER and its set/clear
// companions gate whether a channel's counter advances; in this design they
// are reached through the syscon enable-register capability rather than the
// unit window, but the offsets are part of the unit's documented map.
const (
	TER  uint32 = 0x10 // timer enable, one bit per channel
	TESR uint32 = 0x14 // enable set: write 1 to set the TER bit
	TECR uint32 = 0x18 // enable clear: write 1 to clear the TER bit
	TSR  uint32 = 0x1c // stop register
	TFR  uint32 = 0x20 // full (match) flag, one bit per channel
	TFSR uint32 = 0x24 // flag set
	TFCR uint32 = 0x28 // flag clear
	TSSR uint32 = 0x2c // stop set
	TMR  uint32 = 0x30 // interrupt mask
	TMSR uint32 = 0x34 // mask set
	TMCR uint32 = 0x38 // mask clear
	TSCR uint32 = 0x3c // stop clear
)

// Per-channel registers. Channel c's block sits at offset
// base + c*ChannelStride from the channel-0 offsets below.
const (
	TDFR0 uint32 = 0x40 // data full reload: the one-shot target count
	TDHR0 uint32 = 0x44 // data half reload
	TCNT0 uint32 = 0x48 // live counter, counts up toward TDFR
	TCSR0 uint32 = 0x4c // channel control/status
)

// Self-test registers at the top of the window.
const (
	TSTR  uint32 = 0xf0
	TSTSR uint32 = 0xf4
	TSTCR uint32 = 0xf8
)

const (
	// ChannelStride is the distance in bytes between consecutive channels'
	// register blocks.
	ChannelStride uint32 = 0x10

	// MaxChannels is the largest channel count any TCU variant carries. The
	// enable, flag, and mask registers hold one bit per channel, so the
	// claim bitmap and every per-channel loop are bounded by this.
	MaxChannels = 8

	// CounterMask is the usable width of the reload and count registers.
	// The counters are 16 bits wide; arming with a larger value is an error.
	CounterMask uint32 = 0xffff

	// TCSRReservedBits are the low TCSR bits that must never be written.
	// A channel reset clears every non-reserved bit and leaves these alone.
	TCSRReservedBits uint32 = 0x3f

	// WindowSize is the span of the unit's register window in bytes.
	WindowSize uint32 = 0x100
)

// TDFR returns the reload register offset for channel c.
func TDFR(c uint) uint32 { return TDFR0 + uint32(c)*ChannelStride }

// TDHR returns the half-reload register offset for channel c.
func TDHR(c uint) uint32 { return TDHR0 + uint32(c)*ChannelStride }

// TCNT returns the live counter register offset for channel c.
func TCNT(c uint) uint32 { return TCNT0 + uint32(c)*ChannelStride }

// TCSR returns the control/status register offset for channel c.
func TCSR(c uint) uint32 { return TCSR0 + uint32(c)*ChannelStride }

// ChannelBit returns the bit mask channel c owns in the shared enable, flag,
// and mask registers.
func ChannelBit(c uint) uint32 { return 1 << c }

// Name returns a display name for a register offset, decoding per-channel
// blocks back to their channel index (for example "TCNT3"). Unknown offsets
// format as a bare hex offset.
func Name(off uint32) string {
	switch off {
	case TER:
		return "TER"
	case TESR:
		return "TESR"
	case TECR:
		return "TECR"
	case TSR:
		return "TSR"
	case TFR:
		return "TFR"
	case TFSR:
		return "TFSR"
	case TFCR:
		return "TFCR"
	case TSSR:
		return "TSSR"
	case TMR:
		return "TMR"
	case TMSR:
		return "TMSR"
	case TMCR:
		return "TMCR"
	case TSCR:
		return "TSCR"
	case TSTR:
		return "TSTR"
	case TSTSR:
		return "TSTSR"
	case TSTCR:
		return "TSTCR"
	}
	if off >= TDFR0 && off < TDFR0+MaxChannels*ChannelStride {
		c := (off - TDFR0) / ChannelStride
		switch TDFR0 + (off-TDFR0)%ChannelStride {
		case TDFR0:
			return fmt.Sprintf("TDFR%d", c)
		case TDHR0:
			return fmt.Sprintf("TDHR%d", c)
		case TCNT0:
			return fmt.Sprintf("TCNT%d", c)
		case TCSR0:
			return fmt.Sprintf("TCSR%d", c)
		}
	}
	return fmt.Sprintf("0x%02x", off)
}
