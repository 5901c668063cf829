package syscon

import "github.com/tcukit/tcu-go/pkg/regs"

// EnableReg is the counter-enable capability a unit hands to its channels.
// Starting and stopping a counter goes through the dedicated set and clear
// registers, so concurrent channels never clobber each other's enable bits.
type EnableReg struct {
	rm Regmap
}

// NewEnableReg wraps rm, which must map the TCU shared register block.
func NewEnableReg(rm Regmap) *EnableReg {
	return &EnableReg{rm: rm}
}

// Enable starts channel c's counter. This must be the final step of arming:
// once the bit is set the counter is live.
func (e *EnableReg) Enable(c uint) error {
	return e.rm.Write(regs.TESR, regs.ChannelBit(c))
}

// Disable stops channel c's counter. The channel's reload and count registers
// keep their values.
func (e *EnableReg) Disable(c uint) error {
	return e.rm.Write(regs.TECR, regs.ChannelBit(c))
}

// IsEnabled reports whether channel c's counter is running.
func (e *EnableReg) IsEnabled(c uint) (bool, error) {
	v, err := e.rm.Read(regs.TER)
	if err != nil {
		return false, err
	}
	return v&regs.ChannelBit(c) != 0, nil
}
