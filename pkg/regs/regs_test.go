package regs

import "testing"

func TestChannelOffsets(t *testing.T) {
	tests := []struct {
		name    string
		fn      func(uint) uint32
		channel uint
		want    uint32
	}{
		{"TDFR0", TDFR, 0, 0x40},
		{"TDHR0", TDHR, 0, 0x44},
		{"TCNT0", TCNT, 0, 0x48},
		{"TCSR0", TCSR, 0, 0x4c},
		{"TDFR1", TDFR, 1, 0x50},
		{"TCNT3", TCNT, 3, 0x78},
		{"TCSR7", TCSR, 7, 0xbc},
	}

	for _, tc := range tests {
		if got := tc.fn(tc.channel); got != tc.want {
			t.Errorf("%s: got 0x%02x, want 0x%02x", tc.name, got, tc.want)
		}
	}
}

func TestChannelBlocksDoNotOverlapSelfTest(t *testing.T) {
	// The highest channel block must end below the self-test registers.
	top := TCSR(MaxChannels-1) + 4
	if top > TSTR {
		t.Errorf("channel %d block ends at 0x%02x, overlaps TSTR at 0x%02x", MaxChannels-1, top, TSTR)
	}
}

func TestChannelBit(t *testing.T) {
	for c := uint(0); c < MaxChannels; c++ {
		want := uint32(1) << c
		if got := ChannelBit(c); got != want {
			t.Errorf("ChannelBit(%d): got %#x, want %#x", c, got, want)
		}
	}
}

func TestName(t *testing.T) {
	tests := []struct {
		off  uint32
		want string
	}{
		{TER, "TER"},
		{TESR, "TESR"},
		{TECR, "TECR"},
		{TFR, "TFR"},
		{TDFR(0), "TDFR0"},
		{TDHR(2), "TDHR2"},
		{TCNT(5), "TCNT5"},
		{TCSR(7), "TCSR7"},
		{TSTR, "TSTR"},
		{0x04, "0x04"},
	}

	for _, tc := range tests {
		if got := Name(tc.off); got != tc.want {
			t.Errorf("Name(0x%02x): got %q, want %q", tc.off, got, tc.want)
		}
	}
}

func TestReservedBitsDisjointFromCounterWrites(t *testing.T) {
	// A reset clears CounterMask&^TCSRReservedBits; the reserved bits must
	// survive that mask.
	clear := CounterMask &^ TCSRReservedBits
	if clear&TCSRReservedBits != 0 {
		t.Errorf("reset clear mask %#x touches reserved bits %#x", clear, TCSRReservedBits)
	}
	if clear != 0xffc0 {
		t.Errorf("reset clear mask: got %#x, want 0xffc0", clear)
	}
}
