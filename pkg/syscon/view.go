package syscon

// OffsetView exposes a slice of a parent Regmap starting at a fixed base
// offset. A channel's control register is handed to the driver as a view at
// the register itself, so the reset path updates offset 0 without knowing
// where the channel sits in the shared block.
type OffsetView struct {
	rm   Regmap
	base uint32
}

var _ Regmap = (*OffsetView)(nil)

// NewOffsetView returns a view of rm starting at base.
func NewOffsetView(rm Regmap, base uint32) *OffsetView {
	return &OffsetView{rm: rm, base: base}
}

func (v *OffsetView) Read(off uint32) (uint32, error) {
	return v.rm.Read(v.base + off)
}

func (v *OffsetView) Write(off uint32, val uint32) error {
	return v.rm.Write(v.base+off, val)
}

func (v *OffsetView) UpdateBits(off uint32, mask, val uint32) error {
	return v.rm.UpdateBits(v.base+off, mask, val)
}
