// Package board loads the description a TCU unit is brought up from: the
// board's compatible string, the per-channel interrupt specifiers, and the
// input clock rates the simulator should present. Descriptions are YAML, and
// a few known SoC profiles ship embedded so tools can run without any files
// on disk.
package board

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tcukit/tcu-go/pkg/regs"
)

var (
	// ErrMalformed is returned for a description that cannot drive a
	// bring-up: missing fields or an empty interrupt list.
	ErrMalformed = errors.New("board: malformed description")

	// ErrTooManyChannels is returned when the interrupt list names more
	// channels than the unit's shared registers can address.
	ErrTooManyChannels = errors.New("board: too many channels")
)

// Description is one TCU node as a board declares it. The interrupt list
// doubles as the channel count: channel i is wired to Interrupts[i]. The
// timer list selects which of those channels are brought up as one-shot
// event devices; the rest stay free for other users of the unit.
type Description struct {
	// Name is a short label for listings, for example "jz4740".
	Name string `yaml:"name"`

	// Compatible is the binding identifier, for example
	// "ingenic,jz4740-tcu".
	Compatible string `yaml:"compatible"`

	// Interrupts holds one hardware interrupt specifier per channel.
	Interrupts []uint32 `yaml:"interrupts"`

	// Timers lists the channel indices to bring up as event devices.
	// The field is required; an empty list brings up none.
	Timers []uint32 `yaml:"timers"`

	// Clocks maps input clock names to rates in Hz. Real integrations
	// resolve clocks through their own provider and may leave this empty;
	// the simulator seeds its clock tree from it.
	Clocks map[string]uint64 `yaml:"clocks,omitempty"`
}

// Parse decodes a YAML description and validates it. Unknown fields are
// rejected so a typo in a hand-written board file fails loudly.
func Parse(data []byte) (*Description, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var d Description
	if err := dec.Decode(&d); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrMalformed)
		}
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Load reads and parses a description file.
func Load(path string) (*Description, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("board: %w", err)
	}
	return Parse(data)
}

// Validate checks that the description can drive a bring-up.
func (d *Description) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: missing name", ErrMalformed)
	}
	if d.Compatible == "" {
		return fmt.Errorf("%w: missing compatible", ErrMalformed)
	}
	if len(d.Interrupts) == 0 {
		return fmt.Errorf("%w: no interrupts", ErrMalformed)
	}
	if len(d.Interrupts) > regs.MaxChannels {
		return fmt.Errorf("%w: %d interrupts, at most %d channels",
			ErrTooManyChannels, len(d.Interrupts), regs.MaxChannels)
	}
	if d.Timers == nil {
		return fmt.Errorf("%w: missing timers", ErrMalformed)
	}
	for _, idx := range d.Timers {
		if int(idx) >= len(d.Interrupts) {
			return fmt.Errorf("%w: timer index %d with %d channels",
				ErrMalformed, idx, len(d.Interrupts))
		}
	}
	return nil
}

// Channels returns the number of channels the description declares.
func (d *Description) Channels() int {
	return len(d.Interrupts)
}

// ClockName returns the input clock name for channel c.
func (d *Description) ClockName(c uint) string {
	return fmt.Sprintf("timer%d", c)
}
