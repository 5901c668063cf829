// Package irq is the interrupt surface the TCU driver plugs into. A channel's
// hardware interrupt is named by a specifier taken from the board description;
// the controller maps the specifier to a line, and the driver requests the
// line with a handler before arming the channel.
package irq

import "errors"

var (
	// ErrUnmappable is returned when a specifier cannot be turned into a
	// line, typically because the description names an interrupt the
	// controller does not carry.
	ErrUnmappable = errors.New("irq: specifier cannot be mapped")

	// ErrLineBusy is returned when the requested line already has a handler.
	ErrLineBusy = errors.New("irq: line already requested")

	// ErrNotRequested is returned when a line without a handler is fired.
	ErrNotRequested = errors.New("irq: line has no handler")
)

// Handler runs when a requested line fires. It is called from interrupt
// context: it must not block and must not re-enter the controller.
type Handler func(line uint32)

// Flags qualify a line request.
type Flags uint32

const (
	// FlagTimer marks the handler as a timekeeping interrupt, keeping it
	// serviced when normal interrupts are being deferred.
	FlagTimer Flags = 1 << 0
)

// Controller maps specifiers to lines and dispatches fires to handlers.
// Implementations must be safe for concurrent use.
type Controller interface {
	// MapSpecifier resolves a board-description interrupt specifier to a
	// line number, allocating the mapping if needed.
	MapSpecifier(spec uint32) (uint32, error)

	// Request installs h on line. The name tags the line in diagnostics.
	Request(line uint32, h Handler, flags Flags, name string) error

	// Free removes the handler from line. Freeing an unrequested line is
	// a no-op.
	Free(line uint32)

	// DisposeMapping drops the specifier mapping behind line. The line
	// must already be freed.
	DisposeMapping(line uint32)
}
