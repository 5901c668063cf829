// Package clk is the clock-tree surface the TCU driver consumes. Each timer
// channel has a gated input clock, named "timer0" through "timer7", that must
// be prepared and enabled before the channel counts and released when the
// channel is given back.
//
// The package deliberately mirrors the usual two-phase gate protocol: Prepare
// may sleep and is called from process context, Enable must be cheap. The
// driver always pairs them (prepare+enable on claim, disable+unprepare on
// release).
package clk

import "errors"

var (
	// ErrNotFound is returned by a Provider when no clock answers to the
	// requested name.
	ErrNotFound = errors.New("clk: clock not found")

	// ErrNotPrepared is returned by Enable when Prepare has not succeeded.
	ErrNotPrepared = errors.New("clk: enable before prepare")
)

// Clock is a single gated clock.
type Clock interface {
	// Name returns the clock's lookup name.
	Name() string

	// Prepare readies the clock. It may block. Calls nest: each successful
	// Prepare needs a matching Unprepare.
	Prepare() error

	// Unprepare undoes one Prepare.
	Unprepare()

	// Enable opens the gate. The clock must be prepared. Calls nest.
	Enable() error

	// Disable undoes one Enable.
	Disable()

	// Rate returns the clock's frequency in Hz. A rate of zero means the
	// rate is unknown and the clock is unusable for timekeeping.
	Rate() uint64
}

// Provider resolves clock names for a consumer.
type Provider interface {
	// Lookup returns the clock registered under name, or ErrNotFound.
	Lookup(name string) (Clock, error)
}
