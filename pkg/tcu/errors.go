package tcu

import "errors"

// Driver errors.
var (
	// ErrInvalidConfig indicates an incomplete or inconsistent unit
	// configuration.
	ErrInvalidConfig = errors.New("tcu: invalid configuration")

	// ErrChannelBusy indicates a claim of an already-claimed channel.
	ErrChannelBusy = errors.New("tcu: channel already claimed")

	// ErrClockUnavailable indicates the channel's input clock could not be
	// resolved.
	ErrClockUnavailable = errors.New("tcu: clock unavailable")

	// ErrClockEnable indicates the channel's input clock could not be
	// prepared or enabled.
	ErrClockEnable = errors.New("tcu: clock enable failed")

	// ErrNoResetControl indicates the channel has no control-register
	// reference to reset through.
	ErrNoResetControl = errors.New("tcu: no reset control")

	// ErrInvalidRate indicates the channel's input clock reports a rate
	// unusable for timekeeping.
	ErrInvalidRate = errors.New("tcu: invalid clock rate")

	// ErrInterruptUnavailable indicates the channel's interrupt could not
	// be mapped or requested.
	ErrInterruptUnavailable = errors.New("tcu: interrupt unavailable")

	// ErrTicksOutOfRange indicates a deadline beyond the 16-bit counter.
	ErrTicksOutOfRange = errors.New("tcu: ticks out of range")
)
