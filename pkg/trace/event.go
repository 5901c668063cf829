package trace

import "time"

// ChannelNone marks events that concern the whole unit rather than one
// channel.
const ChannelNone int8 = -1

// Event represents one driver action or observation.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// BootID uniquely identifies the bring-up session (UUID).
	BootID string `cbor:"2,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"3,keyasint"`

	// Channel is the channel index, or ChannelNone for unit-wide events.
	Channel int8 `cbor:"4,keyasint"`

	// Board is the board profile name, when known.
	Board string `cbor:"5,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	RegWrite    *RegWriteEvent    `cbor:"10,keyasint,omitempty"` // Register access
	Claim       *ClaimEvent       `cbor:"11,keyasint,omitempty"` // Channel claim/release
	Arm         *ArmEvent         `cbor:"12,keyasint,omitempty"` // Deadline programming
	IRQ         *IRQEvent         `cbor:"13,keyasint,omitempty"` // Interrupt delivery
	StateChange *StateChangeEvent `cbor:"14,keyasint,omitempty"` // Binding state
	Bringup     *BringupEvent     `cbor:"15,keyasint,omitempty"` // Unit bring-up
	Error       *ErrorEventData   `cbor:"16,keyasint,omitempty"` // Errors at any stage
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryClaim indicates a channel claim or release.
	CategoryClaim Category = 0
	// CategoryReset indicates a channel control-register reset.
	CategoryReset Category = 1
	// CategoryArm indicates a deadline being programmed.
	CategoryArm Category = 2
	// CategoryDisarm indicates a channel being quiesced.
	CategoryDisarm Category = 3
	// CategoryInterrupt indicates an expiry interrupt.
	CategoryInterrupt Category = 4
	// CategoryState indicates a binding state change.
	CategoryState Category = 5
	// CategoryBringup indicates bring-up progress.
	CategoryBringup Category = 6
	// CategoryRegister indicates a raw register write.
	CategoryRegister Category = 7
	// CategoryError indicates an error event.
	CategoryError Category = 8
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryClaim:
		return "CLAIM"
	case CategoryReset:
		return "RESET"
	case CategoryArm:
		return "ARM"
	case CategoryDisarm:
		return "DISARM"
	case CategoryInterrupt:
		return "INTERRUPT"
	case CategoryState:
		return "STATE"
	case CategoryBringup:
		return "BRINGUP"
	case CategoryRegister:
		return "REGISTER"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// RegWriteEvent captures one register write.
type RegWriteEvent struct {
	// Offset is the register's byte offset in the unit window.
	Offset uint32 `cbor:"1,keyasint"`

	// Value is the value written, or the register value after a masked
	// update.
	Value uint32 `cbor:"2,keyasint"`
}

// ClaimEvent captures a channel changing ownership.
type ClaimEvent struct {
	// Acquired is true for a claim, false for a release.
	Acquired bool `cbor:"1,keyasint"`

	// Clock is the channel's input clock name.
	Clock string `cbor:"2,keyasint,omitempty"`

	// Rate is the input clock rate in Hz, known once the clock is enabled.
	Rate uint64 `cbor:"3,keyasint,omitempty"`
}

// ArmEvent captures a deadline being programmed.
type ArmEvent struct {
	// Ticks is the programmed count.
	Ticks uint32 `cbor:"1,keyasint"`

	// Rearm is true when the deadline was programmed from the expiry
	// handler of the previous one.
	Rearm bool `cbor:"2,keyasint,omitempty"`
}

// IRQEvent captures an expiry interrupt.
type IRQEvent struct {
	// Line is the interrupt line that fired.
	Line uint32 `cbor:"1,keyasint"`

	// Spurious is true when the interrupt arrived with no armed deadline.
	Spurious bool `cbor:"2,keyasint,omitempty"`
}

// StateChangeEvent captures a binding moving between states.
type StateChangeEvent struct {
	// OldState is the previous state.
	OldState string `cbor:"1,keyasint"`

	// NewState is the new state.
	NewState string `cbor:"2,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"3,keyasint,omitempty"`
}

// BringupEvent captures unit bring-up progress.
type BringupEvent struct {
	// Requested is the number of event channels the description asks for.
	Requested int `cbor:"1,keyasint"`

	// Completed is the number of channels brought up so far.
	Completed int `cbor:"2,keyasint"`

	// Skipped lists channels passed over after setup failures.
	Skipped []uint8 `cbor:"3,keyasint,omitempty"`
}

// ErrorEventData captures errors at any stage.
type ErrorEventData struct {
	// Message is the error message.
	Message string `cbor:"1,keyasint"`

	// Context describes what operation was being performed.
	Context string `cbor:"2,keyasint,omitempty"`
}
