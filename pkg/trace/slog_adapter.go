package trace

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tcukit/tcu-go/pkg/regs"
)

// SlogAdapter writes trace events to an slog.Logger.
// Useful for development when you want to see driver activity in console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given
// slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger at Debug level.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("boot_id", event.BootID),
		slog.String("category", event.Category.String()),
	}
	if event.Channel != ChannelNone {
		attrs = append(attrs, slog.Int("channel", int(event.Channel)))
	}
	if event.Board != "" {
		attrs = append(attrs, slog.String("board", event.Board))
	}

	// Add type-specific attributes
	switch {
	case event.RegWrite != nil:
		attrs = append(attrs,
			slog.String("reg", regs.Name(event.RegWrite.Offset)),
			slog.String("value", fmt.Sprintf("0x%04x", event.RegWrite.Value)),
		)
	case event.Claim != nil:
		attrs = append(attrs, slog.Bool("acquired", event.Claim.Acquired))
		if event.Claim.Clock != "" {
			attrs = append(attrs, slog.String("clock", event.Claim.Clock))
		}
		if event.Claim.Rate != 0 {
			attrs = append(attrs, slog.Uint64("rate_hz", event.Claim.Rate))
		}
	case event.Arm != nil:
		attrs = append(attrs, slog.Uint64("ticks", uint64(event.Arm.Ticks)))
		if event.Arm.Rearm {
			attrs = append(attrs, slog.Bool("rearm", true))
		}
	case event.IRQ != nil:
		attrs = append(attrs, slog.Uint64("line", uint64(event.IRQ.Line)))
		if event.IRQ.Spurious {
			attrs = append(attrs, slog.Bool("spurious", true))
		}
	case event.StateChange != nil:
		attrs = append(attrs,
			slog.String("old_state", event.StateChange.OldState),
			slog.String("new_state", event.StateChange.NewState),
		)
		if event.StateChange.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.StateChange.Reason))
		}
	case event.Bringup != nil:
		attrs = append(attrs,
			slog.Int("requested", event.Bringup.Requested),
			slog.Int("completed", event.Bringup.Completed),
		)
		if len(event.Bringup.Skipped) > 0 {
			attrs = append(attrs, slog.Any("skipped", event.Bringup.Skipped))
		}
	case event.Error != nil:
		attrs = append(attrs, slog.String("error_msg", event.Error.Message))
		if event.Error.Context != "" {
			attrs = append(attrs, slog.String("error_context", event.Error.Context))
		}
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "tcu", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
