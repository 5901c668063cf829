// Package commands implements the tcu-log CLI commands.
package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/tcukit/tcu-go/pkg/regs"
	"github.com/tcukit/tcu-go/pkg/trace"
)

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event trace.Event) {
	// Header line: timestamp [boot:id] channel CATEGORY Type
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	boot := shortenBootID(event.BootID)

	ch := "  -"
	if event.Channel != trace.ChannelNone {
		ch = fmt.Sprintf("ch%d", event.Channel)
	}

	fmt.Fprintf(w, "%s [boot:%s] %s %-9s %s\n", ts, boot, ch, event.Category.String(), typeLabel(event))

	switch {
	case event.Claim != nil:
		formatClaimDetails(w, event.Claim)
	case event.Arm != nil:
		formatArmDetails(w, event.Arm)
	case event.IRQ != nil:
		formatIRQDetails(w, event.IRQ)
	case event.StateChange != nil:
		formatStateChangeDetails(w, event.StateChange)
	case event.Bringup != nil:
		formatBringupDetails(w, event.Bringup)
	case event.RegWrite != nil:
		formatRegWriteDetails(w, event.RegWrite)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	}

	fmt.Fprintln(w) // Blank line between events
}

// typeLabel determines the display label for the event.
func typeLabel(event trace.Event) string {
	switch {
	case event.Claim != nil && event.Claim.Acquired:
		return "Claim"
	case event.Claim != nil:
		return "Release"
	case event.Arm != nil && event.Arm.Rearm:
		return "Rearm"
	case event.Arm != nil:
		return "Arm"
	case event.IRQ != nil && event.IRQ.Spurious:
		return "IRQ (spurious)"
	case event.IRQ != nil:
		return "IRQ"
	case event.StateChange != nil:
		return "State"
	case event.Bringup != nil:
		return "Bringup"
	case event.RegWrite != nil:
		return "RegWrite"
	case event.Error != nil:
		return "Error"
	default:
		return event.Category.String()
	}
}

// shortenBootID returns the first 8 characters of the boot ID.
func shortenBootID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

func formatClaimDetails(w io.Writer, c *trace.ClaimEvent) {
	if !c.Acquired {
		return
	}
	fmt.Fprintf(w, "  Clock: %s", c.Clock)
	if c.Rate > 0 {
		fmt.Fprintf(w, " @ %d Hz", c.Rate)
	}
	fmt.Fprintln(w)
}

func formatArmDetails(w io.Writer, a *trace.ArmEvent) {
	fmt.Fprintf(w, "  Ticks: %d\n", a.Ticks)
}

func formatIRQDetails(w io.Writer, i *trace.IRQEvent) {
	fmt.Fprintf(w, "  Line: %d\n", i.Line)
}

func formatStateChangeDetails(w io.Writer, sc *trace.StateChangeEvent) {
	if sc.OldState != "" {
		fmt.Fprintf(w, "  %s -> %s\n", sc.OldState, sc.NewState)
	} else {
		fmt.Fprintf(w, "  -> %s\n", sc.NewState)
	}
	if sc.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", sc.Reason)
	}
}

func formatBringupDetails(w io.Writer, b *trace.BringupEvent) {
	fmt.Fprintf(w, "  Requested: %d  Completed: %d\n", b.Requested, b.Completed)
	if len(b.Skipped) > 0 {
		fmt.Fprintf(w, "  Skipped: %v\n", b.Skipped)
	}
}

func formatRegWriteDetails(w io.Writer, r *trace.RegWriteEvent) {
	fmt.Fprintf(w, "  %s <- 0x%04x\n", regs.Name(r.Offset), r.Value)
}

func formatErrorDetails(w io.Writer, e *trace.ErrorEventData) {
	fmt.Fprintf(w, "  Message: %s\n", e.Message)
	if e.Context != "" {
		fmt.Fprintf(w, "  Context: %s\n", e.Context)
	}
}

// ParseCategoryFlag parses a category string from a command-line flag
// (case-insensitive).
func ParseCategoryFlag(s string) (trace.Category, error) {
	switch strings.ToLower(s) {
	case "claim":
		return trace.CategoryClaim, nil
	case "reset":
		return trace.CategoryReset, nil
	case "arm":
		return trace.CategoryArm, nil
	case "disarm":
		return trace.CategoryDisarm, nil
	case "interrupt", "irq":
		return trace.CategoryInterrupt, nil
	case "state":
		return trace.CategoryState, nil
	case "bringup":
		return trace.CategoryBringup, nil
	case "register":
		return trace.CategoryRegister, nil
	case "error":
		return trace.CategoryError, nil
	default:
		return 0, fmt.Errorf("invalid category: %s (must be claim, reset, arm, disarm, interrupt, state, bringup, register, or error)", s)
	}
}

// RunView executes the view command.
func RunView(path string, filter trace.Filter, output io.Writer) error {
	reader, err := trace.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open trace file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		formatEvent(output, event)
	}

	return nil
}
