package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/tcukit/tcu-go/pkg/trace"
)

// RunExport exports the trace file to the specified format.
func RunExport(path, format, output string) error {
	reader, err := trace.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open trace file: %w", err)
	}
	defer reader.Close()

	// Determine output writer
	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "jsonl":
		return exportJSONL(reader, w)
	case "csv":
		return exportCSV(reader, w)
	default:
		return fmt.Errorf("unknown format: %s (supported: jsonl, csv)", format)
	}
}

func exportJSONL(reader *trace.Reader, w io.Writer) error {
	encoder := json.NewEncoder(w)
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := encoder.Encode(event); err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
	}
	return nil
}

func exportCSV(reader *trace.Reader, w io.Writer) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	// Write header
	header := []string{"timestamp", "boot_id", "board", "channel", "category", "type", "detail"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		channel := ""
		if event.Channel != trace.ChannelNone {
			channel = fmt.Sprintf("%d", event.Channel)
		}

		row := []string{
			event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z"),
			event.BootID,
			event.Board,
			channel,
			event.Category.String(),
			typeLabel(event),
			csvDetail(event),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	return nil
}

// csvDetail condenses the payload into one cell.
func csvDetail(event trace.Event) string {
	switch {
	case event.Claim != nil && event.Claim.Acquired:
		return fmt.Sprintf("clock=%s rate=%d", event.Claim.Clock, event.Claim.Rate)
	case event.Arm != nil:
		return fmt.Sprintf("ticks=%d", event.Arm.Ticks)
	case event.IRQ != nil:
		return fmt.Sprintf("line=%d", event.IRQ.Line)
	case event.StateChange != nil:
		return fmt.Sprintf("%s->%s", event.StateChange.OldState, event.StateChange.NewState)
	case event.Bringup != nil:
		return fmt.Sprintf("requested=%d completed=%d", event.Bringup.Requested, event.Bringup.Completed)
	case event.RegWrite != nil:
		return fmt.Sprintf("offset=0x%02x value=0x%04x", event.RegWrite.Offset, event.RegWrite.Value)
	case event.Error != nil:
		return event.Error.Message
	default:
		return ""
	}
}
