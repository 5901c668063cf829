package commands

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/tcukit/tcu-go/pkg/trace"
)

// FilterOptions specifies filtering criteria shared by the view and filter
// commands. String fields left empty impose no constraint.
type FilterOptions struct {
	Output    string
	BootID    string
	Board     string
	Category  string
	Channel   string
	TimeStart string
	TimeEnd   string
}

// BuildFilter converts the flag values into a trace filter.
func BuildFilter(opts FilterOptions) (trace.Filter, error) {
	filter := trace.Filter{
		BootID: opts.BootID,
		Board:  opts.Board,
	}

	if opts.Category != "" {
		c, err := ParseCategoryFlag(opts.Category)
		if err != nil {
			return trace.Filter{}, err
		}
		filter.Category = &c
	}

	if opts.Channel != "" {
		v, err := strconv.ParseInt(opts.Channel, 10, 8)
		if err != nil {
			return trace.Filter{}, fmt.Errorf("invalid channel: %s", opts.Channel)
		}
		ch := int8(v)
		filter.Channel = &ch
	}

	if opts.TimeStart != "" {
		t, err := time.Parse(time.RFC3339, opts.TimeStart)
		if err != nil {
			return trace.Filter{}, fmt.Errorf("invalid time-start format: %w", err)
		}
		filter.TimeStart = &t
	}

	if opts.TimeEnd != "" {
		t, err := time.Parse(time.RFC3339, opts.TimeEnd)
		if err != nil {
			return trace.Filter{}, fmt.Errorf("invalid time-end format: %w", err)
		}
		filter.TimeEnd = &t
	}

	return filter, nil
}

// RunFilter filters the trace file and writes matching events to a new file.
func RunFilter(path string, opts FilterOptions) error {
	filter, err := BuildFilter(opts)
	if err != nil {
		return err
	}

	reader, err := trace.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open trace file: %w", err)
	}
	defer reader.Close()

	logger, err := trace.NewFileLogger(opts.Output)
	if err != nil {
		return fmt.Errorf("failed to create output logger: %w", err)
	}
	defer logger.Close()

	count := 0
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		logger.Log(event)
		count++
	}

	fmt.Printf("Filtered %d events to %s\n", count, opts.Output)
	return nil
}
