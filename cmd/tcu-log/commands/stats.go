package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/tcukit/tcu-go/pkg/trace"
)

// Stats holds aggregate statistics about a trace file.
type Stats struct {
	TotalEvents      int
	EventsByCategory map[trace.Category]int
	EventsByChannel  map[int8]int
	Boots            map[string]*BootStats
	Errors           int
	Spurious         int
	TimeRange        struct {
		Start time.Time
		End   time.Time
	}
}

// BootStats holds statistics for a single bring-up session.
type BootStats struct {
	FirstSeen  time.Time
	LastSeen   time.Time
	Events     int
	Board      string
	Arms       int
	Interrupts int
}

// allCategories lists categories in display order.
var allCategories = []trace.Category{
	trace.CategoryClaim,
	trace.CategoryReset,
	trace.CategoryArm,
	trace.CategoryDisarm,
	trace.CategoryInterrupt,
	trace.CategoryState,
	trace.CategoryBringup,
	trace.CategoryRegister,
	trace.CategoryError,
}

// RunStats analyzes the trace file and prints statistics.
func RunStats(path string, w io.Writer) error {
	reader, err := trace.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open trace file: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EventsByCategory: make(map[trace.Category]int),
		EventsByChannel:  make(map[int8]int),
		Boots:            make(map[string]*BootStats),
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		stats.TotalEvents++
		stats.EventsByCategory[event.Category]++
		if event.Channel != trace.ChannelNone {
			stats.EventsByChannel[event.Channel]++
		}

		// Track time range
		if stats.TimeRange.Start.IsZero() || event.Timestamp.Before(stats.TimeRange.Start) {
			stats.TimeRange.Start = event.Timestamp
		}
		if event.Timestamp.After(stats.TimeRange.End) {
			stats.TimeRange.End = event.Timestamp
		}

		// Track per-boot stats
		boot, ok := stats.Boots[event.BootID]
		if !ok {
			boot = &BootStats{
				FirstSeen: event.Timestamp,
				LastSeen:  event.Timestamp,
			}
			stats.Boots[event.BootID] = boot
		}
		boot.Events++
		if event.Timestamp.After(boot.LastSeen) {
			boot.LastSeen = event.Timestamp
		}
		if event.Board != "" && boot.Board == "" {
			boot.Board = event.Board
		}
		if event.Arm != nil {
			boot.Arms++
		}
		if event.IRQ != nil {
			boot.Interrupts++
			if event.IRQ.Spurious {
				stats.Spurious++
			}
		}
		if event.Error != nil {
			stats.Errors++
		}
	}

	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== TCU Trace Statistics ===")
	fmt.Fprintln(w)

	// Time range
	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Second))
		fmt.Fprintln(w)
	}

	// Total events
	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	// Events by category
	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range allCategories {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-11s %d\n", cat.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	// Events by channel
	if len(stats.EventsByChannel) > 0 {
		channels := make([]int8, 0, len(stats.EventsByChannel))
		for ch := range stats.EventsByChannel {
			channels = append(channels, ch)
		}
		sort.Slice(channels, func(i, j int) bool { return channels[i] < channels[j] })

		fmt.Fprintln(w, "Events by Channel:")
		for _, ch := range channels {
			fmt.Fprintf(w, "  channel %-3d %d\n", ch, stats.EventsByChannel[ch])
		}
		fmt.Fprintln(w)
	}

	// Boot sessions
	fmt.Fprintf(w, "Boot Sessions: %d\n", len(stats.Boots))
	if len(stats.Boots) > 0 {
		type bootInfo struct {
			id    string
			stats *BootStats
		}
		boots := make([]bootInfo, 0, len(stats.Boots))
		for id, bs := range stats.Boots {
			boots = append(boots, bootInfo{id, bs})
		}
		sort.Slice(boots, func(i, j int) bool {
			return boots[i].stats.FirstSeen.Before(boots[j].stats.FirstSeen)
		})

		fmt.Fprintln(w, "")
		for _, b := range boots {
			duration := b.stats.LastSeen.Sub(b.stats.FirstSeen).Round(time.Millisecond)
			shortID := b.id
			if len(shortID) > 8 {
				shortID = shortID[:8]
			}
			fmt.Fprintf(w, "  [%s] %d events, duration %s\n", shortID, b.stats.Events, duration)
			if b.stats.Board != "" {
				fmt.Fprintf(w, "           Board: %s\n", b.stats.Board)
			}
			if b.stats.Arms > 0 || b.stats.Interrupts > 0 {
				fmt.Fprintf(w, "           Arms: %d, Interrupts: %d\n", b.stats.Arms, b.stats.Interrupts)
			}
		}
	}

	// Errors
	if stats.Errors > 0 || stats.Spurious > 0 {
		fmt.Fprintln(w)
		if stats.Errors > 0 {
			fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
		}
		if stats.Spurious > 0 {
			fmt.Fprintf(w, "Spurious Interrupts: %d\n", stats.Spurious)
		}
	}
}
