// Package trace provides structured event capture for the TCU driver.
//
// This package defines the Logger interface and Event types for recording
// driver activity: channel claims, resets, arm and disarm sequences,
// interrupt delivery, and bring-up progress. It is separate from operational
// logging (slog) - the trace is a complete machine-readable record of what
// the driver did to the hardware, suitable for replay and analysis.
//
// # Basic Usage
//
// Callers configure tracing by providing a Logger implementation:
//
//	// For development: log to console via slog
//	cfg.Tracer = trace.NewSlogAdapter(slog.Default())
//
//	// For capture: write to binary file
//	cfg.Tracer, _ = trace.NewFileLogger("/var/log/tcu/boot.tlog")
//
//	// Both: use MultiLogger
//	cfg.Tracer = trace.NewMultiLogger(
//	    trace.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// # Event Types
//
// Events carry one payload matching their category:
//   - Register writes (RegWriteEvent)
//   - Channel lifecycle (ClaimEvent, StateChangeEvent)
//   - Deadline programming (ArmEvent)
//   - Interrupt delivery (IRQEvent)
//   - Bring-up progress (BringupEvent)
//   - Errors (ErrorEventData)
//
// # File Format
//
// Trace files use CBOR encoding with .tlog extension. The tcu-log CLI tool
// provides viewing, filtering, and export capabilities.
package trace
