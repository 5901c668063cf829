package trace

import (
	"testing"
	"time"
)

func TestEventCBORRoundTrip(t *testing.T) {
	ts := time.Date(2026, 3, 14, 9, 26, 53, 589793238, time.UTC)

	tests := []struct {
		name  string
		event Event
		check func(t *testing.T, decoded Event)
	}{
		{
			name: "register write",
			event: Event{
				Timestamp: ts,
				BootID:    "0b5fca11-7e4d-4d6e-9c9e-30fca11b0075",
				Category:  CategoryRegister,
				Channel:   2,
				Board:     "jz4740",
				RegWrite:  &RegWriteEvent{Offset: 0x68, Value: 0x2d00},
			},
			check: func(t *testing.T, d Event) {
				if d.RegWrite == nil {
					t.Fatal("RegWrite is nil")
				}
				if d.RegWrite.Offset != 0x68 || d.RegWrite.Value != 0x2d00 {
					t.Errorf("RegWrite: got %+v", d.RegWrite)
				}
			},
		},
		{
			name: "claim",
			event: Event{
				Timestamp: ts,
				BootID:    "boot-1",
				Category:  CategoryClaim,
				Channel:   0,
				Claim:     &ClaimEvent{Acquired: true, Clock: "timer0", Rate: 12_000_000},
			},
			check: func(t *testing.T, d Event) {
				if d.Claim == nil {
					t.Fatal("Claim is nil")
				}
				if !d.Claim.Acquired || d.Claim.Clock != "timer0" || d.Claim.Rate != 12_000_000 {
					t.Errorf("Claim: got %+v", d.Claim)
				}
			},
		},
		{
			name: "arm",
			event: Event{
				Timestamp: ts,
				BootID:    "boot-1",
				Category:  CategoryArm,
				Channel:   1,
				Arm:       &ArmEvent{Ticks: 11520, Rearm: true},
			},
			check: func(t *testing.T, d Event) {
				if d.Arm == nil {
					t.Fatal("Arm is nil")
				}
				if d.Arm.Ticks != 11520 || !d.Arm.Rearm {
					t.Errorf("Arm: got %+v", d.Arm)
				}
			},
		},
		{
			name: "interrupt",
			event: Event{
				Timestamp: ts,
				BootID:    "boot-1",
				Category:  CategoryInterrupt,
				Channel:   1,
				IRQ:       &IRQEvent{Line: 17},
			},
			check: func(t *testing.T, d Event) {
				if d.IRQ == nil {
					t.Fatal("IRQ is nil")
				}
				if d.IRQ.Line != 17 || d.IRQ.Spurious {
					t.Errorf("IRQ: got %+v", d.IRQ)
				}
			},
		},
		{
			name: "state change",
			event: Event{
				Timestamp:   ts,
				BootID:      "boot-1",
				Category:    CategoryState,
				Channel:     3,
				StateChange: &StateChangeEvent{OldState: "armed", NewState: "firing", Reason: "expiry"},
			},
			check: func(t *testing.T, d Event) {
				if d.StateChange == nil {
					t.Fatal("StateChange is nil")
				}
				if d.StateChange.OldState != "armed" || d.StateChange.NewState != "firing" {
					t.Errorf("StateChange: got %+v", d.StateChange)
				}
			},
		},
		{
			name: "bringup",
			event: Event{
				Timestamp: ts,
				BootID:    "boot-1",
				Category:  CategoryBringup,
				Channel:   ChannelNone,
				Bringup:   &BringupEvent{Requested: 3, Completed: 2, Skipped: []uint8{1}},
			},
			check: func(t *testing.T, d Event) {
				if d.Bringup == nil {
					t.Fatal("Bringup is nil")
				}
				if d.Channel != ChannelNone {
					t.Errorf("Channel: got %d, want ChannelNone", d.Channel)
				}
				if d.Bringup.Requested != 3 || d.Bringup.Completed != 2 || len(d.Bringup.Skipped) != 1 {
					t.Errorf("Bringup: got %+v", d.Bringup)
				}
			},
		},
		{
			name: "error",
			event: Event{
				Timestamp: ts,
				BootID:    "boot-1",
				Category:  CategoryError,
				Channel:   4,
				Error:     &ErrorEventData{Message: "clock enable failed", Context: "Claim"},
			},
			check: func(t *testing.T, d Event) {
				if d.Error == nil {
					t.Fatal("Error is nil")
				}
				if d.Error.Message != "clock enable failed" || d.Error.Context != "Claim" {
					t.Errorf("Error: got %+v", d.Error)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := EncodeEvent(tt.event)
			if err != nil {
				t.Fatalf("EncodeEvent failed: %v", err)
			}

			decoded, err := DecodeEvent(data)
			if err != nil {
				t.Fatalf("DecodeEvent failed: %v", err)
			}

			if !decoded.Timestamp.Equal(tt.event.Timestamp) {
				t.Errorf("Timestamp: got %v, want %v", decoded.Timestamp, tt.event.Timestamp)
			}
			if decoded.BootID != tt.event.BootID {
				t.Errorf("BootID: got %q, want %q", decoded.BootID, tt.event.BootID)
			}
			if decoded.Category != tt.event.Category {
				t.Errorf("Category: got %v, want %v", decoded.Category, tt.event.Category)
			}
			if decoded.Channel != tt.event.Channel {
				t.Errorf("Channel: got %d, want %d", decoded.Channel, tt.event.Channel)
			}
			tt.check(t, decoded)
		})
	}
}

func TestEventCBORUsesIntegerKeys(t *testing.T) {
	event := Event{
		Timestamp: time.Now(),
		BootID:    "boot-1",
		Category:  CategoryArm,
		Channel:   0,
	}

	data, err := EncodeEvent(event)
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}

	// Decode to generic map and verify keys are integers
	var rawMap map[int64]any
	if err := decMode.Unmarshal(data, &rawMap); err != nil {
		t.Fatalf("failed to decode as map: %v", err)
	}

	for _, key := range []int64{1, 2, 3, 4} {
		if _, ok := rawMap[key]; !ok {
			t.Errorf("expected integer key %d not found in encoded data", key)
		}
	}

	// Verify no string keys
	var stringMap map[string]any
	if err := decMode.Unmarshal(data, &stringMap); err == nil && len(stringMap) > 0 {
		t.Error("encoded data contains string keys, expected integer keys only")
	}
}

func TestCategoryString(t *testing.T) {
	tests := []struct {
		c    Category
		want string
	}{
		{CategoryClaim, "CLAIM"},
		{CategoryReset, "RESET"},
		{CategoryArm, "ARM"},
		{CategoryDisarm, "DISARM"},
		{CategoryInterrupt, "INTERRUPT"},
		{CategoryState, "STATE"},
		{CategoryBringup, "BRINGUP"},
		{CategoryRegister, "REGISTER"},
		{CategoryError, "ERROR"},
		{Category(99), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.c.String(); got != tt.want {
			t.Errorf("Category(%d).String() = %q, want %q", tt.c, got, tt.want)
		}
	}
}
