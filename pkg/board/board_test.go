package board

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestParse(t *testing.T) {
	d, err := Parse([]byte(`
name: testboard
compatible: ingenic,jz4740-tcu
interrupts: [23, 22, 21]
timers: [0, 2]
clocks:
  timer0: 12000000
`))
	if err != nil {
		t.Fatal(err)
	}

	if d.Name != "testboard" {
		t.Errorf("name: got %q", d.Name)
	}
	if d.Channels() != 3 {
		t.Errorf("channels: got %d, want 3", d.Channels())
	}
	if d.Interrupts[2] != 21 {
		t.Errorf("interrupts[2]: got %d, want 21", d.Interrupts[2])
	}
	if len(d.Timers) != 2 || d.Timers[1] != 2 {
		t.Errorf("timers: got %v, want [0 2]", d.Timers)
	}
	if d.Clocks["timer0"] != 12_000_000 {
		t.Errorf("timer0 rate: got %d", d.Clocks["timer0"])
	}
	if got := d.ClockName(5); got != "timer5" {
		t.Errorf("ClockName(5): got %q", got)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want error
	}{
		{"empty document", "", ErrMalformed},
		{"not yaml", "{{", ErrMalformed},
		{"unknown field", "name: x\ncompatible: y\ninterrupts: [1]\ntimers: [0]\nbogus: 3\n", ErrMalformed},
		{"missing name", "compatible: y\ninterrupts: [1]\ntimers: [0]\n", ErrMalformed},
		{"missing compatible", "name: x\ninterrupts: [1]\ntimers: [0]\n", ErrMalformed},
		{"no interrupts", "name: x\ncompatible: y\ntimers: [0]\n", ErrMalformed},
		{"empty interrupts", "name: x\ncompatible: y\ninterrupts: []\ntimers: [0]\n", ErrMalformed},
		{"missing timers", "name: x\ncompatible: y\ninterrupts: [1, 2]\n", ErrMalformed},
		{"timer out of range", "name: x\ncompatible: y\ninterrupts: [1, 2]\ntimers: [2]\n", ErrMalformed},
		{"nine channels", "name: x\ncompatible: y\ninterrupts: [1,2,3,4,5,6,7,8,9]\ntimers: [0]\n", ErrTooManyChannels},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse([]byte(tc.yaml)); !errors.Is(err, tc.want) {
				t.Errorf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestEmptyTimerListIsValid(t *testing.T) {
	// A board may declare channels without bringing any up as event
	// devices; the list must still be present.
	d, err := Parse([]byte("name: x\ncompatible: y\ninterrupts: [1, 2]\ntimers: []\n"))
	if err != nil {
		t.Fatalf("empty timers rejected: %v", err)
	}
	if len(d.Timers) != 0 {
		t.Errorf("timers: got %v, want []", d.Timers)
	}
}

func TestEightChannelsIsTheLimit(t *testing.T) {
	d, err := Parse([]byte("name: x\ncompatible: y\ninterrupts: [1,2,3,4,5,6,7,8]\ntimers: [7]\n"))
	if err != nil {
		t.Fatalf("eight channels rejected: %v", err)
	}
	if d.Channels() != 8 {
		t.Errorf("channels: got %d, want 8", d.Channels())
	}
}

func TestDuplicateTimersPass(t *testing.T) {
	// Duplicates are structurally valid; the second bring-up of the same
	// channel fails at claim time instead.
	if _, err := Parse([]byte("name: x\ncompatible: y\ninterrupts: [1, 2]\ntimers: [0, 0]\n")); err != nil {
		t.Errorf("duplicate timers rejected at parse: %v", err)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.yaml")
	content := "name: disk\ncompatible: ingenic,jz4770-tcu\ninterrupts: [27]\ntimers: [0]\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	d, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if d.Name != "disk" || d.Channels() != 1 {
		t.Errorf("loaded %+v", d)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("loading a missing file succeeded")
	}
}

func TestEmbeddedProfiles(t *testing.T) {
	names := Profiles()
	if len(names) == 0 {
		t.Fatal("no embedded profiles")
	}

	want := map[string]string{
		"jz4740": "ingenic,jz4740-tcu",
		"jz4770": "ingenic,jz4770-tcu",
		"jz4780": "ingenic,jz4780-tcu",
	}
	for name, compatible := range want {
		d, err := Profile(name)
		if err != nil {
			t.Errorf("Profile(%q): %v", name, err)
			continue
		}
		if d.Compatible != compatible {
			t.Errorf("%s compatible: got %q, want %q", name, d.Compatible, compatible)
		}
		if d.Channels() == 0 {
			t.Errorf("%s declares no channels", name)
		}
		if len(d.Timers) == 0 {
			t.Errorf("%s brings up no event channels", name)
		}
		for c := 0; c < d.Channels(); c++ {
			if _, ok := d.Clocks[d.ClockName(uint(c))]; !ok {
				t.Errorf("%s: no clock rate for channel %d", name, c)
			}
		}
	}

	if _, err := Profile("jz9999"); !errors.Is(err, ErrUnknownProfile) {
		t.Errorf("unknown profile: got %v, want ErrUnknownProfile", err)
	}
}
