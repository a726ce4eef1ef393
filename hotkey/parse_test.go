package hotkey

import "testing"

func TestParseChord(t *testing.T) {
	tests := []struct {
		in   string
		want Chord
	}{
		{"f8", Chord{Key: "f8"}},
		{"ctrl+shift+space", Chord{Ctrl: true, Shift: true, Key: "space"}},
		{"Ctrl+Shift+Space", Chord{Ctrl: true, Shift: true, Key: "space"}},
		{"shift+ctrl+space", Chord{Ctrl: true, Shift: true, Key: "space"}},
		{"alt+x", Chord{Alt: true, Key: "x"}},
		{"cmd+v", Chord{Super: true, Key: "v"}},
		{"super+enter", Chord{Super: true, Key: "enter"}},
		{" f12 ", Chord{Key: "f12"}},
	}
	for _, tt := range tests {
		got, err := ParseChord(tt.in)
		if err != nil {
			t.Errorf("ParseChord(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseChord(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestParseChordErrors(t *testing.T) {
	for _, in := range []string{"", "ctrl", "ctrl+shift", "ctrl+bogus", "f13+a", "wibble+space"} {
		if _, err := ParseChord(in); err == nil {
			t.Errorf("ParseChord(%q): expected error", in)
		}
	}
}

func TestChordString(t *testing.T) {
	for _, desc := range []string{"f8", "ctrl+shift+space", "ctrl+alt+super+k"} {
		c, err := ParseChord(desc)
		if err != nil {
			t.Fatalf("ParseChord(%q): %v", desc, err)
		}
		if got := c.String(); got != desc {
			t.Errorf("round trip %q = %q", desc, got)
		}
	}
}
