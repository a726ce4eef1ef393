package hotkey

import (
	"fmt"
	"strings"
)

// Chord is a parsed hotkey descriptor: zero or more modifiers plus one
// terminal key.
type Chord struct {
	Ctrl  bool
	Shift bool
	Alt   bool
	Super bool
	Key   string
}

var knownKeys = buildKnownKeys()

func buildKnownKeys() map[string]struct{} {
	keys := map[string]struct{}{
		"space": {},
		"enter": {},
		"tab":   {},
		"esc":   {},
	}
	for c := 'a'; c <= 'z'; c++ {
		keys[string(c)] = struct{}{}
	}
	for c := '0'; c <= '9'; c++ {
		keys[string(c)] = struct{}{}
	}
	for i := 1; i <= 12; i++ {
		keys[fmt.Sprintf("f%d", i)] = struct{}{}
	}
	return keys
}

// ParseChord parses a descriptor like "ctrl+shift+space" or "f8".
// Matching is case-insensitive; modifier order does not matter.
func ParseChord(descriptor string) (Chord, error) {
	var c Chord
	tokens := strings.Split(strings.ToLower(strings.TrimSpace(descriptor)), "+")
	for i, tok := range tokens {
		tok = strings.TrimSpace(tok)
		last := i == len(tokens)-1
		switch tok {
		case "ctrl", "control":
			c.Ctrl = true
		case "shift":
			c.Shift = true
		case "alt", "option":
			c.Alt = true
		case "super", "cmd", "meta", "win":
			c.Super = true
		default:
			if !last {
				return Chord{}, fmt.Errorf("unknown modifier %q in %q", tok, descriptor)
			}
			if _, ok := knownKeys[tok]; !ok {
				return Chord{}, fmt.Errorf("unknown key %q in %q", tok, descriptor)
			}
			c.Key = tok
		}
	}
	if c.Key == "" {
		return Chord{}, fmt.Errorf("descriptor %q has no terminal key", descriptor)
	}
	return c, nil
}

func (c Chord) String() string {
	var parts []string
	if c.Ctrl {
		parts = append(parts, "ctrl")
	}
	if c.Shift {
		parts = append(parts, "shift")
	}
	if c.Alt {
		parts = append(parts, "alt")
	}
	if c.Super {
		parts = append(parts, "super")
	}
	parts = append(parts, c.Key)
	return strings.Join(parts, "+")
}
