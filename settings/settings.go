package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"v2t/hotkey"
	"v2t/log"
)

const (
	MinSilenceSeconds     = 2
	MaxSilenceSeconds     = 15
	DefaultSilenceSeconds = 3
)

// Settings is everything the user can configure. The zero value is not
// useful; start from Default.
type Settings struct {
	// MicIndex selects a capture device by enumeration index. nil means
	// the system default.
	MicIndex *int `json:"mic_index"`

	Language  string `json:"language"`
	Hotkey    string `json:"hotkey"`
	UseOnline bool   `json:"use_online"`
	AutoPaste bool   `json:"auto_paste"`

	SoundEnabled   bool `json:"sound_enabled"`
	SilenceEnabled bool `json:"silence_detection_enabled"`
	SilenceSeconds int  `json:"silence_threshold_seconds"`
}

func Default() Settings {
	return Settings{
		Language:       "en",
		Hotkey:         hotkey.DefaultBinding,
		UseOnline:      true,
		AutoPaste:      true,
		SoundEnabled:   true,
		SilenceEnabled: false,
		SilenceSeconds: DefaultSilenceSeconds,
	}
}

// normalize repairs values that drifted out of range, from hand-edited
// files or older versions.
func (s *Settings) normalize() {
	s.Language = strings.ToLower(strings.TrimSpace(s.Language))
	if len(s.Language) > 2 {
		s.Language = s.Language[:2]
	}
	if s.Language == "" {
		s.Language = "en"
	}

	if _, err := hotkey.ParseChord(s.Hotkey); err != nil {
		s.Hotkey = hotkey.DefaultBinding
	}

	if s.SilenceSeconds < MinSilenceSeconds {
		s.SilenceSeconds = MinSilenceSeconds
	}
	if s.SilenceSeconds > MaxSilenceSeconds {
		s.SilenceSeconds = MaxSilenceSeconds
	}
}

// Store persists Settings as JSON and watches the file for edits made
// outside the app.
type Store struct {
	path string

	mu      sync.Mutex
	current Settings

	changed  chan struct{}
	stop     chan struct{}
	stopOnce sync.Once
}

// Open loads settings from path, creating the file with defaults when it
// does not exist. A malformed file is replaced with defaults.
func Open(path string) (*Store, error) {
	s := &Store{
		path:    path,
		current: Default(),
		changed: make(chan struct{}, 1),
		stop:    make(chan struct{}),
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		if err := s.save(); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, fmt.Errorf("reading settings: %w", err)
	default:
		loaded := Default()
		if jsonErr := json.Unmarshal(data, &loaded); jsonErr != nil {
			log.Warnf("settings file malformed, resetting to defaults: %v", jsonErr)
			loaded = Default()
		}
		loaded.normalize()
		s.current = loaded
		// Write back so clamped values and new keys land in the file.
		if err := s.save(); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Get returns a snapshot. Mutating the result has no effect on the store.
func (s *Store) Get() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Update applies fn to the current settings and persists the result.
func (s *Store) Update(fn func(*Settings)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.current
	fn(&next)
	next.normalize()
	s.current = next
	return s.save()
}

// save writes atomically; callers hold s.mu (or are in Open before the
// store escapes).
func (s *Store) save() error {
	data, err := json.MarshalIndent(s.current, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("creating settings dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing settings: %w", err)
	}
	return nil
}

// Changed signals after the settings file is modified outside this
// process. Signals are coalesced.
func (s *Store) Changed() <-chan struct{} {
	return s.changed
}

// reload reads the file after an external change.
func (s *Store) reload() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return
	}
	loaded := Default()
	if err := json.Unmarshal(data, &loaded); err != nil {
		log.Warnf("ignoring malformed settings edit: %v", err)
		return
	}
	loaded.normalize()

	s.mu.Lock()
	same := equal(loaded, s.current)
	if !same {
		s.current = loaded
	}
	s.mu.Unlock()

	if !same {
		select {
		case s.changed <- struct{}{}:
		default:
		}
	}
}

func equal(a, b Settings) bool {
	if (a.MicIndex == nil) != (b.MicIndex == nil) {
		return false
	}
	if a.MicIndex != nil && *a.MicIndex != *b.MicIndex {
		return false
	}
	a.MicIndex, b.MicIndex = nil, nil
	return a == b
}

// Close stops the watcher goroutine.
func (s *Store) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// Path returns the backing file location.
func (s *Store) Path() string { return s.path }
