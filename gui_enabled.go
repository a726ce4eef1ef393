//go:build gui

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"v2t/audio"
	"v2t/gui"
	"v2t/hotkey"
	"v2t/settings"
	"v2t/transcriber"
)

// initGUI opens the settings window instead of the recording loop. A
// running daemon picks the saved changes up through the settings
// watcher.
func initGUI() {
	runtime.LockOSThread()

	cfgDir, err := configDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	store, err := settings.Open(filepath.Join(cfgDir, "settings.json"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: opening settings: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	var names []string
	if actx, err := audio.NewContext(); err == nil {
		if devices, err := actx.Devices(); err == nil {
			for _, d := range devices {
				names = append(names, d.Name)
			}
		}
		actx.Close()
	}

	capture := func(timeout time.Duration) (string, error) {
		l, err := hotkey.NewListener(store.Get().Hotkey)
		if err != nil {
			return "", err
		}
		if err := l.Register(); err != nil {
			return "", err
		}
		defer l.Unregister()
		return l.Capture(timeout)
	}

	err = gui.RunSettings(gui.Config{
		Store:      store,
		Devices:    names,
		APIKey:     transcriber.GroqAPIKey(cfgDir),
		SaveAPIKey: func(key string) error { return transcriber.SaveGroqAPIKey(cfgDir, key) },
		CaptureKey: capture,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
