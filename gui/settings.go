//go:build gui

package gui

import (
	"fmt"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"v2t/hotkey"
	"v2t/settings"
	"v2t/tray"
)

// Config carries everything the settings window edits besides the store
// itself.
type Config struct {
	Store   *settings.Store
	Devices []string // enumeration order matches device indexes

	APIKey     string
	SaveAPIKey func(string) error

	// CaptureKey waits for the next chord press and returns its
	// descriptor. Nil when the platform cannot observe raw keys; the
	// window then falls back to typed entry only.
	CaptureKey func(timeout time.Duration) (string, error)
}

// RunSettings opens the settings window and blocks until it closes.
func RunSettings(cfg Config) error {
	a := app.NewWithID("io.v2t.settings")
	a.Settings().SetTheme(&darkTheme{})
	w := a.NewWindow("v2t settings")

	snap := cfg.Store.Get()

	deviceOptions := append([]string{"System default"}, cfg.Devices...)
	deviceSel := widget.NewSelect(deviceOptions, nil)
	if snap.MicIndex != nil && *snap.MicIndex >= 0 && *snap.MicIndex < len(cfg.Devices) {
		deviceSel.SetSelectedIndex(*snap.MicIndex + 1)
	} else {
		deviceSel.SetSelectedIndex(0)
	}

	langOptions := make([]string, len(tray.Languages))
	langSelected := 0
	for i, l := range tray.Languages {
		langOptions[i] = fmt.Sprintf("%s (%s)", l.Label, l.Code)
		if l.Code == snap.Language {
			langSelected = i
		}
	}
	langSel := widget.NewSelect(langOptions, nil)
	langSel.SetSelectedIndex(langSelected)

	hotkeyEntry := widget.NewEntry()
	hotkeyEntry.SetText(snap.Hotkey)
	hotkeyEntry.Validator = func(text string) error {
		_, err := hotkey.ParseChord(text)
		return err
	}

	captureBtn := widget.NewButton("Capture", func() {
		hotkeyEntry.SetPlaceHolder("press a key...")
		hotkeyEntry.SetText("")
		go func() {
			desc, err := cfg.CaptureKey(10 * time.Second)
			fyne.Do(func() {
				if err != nil {
					hotkeyEntry.SetText(snap.Hotkey)
					dialog.ShowError(fmt.Errorf("capture failed: %w", err), w)
					return
				}
				hotkeyEntry.SetText(desc)
			})
		}()
	})
	if cfg.CaptureKey == nil {
		captureBtn.Disable()
	}

	onlineCheck := widget.NewCheck("Use online transcription (Groq)", nil)
	onlineCheck.SetChecked(snap.UseOnline)
	pasteCheck := widget.NewCheck("Auto-paste into focused window", nil)
	pasteCheck.SetChecked(snap.AutoPaste)
	soundCheck := widget.NewCheck("Sound cues", nil)
	soundCheck.SetChecked(snap.SoundEnabled)

	silenceCheck := widget.NewCheck("Stop recording after silence", nil)
	silenceCheck.SetChecked(snap.SilenceEnabled)
	silenceLabel := widget.NewLabel(fmt.Sprintf("%d s", snap.SilenceSeconds))
	silenceSlider := widget.NewSlider(settings.MinSilenceSeconds, settings.MaxSilenceSeconds)
	silenceSlider.Step = 1
	silenceSlider.Value = float64(snap.SilenceSeconds)
	silenceSlider.OnChanged = func(v float64) {
		silenceLabel.SetText(fmt.Sprintf("%d s", int(v)))
	}

	keyEntry := widget.NewPasswordEntry()
	keyEntry.SetText(cfg.APIKey)
	keyEntry.SetPlaceHolder("gsk_...")

	save := func() {
		desc := hotkeyEntry.Text
		if _, err := hotkey.ParseChord(desc); err != nil {
			dialog.ShowError(fmt.Errorf("invalid hotkey %q: %w", desc, err), w)
			return
		}
		cfg.Store.Update(func(s *settings.Settings) {
			if idx := deviceSel.SelectedIndex(); idx <= 0 {
				s.MicIndex = nil
			} else {
				mic := idx - 1
				s.MicIndex = &mic
			}
			if idx := langSel.SelectedIndex(); idx >= 0 {
				s.Language = tray.Languages[idx].Code
			}
			s.Hotkey = desc
			s.UseOnline = onlineCheck.Checked
			s.AutoPaste = pasteCheck.Checked
			s.SoundEnabled = soundCheck.Checked
			s.SilenceEnabled = silenceCheck.Checked
			s.SilenceSeconds = int(silenceSlider.Value)
		})
		if cfg.SaveAPIKey != nil && keyEntry.Text != cfg.APIKey {
			if err := cfg.SaveAPIKey(keyEntry.Text); err != nil {
				dialog.ShowError(err, w)
				return
			}
		}
		w.Close()
	}

	form := widget.NewForm(
		widget.NewFormItem("Microphone", deviceSel),
		widget.NewFormItem("Language", langSel),
		widget.NewFormItem("Hotkey", container.NewBorder(nil, nil, nil, captureBtn, hotkeyEntry)),
		widget.NewFormItem("Silence", container.NewBorder(nil, nil, silenceCheck, silenceLabel, silenceSlider)),
		widget.NewFormItem("Groq API key", keyEntry),
	)

	w.SetContent(container.NewVBox(
		form,
		onlineCheck,
		pasteCheck,
		soundCheck,
		container.NewHBox(
			widget.NewButton("Cancel", func() { w.Close() }),
			widget.NewButton("Save", save),
		),
	))
	w.Resize(fyne.NewSize(460, 420))
	w.ShowAndRun()
	return nil
}
