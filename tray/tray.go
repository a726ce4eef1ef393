package tray

import (
	"sync"

	"fyne.io/systray"
)

type Language struct {
	Code  string // ISO-639-1
	Label string
}

// Languages the whisper family handles well.
var Languages = []Language{
	{"zh", "Chinese"},
	{"nl", "Dutch"},
	{"en", "English"},
	{"fr", "French"},
	{"de", "German"},
	{"hi", "Hindi"},
	{"id", "Indonesian"},
	{"it", "Italian"},
	{"ja", "Japanese"},
	{"ko", "Korean"},
	{"pl", "Polish"},
	{"pt", "Portuguese"},
	{"ru", "Russian"},
	{"es", "Spanish"},
	{"sv", "Swedish"},
	{"tr", "Turkish"},
	{"uk", "Ukrainian"},
	{"vi", "Vietnamese"},
}

// Callbacks are invoked from the tray's own goroutines.
type Callbacks struct {
	OnToggle    func()
	OnCopyLast  func()
	OnAutoPaste func(bool)
	OnSound     func(bool)
	OnOnline    func(bool)
	OnLanguage  func(string)
	OnDevice    func(index int) // -1 selects the system default
	OnQuit      func()
}

// Options seed the menu's initial state.
type Options struct {
	AutoPaste   bool
	Sound       bool
	Online      bool
	Language    string
	Devices     []string
	DeviceIndex int // -1 means system default
}

var (
	quitCh    = make(chan struct{})
	closeOnce sync.Once

	mRecord *systray.MenuItem
	mCopy   *systray.MenuItem

	recMu     sync.Mutex
	recording bool
)

// Run starts the tray loop on its own goroutine and returns a channel
// closed when the user quits from the menu.
func Run(opts Options, cb Callbacks) <-chan struct{} {
	go systray.Run(func() { onReady(opts, cb) }, func() {
		if cb.OnQuit != nil {
			cb.OnQuit()
		}
	})
	return quitCh
}

func onReady(opts Options, cb Callbacks) {
	systray.SetTemplateIcon(iconIdle, iconIdle)
	systray.SetTooltip("v2t – press the hotkey to dictate")

	mCopy = systray.AddMenuItem("Copy Last Transcript", "Copy the last transcription to the clipboard")
	mCopy.Disable()
	clickLoop(mCopy, func() {
		if cb.OnCopyLast != nil {
			cb.OnCopyLast()
		}
	})

	systray.AddSeparator()

	mRecord = systray.AddMenuItem("Start Recording", "Start or stop recording")
	clickLoop(mRecord, func() {
		if cb.OnToggle != nil {
			cb.OnToggle()
		}
	})

	mSettings := systray.AddMenuItem("Settings", "Settings")

	mDevices := mSettings.AddSubMenuItem("Microphone", "Select input device")
	deviceItems := make([]*systray.MenuItem, 0, len(opts.Devices)+1)
	addDevice := func(idx int, label string) {
		item := mDevices.AddSubMenuItemCheckbox(label, label, idx == opts.DeviceIndex)
		pos := len(deviceItems)
		deviceItems = append(deviceItems, item)
		clickLoop(item, func() {
			for _, it := range deviceItems {
				it.Uncheck()
			}
			deviceItems[pos].Check()
			if cb.OnDevice != nil {
				cb.OnDevice(idx)
			}
		})
	}
	addDevice(-1, "System default")
	for i, name := range opts.Devices {
		addDevice(i, name)
	}

	mAutoPaste := mSettings.AddSubMenuItemCheckbox("Auto-paste", "Paste transcribed text into the focused app", opts.AutoPaste)
	checkboxLoop(mAutoPaste, cb.OnAutoPaste)

	mSound := mSettings.AddSubMenuItemCheckbox("Sounds", "Play start and stop sounds", opts.Sound)
	checkboxLoop(mSound, cb.OnSound)

	mOnline := mSettings.AddSubMenuItemCheckbox("Online Transcription", "Use the hosted API instead of local whisper", opts.Online)
	checkboxLoop(mOnline, cb.OnOnline)

	mLanguage := mSettings.AddSubMenuItem("Language", "Select transcription language")
	langItems := make([]*systray.MenuItem, len(Languages))
	for i, lang := range Languages {
		idx := i
		item := mLanguage.AddSubMenuItemCheckbox(lang.Label, lang.Label, lang.Code == opts.Language)
		langItems[i] = item
		clickLoop(item, func() {
			for _, it := range langItems {
				it.Uncheck()
			}
			langItems[idx].Check()
			if cb.OnLanguage != nil {
				cb.OnLanguage(Languages[idx].Code)
			}
		})
	}

	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit", "Quit v2t")
	clickLoop(mQuit, Quit)
}

func clickLoop(item *systray.MenuItem, fn func()) {
	go func() {
		for range item.ClickedCh {
			fn()
		}
	}()
}

func checkboxLoop(item *systray.MenuItem, fn func(bool)) {
	go func() {
		for range item.ClickedCh {
			if item.Checked() {
				item.Uncheck()
			} else {
				item.Check()
			}
			if fn != nil {
				fn(item.Checked())
			}
		}
	}()
}

// SetRecording flips the icon and record item between idle and recording.
func SetRecording(rec bool) {
	recMu.Lock()
	recording = rec
	recMu.Unlock()
	if rec {
		systray.SetIcon(iconRec)
		if mRecord != nil {
			mRecord.SetTitle("Stop Recording")
		}
	} else {
		systray.SetTemplateIcon(iconIdle, iconIdle)
		if mRecord != nil {
			mRecord.SetTitle("Start Recording")
		}
	}
}

// SetTranscribing shows the busy icon while a take is at the backend.
func SetTranscribing(on bool) {
	if on {
		systray.SetIcon(iconBusy)
	} else {
		SetRecording(false)
	}
}

// SetLastTranscript enables the copy item and shows a short preview.
func SetLastTranscript(title string) {
	if mCopy != nil {
		mCopy.SetTitle("Copy Last: " + title)
		mCopy.Enable()
	}
}

// Quit tears down the tray and releases Run's channel.
func Quit() {
	closeOnce.Do(func() {
		close(quitCh)
		systray.Quit()
	})
}
