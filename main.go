package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/exec"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"v2t/audio"
	"v2t/beep"
	"v2t/clipboard"
	"v2t/doctor"
	"v2t/history"
	"v2t/hotkey"
	"v2t/log"
	"v2t/login"
	"v2t/paste"
	"v2t/settings"
	"v2t/shutdown"
	"v2t/transcriber"
	"v2t/tray"
	"v2t/update"
)

var version = "dev"

var shutdownOnce sync.Once

// traySink mirrors controller state into the tray menu.
type traySink struct{}

func (traySink) RecordingStarted(string) { tray.SetRecording(true) }
func (traySink) RecordingStopped()       { tray.SetRecording(false) }
func (traySink) RecordingTick(float64)   {}
func (traySink) AudioLevel(float64)      {}
func (traySink) TranscribingStarted()    { tray.SetTranscribing(true) }
func (traySink) Notice(string)           {}

func (traySink) TranscriptionDone(res transcriber.Result) {
	tray.SetTranscribing(false)
	if res.Success && res.Text != "" {
		tray.SetLastTranscript(history.Title(res.Text))
	}
}

// initCrashLog runs before any CGO code. Panics land in a crash file
// next to the diagnostics log.
func initCrashLog() {
	dir, err := log.ResolveDir("")
	if err != nil {
		return
	}
	log.SetDir(dir)
	if err := log.EnsureDir(); err != nil {
		return
	}
	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	f, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	fmt.Fprintf(f, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
	debug.SetCrashOutput(f, debug.CrashOptions{})
}

func configDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving config dir: %w", err)
	}
	dir := filepath.Join(base, "v2t")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating config dir: %w", err)
	}
	return dir, nil
}

func modeLineText(snap settings.Settings) string {
	backend := "whisper-local"
	if snap.UseOnline {
		backend = "groq"
	}
	return fmt.Sprintf("[%s | %s]", backend, snap.Language)
}

func deviceLineText(snap settings.Settings, devices []audio.DeviceInfo) string {
	name := "system default"
	if snap.MicIndex != nil {
		for i := range devices {
			if devices[i].Index == *snap.MicIndex {
				name = devices[i].Name
				break
			}
		}
	}
	return "mic: " + name
}

func run() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "update":
			runUpdate()
			return
		case "history":
			os.Exit(runHistory(os.Args[2:]))
		}
	}

	setupFlag := flag.Bool("setup", false, "Select microphone device and save it to settings")
	langFlag := flag.String("lang", "", "Override transcription language and persist it (e.g. en, es, fr)")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	doctorFlag := flag.Bool("doctor", false, "Run system diagnostics and exit")
	crashFlag := flag.Bool("crash", false, "Trigger synthetic panic for testing crash logging")
	logPathFlag := flag.String("logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	profileFlag := flag.String("profile", "", "Enable pprof profiling server (e.g., :6060 or localhost:6060)")
	testFlag := flag.Bool("test", false, "Test mode (headless, stdin-driven)")
	tuiFlag := flag.Bool("tui", true, "Run with terminal UI")
	loginFlag := flag.String("login", "", "Manage launch at login: status, enable or disable (macOS)")
	flag.Parse()

	if *loginFlag != "" {
		os.Exit(runLogin(*loginFlag))
	}

	logPath, err := log.ResolveDir(*logPathFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)
	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	}

	if *profileFlag != "" {
		go func() {
			fmt.Fprintf(os.Stderr, "pprof server listening on http://%s/debug/pprof/\n", *profileFlag)
			if err := http.ListenAndServe(*profileFlag, nil); err != nil {
				fmt.Fprintf(os.Stderr, "pprof server error: %v\n", err)
			}
		}()
	}

	if *crashFlag {
		panic("TEST CRASH: synthetic panic to verify crash logging")
	}

	if *versionFlag {
		fmt.Printf("v2t %s\n", version)
		os.Exit(0)
	}

	if *doctorFlag {
		os.Exit(doctor.Run())
	}

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
	if err := store.Watch(); err != nil {
		log.Warnf("settings watch unavailable: %v", err)
	}

	if *langFlag != "" {
		store.Update(func(s *settings.Settings) { s.Language = *langFlag })
	}

	if *setupFlag {
		actx, err := audio.NewContext()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error initializing audio: %v\n", err)
			os.Exit(1)
		}
		dev, err := audio.SelectDevice(actx)
		actx.Close()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: device selection failed: %v\n", err)
		} else {
			store.Update(func(s *settings.Settings) {
				if dev == nil {
					s.MicIndex = nil
				} else {
					idx := dev.Index
					s.MicIndex = &idx
				}
			})
		}
	}

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}

	snap := store.Get()
	beep.SetEnabled(snap.SoundEnabled)
	log.Infof("session_start version=%s online=%v lang=%s", version, snap.UseOnline, snap.Language)

	online := transcriber.NewGroq(transcriber.GroqAPIKey(cfgDir))
	offline := transcriber.NewWhisperLocal(filepath.Join(cfgDir, "models"))
	disp := transcriber.NewDispatcher(online, offline)
	if snap.UseOnline && online.Available() == nil {
		go online.WarmConnection()
	}

	if *testFlag {
		args := flag.Args()
		if len(args) == 0 {
			fmt.Fprintln(os.Stderr, "Usage: v2t -test <wav-file>")
			os.Exit(1)
		}
		runTestMode(args[0], store, disp)
		return
	}

	// Daemonize in non-TUI mode: re-exec in background, return the prompt.
	if !*tuiFlag && os.Getenv("_V2T_BG") == "" {
		exe, _ := os.Executable()
		cmd := exec.Command(exe, os.Args[1:]...)
		cmd.Env = append(os.Environ(), "_V2T_BG=1")
		devnull, _ := os.Open(os.DevNull)
		cmd.Stdin, cmd.Stdout, cmd.Stderr = devnull, devnull, devnull
		if err := cmd.Start(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	hist, err := history.Open(context.Background(), filepath.Join(cfgDir, "history.db"))
	if err != nil {
		log.Warnf("history disabled: %v", err)
		hist = nil
	}

	if snap.AutoPaste {
		if err := paste.Init(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: paste init failed: %v\n", err)
			log.Warnf("paste init failed: %v", err)
		}
	}

	actx, err := audio.NewContext()
	if err != nil {
		log.Errorf("audio context init error: %v", err)
		fmt.Fprintf(os.Stderr, "Error initializing audio context: %v\n", err)
		os.Exit(1)
	}

	go beep.Init()

	// Start TUI
	var sink EventSink = nopSink{}
	if !*tuiFlag {
		tuiReadyOnce.Do(func() { close(tuiReady) })
	} else {
		tuiMu.Lock()
		tuiProgram = NewTUIProgram()
		tuiMu.Unlock()
		sink = tuiSink{}
	}

	ctrl := NewController(ControllerConfig{
		Audio:      actx,
		Settings:   store,
		Dispatcher: disp,
		History:    hist,
		Sink:       multiSink{sink, traySink{}},
	})

	hk, err := hotkey.NewListener(snap.Hotkey)
	if err != nil {
		log.Warnf("hotkey %q rejected, using default: %v", snap.Hotkey, err)
		hk, err = hotkey.NewListener(hotkey.DefaultBinding)
	}
	if err == nil {
		err = hk.Register()
	}
	if err != nil {
		log.Errorf("hotkey register error: %v", err)
		fmt.Fprintf(os.Stderr, "Error registering hotkey: %v\n", err)
		os.Exit(1)
	}

	gracefulShutdown := func() {
		shutdownOnce.Do(func() {
			ctrl.Shutdown()
			hk.Unregister()
			actx.Close()
			if hist != nil {
				hist.Close()
			}
			store.Close()
			log.Info("session_end")
			log.Close()
			tray.Quit()
			tuiMu.Lock()
			p := tuiProgram
			tuiMu.Unlock()
			if p != nil {
				p.Quit()
			}
			os.Exit(0)
		})
	}

	if *tuiFlag {
		go func() {
			if _, err := tuiProgram.Run(); err != nil {
				log.Errorf("TUI error: %v", err)
				os.Exit(1)
			}
			gracefulShutdown()
		}()
		<-tuiReady
	}

	toggleCh := make(chan struct{}, 1)
	devices, _ := actx.Devices()
	names := make([]string, len(devices))
	for i := range devices {
		names[i] = devices[i].Name
	}
	devIndex := -1
	if snap.MicIndex != nil {
		devIndex = *snap.MicIndex
	}

	trayQuit := tray.Run(tray.Options{
		AutoPaste:   snap.AutoPaste,
		Sound:       snap.SoundEnabled,
		Online:      snap.UseOnline,
		Language:    snap.Language,
		Devices:     names,
		DeviceIndex: devIndex,
	}, tray.Callbacks{
		OnToggle: func() {
			select {
			case toggleCh <- struct{}{}:
			default:
			}
		},
		OnCopyLast: func() {
			if text := ctrl.LastText(); text != "" {
				clipboard.Copy(text)
			}
		},
		OnAutoPaste: func(on bool) {
			store.Update(func(s *settings.Settings) { s.AutoPaste = on })
			if on {
				if err := paste.Init(); err != nil {
					log.Warnf("paste init failed: %v", err)
				}
			}
		},
		OnSound: func(on bool) {
			store.Update(func(s *settings.Settings) { s.SoundEnabled = on })
			beep.SetEnabled(on)
		},
		OnOnline: func(on bool) {
			store.Update(func(s *settings.Settings) { s.UseOnline = on })
			if on && online.Available() == nil {
				go online.WarmConnection()
			}
			tuiSend(StatusLineMsg{Hotkey: hk.Binding(), Mode: modeLineText(store.Get()), Device: deviceLineText(store.Get(), devices)})
		},
		OnLanguage: func(code string) {
			store.Update(func(s *settings.Settings) { s.Language = code })
			tuiSend(StatusLineMsg{Hotkey: hk.Binding(), Mode: modeLineText(store.Get()), Device: deviceLineText(store.Get(), devices)})
		},
		OnDevice: func(index int) {
			store.Update(func(s *settings.Settings) {
				if index < 0 {
					s.MicIndex = nil
				} else {
					s.MicIndex = &index
				}
			})
			log.Infof("device_selected index=%d", index)
			tuiSend(StatusLineMsg{Hotkey: hk.Binding(), Mode: modeLineText(store.Get()), Device: deviceLineText(store.Get(), devices)})
		},
	})

	update.StartBackgroundCheck(version, log.Dir(), func(rel update.Release) {
		log.Info("update_available: " + rel.Version)
		tuiSend(NoticeMsg{Text: "Update available: " + rel.Version + " (run: v2t update)"})
	})

	sigChan := make(chan os.Signal, 1)
	shutdown.Notify(sigChan)
	go func() {
		select {
		case <-sigChan:
		case <-trayQuit:
		}
		gracefulShutdown()
	}()

	tuiSend(StatusLineMsg{Hotkey: hk.Binding(), Mode: modeLineText(snap), Device: deviceLineText(snap, devices)})

	applySettings := func() {
		snap := store.Get()
		beep.SetEnabled(snap.SoundEnabled)
		if snap.Hotkey != hk.Binding() {
			if err := hk.Rebind(snap.Hotkey); err != nil {
				log.Warnf("hotkey rebind to %q failed, keeping %q: %v", snap.Hotkey, hk.Binding(), err)
				tuiSend(NoticeMsg{Text: "Invalid hotkey " + snap.Hotkey + ", keeping " + hk.Binding()})
			} else {
				log.Info("hotkey_rebound: " + hk.Binding())
			}
		}
		tuiSend(StatusLineMsg{Hotkey: hk.Binding(), Mode: modeLineText(snap), Device: deviceLineText(snap, devices)})
	}

	for {
		select {
		case <-hk.Toggled():
			log.Info("hotkey_toggle")
			ctrl.Toggle()
		case <-toggleCh:
			log.Info("tray_toggle")
			ctrl.Toggle()
		case res := <-ctrl.Results():
			ctrl.Finish(res)
		case <-store.Changed():
			log.Info("settings_reloaded")
			applySettings()
		}
	}
}

func runUpdate() {
	if version == "dev" {
		fmt.Println("Dev build — cannot check for updates.")
		os.Exit(0)
	}
	fmt.Printf("v2t %s — checking for updates...\n", version)
	rel, err := update.CheckLatest(version)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	if rel == nil {
		fmt.Println("Already up to date.")
		os.Exit(0)
	}
	fmt.Printf("Update available: %s -> %s\n", version, rel.Version)
	fmt.Print("Continue? [y/N] ")
	var answer string
	fmt.Scanln(&answer)
	if answer != "y" && answer != "Y" {
		fmt.Println("Aborted.")
		os.Exit(0)
	}
	fmt.Printf("Downloading %s...\n", rel.Version)
	if err := update.Apply(rel); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Updated to %s\n", rel.Version)
	os.Exit(0)
}

func runLogin(cmd string) int {
	switch cmd {
	case "status":
		if login.Enabled() {
			fmt.Println("Launch at login: enabled")
		} else {
			fmt.Println("Launch at login: disabled")
		}
		return 0
	case "enable":
		if err := login.Enable(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		fmt.Println("Launch at login enabled.")
		return 0
	case "disable":
		if err := login.Disable(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		fmt.Println("Launch at login disabled.")
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown -login action %q (use status, enable or disable)\n", cmd)
		return 1
	}
}

// runHistory implements the "history" subcommand: list, search or clear
// stored transcripts.
func runHistory(args []string) int {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	limit := fs.Int("n", 20, "Number of entries to show")
	clear := fs.Bool("clear", false, "Delete all stored transcripts")
	fs.Parse(args)

	cfgDir, err := configDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	ctx := context.Background()
	hist, err := history.Open(ctx, filepath.Join(cfgDir, "history.db"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: opening history: %v\n", err)
		return 1
	}
	defer hist.Close()

	if *clear {
		n, _ := hist.Count(ctx)
		if err := hist.DeleteAll(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		fmt.Printf("Deleted %d transcripts.\n", n)
		return 0
	}

	var entries []history.Entry
	if query := strings.Join(fs.Args(), " "); query != "" {
		entries, err = hist.Search(ctx, query, *limit)
	} else {
		entries, err = hist.List(ctx, *limit)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if len(entries) == 0 {
		fmt.Println("No transcripts.")
		return 0
	}
	for _, e := range entries {
		backend := "local"
		if e.Online {
			backend = "online"
		}
		fmt.Printf("%s  %6.1fs  %-6s  %s\n",
			e.CreatedAt.Format("2006-01-02 15:04"), e.Duration.Seconds(), backend, e.Text)
	}
	return 0
}
