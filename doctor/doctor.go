package doctor

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"v2t/audio"
	"v2t/clipboard"
	"v2t/hotkey"
	"v2t/paste"
	"v2t/transcriber"
)

// Run executes the environment checks and returns an exit code
// (0 = ready, 1 = something needs fixing). Warnings do not fail the run:
// a missing API key just means offline-only operation.
func Run() int {
	resetTerminal()
	setupInterruptHandler()

	fmt.Println("v2t doctor - system diagnostics")
	fmt.Println("===============================")

	allPass := true
	if !checkAudio() {
		allPass = false
	}
	if !checkMicrophone() {
		allPass = false
	}
	if !checkHotkey() {
		allPass = false
	}
	if !checkClipboard() {
		allPass = false
	}
	if !checkPaste() {
		allPass = false
	}
	checkGroqKey()
	checkWhisper()

	fmt.Println()
	if allPass {
		fmt.Println("All checks passed!")
		return 0
	}
	fmt.Println("Some checks failed. See details above.")
	return 1
}

func checkAudio() bool {
	fmt.Println()
	fmt.Println("[1/7] Audio devices")

	ctx, err := audio.NewContext()
	if err != nil {
		fmt.Printf("  FAIL: cannot connect to audio: %v\n", err)
		return false
	}
	defer ctx.Close()

	devices, err := ctx.Devices()
	if err != nil {
		fmt.Printf("  FAIL: cannot list devices: %v\n", err)
		return false
	}
	if len(devices) == 0 {
		fmt.Println("  FAIL: no capture devices found")
		return false
	}
	for _, d := range devices {
		fmt.Printf("  %d. %s\n", d.Index, d.Name)
	}
	fmt.Printf("  PASS: %d capture device(s)\n", len(devices))
	return true
}

func checkMicrophone() bool {
	fmt.Println()
	fmt.Println("[2/7] Microphone capture (recording 2 seconds, say something)")

	ctx, err := audio.NewContext()
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}
	defer ctx.Close()

	peak := 0.0
	sess, err := audio.StartSession(ctx, nil, audio.DefaultConfig(), func(level float64, _ time.Time) {
		if level > peak {
			peak = level
		}
	})
	if err != nil {
		fmt.Printf("  FAIL: cannot open default device: %v\n", err)
		return false
	}
	time.Sleep(2 * time.Second)
	samples, dur := sess.Stop()

	if len(samples) == 0 {
		fmt.Println("  FAIL: no audio captured")
		return false
	}
	fmt.Printf("  captured %.1fs, peak level %.3f\n", dur.Seconds(), peak)
	if peak < 0.02 {
		fmt.Println("  WARN: only silence heard (wrong device, or muted?)")
	}
	fmt.Println("  PASS: microphone delivers audio")
	return true
}

func checkHotkey() bool {
	fmt.Println()
	fmt.Println("[3/7] Hotkey listener")

	if msg, err := hotkey.Diagnose(); err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	} else if msg != "" {
		fmt.Printf("  %s\n", msg)
	}

	hk, err := hotkey.NewListener(hotkey.DefaultBinding)
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}
	if err := hk.Register(); err != nil {
		fmt.Printf("  FAIL: could not register %s: %v\n", hotkey.DefaultBinding, err)
		return false
	}
	defer hk.Unregister()

	fmt.Printf("  Press %s within 10 seconds...\n", hk.Binding())
	select {
	case <-hk.Toggled():
		resetTerminal()
		fmt.Println("  PASS: hotkey detected")
		return true
	case <-time.After(10 * time.Second):
		fmt.Println("  FAIL: timeout waiting for hotkey")
		return false
	}
}

func checkClipboard() bool {
	fmt.Println()
	fmt.Println("[4/7] Clipboard roundtrip")

	sentinel := fmt.Sprintf("v2t-doctor-%d", time.Now().UnixNano())

	type cbResult struct {
		readback string
		err      error
	}
	ch := make(chan cbResult, 1)
	go func() {
		if err := clipboard.Copy(sentinel); err != nil {
			ch <- cbResult{err: err}
			return
		}
		got, err := clipboard.Read()
		ch <- cbResult{readback: got, err: err}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			fmt.Printf("  FAIL: %v\n", res.err)
			return false
		}
		if res.readback != sentinel {
			fmt.Printf("  FAIL: wrote %q, read back %q\n", sentinel, res.readback)
			return false
		}
		fmt.Println("  PASS: clipboard write/read verified")
		return true
	case <-time.After(3 * time.Second):
		fmt.Println("  FAIL: clipboard timed out (compositor not accessible?)")
		return false
	}
}

func checkPaste() bool {
	fmt.Println()
	fmt.Println("[5/7] Paste keystroke")

	if err := paste.Init(); err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		fmt.Println("  Fix with: sudo chmod 660 /dev/uinput && sudo chgrp input /dev/uinput")
		return false
	}
	msg, err := paste.Verify()
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}
	fmt.Printf("  PASS: %s\n", msg)
	return true
}

func checkGroqKey() {
	fmt.Println()
	fmt.Println("[6/7] Groq API key")

	cfgDir, err := os.UserConfigDir()
	if err != nil {
		fmt.Printf("  WARN: %v\n", err)
		return
	}
	if key := transcriber.GroqAPIKey(filepath.Join(cfgDir, "v2t")); key == "" {
		fmt.Println("  WARN: no API key (set GROQ_API_KEY or the credentials file); online transcription disabled")
	} else {
		fmt.Println("  PASS: API key configured")
	}
}

func checkWhisper() {
	fmt.Println()
	fmt.Println("[7/7] Offline transcription (whisper.cpp)")

	cfgDir, err := os.UserConfigDir()
	if err != nil {
		fmt.Printf("  WARN: %v\n", err)
		return
	}
	local := transcriber.NewWhisperLocal(filepath.Join(cfgDir, "v2t", "models"))
	if err := local.Available(); err != nil {
		fmt.Printf("  WARN: %v; offline transcription disabled\n", err)
		return
	}
	fmt.Println("  PASS: whisper.cpp binary found (model downloads on first use)")
}
