package main

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"v2t/audio"
	"v2t/beep"
	"v2t/encoder"
	"v2t/log"
	"v2t/notify"
	"v2t/settings"
	"v2t/transcriber"
)

// runTestMode drives the controller headlessly from stdin commands:
// TOGGLE starts or stops a recording, WAIT blocks until the in-flight
// take is finished, SLEEP <ms> pauses the driver, QUIT exits. The WAV
// file stands in for the microphone; every recording hears it once.
func runTestMode(wavPath string, store *settings.Store, disp *transcriber.Dispatcher) {
	beep.Disable()

	samples, err := readWAV(wavPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading WAV: %v\n", err)
		os.Exit(1)
	}

	fakeCtx := audio.NewFakeContext()
	ctrl := NewController(ControllerConfig{
		Audio:      fakeCtx,
		Settings:   store,
		Dispatcher: disp,
		Notifier:   notify.NewFake(),
		ReadClip:   func() (string, error) { return "", nil },
		CopyText: func(text string) error {
			fmt.Printf("COPIED %s\n", text)
			return nil
		},
		SendPaste: func() error { return nil },
		PlayStart: func() {},
		PlayEnd:   func() {},
		PlayError: func() {},
	})

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		cmd := strings.TrimSpace(scanner.Text())
		switch {
		case cmd == "TOGGLE":
			ctrl.Toggle()
			if ctrl.State() == stateRecording {
				fakeCtx.Last().Feed(samples)
			}
		case cmd == "WAIT":
			select {
			case res := <-ctrl.Results():
				ctrl.Finish(res)
				if res.Success {
					fmt.Printf("RESULT %s\n", res.Text)
				} else {
					fmt.Printf("ERROR %s\n", res.ErrDetail)
				}
			case <-time.After(60 * time.Second):
				fmt.Println("ERROR wait timed out")
			}
		case cmd == "QUIT":
			ctrl.Shutdown()
			return
		case strings.HasPrefix(cmd, "SLEEP "):
			if ms, err := strconv.Atoi(cmd[6:]); err == nil {
				time.Sleep(time.Duration(ms) * time.Millisecond)
			}
		default:
			if cmd != "" {
				log.Warnf("test driver: unknown command %q", cmd)
			}
		}
	}
}

// readWAV pulls the 16-bit little-endian samples out of a canonical
// RIFF file, trusting the 44-byte header layout this tool writes.
func readWAV(path string) ([]int16, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) < encoder.WAVHeaderSize || string(data[0:4]) != "RIFF" {
		return nil, fmt.Errorf("%s: not a WAV file", path)
	}
	body := data[encoder.WAVHeaderSize:]
	samples := make([]int16, len(body)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(body[i*2:]))
	}
	return samples, nil
}
