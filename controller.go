package main

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"v2t/audio"
	"v2t/beep"
	"v2t/clipboard"
	"v2t/history"
	"v2t/log"
	"v2t/notify"
	"v2t/paste"
	"v2t/settings"
	"v2t/transcriber"
)

type ctlState int

const (
	stateIdle ctlState = iota
	stateRecording
	stateTranscribing
)

func (s ctlState) String() string {
	switch s {
	case stateRecording:
		return "recording"
	case stateTranscribing:
		return "transcribing"
	default:
		return "idle"
	}
}

// minTakeFrames is the shortest recording worth transcribing (100ms).
const minTakeFrames = audio.SampleRate / 10

const silencePollInterval = 100 * time.Millisecond

// clipRestoreDelay gives the focused window time to consume the paste
// before the previous clipboard content comes back.
var clipRestoreDelay = 600 * time.Millisecond

// Controller drives the record/transcribe cycle. Toggle may be called
// from any goroutine (hotkey listener, tray, test harness); finished
// takes cross back over Results and are delivered by Finish on whichever
// goroutine drains them.
type Controller struct {
	audio    audio.Context
	store    *settings.Store
	disp     *transcriber.Dispatcher
	hist     *history.Store // nil disables history
	notifier notify.Notifier
	sink     EventSink

	readClip  func() (string, error)
	copyText  func(string) error
	sendPaste func() error
	playStart func()
	playEnd   func()
	playError func()

	results chan transcriber.Result

	levelBits atomic.Uint64 // latest level sample, math.Float64bits

	mu       sync.Mutex
	state    ctlState
	session  *audio.Session
	stopTick chan struct{}
	lastText string
}

type ControllerConfig struct {
	Audio      audio.Context
	Settings   *settings.Store
	Dispatcher *transcriber.Dispatcher
	History    *history.Store
	Notifier   notify.Notifier
	Sink       EventSink

	// Side-effect hooks, replaceable in tests. Nil means the real thing.
	ReadClip  func() (string, error)
	CopyText  func(string) error
	SendPaste func() error
	PlayStart func()
	PlayEnd   func()
	PlayError func()
}

func NewController(cfg ControllerConfig) *Controller {
	c := &Controller{
		audio:     cfg.Audio,
		store:     cfg.Settings,
		disp:      cfg.Dispatcher,
		hist:      cfg.History,
		notifier:  cfg.Notifier,
		sink:      cfg.Sink,
		readClip:  cfg.ReadClip,
		copyText:  cfg.CopyText,
		sendPaste: cfg.SendPaste,
		playStart: cfg.PlayStart,
		playEnd:   cfg.PlayEnd,
		playError: cfg.PlayError,
		results:   make(chan transcriber.Result, 4),
	}
	if c.notifier == nil {
		c.notifier = notify.System()
	}
	if c.sink == nil {
		c.sink = nopSink{}
	}
	if c.readClip == nil {
		c.readClip = clipboard.Read
	}
	if c.copyText == nil {
		c.copyText = clipboard.Copy
	}
	if c.sendPaste == nil {
		c.sendPaste = paste.Send
	}
	if c.playStart == nil {
		c.playStart = beep.PlayStart
	}
	if c.playEnd == nil {
		c.playEnd = beep.PlayEnd
	}
	if c.playError == nil {
		c.playError = beep.PlayError
	}
	return c
}

func (c *Controller) State() ctlState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Results delivers one value per dispatched take. The control loop
// drains it and hands each value to Finish.
func (c *Controller) Results() <-chan transcriber.Result {
	return c.results
}

// LastText returns the most recent successful transcription.
func (c *Controller) LastText() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastText
}

// Toggle advances the state machine one step: Idle starts a recording,
// Recording stops it and dispatches transcription, Transcribing ignores
// the press.
func (c *Controller) Toggle() {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case stateIdle:
		c.startLocked()
	case stateRecording:
		c.stopLocked()
	case stateTranscribing:
		log.Info("toggle_ignored_busy")
		c.sink.Notice("Still transcribing")
	}
}

func (c *Controller) startLocked() {
	snap := c.store.Get()

	var dev *audio.DeviceInfo
	if snap.MicIndex != nil {
		dev = audio.DeviceByIndex(c.audio, *snap.MicIndex)
	}

	c.levelBits.Store(0)
	sess, err := audio.StartSession(c.audio, dev, audio.DefaultConfig(), c.onLevel)
	if err != nil && dev != nil {
		log.Warnf("device %q open failed, falling back to default: %v", dev.Name, err)
		sess, err = audio.StartSession(c.audio, nil, audio.DefaultConfig(), c.onLevel)
	}
	if err != nil {
		log.Errorf("recording start failed: %v", err)
		go c.playError()
		c.notifier.Notify("Recording failed", "Could not open the microphone")
		c.sink.Notice("Could not open the microphone")
		return
	}

	c.session = sess
	c.state = stateRecording
	c.stopTick = make(chan struct{})
	go c.watchSilence(sess, newSilenceDetector(snap.SilenceEnabled, snap.SilenceSeconds), c.stopTick)

	go c.playStart()
	c.sink.RecordingStarted(sess.DeviceName())
	log.Info("recording_start: " + sess.DeviceName())
}

func (c *Controller) stopLocked() {
	sess := c.session
	c.session = nil
	close(c.stopTick)
	c.stopTick = nil

	samples, dur := sess.Stop()
	go c.playEnd()
	c.sink.RecordingStopped()
	log.Infof("recording_stop: %.1fs", dur.Seconds())

	if len(samples) < minTakeFrames {
		c.state = stateIdle
		log.Info("recording_empty")
		c.notifier.Notify("v2t", "Nothing recorded")
		c.sink.Notice("Nothing recorded")
		return
	}

	c.state = stateTranscribing
	c.sink.TranscribingStarted()

	snap := c.store.Get()
	go func() {
		c.results <- c.disp.Transcribe(context.Background(), samples, snap.Language, snap.UseOnline)
	}()
}

// onLevel runs on the audio thread; it must not take c.mu.
func (c *Controller) onLevel(level float64, _ time.Time) {
	c.levelBits.Store(math.Float64bits(level))
	c.sink.AudioLevel(level)
}

// watchSilence paces the recording ticks and feeds the silence detector
// off the audio thread, so firing it can safely stop the session.
func (c *Controller) watchSilence(sess *audio.Session, det *silenceDetector, stop <-chan struct{}) {
	ticker := time.NewTicker(silencePollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			c.sink.RecordingTick(now.Sub(sess.StartedAt()).Seconds())
			if det.Sample(math.Float64frombits(c.levelBits.Load()), now) {
				log.Info("silence_auto_stop")
				c.autoStop(sess)
				return
			}
		}
	}
}

// autoStop ends the recording the same way a toggle would, but only if
// the given session is still the active one.
func (c *Controller) autoStop(sess *audio.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != stateRecording || c.session != sess {
		return
	}
	c.stopLocked()
}

// Finish applies the side effects of one completed take and re-enters
// Idle. It runs on the goroutine draining Results, never on a worker.
func (c *Controller) Finish(res transcriber.Result) {
	c.mu.Lock()
	c.state = stateIdle
	c.mu.Unlock()

	if !res.Success {
		log.Errorf("transcription failed (%s): %s", res.Backend, res.ErrDetail)
		go c.playError()
		c.notifier.Notify("Transcription failed", res.ErrDetail)
		c.sink.TranscriptionDone(res)
		return
	}
	if res.Text == "" {
		log.Info("no_speech")
		c.notifier.Notify("v2t", "No speech detected")
		c.sink.TranscriptionDone(res)
		return
	}

	snap := c.store.Get()

	prevClip := ""
	if snap.AutoPaste {
		prevClip, _ = c.readClip()
	}
	if err := c.copyText(res.Text); err != nil {
		log.Warnf("clipboard copy failed: %v", err)
	}
	if snap.AutoPaste {
		if err := c.sendPaste(); err != nil {
			log.Warnf("paste failed: %v", err)
		}
		if prevClip != "" && prevClip != res.Text {
			go func() {
				time.Sleep(clipRestoreDelay)
				c.copyText(prevClip)
			}()
		}
	}

	if c.hist != nil {
		if _, err := c.hist.Save(context.Background(), res.Text, res.Language, res.Duration, res.Online); err != nil {
			log.Warnf("history save failed: %v", err)
		}
	}

	c.mu.Lock()
	c.lastText = res.Text
	c.mu.Unlock()

	log.TranscriptionText(res.Text)
	c.notifier.Notify("Transcribed", history.Title(res.Text))
	c.sink.TranscriptionDone(res)
}

// Shutdown stops any active capture and discards its buffer. The caller
// then unregisters hotkeys and closes the audio context.
func (c *Controller) Shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopTick != nil {
		close(c.stopTick)
		c.stopTick = nil
	}
	if c.session != nil {
		c.session.Abort()
		c.session = nil
	}
	c.state = stateIdle
}
