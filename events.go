package main

import "v2t/transcriber"

// EventSink receives state changes from the controller for display.
// Implementations must not block: calls arrive from the controller's
// goroutines, including the level feed off the audio thread.
type EventSink interface {
	RecordingStarted(device string)
	RecordingStopped()
	RecordingTick(seconds float64)
	AudioLevel(level float64)
	TranscribingStarted()
	TranscriptionDone(res transcriber.Result)
	Notice(text string)
}

type nopSink struct{}

func (nopSink) RecordingStarted(string)              {}
func (nopSink) RecordingStopped()                    {}
func (nopSink) RecordingTick(float64)                {}
func (nopSink) AudioLevel(float64)                   {}
func (nopSink) TranscribingStarted()                 {}
func (nopSink) TranscriptionDone(transcriber.Result) {}
func (nopSink) Notice(string)                        {}

// multiSink fans every event out to all members.
type multiSink []EventSink

func (m multiSink) RecordingStarted(device string) {
	for _, s := range m {
		s.RecordingStarted(device)
	}
}

func (m multiSink) RecordingStopped() {
	for _, s := range m {
		s.RecordingStopped()
	}
}

func (m multiSink) RecordingTick(seconds float64) {
	for _, s := range m {
		s.RecordingTick(seconds)
	}
}

func (m multiSink) AudioLevel(level float64) {
	for _, s := range m {
		s.AudioLevel(level)
	}
}

func (m multiSink) TranscribingStarted() {
	for _, s := range m {
		s.TranscribingStarted()
	}
}

func (m multiSink) TranscriptionDone(res transcriber.Result) {
	for _, s := range m {
		s.TranscriptionDone(res)
	}
}

func (m multiSink) Notice(text string) {
	for _, s := range m {
		s.Notice(text)
	}
}
