package main

import (
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"v2t/transcriber"
)

// TUI message types
type RecordingStartMsg struct{ Device string }
type RecordingStopMsg struct{}
type RecordingTickMsg struct{ Duration float64 }
type AudioLevelMsg struct{ Level float64 }
type TranscribingMsg struct{}
type TranscriptionMsg struct {
	Text     string
	Backend  string
	Duration float64
	Copied   bool
	Failed   bool
	Detail   string
}
type NoticeMsg struct{ Text string }
type StatusLineMsg struct{ Hotkey, Mode, Device string }
type frameMsg time.Time

type tuiState int

const (
	tuiStateIdle tuiState = iota
	tuiStateRecording
	tuiStateTranscribing
)

const levelHistory = 48

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

var (
	styleRec     = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	styleBusy    = lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true)
	styleIdle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	styleDim     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	styleInfo    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	styleText    = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	styleErr     = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	styleOK      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	styleHelp    = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	styleHelpKey = lipgloss.NewStyle().Foreground(lipgloss.Color("239")).Bold(true)
)

// Wave columns colored loud to quiet, bottom-aligned block glyphs.
var waveGlyphs = []rune(" ▁▂▃▄▅▆▇█")

var waveColors = []string{"238", "28", "34", "40", "82", "154", "220", "214", "196"}

type tuiModel struct {
	state         tuiState
	frame         int
	duration      float64
	levels        [levelHistory]float64
	levelPos      int
	msgCount      int
	width, height int

	hotkeyLine string
	modeLine   string
	deviceLine string

	lastText   string
	lastCopied bool
	lastFailed bool
	lastDetail string
	notice     string
	noticeAt   time.Time
}

var (
	tuiProgram   *tea.Program
	tuiMu        sync.Mutex
	tuiReady     = make(chan struct{})
	tuiReadyOnce sync.Once
)

func NewTUIProgram() *tea.Program {
	return tea.NewProgram(tuiModel{}, tea.WithAltScreen())
}

func tuiSend(msg tea.Msg) {
	tuiMu.Lock()
	p := tuiProgram
	tuiMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

func tuiFrame() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

func (m tuiModel) Init() tea.Cmd {
	return tuiFrame()
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		tuiReadyOnce.Do(func() { close(tuiReady) })

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}

	case frameMsg:
		m.frame++
		return m, tuiFrame()

	case RecordingStartMsg:
		m.state = tuiStateRecording
		m.duration = 0
		m.levels = [levelHistory]float64{}
		m.levelPos = 0
		if msg.Device != "" {
			m.deviceLine = "mic: " + msg.Device
		}

	case RecordingStopMsg:
		m.state = tuiStateIdle

	case TranscribingMsg:
		m.state = tuiStateTranscribing

	case RecordingTickMsg:
		m.duration = msg.Duration

	case AudioLevelMsg:
		if m.state == tuiStateRecording {
			m.levels[m.levelPos%levelHistory] = msg.Level
			m.levelPos++
		}

	case TranscriptionMsg:
		m.state = tuiStateIdle
		m.msgCount++
		m.lastText = msg.Text
		m.lastCopied = msg.Copied
		m.lastFailed = msg.Failed
		m.lastDetail = msg.Detail
		if msg.Backend != "" && !msg.Failed {
			m.modeLine = fmt.Sprintf("[%s | %.1fs]", msg.Backend, msg.Duration)
		}

	case NoticeMsg:
		m.notice = msg.Text
		m.noticeAt = time.Now()

	case StatusLineMsg:
		m.hotkeyLine = msg.Hotkey
		m.modeLine = msg.Mode
		m.deviceLine = msg.Device
	}
	return m, nil
}

func (m tuiModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	const leftWidth = 52

	var left []string
	left = append(left, "")
	switch m.state {
	case tuiStateRecording:
		left = append(left, styleRec.Render(fmt.Sprintf(" ● REC %.1fs", m.duration)))
	case tuiStateTranscribing:
		spin := spinnerFrames[m.frame%len(spinnerFrames)]
		left = append(left, styleBusy.Render(" "+spin+" TRANSCRIBING"))
	default:
		left = append(left, styleIdle.Render(" ○ READY"))
	}
	left = append(left, "")
	left = append(left, " "+renderWave(m.levels, m.levelPos, m.state == tuiStateRecording))
	left = append(left, "")

	if m.modeLine != "" {
		left = append(left, styleInfo.Render(" "+m.modeLine))
	}
	if m.deviceLine != "" {
		left = append(left, styleDim.Render(" "+m.deviceLine))
	}
	if m.notice != "" && time.Since(m.noticeAt) < 5*time.Second {
		left = append(left, styleErr.Render(" "+m.notice))
	}
	left = append(left, "")

	hk := m.hotkeyLine
	if hk == "" {
		hk = "f8"
	}
	left = append(left, styleHelpKey.Render(" "+hk)+styleHelp.Render(" to toggle recording"))
	left = append(left, styleHelp.Render(" v2t "+version))

	// Right panel: last transcription.
	rightWidth := m.width - leftWidth - 1
	if rightWidth < 20 {
		rightWidth = 20
	}
	wrapWidth := rightWidth - 2
	if wrapWidth < 10 {
		wrapWidth = 10
	}

	var right strings.Builder
	switch {
	case m.lastFailed:
		right.WriteString(styleErr.Render("Transcription failed") + "\n\n")
		for _, line := range wrapText(m.lastDetail, wrapWidth) {
			right.WriteString(styleErr.Render(line) + "\n")
		}
	case m.lastText != "":
		right.WriteString(styleDim.Render(fmt.Sprintf("Last transcription (#%d)", m.msgCount)) + "\n\n")
		lines := wrapText(m.lastText, wrapWidth)
		for i, line := range lines {
			right.WriteString(styleText.Render(line))
			if i == len(lines)-1 && m.lastCopied {
				right.WriteString(" " + styleOK.Render("[✓ copied]"))
			}
			right.WriteString("\n")
		}
	default:
		right.WriteString(styleDim.Render("No transcriptions yet"))
	}

	leftPanel := lipgloss.NewStyle().
		Width(leftWidth).
		Height(m.height).
		Render(strings.Join(left, "\n"))
	rightPanel := lipgloss.NewStyle().
		Width(rightWidth).
		Height(m.height).
		PaddingLeft(1).
		PaddingTop(1).
		Render(right.String())

	return lipgloss.JoinHorizontal(lipgloss.Top, leftPanel, rightPanel)
}

// renderWave draws the rolling level history as one line of bar glyphs,
// oldest sample first.
func renderWave(levels [levelHistory]float64, pos int, active bool) string {
	var b strings.Builder
	for i := 0; i < levelHistory; i++ {
		v := levels[(pos+i)%levelHistory]
		idx := int(v * float64(len(waveGlyphs)-1))
		if idx >= len(waveGlyphs) {
			idx = len(waveGlyphs) - 1
		}
		if !active {
			idx = 0
		}
		g := string(waveGlyphs[idx])
		if idx == 0 {
			b.WriteString(styleDim.Render("·"))
			continue
		}
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(waveColors[idx])).Render(g))
	}
	return b.String()
}

func wrapText(text string, width int) []string {
	if len(text) == 0 {
		return []string{""}
	}
	if width <= 0 {
		width = 1
	}
	var lines []string
	for len(text) > width {
		splitAt := width
		for i := width; i > 0; i-- {
			if text[i] == ' ' {
				splitAt = i
				break
			}
		}
		lines = append(lines, text[:splitAt])
		text = strings.TrimLeft(text[splitAt:], " ")
	}
	if len(text) > 0 {
		lines = append(lines, text)
	}
	return lines
}

// tuiSink forwards controller events to the TUI program.
type tuiSink struct{}

func (tuiSink) RecordingStarted(device string) { tuiSend(RecordingStartMsg{Device: device}) }
func (tuiSink) RecordingStopped()              { tuiSend(RecordingStopMsg{}) }
func (tuiSink) RecordingTick(seconds float64)  { tuiSend(RecordingTickMsg{Duration: seconds}) }
func (tuiSink) AudioLevel(level float64)       { tuiSend(AudioLevelMsg{Level: level}) }
func (tuiSink) TranscribingStarted()           { tuiSend(TranscribingMsg{}) }
func (tuiSink) Notice(text string)             { tuiSend(NoticeMsg{Text: text}) }

func (tuiSink) TranscriptionDone(res transcriber.Result) {
	msg := TranscriptionMsg{
		Text:     res.Text,
		Backend:  res.Backend,
		Duration: res.Duration.Seconds(),
	}
	if !res.Success {
		msg.Failed = true
		msg.Detail = res.ErrDetail
	} else if res.Text == "" {
		msg.Text = "(no speech detected)"
	} else {
		msg.Copied = true
	}
	tuiSend(msg)
}
