// Package tui is the terminal presentation layer: it mounts the
// reading engine into a bubbletea program, feeding it frame ticks,
// key commands, and mouse-drag gestures.
package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mcalder/skim/internal/engine"
	"github.com/mcalder/skim/internal/segment"
)

const frameInterval = 16 * time.Millisecond

// Terminal cells are coarse compared to touch pixels, so each cell of
// drag is worth many translation units. Tuned so a line of vertical
// drag scrubs about one word in column mode.
const (
	columnCellUnits = 50.0
	tickerCellUnits = 40.0
)

// Config wires the reading session into the TUI.
type Config struct {
	Engine    *engine.Engine
	Words     []string
	Sentences []int
	Title     string
	VoicePref engine.VoicePreference
}

// Model is the bubbletea model for a reading session.
type Model struct {
	eng       *engine.Engine
	words     []string
	sentences []int
	title     string
	voicePref engine.VoicePreference

	keys keyMap
	bar  progress.Model

	width  int
	height int

	showChapters bool
	chapterSel   int

	drag     dragState
	ticking  bool
	lastTick time.Time

	warning  string
	quitting bool
}

type dragState struct {
	active      bool
	startX      int
	startY      int
	translation float64 // current translation in gesture units
	velocity    float64 // units per ms, from the last motion sample
	lastMove    time.Time
}

type frameMsg time.Time

func frameCmd() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

// New builds the model. The engine usually starts idle, but flags like
// -n can hand it over already narrating; the frame loop must start at
// mount then, since bubbletea only redraws on messages.
func New(cfg Config) Model {
	bar := progress.New(progress.WithDefaultGradient())
	m := Model{
		eng:       cfg.Engine,
		words:     cfg.Words,
		sentences: cfg.Sentences,
		title:     cfg.Title,
		voicePref: cfg.VoicePref,
		keys:      defaultKeyMap(),
		bar:       bar,
		width:     80,
		height:    24,
	}
	if m.eng.Mode() != engine.ModeIdle {
		m.ticking = true
		m.lastTick = time.Now()
	}
	return m
}

func (m Model) Init() tea.Cmd {
	if m.ticking {
		return frameCmd()
	}
	return nil
}

// startTicking begins the frame loop if it isn't already running.
func (m Model) startTicking() (Model, tea.Cmd) {
	if m.ticking {
		return m, nil
	}
	m.ticking = true
	m.lastTick = time.Now()
	return m, frameCmd()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.MouseMsg:
		return m.handleMouse(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = msg.Width - 4
		return m, nil
	case frameMsg:
		return m.handleFrame(time.Time(msg))
	}
	return m, nil
}

func (m Model) handleFrame(now time.Time) (tea.Model, tea.Cmd) {
	dt := now.Sub(m.lastTick)
	m.lastTick = now

	active := m.eng.Tick(dt)
	if w := m.eng.Warning(); w != "" {
		m.warning = w
	}

	// Narration and drags produce cursor changes outside Tick, so the
	// frame loop runs until the engine is fully at rest.
	if active || m.eng.Mode() != engine.ModeIdle || m.drag.active {
		return m, frameCmd()
	}
	m.ticking = false
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// A non-fatal warning stays visible until the next user action.
	m.warning = ""

	if m.showChapters {
		return m.handleChapterKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.eng.Pause() // flushes progress
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.PlayPause):
		if m.eng.Mode() == engine.ModeAutoplaying {
			m.eng.Pause()
			return m, nil
		}
		m.eng.Play(0)
		return m.startTicking()

	case key.Matches(msg, m.keys.SpeedUp):
		m.eng.SetWPM(m.eng.WPM() + 50)
		return m, nil

	case key.Matches(msg, m.keys.SpeedDown):
		m.eng.SetWPM(m.eng.WPM() - 50)
		return m, nil

	case key.Matches(msg, m.keys.PrevSentence):
		m.eng.Seek(segment.PrevSentence(m.sentences, int(m.eng.Cursor())))
		return m.startTicking()

	case key.Matches(msg, m.keys.NextSentence):
		m.eng.Seek(segment.NextSentence(m.sentences, int(m.eng.Cursor())))
		return m.startTicking()

	case key.Matches(msg, m.keys.PrevChapter):
		m.eng.JumpToChapter(m.eng.CurrentChapter() - 1)
		return m.startTicking()

	case key.Matches(msg, m.keys.NextChapter):
		m.eng.JumpToChapter(m.eng.CurrentChapter() + 1)
		return m.startTicking()

	case key.Matches(msg, m.keys.ToggleView):
		if m.eng.Discipline() == engine.Discrete {
			m.eng.SetDiscipline(engine.Continuous)
		} else {
			m.eng.SetDiscipline(engine.Discrete)
		}
		if w := m.eng.Warning(); w != "" {
			m.warning = w
		}
		return m.startTicking()

	case key.Matches(msg, m.keys.Narrate):
		m.eng.SetNarrationEnabled(!m.eng.NarrationEnabled(), m.voicePref)
		if w := m.eng.Warning(); w != "" {
			m.warning = w
		}
		return m.startTicking()

	case key.Matches(msg, m.keys.Chapters):
		m.showChapters = true
		m.chapterSel = m.eng.CurrentChapter()
		return m, nil
	}

	return m, nil
}

func (m Model) handleChapterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.chapterSel > 0 {
			m.chapterSel--
		}
	case key.Matches(msg, m.keys.Down):
		if m.chapterSel < len(m.eng.Chapters())-1 {
			m.chapterSel++
		}
	case key.Matches(msg, m.keys.Select):
		m.showChapters = false
		m.eng.JumpToChapter(m.chapterSel)
		return m.startTicking()
	case key.Matches(msg, m.keys.Chapters), key.Matches(msg, m.keys.Quit):
		m.showChapters = false
	}
	return m, nil
}

// handleMouse translates terminal drag events into engine gestures.
// The dominant axis follows the visual mode: vertical for the word
// column, horizontal for the ticker.
func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return m, nil
		}
		m.warning = ""
		m.drag = dragState{
			active:   true,
			startX:   msg.X,
			startY:   msg.Y,
			lastMove: time.Now(),
		}
		m.eng.GestureBegin()
		return m.startTicking()

	case tea.MouseActionMotion:
		if !m.drag.active {
			return m, nil
		}
		translation := m.translationFor(msg.X, msg.Y)
		now := time.Now()
		if dt := now.Sub(m.drag.lastMove); dt > 0 {
			m.drag.velocity = (translation - m.drag.translation) /
				(float64(dt) / float64(time.Millisecond))
		}
		m.drag.translation = translation
		m.drag.lastMove = now
		m.eng.GestureMove(translation)
		return m, nil

	case tea.MouseActionRelease:
		if !m.drag.active {
			return m, nil
		}
		m.drag.active = false
		// A stale velocity sample from a drag that paused before
		// release reads as a deliberate stop.
		if time.Since(m.drag.lastMove) > 100*time.Millisecond {
			m.drag.velocity = 0
		}
		m.eng.GestureEnd(m.drag.velocity)
		return m.startTicking()
	}
	return m, nil
}

func (m Model) translationFor(x, y int) float64 {
	if m.eng.Discipline() == engine.Continuous {
		return float64(x-m.drag.startX) * tickerCellUnits
	}
	return float64(y-m.drag.startY) * columnCellUnits
}

// Run mounts the model into a bubbletea program and blocks until the
// reader quits.
func Run(cfg Config) error {
	p := tea.NewProgram(New(cfg), tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}
