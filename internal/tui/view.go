package tui

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/truncate"

	"github.com/mcalder/skim/internal/engine"
)

var (
	focusStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF0000"))

	wordStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	tickerDimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#777777"))

	tickerHotStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Padding(0, 1)

	controlsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			Italic(true)

	pausedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFAA00")).
			Bold(true)

	narratingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00AAFF")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5555"))

	completeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00")).
			Bold(true)

	chapterBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 2)

	chapterSelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#005577"))
)

func (m Model) View() string {
	if m.quitting {
		if len(m.words) > 0 && int(m.eng.Cursor()) >= len(m.words)-1 {
			return completeStyle.Render("\n  Reading complete!\n")
		}
		return ""
	}
	if len(m.words) == 0 {
		return "No text to read."
	}
	if m.showChapters {
		return m.chapterView()
	}

	var body string
	if m.eng.Discipline() == engine.Continuous {
		body = m.tickerView()
	} else {
		body = m.rsvpView()
	}

	avail := m.height - 4 // status, bar, warning/blank, controls
	if avail < 1 {
		avail = 1
	}
	vPad := avail / 2

	var sb strings.Builder
	sb.WriteString(m.statusView())
	sb.WriteString("\n")
	sb.WriteString(m.progressView())
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("\n", vPad))
	sb.WriteString(body)
	sb.WriteString(strings.Repeat("\n", avail-vPad))
	if m.warning != "" {
		sb.WriteString(warningStyle.Render("⚠ " + m.warning))
		sb.WriteString("  ")
	}
	sb.WriteString(controlsStyle.Render(
		"SPACE play  ↑/↓ speed  ←/→ sentence  [/] chapter  t view  n narrate  c chapters  q quit"))
	return sb.String()
}

func (m Model) statusView() string {
	current := int(m.eng.Cursor()) + 1
	badge := ""
	switch m.eng.Mode() {
	case engine.ModeIdle:
		badge = pausedStyle.Render(" [PAUSED]")
	case engine.ModeNarrating:
		badge = narratingStyle.Render(" [NARRATING]")
	case engine.ModeScrubbing:
		badge = " [SCRUB]"
	}

	chapter := ""
	if chapters := m.eng.Chapters(); len(chapters) > 0 {
		chapter = " | " + chapters[m.eng.CurrentChapter()].Title
	}

	return statusStyle.Render(fmt.Sprintf("%s | Word %d/%d | %d WPM%s%s",
		m.title, current, len(m.words), m.eng.WPM(), chapter, badge))
}

func (m Model) progressView() string {
	frac := 0.0
	if len(m.words) > 1 {
		frac = m.eng.Cursor() / float64(len(m.words)-1)
	}
	return "  " + m.bar.ViewAs(frac)
}

// rsvpView renders the single current word with its optimal
// recognition point anchored to the viewport center.
func (m Model) rsvpView() string {
	idx := int(m.eng.Cursor())
	if idx < 0 || idx >= len(m.words) {
		return ""
	}
	word := m.words[idx]
	runes := []rune(word)
	orp := orpPosition(word)
	if orp >= len(runes) {
		orp = len(runes) - 1
	}

	before := string(runes[:orp])
	focus := string(runes[orp])
	after := ""
	if orp+1 < len(runes) {
		after = string(runes[orp+1:])
	}

	pad := m.width/2 - runewidth.StringWidth(before)
	if pad < 0 {
		pad = 0
	}
	return strings.Repeat(" ", pad) +
		wordStyle.Render(before) +
		focusStyle.Render(focus) +
		wordStyle.Render(after)
}

// orpPosition is the rune index the eye should fixate on for fastest
// word recognition.
func orpPosition(word string) int {
	length := len([]rune(word))
	switch {
	case length <= 1:
		return 0
	case length <= 5:
		return 1
	default:
		return length / 3
	}
}

// tickerView renders the window text as a horizontal line with the
// render offset pinned to the viewport center and the current word
// highlighted.
func (m Model) tickerView() string {
	win := m.eng.Window()
	c := m.eng.Cursor()
	text := win.Text()
	if text == "" {
		return ""
	}

	offset, _ := win.Render(c)
	center := m.width / 2
	start := int(offset) - center
	pad := 0
	if start < 0 {
		pad = -start
		start = 0
	}
	stop := start + m.width
	if stop > len(text) {
		stop = len(text)
	}
	// The viewport edges are byte offsets and may land inside a
	// multibyte rune; move them onto rune boundaries before slicing.
	for start < len(text) && !utf8.RuneStart(text[start]) {
		start++
	}
	for stop > start && stop < len(text) && !utf8.RuneStart(text[stop]) {
		stop--
	}
	if start >= stop {
		return ""
	}

	line := strings.Repeat(" ", pad)
	if ws, we, ok := win.Span(c); ok && ws < stop && we > start {
		lo, hi := max(ws, start), min(we, stop)
		line += tickerDimStyle.Render(text[start:lo]) +
			tickerHotStyle.Render(text[lo:hi]) +
			tickerDimStyle.Render(text[hi:stop])
	} else {
		line += tickerDimStyle.Render(text[start:stop])
	}
	return truncate.String(line, uint(m.width))
}

func (m Model) chapterView() string {
	chapters := m.eng.Chapters()
	var sb strings.Builder
	sb.WriteString("Chapters\n\n")
	for i, ch := range chapters {
		line := fmt.Sprintf("%3d. %s", i+1, ch.Title)
		line = truncate.String(line, uint(m.width-8))
		if i == m.chapterSel {
			line = chapterSelStyle.Render(line)
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(controlsStyle.Render("j/k move  enter jump  c close"))
	return chapterBoxStyle.Render(sb.String())
}
