package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	slogmulti "github.com/samber/slog-multi"

	"github.com/mcalder/skim/internal/engine"
	"github.com/mcalder/skim/internal/segment"
	"github.com/mcalder/skim/internal/speech"
	"github.com/mcalder/skim/internal/state"
	"github.com/mcalder/skim/internal/tui"
)

// Version info (injected via ldflags)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	wpm := flag.Int("w", 300, "Words per minute (default: 300)")
	mode := flag.String("m", "rsvp", "View mode: rsvp or ticker")
	narrate := flag.Bool("n", false, "Start with narration enabled")
	voice := flag.String("voice", "", "Preferred narration voice locale (e.g. en-GB)")
	gender := flag.String("gender", "", "Preferred narration voice gender (male or female)")
	stateDir := flag.String("state-dir", "", "Directory for reading progress (default: $XDG_STATE_HOME/skim)")
	fresh := flag.Bool("fresh", false, "Ignore saved progress and start from the beginning")
	debug := flag.Bool("d", false, "Log debug output to stderr as well as the log file")
	showVersion := flag.Bool("v", false, "Show version information")
	showVersionLong := flag.Bool("version", false, "Show version information")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Skim - Terminal Speed Reading Tool\n\n")
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  skim [options] [file]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  skim book.epub            Read an epub at 300 WPM\n")
		fmt.Fprintf(os.Stderr, "  skim -w 500 file.txt      Read from file at 500 WPM\n")
		fmt.Fprintf(os.Stderr, "  skim -m ticker file.md    Read in the scrolling ticker view\n")
		fmt.Fprintf(os.Stderr, "  cat file.txt | skim       Read from stdin\n")
		fmt.Fprintf(os.Stderr, "\nControls:\n")
		fmt.Fprintf(os.Stderr, "  SPACE    Pause/play\n")
		fmt.Fprintf(os.Stderr, "  +/-      Increase/decrease speed by 50 WPM\n")
		fmt.Fprintf(os.Stderr, "  ←/→      Jump to previous/next sentence\n")
		fmt.Fprintf(os.Stderr, "  [/]      Jump to previous/next chapter\n")
		fmt.Fprintf(os.Stderr, "  t        Toggle rsvp/ticker view\n")
		fmt.Fprintf(os.Stderr, "  n        Toggle narration\n")
		fmt.Fprintf(os.Stderr, "  c        Chapter list\n")
		fmt.Fprintf(os.Stderr, "  mouse    Drag to scrub, flick to skim\n")
		fmt.Fprintf(os.Stderr, "  Q        Quit\n")
	}
	flag.Parse()

	if *showVersion || *showVersionLong {
		fmt.Printf("skim %s (commit: %s, built: %s)\n", version, commit, date)
		os.Exit(0)
	}

	store, err := state.Open(*stateDir, slog.Default())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to open state store: %v\n", err)
		os.Exit(1)
	}

	log := openLogger(store.Dir(), *debug)

	doc, title, contentID, err := loadInput(flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(doc.Words) == 0 {
		fmt.Fprintln(os.Stderr, "Error: No text to read.")
		os.Exit(1)
	}

	chapters := chapterMarkers(doc)
	sentences := segment.SentenceStarts(doc.Words)

	discipline := engine.Discrete
	if *mode == "ticker" {
		discipline = engine.Continuous
	}

	var speaker engine.Speaker
	if es, err := speech.NewESpeak(log); err != nil {
		log.Warn("speech synthesis unavailable", "err", err)
		speaker = speech.Noop{}
	} else {
		speaker = es
	}

	eng := engine.New(engine.NewStream(doc.Words), chapters, engine.Config{
		WPM:        *wpm,
		Discipline: discipline,
		ContentID:  contentID,
		Speaker:    speaker,
		Progress:   store,
		Logger:     log,
	})

	if !*fresh {
		if pos := store.Position(contentID); pos > 0 && pos < len(doc.Words) {
			eng.Seek(pos)
		}
	}

	pref := engine.VoicePreference{Locale: *voice, Gender: *gender}
	if *narrate {
		eng.SetNarrationEnabled(true, pref)
	}

	if err := tui.Run(tui.Config{
		Engine:    eng,
		Words:     doc.Words,
		Sentences: sentences,
		Title:     title,
		VoicePref: pref,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// openLogger writes structured logs to a file in the state directory.
// The TUI owns the terminal, so stderr output is opt-in for debugging
// outside the alternate screen.
func openLogger(dir string, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	var handlers []slog.Handler
	f, err := os.OpenFile(filepath.Join(dir, "skim.log"),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err == nil {
		handlers = append(handlers,
			slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level}))
	}
	if debug {
		handlers = append(handlers,
			slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	}
	if len(handlers) == 0 {
		return slog.New(slog.DiscardHandler)
	}

	log := slog.New(slogmulti.Fanout(handlers...))
	slog.SetDefault(log)
	return log
}

// loadInput reads the document from the file argument or stdin and
// derives a stable content identity for progress tracking.
func loadInput(args []string) (segment.Document, string, string, error) {
	if len(args) > 0 {
		filename := args[0]
		doc, err := segment.Load(filename)
		if err != nil {
			return segment.Document{}, "", "", fmt.Errorf("failed to read %q: %w", filename, err)
		}
		id, err := state.ContentID(filename)
		if err != nil {
			return segment.Document{}, "", "", fmt.Errorf("failed to fingerprint %q: %w", filename, err)
		}
		return doc, filepath.Base(filename), id, nil
	}

	stat, _ := os.Stdin.Stat()
	if (stat.Mode() & os.ModeCharDevice) != 0 {
		return segment.Document{}, "", "", fmt.Errorf("no input provided; provide a file or pipe text to stdin (try: skim -h)")
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return segment.Document{}, "", "", fmt.Errorf("reading stdin: %w", err)
	}
	text := string(data)
	if strings.TrimSpace(text) == "" {
		return segment.Document{}, "", "", fmt.Errorf("no text to read")
	}
	return segment.FromText(text), "stdin", state.ContentIDForText(text), nil
}

// chapterMarkers prefers headings found by the format segmenter and
// falls back to scanning the word stream for chapter-like headings.
func chapterMarkers(doc segment.Document) []engine.ChapterMarker {
	if len(doc.Headings) == 0 {
		return engine.IndexChapters(doc.Words)
	}
	markers := make([]engine.ChapterMarker, 0, len(doc.Headings)+1)
	if doc.Headings[0].WordIndex > 0 {
		markers = append(markers, engine.ChapterMarker{Title: "Beginning", WordIndex: 0})
	}
	for _, h := range doc.Headings {
		markers = append(markers, engine.ChapterMarker{
			Title:     h.Title,
			WordIndex: h.WordIndex,
		})
	}
	return markers
}
