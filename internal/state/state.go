// Package state persists reading progress between sessions. Saves are
// fire-and-forget: the engine never waits on the filesystem.
package state

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mcalder/skim/internal/engine"
)

const (
	stateFileName = "progress.json"
	hashBytes     = 8192 // first 8KB identifies the content
)

// Record is the saved position for one piece of content.
type Record struct {
	CurrentIndex int       `json:"current_index"`
	TotalWords   int       `json:"total_words"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Store is a JSON-backed progress store keyed by content hash. It
// implements engine.ProgressSink; Save returns before the write lands.
type Store struct {
	dir  string
	path string
	log  *slog.Logger

	mu   sync.Mutex
	data map[string]Record
}

var _ engine.ProgressSink = (*Store)(nil)

// Open creates or loads the store under dir. When dir is empty,
// XDG_STATE_HOME/skim (or ~/.local/state/skim) is used.
func Open(dir string, log *slog.Logger) (*Store, error) {
	if dir == "" {
		dir = defaultStateDir()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	s := &Store{
		dir:  dir,
		path: filepath.Join(dir, stateFileName),
		log:  log,
		data: make(map[string]Record),
	}
	if err := s.load(); err != nil {
		// Corrupt or missing state is not worth failing startup over.
		s.log.Warn("starting with empty progress state", "err", err)
		s.data = make(map[string]Record)
	}
	return s, nil
}

func defaultStateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "skim")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state", "skim")
}

// ContentID hashes the first 8KB of a file to identify the content
// independently of its path.
func ContentID(filename string) (string, error) {
	f, err := os.Open(filename)
	if err != nil {
		return "", err
	}
	defer f.Close()

	buf := make([]byte, hashBytes)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", err
	}
	sum := sha256.Sum256(buf[:n])
	return hex.EncodeToString(sum[:16]), nil
}

// ContentIDForText hashes in-memory text (stdin input).
func ContentIDForText(text string) string {
	data := []byte(text)
	if len(data) > hashBytes {
		data = data[:hashBytes]
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:16])
}

// Dir returns the directory the store lives in.
func (s *Store) Dir() string { return s.dir }

// Position returns the saved word index for the content, or 0.
func (s *Store) Position(contentID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[contentID].CurrentIndex
}

// Save records a progress update and flushes asynchronously.
func (s *Store) Save(p engine.Progress) {
	if p.ContentID == "" {
		return
	}
	s.mu.Lock()
	s.data[p.ContentID] = Record{
		CurrentIndex: p.CurrentIndex,
		TotalWords:   p.TotalWords,
		UpdatedAt:    p.Timestamp,
	}
	s.mu.Unlock()

	go func() {
		if err := s.flush(); err != nil {
			s.log.Error("progress save failed", "err", err)
		}
	}()
}

// Clear removes the saved position for the content.
func (s *Store) Clear(contentID string) error {
	s.mu.Lock()
	delete(s.data, contentID)
	s.mu.Unlock()
	return s.flush()
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return json.Unmarshal(data, &s.data)
}

func (s *Store) flush() error {
	s.mu.Lock()
	data, err := json.MarshalIndent(s.data, "", "  ")
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0644)
}
