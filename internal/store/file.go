package store

// file.go implements the default cache backend: one JSON document read
// wholesale at load and rewritten atomically (write-to-temp-then-rename)
// at flush. There is no cross-process locking; the pipeline assumes a
// single writer at a time.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"
)

// fileVersion guards the on-disk document shape.
const fileVersion = 1

type fileDoc struct {
	Version int              `json:"version"`
	Items   map[string]Entry `json:"items"`
}

// FileStore is a Store backed by a single JSON file.
type FileStore struct {
	path string

	mu    sync.Mutex
	items map[string]Entry
}

// NewFileStore creates a file store at path. The file and its parent
// directory are created on first flush.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, items: make(map[string]Entry)}
}

// Load reads the whole document. Missing, empty or structurally invalid
// files are treated as an empty cache rather than an error.
func (s *FileStore) Load(ctx context.Context) error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Warn().Err(err).Str("path", s.path).Msg("Image cache unreadable, starting empty")
		}
		return nil
	}

	var doc fileDoc
	if err := json.Unmarshal(data, &doc); err != nil || doc.Version != fileVersion || doc.Items == nil {
		log.Warn().Str("path", s.path).Msg("Image cache invalid, starting empty")
		return nil
	}

	s.mu.Lock()
	s.items = doc.Items
	s.mu.Unlock()

	log.Debug().Int("entries", len(doc.Items)).Str("path", s.path).Msg("Image cache loaded")
	return nil
}

// Get returns the entry for key, if present.
func (s *FileStore) Get(key string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[key]
	return e, ok
}

// Put records a new entry. An existing entry for the key wins.
func (s *FileStore) Put(key string, e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[key]; !ok {
		s.items[key] = e
	}
}

// Touch increments the use counter for key.
func (s *FileStore) Touch(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[key]
	if !ok {
		return 0
	}
	e.Uses++
	s.items[key] = e
	return e.Uses
}

// Flush writes the whole document to a temp file in the target directory
// and renames it into place, so readers never observe a partial write.
func (s *FileStore) Flush(ctx context.Context) error {
	s.mu.Lock()
	doc := fileDoc{Version: fileVersion, Items: s.items}
	data, err := json.MarshalIndent(doc, "", "  ")
	entries := len(s.items)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to encode image cache: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".image-cache-*.json")
	if err != nil {
		return fmt.Errorf("failed to create cache temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write cache temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close cache temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace cache file: %w", err)
	}

	log.Debug().Int("entries", entries).Str("path", s.path).Msg("Image cache flushed")
	return nil
}
