package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sceneforge/stagedit/internal/fsops"
)

// Store provides an interface for persisting stage sessions.
type Store interface {
	// Load loads the session for the given stage handle.
	// Returns os.ErrNotExist if the session doesn't exist.
	Load(handle string) (*StageSession, error)

	// Save saves the session atomically.
	Save(handle string, sess *StageSession) error

	// Delete deletes the session file.
	Delete(handle string) error

	// List returns the handles of all persisted sessions, sorted.
	List() ([]string, error)
}

// FileStore implements Store using JSON files on disk.
type FileStore struct {
	fs  fsops.FS
	dir string
}

// NewFileStore creates a new FileStore rooted at the sessions directory.
func NewFileStore(fs fsops.FS, dir string) *FileStore {
	return &FileStore{
		fs:  fs,
		dir: dir,
	}
}

// Load loads the session for the given stage handle.
func (s *FileStore) Load(handle string) (*StageSession, error) {
	if err := s.fs.ValidateIdentifier(handle); err != nil {
		return nil, fmt.Errorf("invalid stage handle: %w", err)
	}
	path := filepath.Join(s.dir, handle+".json")

	data, err := s.fs.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, os.ErrNotExist
		}
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var sess StageSession
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return &sess, nil
}

// Save saves the session atomically.
func (s *FileStore) Save(handle string, sess *StageSession) error {
	if err := s.fs.ValidateIdentifier(handle); err != nil {
		return fmt.Errorf("invalid stage handle: %w", err)
	}
	path := filepath.Join(s.dir, handle+".json")

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := s.fs.AtomicWrite(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}

	return nil
}

// Delete deletes the session file.
func (s *FileStore) Delete(handle string) error {
	if err := s.fs.ValidateIdentifier(handle); err != nil {
		return fmt.Errorf("invalid stage handle: %w", err)
	}
	path := filepath.Join(s.dir, handle+".json")

	if err := s.fs.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	return nil
}

// List returns the handles of all persisted sessions, sorted.
func (s *FileStore) List() ([]string, error) {
	names, err := s.fs.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	var handles []string
	for _, name := range names {
		if strings.HasSuffix(name, ".json") {
			handles = append(handles, strings.TrimSuffix(name, ".json"))
		}
	}
	sort.Strings(handles)
	return handles, nil
}
