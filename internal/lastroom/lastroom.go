// Package lastroom persists the single "last used room code" key that lets
// a user resume their previous room across sessions.
package lastroom

import (
	"os"
	"path/filepath"
	"strings"
)

// Store holds one durable room code per user.
type Store interface {
	// Load returns the stored code, or ok=false when none is stored.
	Load() (code string, ok bool)
	Save(code string) error
	Clear() error
}

// FileStore keeps the pointer in a small file, one per user.
type FileStore struct {
	path string
}

// NewFileStore creates a store rooted at dir for the given user id.
func NewFileStore(dir, userID string) *FileStore {
	return &FileStore{path: filepath.Join(dir, userID+".room")}
}

func (s *FileStore) Load() (string, bool) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return "", false
	}
	code := strings.TrimSpace(string(data))
	return code, code != ""
}

func (s *FileStore) Save(code string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(s.path, []byte(code+"\n"), 0o600)
}

func (s *FileStore) Clear() error {
	err := os.Remove(s.path)
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}
