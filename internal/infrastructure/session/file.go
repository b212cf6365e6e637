// Package session persists the signed-in session between runs.
package session

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/alfalah/schooladmin/internal/domain/identity"
	"go.uber.org/zap"
)

// FileStore keeps the session in a JSON file readable only by its owner
type FileStore struct {
	path   string
	logger *zap.Logger
}

// NewFileStore creates a store at path. The directory is created on first save.
func NewFileStore(path string, logger *zap.Logger) *FileStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{path: path, logger: logger}
}

// Path returns the session file location
func (s *FileStore) Path() string {
	return s.path
}

// Load returns the stored session. A missing, unreadable or foreign-version
// document yields the logged-out session.
func (s *FileStore) Load(_ context.Context) (identity.Session, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return identity.LoggedOut(), nil
	}
	if err != nil {
		return identity.LoggedOut(), fmt.Errorf("reading session: %w", err)
	}
	return decode(data, s.logger), nil
}

// Save writes the session atomically
func (s *FileStore) Save(_ context.Context, sess identity.Session) error {
	data, err := identity.EncodeSession(sess)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("creating session directory: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing session: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("writing session: %w", err)
	}
	return nil
}

// Clear removes the stored session
func (s *FileStore) Clear(_ context.Context) error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}

func decode(data []byte, logger *zap.Logger) identity.Session {
	sess, err := identity.DecodeSession(data)
	if err != nil {
		logger.Warn("discarding stored session", zap.Error(err))
		return identity.LoggedOut()
	}
	return sess
}
