// Package localstore persists uploaded PDF bytes on the local filesystem.
// Keys are opaque to callers; the ingestion pipeline reads uploads back by
// key when a claimed document starts processing.
package localstore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/blueprint-backend/internal/logger"
)

type FileStore interface {
	Save(data []byte, suffix string) (key string, err error)
	Path(key string) (string, error)
	Read(key string) ([]byte, error)
	Delete(key string) error
}

type fileStore struct {
	log  *logger.Logger
	root string
}

func New(log *logger.Logger, root string) (FileStore, error) {
	if strings.TrimSpace(root) == "" {
		root = filepath.Join(os.TempDir(), "blueprint_uploads")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %q: %w", root, err)
	}
	return &fileStore{
		log:  log.With("service", "FileStore"),
		root: root,
	}, nil
}

func (s *fileStore) Save(data []byte, suffix string) (string, error) {
	key := uuid.NewString() + sanitizeSuffix(suffix)
	path := filepath.Join(s.root, key)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	return key, nil
}

func (s *fileStore) Path(key string) (string, error) {
	path, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("stat upload %q: %w", key, err)
	}
	return path, nil
}

func (s *fileStore) Read(key string) ([]byte, error) {
	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read upload %q: %w", key, err)
	}
	return raw, nil
}

func (s *fileStore) Delete(key string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete upload %q: %w", key, err)
	}
	return nil
}

// resolve rejects keys that escape the store root.
func (s *fileStore) resolve(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" || key != filepath.Base(key) {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(s.root, key), nil
}

func sanitizeSuffix(suffix string) string {
	suffix = strings.TrimSpace(suffix)
	if suffix == "" {
		return ""
	}
	if !strings.HasPrefix(suffix, ".") {
		suffix = "." + suffix
	}
	if suffix != filepath.Base(suffix) {
		return ""
	}
	return suffix
}
