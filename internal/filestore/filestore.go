package filestore

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/receiptops/receiptstack/interfaces"
)

// localFileStore keeps attachment bytes on the local disk under a single
// uploads directory. Stored filenames are opaque and caller-provided.
type localFileStore struct {
	baseDir string
}

func NewLocalFileStore(baseDir string) (interfaces.FileStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create upload directory")
	}
	return &localFileStore{baseDir: baseDir}, nil
}

func (s *localFileStore) Save(filename string, content []byte) error {
	path, err := s.resolve(filename)
	if err != nil {
		return err
	}
	return os.WriteFile(path, content, 0o644)
}

func (s *localFileStore) Read(filename string) ([]byte, error) {
	path, err := s.resolve(filename)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

func (s *localFileStore) Delete(filename string) error {
	path, err := s.resolve(filename)
	if err != nil {
		return err
	}
	err = os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// resolve rejects filenames that would escape the uploads directory.
func (s *localFileStore) resolve(filename string) (string, error) {
	if filename == "" || strings.Contains(filename, "/") || strings.Contains(filename, "\\") || strings.Contains(filename, "..") {
		return "", errors.Errorf("invalid stored filename: %q", filename)
	}
	return filepath.Join(s.baseDir, filename), nil
}
