package usage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileStore keeps the record as the only line of a flat file.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Load(_ context.Context) (Record, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Record{}, ErrNoRecord
	}
	if err != nil {
		return Record{}, fmt.Errorf("read usage file: %w", err)
	}
	return ParseRecord(string(raw))
}

// Save replaces the file through a temp file and rename so readers never see
// a half-written line.
func (s *FileStore) Save(_ context.Context, record Record) error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".usage-*.tmp")
	if err != nil {
		return fmt.Errorf("create usage temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.WriteString(record.String()); err != nil {
		tmp.Close()
		return fmt.Errorf("write usage file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close usage file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace usage file: %w", err)
	}
	return nil
}
