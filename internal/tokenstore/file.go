// ABOUTME: File-backed token store kept in the XDG config directory
// ABOUTME: Writes session.json atomically with owner-only permissions

package tokenstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileName is the store file created inside the config directory.
const FileName = "session.json"

// FileStore keeps items in a small JSON object on disk.
type FileStore struct {
	path string
	mu   sync.Mutex
}

type fileData struct {
	Items map[string]string `json:"items"`
}

// NewFileStore returns a store backed by path. The file and its directory are
// created on first write.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// NewFileStoreInDir returns a store at dir/session.json.
func NewFileStoreInDir(dir string) *FileStore {
	return NewFileStore(filepath.Join(dir, FileName))
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) GetItem(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.read()
	if err != nil {
		return "", err
	}
	return items[key], nil
}

func (s *FileStore) SetItem(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.read()
	if err != nil {
		return err
	}
	items[key] = value
	return s.write(items)
}

func (s *FileStore) RemoveItem(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := items[key]; !ok {
		return nil
	}
	delete(items, key)
	return s.write(items)
}

// read loads the items map. A missing or unparseable file reads as empty.
func (s *FileStore) read() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading token store: %w", err)
	}

	var fd fileData
	if err := json.Unmarshal(data, &fd); err != nil || fd.Items == nil {
		return map[string]string{}, nil
	}
	return fd.Items, nil
}

func (s *FileStore) write(items map[string]string) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating token store dir: %w", err)
	}

	data, err := json.MarshalIndent(fileData{Items: items}, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".session-*.tmp")
	if err != nil {
		return fmt.Errorf("writing token store: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("writing token store: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing token store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing token store: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("writing token store: %w", err)
	}
	return nil
}
