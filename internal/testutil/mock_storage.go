// mock_storage.go - Mock storage implementation for testing
package testutil

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/mms-viewer/backend/internal/models"
	"github.com/mms-viewer/backend/internal/storage"
)

// MockStorage implements storage.Store over a temporary directory and records lookups.
// Files must live on disk because loaders open them by path.
type MockStorage struct {
	dir         string
	mu          sync.RWMutex
	existsCalls map[string]int
	saved       []string

	// ListErr, when set, is returned by List.
	ListErr error
}

// NewMockStorage creates a mock store rooted in a test temp directory.
func NewMockStorage(t testing.TB) *MockStorage {
	return &MockStorage{
		dir:         t.TempDir(),
		existsCalls: make(map[string]int),
	}
}

func (m *MockStorage) Exists(name string) bool {
	m.mu.Lock()
	m.existsCalls[name]++
	m.mu.Unlock()

	info, err := os.Stat(filepath.Join(m.dir, name))
	return err == nil && info.Mode().IsRegular()
}

func (m *MockStorage) Path(name string) (string, error) {
	if name == "" || filepath.Base(name) != name {
		return "", errors.New("invalid file name")
	}
	return filepath.Join(m.dir, name), nil
}

func (m *MockStorage) Save(name string, r io.Reader) (*models.CachedFile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return m.AddFile(name, data)
}

func (m *MockStorage) Get(name string) (*models.CachedFile, error) {
	path, err := m.Path(name)
	if err != nil {
		return nil, err
	}
	fi, err := os.Stat(path)
	if err != nil {
		return nil, errors.New("file not found")
	}
	return &models.CachedFile{Name: name, Path: path, Size: fi.Size(), CachedAt: fi.ModTime()}, nil
}

func (m *MockStorage) List(limit int) ([]*models.CachedFile, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, err
	}

	var files []*models.CachedFile
	for _, entry := range entries {
		f, err := m.Get(entry.Name())
		if err != nil {
			continue
		}
		files = append(files, f)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	if limit > 0 && len(files) > limit {
		files = files[:limit]
	}
	return files, nil
}

// Ensure MockStorage implements storage.Store
var _ storage.Store = (*MockStorage)(nil)

// Test Helper Methods

// AddFile places a file directly in the cache.
func (m *MockStorage) AddFile(name string, data []byte) (*models.CachedFile, error) {
	path, err := m.Path(name)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, err
	}
	m.saved = append(m.saved, name)
	return &models.CachedFile{Name: name, Path: path, Size: int64(len(data)), CachedAt: time.Now()}, nil
}

// ExistsCalls returns how many times Exists was asked about name.
func (m *MockStorage) ExistsCalls(name string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.existsCalls[name]
}

// GetFileData returns the cached content.
func (m *MockStorage) GetFileData(name string) ([]byte, error) {
	path, err := m.Path(name)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

// Dir returns the backing directory.
func (m *MockStorage) Dir() string {
	return m.dir
}
