package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mms-viewer/backend/internal/metrics"
	"github.com/mms-viewer/backend/internal/models"
)

// Store defines the interface for the local science file cache.
// Files are keyed by the name the archive gave them.
type Store interface {
	Exists(name string) bool
	Path(name string) (string, error)
	Save(name string, r io.Reader) (*models.CachedFile, error)
	Get(name string) (*models.CachedFile, error)
	List(limit int) ([]*models.CachedFile, error)
}

// tempPrefix marks in-progress writes inside the cache directory.
const tempPrefix = ".partial-"

// LocalStore implements Store using a flat directory on the local filesystem.
// There is no manifest: presence is decided by the file existing on disk.
type LocalStore struct {
	baseDir string
}

// NewLocalStore creates a new LocalStore rooted at baseDir.
func NewLocalStore(baseDir string) (*LocalStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	return &LocalStore{baseDir: baseDir}, nil
}

// BaseDir returns the cache root.
func (s *LocalStore) BaseDir() string {
	return s.baseDir
}

// EnsureOutputDir creates every directory needed for base/name and returns that path.
// It is safe to call repeatedly.
func EnsureOutputDir(base, name string) (string, error) {
	out := filepath.Join(base, name)
	if err := os.MkdirAll(out, 0755); err != nil {
		return "", fmt.Errorf("creating %s: %w", out, err)
	}
	return out, nil
}

// validName rejects names that would escape the cache directory.
func validName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return fmt.Errorf("invalid file name: %q", name)
	}
	return nil
}

// Path returns where a file with the given name is (or would be) stored.
func (s *LocalStore) Path(name string) (string, error) {
	if err := validName(name); err != nil {
		return "", err
	}
	return filepath.Join(s.baseDir, name), nil
}

// Exists reports whether a regular file with the given name is cached.
func (s *LocalStore) Exists(name string) bool {
	path, err := s.Path(name)
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	ok := err == nil && info.Mode().IsRegular()
	if ok {
		metrics.CacheLookups.WithLabelValues("hit").Inc()
	} else {
		metrics.CacheLookups.WithLabelValues("miss").Inc()
	}
	return ok
}

// Save writes r to the cache under name, replacing any previous copy.
// The data goes to a hidden temporary file first and is renamed into place,
// so readers of name never see a partial file.
func (s *LocalStore) Save(name string, r io.Reader) (*models.CachedFile, error) {
	path, err := s.Path(name)
	if err != nil {
		return nil, err
	}

	f, err := os.CreateTemp(s.baseDir, tempPrefix+name+".*")
	if err != nil {
		return nil, fmt.Errorf("creating file: %w", err)
	}
	tmp := f.Name()

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(tmp)
		return nil, fmt.Errorf("writing file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return nil, fmt.Errorf("writing file: %w", err)
	}
	if err := os.Chmod(tmp, 0644); err != nil {
		os.Remove(tmp)
		return nil, fmt.Errorf("writing file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return nil, fmt.Errorf("replacing file: %w", err)
	}

	return statFile(name, path)
}

// Get retrieves metadata for a cached file.
func (s *LocalStore) Get(name string) (*models.CachedFile, error) {
	path, err := s.Path(name)
	if err != nil {
		return nil, err
	}
	info, err := statFile(name, path)
	if err != nil {
		return nil, fmt.Errorf("file not found: %s", name)
	}
	return info, nil
}

// List returns the most recently written files, newest first.
func (s *LocalStore) List(limit int) ([]*models.CachedFile, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("reading cache directory: %w", err)
	}

	var list []*models.CachedFile
	for _, entry := range entries {
		if !entry.Type().IsRegular() || strings.HasPrefix(entry.Name(), tempPrefix) {
			continue
		}
		info, err := statFile(entry.Name(), filepath.Join(s.baseDir, entry.Name()))
		if err != nil {
			continue
		}
		list = append(list, info)
	}

	// Sort by CachedAt desc
	sort.Slice(list, func(i, j int) bool {
		return list[i].CachedAt.After(list[j].CachedAt)
	})

	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}

	return list, nil
}

func statFile(name, path string) (*models.CachedFile, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	return &models.CachedFile{
		Name:     name,
		Path:     path,
		Size:     fi.Size(),
		CachedAt: fi.ModTime(),
	}, nil
}
