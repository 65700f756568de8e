package mocks

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/user/frameset/pkg/ports"
)

// FileSystem is an in-memory mock implementation of ports.FileSystem.
// Paths are compared after filepath.Clean.
type FileSystem struct {
	mu    sync.RWMutex
	files map[string][]byte
	dirs  map[string]bool

	ReadFileFunc  func(path string) ([]byte, error)
	WriteFileFunc func(path string, data []byte) error
	MkdirAllFunc  func(path string) error
	ExistsFunc    func(path string) (bool, error)
	RemoveFunc    func(path string) error
	ListDirFunc   func(path string) ([]ports.DirEntry, error)
}

// NewFileSystem creates a new mock FileSystem.
func NewFileSystem() *FileSystem {
	return &FileSystem{
		files: make(map[string][]byte),
		dirs:  make(map[string]bool),
	}
}

func (m *FileSystem) ReadFile(path string) ([]byte, error) {
	if m.ReadFileFunc != nil {
		return m.ReadFileFunc(path)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if data, ok := m.files[filepath.Clean(path)]; ok {
		return data, nil
	}
	return nil, fmt.Errorf("file not found: %s: %w", path, os.ErrNotExist)
}

func (m *FileSystem) WriteFile(path string, data []byte) error {
	if m.WriteFileFunc != nil {
		return m.WriteFileFunc(path, data)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[filepath.Clean(path)] = data
	return nil
}

func (m *FileSystem) MkdirAll(path string) error {
	if m.MkdirAllFunc != nil {
		return m.MkdirAllFunc(path)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dirs[filepath.Clean(path)] = true
	return nil
}

func (m *FileSystem) Exists(path string) (bool, error) {
	if m.ExistsFunc != nil {
		return m.ExistsFunc(path)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.existsLocked(filepath.Clean(path)), nil
}

func (m *FileSystem) Remove(path string) error {
	if m.RemoveFunc != nil {
		return m.RemoveFunc(path)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)
	delete(m.files, path)
	delete(m.dirs, path)
	return nil
}

// ListDir lists direct children, treating every ancestor of a stored file as a directory.
func (m *FileSystem) ListDir(path string) ([]ports.DirEntry, error) {
	if m.ListDirFunc != nil {
		return m.ListDirFunc(path)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	path = filepath.Clean(path)
	if !m.existsLocked(path) {
		return nil, fmt.Errorf("directory not found: %s: %w", path, os.ErrNotExist)
	}

	prefix := path + string(filepath.Separator)
	children := make(map[string]bool)
	collect := func(p string, isFile bool) {
		if !strings.HasPrefix(p, prefix) {
			return
		}
		rest := strings.TrimPrefix(p, prefix)
		name, _, nested := strings.Cut(rest, string(filepath.Separator))
		children[name] = children[name] || nested || !isFile
	}
	for p := range m.files {
		collect(p, true)
	}
	for p := range m.dirs {
		collect(p, false)
	}

	entries := make([]ports.DirEntry, 0, len(children))
	for name, isDir := range children {
		entries = append(entries, ports.DirEntry{Name: name, IsDir: isDir})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})
	return entries, nil
}

func (m *FileSystem) existsLocked(path string) bool {
	if _, ok := m.files[path]; ok {
		return true
	}
	if m.dirs[path] {
		return true
	}
	prefix := path + string(filepath.Separator)
	for p := range m.files {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	for p := range m.dirs {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return false
}

// GetFile returns the contents of a file (for test verification).
func (m *FileSystem) GetFile(path string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.files[filepath.Clean(path)]
	return data, ok
}

// GetAllFiles returns all files (for test verification).
func (m *FileSystem) GetAllFiles() map[string][]byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make(map[string][]byte)
	for k, v := range m.files {
		result[k] = v
	}
	return result
}

var _ ports.FileSystem = (*FileSystem)(nil)
