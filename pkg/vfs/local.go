package vfs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalFS backs the local namespace with the os package.
type LocalFS struct{}

// NewLocal creates the local filesystem backend.
func NewLocal() *LocalFS {
	return &LocalFS{}
}

func (l *LocalFS) Namespace() Namespace {
	return Local
}

// List returns the children of dir sorted per Sort, without a parent marker.
func (l *LocalFS) List(dir string) ([]Entry, error) {
	dirents, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list directory: %w", err)
	}

	entries := make([]Entry, 0, len(dirents))
	for _, d := range dirents {
		path := filepath.Join(dir, d.Name())
		switch {
		case d.Type()&os.ModeSymlink != 0:
			entries = append(entries, Entry{Namespace: Local, Kind: KindSymlink, Path: path})
		case d.IsDir():
			entries = append(entries, Entry{Namespace: Local, Kind: KindDir, Path: path})
		default:
			var size int64
			if info, err := d.Info(); err == nil {
				size = info.Size()
			}
			entries = append(entries, Entry{Namespace: Local, Kind: KindFile, Path: path, Size: size})
		}
	}
	Sort(entries)
	return entries, nil
}

func (l *LocalFS) Open(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

func (l *LocalFS) Create(path string) (io.WriteCloser, error) {
	return os.Create(path)
}

func (l *LocalFS) Mkdir(path string) error {
	return os.Mkdir(path, 0755)
}

func (l *LocalFS) Exists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (l *LocalFS) Join(dir, name string) string {
	return filepath.Join(dir, name)
}

func (l *LocalFS) Parent(dir string) (string, bool) {
	parent := filepath.Dir(dir)
	return parent, parent != dir
}

func (l *LocalFS) Canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to canonicalize %q: %w", path, err)
	}
	return abs, nil
}
