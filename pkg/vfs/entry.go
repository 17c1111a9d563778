package vfs

import (
	"io"
	"sort"
	"strings"
)

// Namespace identifies which filesystem backs an Entry.
type Namespace int

const (
	Local Namespace = iota
	Remote
)

func (n Namespace) String() string {
	if n == Remote {
		return "remote"
	}
	return "local"
}

// Kind is the variant tag of an Entry.
type Kind int

const (
	KindFile Kind = iota
	KindDir
	KindParent
	KindSymlink
)

// Entry represents one filesystem object in either namespace.
// Size is meaningful only for files.
type Entry struct {
	Namespace Namespace
	Kind      Kind
	Path      string
	Size      int64
}

// Name returns the final path component. A parent marker reports "..".
func (e Entry) Name() string {
	if e.Kind == KindParent {
		return ".."
	}
	path := strings.TrimRight(e.Path, "/")
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}

// IsDir reports whether the entry can be entered. Parent markers count.
func (e Entry) IsDir() bool {
	return e.Kind == KindDir || e.Kind == KindParent
}

func (e Entry) IsFile() bool {
	return e.Kind == KindFile
}

// IsHidden reports whether the entry's filename starts with a dot.
// Parent markers are never hidden.
func (e Entry) IsHidden() bool {
	if e.Kind == KindParent {
		return false
	}
	return strings.HasPrefix(e.Name(), ".")
}

// Label returns the display text for a listing row.
func (e Entry) Label() string {
	switch e.Kind {
	case KindParent:
		return "⬅"
	case KindDir:
		return e.Name() + "/"
	case KindSymlink:
		return e.Name() + "@"
	default:
		return e.Name()
	}
}

// Sort orders entries by byte-wise path, with a parent marker always first.
func Sort(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Kind == KindParent {
			return entries[j].Kind != KindParent
		}
		if entries[j].Kind == KindParent {
			return false
		}
		return entries[i].Path < entries[j].Path
	})
}

// FilterHidden returns entries with hidden files removed.
func FilterHidden(entries []Entry) []Entry {
	kept := entries[:0]
	for _, e := range entries {
		if !e.IsHidden() {
			kept = append(kept, e)
		}
	}
	return kept
}

// FS is the per-namespace capability set the navigation model and the
// transfer engine are written against. Local and SFTP implement it.
type FS interface {
	Namespace() Namespace

	// List returns the children of dir, without a parent marker.
	List(dir string) ([]Entry, error)

	Open(path string) (io.ReadCloser, error)
	Create(path string) (io.WriteCloser, error)
	Mkdir(path string) error
	Exists(path string) (bool, error)

	// Join combines a directory and a child name using the namespace's
	// separator rules.
	Join(dir, name string) string

	// Parent returns the parent of dir and whether dir has one.
	Parent(dir string) (string, bool)

	// Canonicalize resolves a directory path before it is entered.
	// Remote paths are used as given.
	Canonicalize(path string) (string, error)
}
