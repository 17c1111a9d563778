package browse

import (
	"sync"

	"driftp/pkg/vfs"
)

// Pane identifies one of the two listings.
type Pane int

const (
	PaneNone Pane = iota
	PaneLocal
	PaneRemote
)

// cursor addresses exactly one entry in exactly one listing.
type cursor struct {
	pane  Pane
	index int
}

// Model owns the two directory listings and the single cursor that
// addresses them. All state sits behind one mutex; directory fetches may
// fail with I/O or protocol errors, which propagate to the caller and
// leave the previous listing in place.
type Model struct {
	local  vfs.FS
	remote vfs.FS

	mu            sync.Mutex
	localDir      string
	remoteDir     string
	localEntries  []vfs.Entry
	remoteEntries []vfs.Entry
	cursor        cursor
}

// NewModel creates a navigation model over the two namespace backends
// and populates both listings.
func NewModel(local, remote vfs.FS, localDir, remoteDir string, showHidden bool) (*Model, error) {
	m := &Model{local: local, remote: remote}
	if err := m.SetLocalDir(localDir, showHidden); err != nil {
		return nil, err
	}
	if err := m.SetRemoteDir(remoteDir, showHidden); err != nil {
		return nil, err
	}
	return m, nil
}

// fetch lists dir on fsys, applies the hidden filter, prepends a parent
// marker when dir has a parent, and sorts.
func fetch(fsys vfs.FS, dir string, showHidden bool) ([]vfs.Entry, error) {
	entries, err := fsys.List(dir)
	if err != nil {
		return nil, err
	}
	if !showHidden {
		entries = vfs.FilterHidden(entries)
	}
	if parent, ok := fsys.Parent(dir); ok {
		entries = append(entries, vfs.Entry{Namespace: fsys.Namespace(), Kind: vfs.KindParent, Path: parent})
	}
	vfs.Sort(entries)
	return entries, nil
}

// SetLocalDir changes the local directory, canonicalizing the path, and
// refreshes the listing.
func (m *Model) SetLocalDir(dir string, showHidden bool) error {
	canonical, err := m.local.Canonicalize(dir)
	if err != nil {
		return err
	}
	entries, err := fetch(m.local, canonical, showHidden)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.localDir = canonical
	m.localEntries = entries
	m.reclampCursor()
	return nil
}

// SetRemoteDir changes the remote directory (path used as given) and
// refreshes the listing.
func (m *Model) SetRemoteDir(dir string, showHidden bool) error {
	canonical, err := m.remote.Canonicalize(dir)
	if err != nil {
		return err
	}
	entries, err := fetch(m.remote, canonical, showHidden)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.remoteDir = canonical
	m.remoteEntries = entries
	m.reclampCursor()
	return nil
}

// RefreshLocal re-lists the current local directory without changing it.
func (m *Model) RefreshLocal(showHidden bool) error {
	m.mu.Lock()
	dir := m.localDir
	m.mu.Unlock()

	entries, err := fetch(m.local, dir, showHidden)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.localEntries = entries
	m.reclampCursor()
	return nil
}

// RefreshRemote re-lists the current remote directory without changing it.
func (m *Model) RefreshRemote(showHidden bool) error {
	m.mu.Lock()
	dir := m.remoteDir
	m.mu.Unlock()

	entries, err := fetch(m.remote, dir, showHidden)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.remoteEntries = entries
	m.reclampCursor()
	return nil
}

// entriesFor returns the listing the pane addresses. Callers hold m.mu.
func (m *Model) entriesFor(p Pane) []vfs.Entry {
	switch p {
	case PaneLocal:
		return m.localEntries
	case PaneRemote:
		return m.remoteEntries
	default:
		return nil
	}
}

// applyDelta implements the shared movement rule: advance modulo the
// addressed listing's length, falling back to the other listing (index 0)
// when the addressed one is empty, and to no cursor when both are.
func (m *Model) applyDelta(delta int) {
	entries := m.entriesFor(m.cursor.pane)
	if len(entries) > 0 {
		n := len(entries)
		m.cursor.index = ((m.cursor.index+delta)%n + n) % n
		return
	}
	if len(m.remoteEntries) > 0 {
		m.cursor = cursor{pane: PaneRemote}
	} else if len(m.localEntries) > 0 {
		m.cursor = cursor{pane: PaneLocal}
	} else {
		m.cursor = cursor{pane: PaneNone}
	}
}

// reclampCursor re-derives the cursor after a fetch with the same
// wraparound rule as explicit movement: a stale index wraps modulo the
// new listing length. Callers hold m.mu.
func (m *Model) reclampCursor() {
	m.applyDelta(0)
}

// MoveCursor advances the cursor by delta with wraparound in both
// directions.
func (m *Model) MoveCursor(delta int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.applyDelta(delta)
}

// TogglePane switches the cursor to the other listing, preserving the
// index when the destination is non-empty. A toggle toward an empty
// listing falls back through the movement rule, so the cursor only goes
// away when both listings are empty.
func (m *Model) TogglePane() {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.cursor.pane {
	case PaneLocal:
		m.cursor.pane = PaneRemote
	case PaneRemote:
		m.cursor.pane = PaneLocal
	}
	m.applyDelta(0)
}

// SelectedEntry returns the entry the cursor addresses.
func (m *Model) SelectedEntry() (vfs.Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := m.entriesFor(m.cursor.pane)
	if len(entries) == 0 || m.cursor.index >= len(entries) {
		return vfs.Entry{}, false
	}
	return entries[m.cursor.index], true
}

// LocalDir returns the current local directory.
func (m *Model) LocalDir() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.localDir
}

// RemoteDir returns the current remote directory.
func (m *Model) RemoteDir() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.remoteDir
}

// LocalEntries returns a copy of the local listing.
func (m *Model) LocalEntries() []vfs.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]vfs.Entry, len(m.localEntries))
	copy(out, m.localEntries)
	return out
}

// RemoteEntries returns a copy of the remote listing.
func (m *Model) RemoteEntries() []vfs.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]vfs.Entry, len(m.remoteEntries))
	copy(out, m.remoteEntries)
	return out
}

// LocalIndex returns the cursor's index when it addresses the local pane.
func (m *Model) LocalIndex() (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cursor.pane == PaneLocal {
		return m.cursor.index, true
	}
	return 0, false
}

// RemoteIndex returns the cursor's index when it addresses the remote pane.
func (m *Model) RemoteIndex() (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cursor.pane == PaneRemote {
		return m.cursor.index, true
	}
	return 0, false
}

// ActivePane reports which listing the cursor addresses.
func (m *Model) ActivePane() Pane {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cursor.pane
}
