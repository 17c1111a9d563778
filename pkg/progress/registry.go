package progress

import (
	"sync"
	"time"
)

// Snapshot is a point-in-time view of one meter for rendering.
type Snapshot struct {
	Title       string
	Ratio       float64
	BytesSent   int64
	TotalBytes  int64
	FilesSent   int64
	Bps         uint64
	ETA         time.Duration
	HasETA      bool
	IsAggregate bool
	Finished    bool
}

// Registry is the live set of meters the UI renders. Workers insert,
// the render tick prunes; both take the same lock.
type Registry struct {
	mu     sync.Mutex
	meters []*Meter
}

func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) Add(m *Meter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.meters = append(r.meters, m)
}

// Prune drops every finished meter. This is the only place meters leave
// the registry; handles held elsewhere stay valid but stop updating.
func (r *Registry) Prune() {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.meters[:0]
	for _, m := range r.meters {
		if !m.IsFinished() {
			kept = append(kept, m)
		}
	}
	r.meters = kept
}

func (r *Registry) Empty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.meters) == 0
}

// Snapshots returns a consistent view of the current meters, aggregates
// first to keep the rendering order stable.
func (r *Registry) Snapshots() []Snapshot {
	r.mu.Lock()
	meters := make([]*Meter, len(r.meters))
	copy(meters, r.meters)
	r.mu.Unlock()

	snaps := make([]Snapshot, 0, len(meters))
	for _, m := range meters {
		if m.TotalBytes() == 0 {
			snaps = append(snaps, snapshotOf(m))
		}
	}
	for _, m := range meters {
		if m.TotalBytes() != 0 {
			snaps = append(snaps, snapshotOf(m))
		}
	}
	return snaps
}

func snapshotOf(m *Meter) Snapshot {
	eta, hasETA := m.ETA()
	return Snapshot{
		Title:       m.Title(),
		Ratio:       m.Ratio(),
		BytesSent:   m.BytesSent(),
		TotalBytes:  m.TotalBytes(),
		FilesSent:   m.FilesSent(),
		Bps:         m.ThroughputBps(),
		ETA:         eta,
		HasETA:      hasETA,
		IsAggregate: m.TotalBytes() == 0,
		Finished:    m.IsFinished(),
	}
}
