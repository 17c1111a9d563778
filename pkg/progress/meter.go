package progress

import (
	"sync"
	"sync/atomic"
	"time"
)

// historyMaxAge bounds the sample window used for throughput estimation.
const historyMaxAge = 5 * time.Second

type sample struct {
	at    time.Time
	bytes int64
}

// Meter tracks the live byte count of one transfer unit. Byte totals and
// the finished flag are lock-free; only the bounded sample history takes
// a mutex, scoped to each append/evict.
//
// A meter with TotalBytes() == 0 is a directory aggregate: it has no
// ratio and counts files instead.
type Meter struct {
	title      string
	totalBytes int64

	bytesSent atomic.Int64
	filesSent atomic.Int64
	finished  atomic.Bool

	mu      sync.Mutex
	history []sample
}

// NewMeter creates a meter for a unit of totalBytes, seeding the sample
// window with a zero-byte sample so the first throughput interval exists.
func NewMeter(title string, totalBytes int64) *Meter {
	return &Meter{
		title:      title,
		totalBytes: totalBytes,
		history:    []sample{{at: time.Now()}},
	}
}

// NewDirectoryMeter creates an aggregate meter for a recursive transfer.
func NewDirectoryMeter(title string) *Meter {
	return NewMeter(title, 0)
}

func (m *Meter) Title() string {
	return m.title
}

func (m *Meter) TotalBytes() int64 {
	return m.totalBytes
}

func (m *Meter) BytesSent() int64 {
	return m.bytesSent.Load()
}

func (m *Meter) FilesSent() int64 {
	return m.filesSent.Load()
}

func (m *Meter) IsFinished() bool {
	return m.finished.Load()
}

// Record notes that bytes more bytes were sent.
func (m *Meter) Record(bytes int64) {
	m.recordAt(time.Now(), bytes)
}

func (m *Meter) recordAt(now time.Time, bytes int64) {
	m.mu.Lock()
	m.history = append(m.history, sample{at: now, bytes: bytes})
	oldest := now.Add(-historyMaxAge)
	cut := 0
	for cut < len(m.history) && !m.history[cut].at.After(oldest) {
		cut++
	}
	m.history = m.history[cut:]
	m.mu.Unlock()

	m.bytesSent.Add(bytes)
}

// RecordFile notes one completed file of the given size on an aggregate
// meter.
func (m *Meter) RecordFile(size int64) {
	m.bytesSent.Add(size)
	m.filesSent.Add(1)
}

// Finish forces the meter to its terminal state. Idempotent.
func (m *Meter) Finish() {
	if m.finished.Swap(true) {
		return
	}
	if m.totalBytes > 0 {
		m.bytesSent.Store(m.totalBytes)
	}
	m.mu.Lock()
	m.history = nil
	m.mu.Unlock()
}

// Ratio returns the completed fraction in [0, 1]. Aggregate meters
// (total of zero) have no ratio and report 0.
func (m *Meter) Ratio() float64 {
	if m.totalBytes == 0 {
		return 0.0
	}
	sent := m.bytesSent.Load()
	if sent >= m.totalBytes {
		return 1.0
	}
	return float64(sent) / float64(m.totalBytes)
}

// ThroughputBps estimates the current send rate in bits per second over
// the retained sample window. Returns 0 with fewer than one interval.
func (m *Meter) ThroughputBps() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.history) < 2 {
		return 0
	}
	var bits uint64
	oldest, newest := m.history[0].at, m.history[0].at
	for _, s := range m.history {
		bits += 8 * uint64(s.bytes)
		if s.at.Before(oldest) {
			oldest = s.at
		}
		if s.at.After(newest) {
			newest = s.at
		}
	}
	seconds := newest.Sub(oldest).Seconds()
	if seconds == 0 {
		return 0
	}
	return uint64(float64(bits) / seconds)
}

// ETA estimates the remaining time from the current throughput. A
// finished meter reports zero. Returns false when no estimate exists,
// either because throughput is zero or the byte count overshot the total.
func (m *Meter) ETA() (time.Duration, bool) {
	if m.IsFinished() {
		return 0, true
	}
	bytesPerSecond := m.ThroughputBps() / 8
	if bytesPerSecond == 0 {
		return 0, false
	}
	sent := m.bytesSent.Load()
	if sent > m.totalBytes {
		return 0, false
	}
	remaining := float64(m.totalBytes - sent)
	return time.Duration(remaining / float64(bytesPerSecond) * float64(time.Second)), true
}
