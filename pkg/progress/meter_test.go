package progress

import (
	"testing"
	"time"
)

func TestMeterRatio(t *testing.T) {
	m := NewMeter("file.bin", 1000)
	if m.Ratio() != 0 {
		t.Errorf("Fresh meter ratio = %v, want 0", m.Ratio())
	}

	m.Record(500)
	if got := m.Ratio(); got != 0.5 {
		t.Errorf("Ratio after half = %v, want 0.5", got)
	}

	// Overshoot clamps to 1
	m.Record(2000)
	if got := m.Ratio(); got != 1.0 {
		t.Errorf("Ratio after overshoot = %v, want 1.0", got)
	}
}

func TestAggregateMeterHasNoRatio(t *testing.T) {
	m := NewDirectoryMeter("dir")
	m.RecordFile(4096)
	if m.Ratio() != 0 {
		t.Errorf("Aggregate ratio = %v, want 0", m.Ratio())
	}
	if m.FilesSent() != 1 {
		t.Errorf("FilesSent = %d, want 1", m.FilesSent())
	}
	if m.BytesSent() != 4096 {
		t.Errorf("BytesSent = %d, want 4096", m.BytesSent())
	}
}

func TestFinishIdempotent(t *testing.T) {
	m := NewMeter("file.bin", 1000)
	m.Record(100)

	m.Finish()
	if !m.IsFinished() {
		t.Fatal("Meter not finished after Finish")
	}
	if m.BytesSent() != 1000 {
		t.Errorf("BytesSent after Finish = %d, want total 1000", m.BytesSent())
	}
	if m.Ratio() != 1.0 {
		t.Errorf("Ratio after Finish = %v, want 1.0", m.Ratio())
	}

	// Second Finish changes nothing
	m.Finish()
	if m.BytesSent() != 1000 {
		t.Errorf("BytesSent after double Finish = %d, want 1000", m.BytesSent())
	}

	eta, ok := m.ETA()
	if !ok || eta != 0 {
		t.Errorf("ETA of finished meter = (%v, %v), want (0, true)", eta, ok)
	}
}

func TestFinishAggregateKeepsCounts(t *testing.T) {
	m := NewDirectoryMeter("dir")
	m.RecordFile(100)
	m.RecordFile(200)
	m.Finish()

	if m.BytesSent() != 300 {
		t.Errorf("Aggregate BytesSent after Finish = %d, want 300", m.BytesSent())
	}
	if m.FilesSent() != 2 {
		t.Errorf("Aggregate FilesSent after Finish = %d, want 2", m.FilesSent())
	}
}

func TestThroughputWindow(t *testing.T) {
	m := NewMeter("file.bin", 1_000_000)

	// Four 4 KiB samples a quarter second apart
	base := time.Now()
	for i := 1; i <= 4; i++ {
		m.recordAt(base.Add(time.Duration(i)*250*time.Millisecond), 4096)
	}

	bps := m.ThroughputBps()
	if bps == 0 {
		t.Fatal("Expected positive throughput")
	}

	eta, ok := m.ETA()
	if !ok {
		t.Fatal("Expected an ETA estimate")
	}
	if eta <= 0 {
		t.Errorf("ETA = %v, want positive", eta)
	}
}

func TestThroughputNeedsTwoSamples(t *testing.T) {
	m := NewMeter("file.bin", 1000)
	if m.ThroughputBps() != 0 {
		t.Error("Throughput with only the seed sample should be 0")
	}
	if _, ok := m.ETA(); ok {
		t.Error("ETA should be unavailable without throughput")
	}
}

func TestThroughputEvictsOldSamples(t *testing.T) {
	m := NewMeter("file.bin", 1_000_000)

	base := time.Now()
	m.recordAt(base, 1<<30) // huge stale sample
	m.recordAt(base.Add(6*time.Second), 1000)
	m.recordAt(base.Add(7*time.Second), 1000)

	// Samples older than the window are gone, so the rate reflects only
	// the last second: 2000 bytes over 1s = 16000 bit/s
	bps := m.ThroughputBps()
	if bps != 16000 {
		t.Errorf("ThroughputBps = %d, want 16000", bps)
	}
}

func TestRegistryPrune(t *testing.T) {
	r := NewRegistry()
	a := NewMeter("a", 10)
	b := NewMeter("b", 10)
	r.Add(a)
	r.Add(b)

	if r.Empty() {
		t.Fatal("Registry should not be empty")
	}

	a.Finish()
	r.Prune()

	snaps := r.Snapshots()
	if len(snaps) != 1 {
		t.Fatalf("Expected 1 snapshot after prune, got %d", len(snaps))
	}
	if snaps[0].Title != "b" {
		t.Errorf("Wrong meter survived prune: %s", snaps[0].Title)
	}

	b.Finish()
	r.Prune()
	if !r.Empty() {
		t.Error("Registry should be empty after pruning all finished meters")
	}
}

func TestSnapshotsAggregatesFirst(t *testing.T) {
	r := NewRegistry()
	r.Add(NewMeter("file", 10))
	r.Add(NewDirectoryMeter("dir"))

	snaps := r.Snapshots()
	if len(snaps) != 2 {
		t.Fatalf("Expected 2 snapshots, got %d", len(snaps))
	}
	if !snaps[0].IsAggregate {
		t.Error("Aggregate snapshot should come first")
	}
	if snaps[1].IsAggregate {
		t.Error("File snapshot should come second")
	}
}
