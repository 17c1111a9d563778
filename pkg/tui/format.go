package tui

import (
	"fmt"
	"time"
)

// formatBytes renders a byte count with a binary unit suffix.
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}

// formatBitrate renders a bits-per-second rate with a decimal unit suffix.
func formatBitrate(bps uint64) string {
	switch {
	case bps < 1000:
		return fmt.Sprintf("%d bit/s", bps)
	case bps < 1000*1000:
		return fmt.Sprintf("%.1f kbit/s", float64(bps)/1000)
	case bps < 1000*1000*1000:
		return fmt.Sprintf("%.1f Mbit/s", float64(bps)/(1000*1000))
	default:
		return fmt.Sprintf("%.1f Gbit/s", float64(bps)/(1000*1000*1000))
	}
}

// formatETA renders a remaining-time estimate as h/m/s components,
// dropping leading zero units.
func formatETA(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	s := (d % time.Minute) / time.Second
	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%02ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
