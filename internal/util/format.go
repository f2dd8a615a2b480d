// Package util provides utility functions for formatting and common operations.
package util

import (
	"fmt"
)

const (
	KiB = 1024
	MiB = KiB * 1024
	GiB = MiB * 1024
)

// FormatBytes formats bytes with appropriate binary units (B, KiB, MiB, GiB).
func FormatBytes(bytes uint64) string {
	bf := float64(bytes)
	switch {
	case bf >= GiB:
		return fmt.Sprintf("%.2f GiB", bf/GiB)
	case bf >= MiB:
		return fmt.Sprintf("%.2f MiB", bf/MiB)
	case bf >= KiB:
		return fmt.Sprintf("%.2f KiB", bf/KiB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// FormatDurationFromSecs formats seconds as HH:MM:SS from an int64.
func FormatDurationFromSecs(secs int64) string {
	hours := secs / 3600
	minutes := (secs % 3600) / 60
	seconds := secs % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}

// FormatPercent formats a percentage with an explicit sign, e.g. "-3.21%".
func FormatPercent(v float64) string {
	if v != v {
		return "n/a"
	}
	return fmt.Sprintf("%+.2f%%", v)
}
