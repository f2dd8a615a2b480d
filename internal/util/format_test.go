package util

import (
	"math"
	"testing"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes uint64
		want  string
	}{
		{0, "0 B"},
		{1, "1 B"},
		{1023, "1023 B"},
		{1024, "1.00 KiB"},
		{1536, "1.50 KiB"},
		{1024 * 1024, "1.00 MiB"},
		{1024 * 1024 * 1024, "1.00 GiB"},
		{1024 * 1024 * 1024 * 2, "2.00 GiB"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := FormatBytes(tt.bytes)
			if got != tt.want {
				t.Errorf("FormatBytes(%d) = %q, want %q", tt.bytes, got, tt.want)
			}
		})
	}
}

func TestFormatPercent(t *testing.T) {
	tests := []struct {
		v    float64
		want string
	}{
		{0, "+0.00%"},
		{-3.214, "-3.21%"},
		{12.5, "+12.50%"},
		{math.NaN(), "n/a"},
	}

	for _, tt := range tests {
		if got := FormatPercent(tt.v); got != tt.want {
			t.Errorf("FormatPercent(%v) = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestFormatDurationFromSecs(t *testing.T) {
	if got := FormatDurationFromSecs(3723); got != "01:02:03" {
		t.Errorf("FormatDurationFromSecs(3723) = %q", got)
	}
}
