package util

import (
	"runtime"
	"testing"
)

func TestGetSystemInfo(t *testing.T) {
	info := GetSystemInfo()
	if info.NumCPU != runtime.NumCPU() {
		t.Errorf("NumCPU = %d, want %d", info.NumCPU, runtime.NumCPU())
	}
	if info.OS != runtime.GOOS || info.Arch != runtime.GOARCH {
		t.Errorf("unexpected platform %s/%s", info.OS, info.Arch)
	}
}
