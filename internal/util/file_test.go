package util

import (
	"testing"

	"github.com/spf13/afero"
)

func TestFileSize(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/bs/a.ivf", make([]byte, 120000), 0644); err != nil {
		t.Fatal(err)
	}

	size, err := FileSize(fs, "/bs/a.ivf")
	if err != nil {
		t.Fatalf("FileSize failed: %v", err)
	}
	if size != 120000 {
		t.Errorf("FileSize = %d, want 120000", size)
	}

	if _, err := FileSize(fs, "/bs"); err == nil {
		t.Error("expected error for directory")
	}
	if _, err := FileSize(fs, "/missing.ivf"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestExists(t *testing.T) {
	fs := afero.NewMemMapFs()
	_ = afero.WriteFile(fs, "/d/f", []byte("x"), 0644)

	if !FileExists(fs, "/d/f") || FileExists(fs, "/d") || FileExists(fs, "/nope") {
		t.Error("FileExists mismatch")
	}
	if !DirectoryExists(fs, "/d") || DirectoryExists(fs, "/d/f") {
		t.Error("DirectoryExists mismatch")
	}
}
