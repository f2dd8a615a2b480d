package util

import (
	"fmt"

	"github.com/spf13/afero"
)

// FileSize returns the size of a file in bytes.
func FileSize(fs afero.Fs, path string) (uint64, error) {
	info, err := fs.Stat(path)
	if err != nil {
		return 0, err
	}
	if info.IsDir() {
		return 0, fmt.Errorf("%s is a directory", path)
	}
	return uint64(info.Size()), nil
}

// FileExists checks if a file exists.
func FileExists(fs afero.Fs, path string) bool {
	info, err := fs.Stat(path)
	return err == nil && !info.IsDir()
}

// DirectoryExists checks if a directory exists.
func DirectoryExists(fs afero.Fs, path string) bool {
	ok, err := afero.DirExists(fs, path)
	return err == nil && ok
}
