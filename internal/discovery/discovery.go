// Package discovery lists the clip and result files of a folder.
package discovery

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// FindFiles returns the names of the files in dir whose extension is one of
// exts, compared case-insensitively. Hidden files are skipped. Names are
// sorted alphabetically ignoring case.
func FindFiles(fs afero.Fs, dir string, exts ...string) ([]string, error) {
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, fmt.Errorf("cannot read directory %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		if hasExt(name, exts) {
			files = append(files, name)
		}
	}
	sortNames(files)
	return files, nil
}

// FindDirs returns the names of the non-hidden sub-directories of dir, sorted
// alphabetically ignoring case.
func FindDirs(fs afero.Fs, dir string) ([]string, error) {
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, fmt.Errorf("cannot read directory %s: %w", dir, err)
	}

	var dirs []string
	for _, entry := range entries {
		if entry.IsDir() && !strings.HasPrefix(entry.Name(), ".") {
			dirs = append(dirs, entry.Name())
		}
	}
	sortNames(dirs)
	return dirs, nil
}

func hasExt(name string, exts []string) bool {
	ext := filepath.Ext(name)
	for _, e := range exts {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

func sortNames(names []string) {
	sort.SliceStable(names, func(i, j int) bool {
		return strings.ToLower(names[i]) < strings.ToLower(names[j])
	})
}
