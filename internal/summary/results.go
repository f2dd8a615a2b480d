package summary

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/five82/avctc/internal/clip"
	"github.com/five82/avctc/internal/convexhull"
	"github.com/five82/avctc/internal/discovery"
	ctcerrors "github.com/five82/avctc/internal/errors"
	"github.com/five82/avctc/internal/logging"
	"github.com/five82/avctc/internal/workbook"
)

// AlgoPair is a downscale and upscale algorithm tested together.
type AlgoPair struct {
	Dn string
	Up string
}

// SheetName returns the sheet name holding the pair's results.
func (p AlgoPair) SheetName() string {
	return convexhull.SheetName(p.Dn, p.Up)
}

func resultFiles(fs afero.Fs, dir string) ([]string, error) {
	names, err := discovery.FindFiles(fs, dir, ".xlsx")
	if err != nil {
		return nil, ctcerrors.NewIOError(fmt.Sprintf("reading %s", dir), err)
	}
	return names, nil
}

// SweepScalingAlgos returns the algorithm pairs tested in the first result
// workbook of dir. Every content is expected to hold the same pairs.
func SweepScalingAlgos(fs afero.Fs, dir string) ([]AlgoPair, error) {
	names, err := resultFiles(fs, dir)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, ctcerrors.NewResultNotFoundError("any", dir)
	}

	f, err := workbook.Open(fs, filepath.Join(dir, names[0]))
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var pairs []AlgoPair
	for _, sheet := range f.GetSheetList() {
		dn, up, ok := strings.Cut(sheet, "--")
		if !ok {
			logging.Debug("ignoring sheet", "sheet", sheet, "file", names[0])
			continue
		}
		pairs = append(pairs, AlgoPair{Dn: dn, Up: up})
	}
	if len(pairs) == 0 {
		return nil, ctcerrors.NewWorkbookError(fmt.Sprintf("no scaling algorithm sheet in %s", names[0]), nil)
	}
	return pairs, nil
}

// contentResult holds the raw rows of each sheet of one result workbook.
type contentResult struct {
	path   string
	sheets map[string][][]string
}

func (r *contentResult) rows(sheet string) ([][]string, error) {
	rows, ok := r.sheets[sheet]
	if !ok {
		return nil, ctcerrors.NewWorkbookError(fmt.Sprintf("sheet %s missing in %s", sheet, r.path), nil)
	}
	return rows, nil
}

// loadResults reads the result workbook of every content, keyed by short
// content name. The first workbook whose name contains the key is used, and a
// content repeating an earlier key is reported and reuses that workbook. With
// skipMissing a content without workbook is logged and left out.
func loadResults(fs afero.Fs, dir string, groups []clip.ClassGroup, skipMissing bool, warn func(string)) (map[string]*contentResult, error) {
	names, err := resultFiles(fs, dir)
	if err != nil {
		return nil, err
	}

	results := make(map[string]*contentResult)
	owners := make(map[string]string)
	for _, g := range groups {
		for _, c := range g.Contents {
			key := c.ShortName()
			if first, ok := owners[key]; ok {
				logging.Warn("contents share a result key", "content", c.FileName, "first", first, "key", key)
				warn(fmt.Sprintf("content %s shares result key %s with %s and reuses its result file", c.FileName, key, first))
				continue
			}
			owners[key] = c.FileName
			name := ""
			for _, n := range names {
				if strings.Contains(n, key) {
					name = n
					break
				}
			}
			if name == "" {
				if !skipMissing {
					return nil, ctcerrors.NewResultNotFoundError(c.FileName, dir)
				}
				logging.Warn("convex hull result file not found", "content", c.FileName, "dir", dir)
				warn(fmt.Sprintf("no convex hull result file for content %s", c.FileName))
				continue
			}

			r, err := readResult(fs, filepath.Join(dir, name))
			if err != nil {
				return nil, err
			}
			results[key] = r
		}
	}
	return results, nil
}

func readResult(fs afero.Fs, path string) (*contentResult, error) {
	f, err := workbook.Open(fs, path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	r := &contentResult{path: path, sheets: make(map[string][][]string)}
	for _, sheet := range f.GetSheetList() {
		rows, err := workbook.Rows(f, sheet)
		if err != nil {
			return nil, err
		}
		r.sheets[sheet] = rows
	}
	return r, nil
}
