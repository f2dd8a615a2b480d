package summary

import (
	"github.com/five82/avctc/internal/clip"
	"github.com/five82/avctc/internal/logging"
	"github.com/five82/avctc/internal/workbook"
)

// GenerateConvexHullSummary gathers the convex hull points of every content
// into one sheet per algorithm pair. Each content takes as many rows as its
// longest hull over the metrics; each metric gets Resolution, QP,
// Bitrate(kbps) and quality columns.
func (s *Summarizer) GenerateConvexHullSummary(method, codec, preset, outDir, inDir string, groups []clip.ClassGroup) (string, error) {
	logging.Info("start generating convex hull data summary", "in", inDir, "out", outDir)
	pairs, err := SweepScalingAlgos(s.fs, inDir)
	if err != nil {
		return "", err
	}
	results, err := loadResults(s.fs, inDir, groups, s.cfg.SkipMissingResults, s.rep.Warning)
	if err != nil {
		return "", err
	}

	sheets := make([]string, len(pairs))
	for i, p := range pairs {
		sheets[i] = p.SheetName()
	}
	f, err := workbook.New(sheets...)
	if err != nil {
		return "", err
	}

	for _, p := range pairs {
		if err := s.writeHullSheet(workbook.NewWriter(f, p.SheetName()), p, groups, results); err != nil {
			return "", err
		}
	}

	path := ConvexHullSummaryFileName(s.cfg, method, codec, preset, outDir)
	if err := workbook.Save(s.fs, f, path); err != nil {
		return "", err
	}
	logging.Info("convex hull data summary written", "path", path)
	return path, nil
}

func (s *Summarizer) writeHullSheet(w *workbook.Writer, p AlgoPair, groups []clip.ClassGroup, results map[string]*contentResult) error {
	w.Set(0, 0, "Content Class")
	w.Set(1, 0, "Content Name")
	w.Set(2, 0, "Num RD Points")
	cols := make([]int, len(s.cfg.QualityList))
	for y, m := range s.cfg.QualityList {
		cols[y] = startCol + 4*y
		w.Set(cols[y], 0, "Resolution")
		w.Set(cols[y]+1, 0, "QP")
		w.Set(cols[y]+2, 0, "Bitrate(kbps)")
		w.Set(cols[y]+3, 0, m)
	}

	hullRows := s.cfg.ContentLayout().HullDataRows()
	row := 1
	for _, g := range groups {
		w.Set(0, row, g.Class)
		for _, c := range g.Contents {
			key := c.ShortName()
			w.Set(1, row, key)
			res, ok := results[key]
			if !ok {
				row++
				continue
			}
			rows, err := res.rows(p.SheetName())
			if err != nil {
				return err
			}

			maxPoints := 0
			for y, rdrow := range hullRows {
				// quality, bitrate, QP and resolution rows, written as
				// resolution, QP, bitrate and quality columns
				for k, src := range []int{rdrow + 3, rdrow + 2, rdrow + 1, rdrow} {
					values := hullRow(rows, src)
					for i, v := range values {
						w.Set(cols[y]+k, row+i, workbook.Value(v))
					}
					if src == rdrow && len(values) > maxPoints {
						maxPoints = len(values)
					}
				}
			}
			w.Set(2, row, maxPoints)
			row += max(maxPoints, 1)
		}
	}
	return w.Err()
}

// hullRow returns the values of row from column 1 up to the first blank cell.
func hullRow(rows [][]string, row int) []string {
	var out []string
	for col := 1; ; col++ {
		v := workbook.At(rows, col, row)
		if v == "" {
			return out
		}
		out = append(out, v)
	}
}
