package convexhull

import (
	"fmt"

	"github.com/spf13/afero"

	"github.com/five82/avctc/internal/config"
	"github.com/five82/avctc/internal/logging"
	"github.com/five82/avctc/internal/workbook"
)

// AlgoResult holds the RD points of one downscale/upscale algorithm pair,
// indexed [ratio][qp].
type AlgoResult struct {
	DnAlgo string
	UpAlgo string
	Points [][]RDPoint
}

// SheetName returns the workbook sheet name of the pair.
func (a AlgoResult) SheetName() string {
	return SheetName(a.DnAlgo, a.UpAlgo)
}

// All returns every point of the pair.
func (a AlgoResult) All() []RDPoint {
	var out []RDPoint
	for _, row := range a.Points {
		out = append(out, row...)
	}
	return out
}

// SheetName joins a downscale and upscale algorithm into a sheet name.
func SheetName(dn, up string) string {
	return dn + "--" + up
}

// WriteContentResult writes the RD points of one content into a workbook with
// a sheet per algorithm pair, laid out as cfg.ContentLayout describes.
func WriteContentResult(fs afero.Fs, path string, cfg *config.Config, results []AlgoResult) error {
	sheets := make([]string, len(results))
	for i, r := range results {
		sheets[i] = r.SheetName()
	}
	f, err := workbook.New(sheets...)
	if err != nil {
		return err
	}

	layout := cfg.ContentLayout()
	for _, r := range results {
		if err := writeSheet(workbook.NewWriter(f, r.SheetName()), layout, cfg, r); err != nil {
			return err
		}
	}

	if err := workbook.Save(fs, f, path); err != nil {
		return err
	}
	logging.Info("convex hull result written", "path", path, "sheets", len(sheets))
	return nil
}

func writeSheet(w *workbook.Writer, layout config.ContentLayout, cfg *config.Config, r AlgoResult) error {
	rows := layout.WriteRows()
	cols := layout.WriteCols()

	w.Set(0, 1, "QP")
	for q, row := range rows {
		w.Set(0, row, cfg.QPs[q])
	}

	for i, col := range cols {
		w.Set(col, 0, fmt.Sprintf("Scaling Ratio = %.2f", cfg.DnScaleRatio[i]))
		w.Set(col, 1, "Bitrate(kbps)")
		for y, m := range cfg.QualityList {
			w.Set(col+1+y, 1, m)
		}
		if i >= len(r.Points) {
			continue
		}
		for q, p := range r.Points[i] {
			if q >= len(rows) {
				break
			}
			if q == 0 {
				w.Set(col+1, 0, p.Resolution())
			}
			w.Set(col, rows[q], p.Bitrate)
			for y, v := range p.Quality {
				w.Set(col+1+y, rows[q], v)
			}
		}
	}

	w.Set(0, layout.HullDataStartRow(), "ConvexHull Data")
	all := r.All()
	for y, row := range layout.HullDataRows() {
		w.Set(0, row, cfg.QualityList[y])
		w.Set(0, row+1, "Bitrate(kbps)")
		w.Set(0, row+2, "QP")
		w.Set(0, row+3, "Resolution")
		for k, p := range UpperHull(all, y) {
			w.Set(1+k, row, p.Value)
			w.Set(1+k, row+1, p.Bitrate)
			w.Set(1+k, row+2, p.QP)
			w.Set(1+k, row+3, p.Resolution())
		}
	}
	return w.Err()
}
