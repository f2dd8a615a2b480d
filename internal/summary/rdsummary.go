package summary

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/montanaflynn/stats"
	"github.com/spf13/afero"
	"github.com/xuri/excelize/v2"

	"github.com/five82/avctc/internal/bdrate"
	"github.com/five82/avctc/internal/clip"
	"github.com/five82/avctc/internal/config"
	ctcerrors "github.com/five82/avctc/internal/errors"
	"github.com/five82/avctc/internal/logging"
	"github.com/five82/avctc/internal/reporter"
	"github.com/five82/avctc/internal/util"
	"github.com/five82/avctc/internal/workbook"
)

// Summarizer writes the cross-content workbooks.
type Summarizer struct {
	fs  afero.Fs
	cfg *config.Config
	rep reporter.Reporter
}

// New creates a summarizer.
func New(fs afero.Fs, cfg *config.Config, rep reporter.Reporter) *Summarizer {
	if rep == nil {
		rep = reporter.NullReporter{}
	}
	return &Summarizer{fs: fs, cfg: cfg, rep: rep}
}

// RDSummaryFileName returns the RD summary workbook path. It is macro-enabled
// when BD-rates are computed by the workbook itself.
func RDSummaryFileName(cfg *config.Config, method, codec, preset, dir string) string {
	ext := "xlsx"
	if cfg.CalcBDRateInExcel {
		ext = "xlsm"
	}
	name := fmt.Sprintf("ConvexHullRDSummary_ScaleAlgosNum_%d_%s_%s_%s.%s", len(cfg.DnScaleRatio), method, codec, preset, ext)
	return filepath.Join(dir, name)
}

// ConvexHullSummaryFileName returns the convex hull data workbook path.
func ConvexHullSummaryFileName(cfg *config.Config, method, codec, preset, dir string) string {
	name := fmt.Sprintf("ConvexHullData_ScaleAlgosNum_%d_%s_%s_%s.xlsx", len(cfg.DnScaleRatio), method, codec, preset)
	return filepath.Join(dir, name)
}

// rdSummary is the state of one RD summary workbook being built.
type rdSummary struct {
	cfg     *config.Config
	f       *excelize.File
	layout  Layout
	pairs   []AlgoPair
	results map[string]*contentResult
	percent int

	// bdValues holds in-process BD-rates in percent, indexed
	// [pair][ratio-1][metric]. bdQuality holds BD-quality deltas the same way.
	bdValues  [][][][]float64
	bdQuality [][][][]float64
}

// GenerateRDSummary copies every content's QP rows into one sheet per
// algorithm pair, adds BD-rates of each scaling ratio against the unscaled
// reference, and writes the Average and Average_BDRate sheets. It returns
// the workbook path.
func (s *Summarizer) GenerateRDSummary(method, codec, preset, outDir, inDir string, groups []clip.ClassGroup) (string, error) {
	logging.Info("start generating RD summary", "in", inDir, "out", outDir)
	if s.cfg.CalcBDRateInExcel && !util.FileExists(s.fs, s.cfg.VbaBinFile) {
		return "", ctcerrors.NewIOError(fmt.Sprintf("VBA project %s not found", s.cfg.VbaBinFile), os.ErrNotExist)
	}
	pairs, err := SweepScalingAlgos(s.fs, inDir)
	if err != nil {
		return "", err
	}
	results, err := loadResults(s.fs, inDir, groups, s.cfg.SkipMissingResults, s.rep.Warning)
	if err != nil {
		return "", err
	}

	sum, err := s.buildRDSummary(pairs, groups, results)
	if err != nil {
		return "", err
	}

	path := RDSummaryFileName(s.cfg, method, codec, preset, outDir)
	if s.cfg.CalcBDRateInExcel {
		vba, err := afero.ReadFile(s.fs, s.cfg.VbaBinFile)
		if err != nil {
			return "", ctcerrors.NewIOError(fmt.Sprintf("reading VBA project %s", s.cfg.VbaBinFile), err)
		}
		if err := sum.f.AddVBAProject(vba); err != nil {
			return "", ctcerrors.NewWorkbookError("adding VBA project", err)
		}
	}
	if err := workbook.Save(s.fs, sum.f, path); err != nil {
		return "", err
	}

	s.rep.BDRateSummary(sum.report(path))
	logging.Info("RD summary written", "path", path)
	return path, nil
}

func (s *Summarizer) buildRDSummary(pairs []AlgoPair, groups []clip.ClassGroup, results map[string]*contentResult) (*rdSummary, error) {
	sheets := make([]string, 0, len(pairs)+2)
	for _, p := range pairs {
		sheets = append(sheets, p.SheetName())
	}
	sheets = append(sheets, "Average", "Average_BDRate")
	f, err := workbook.New(sheets...)
	if err != nil {
		return nil, err
	}
	percent, err := workbook.NumberStyle(f, workbook.PercentFormat)
	if err != nil {
		return nil, err
	}

	sum := &rdSummary{
		cfg:       s.cfg,
		f:         f,
		layout:    NewLayout(groups, len(s.cfg.QPs), len(s.cfg.DnScaleRatio), len(s.cfg.QualityList)),
		pairs:     pairs,
		results:   results,
		percent:   percent,
		bdValues:  make([][][][]float64, len(pairs)),
		bdQuality: make([][][][]float64, len(pairs)),
	}

	for i, p := range pairs {
		w := workbook.NewWriter(f, p.SheetName())
		if err := sum.copyResults(w, p); err != nil {
			return nil, err
		}
		if err := sum.writeBDRates(w, i, p); err != nil {
			return nil, err
		}
		if err := w.Err(); err != nil {
			return nil, err
		}
	}

	if err := sum.writeAverage(workbook.NewWriter(f, "Average")); err != nil {
		return nil, err
	}
	if err := sum.writeBDRateAverage(workbook.NewWriter(f, "Average_BDRate")); err != nil {
		return nil, err
	}
	return sum, nil
}

// copyResults writes the headers of a pair's sheet and copies every
// content's QP rows into it.
func (s *rdSummary) copyResults(w *workbook.Writer, p AlgoPair) error {
	w.Set(0, 1, "Content Class")
	w.Set(1, 1, "Content Name")
	w.Set(2, 1, "QP")
	for i, col := range s.layout.WriteCols() {
		w.Set(col, 0, fmt.Sprintf("Scaling Ratio = %.2f", s.cfg.DnScaleRatio[i]))
		w.Set(col, 1, "Bitrate(kbps)")
		for y, m := range s.cfg.QualityList {
			w.Set(col+1+y, 1, m)
		}
	}

	content := s.cfg.ContentLayout()
	lastCol := content.LastCol()
	for ci, g := range s.layout.Groups {
		w.Set(0, s.layout.ClassRows[ci], g.Class)
		for k, c := range g.Contents {
			key := c.ShortName()
			w.Set(1, s.layout.Row(ci, k, 0), key)
			res, ok := s.results[key]
			if !ok {
				continue
			}
			rows, err := res.rows(p.SheetName())
			if err != nil {
				return err
			}
			for q, rdrow := range content.WriteRows() {
				for col := 0; col <= lastCol; col++ {
					if v := workbook.At(rows, col, rdrow); v != "" {
						w.Set(col+copyOffset, s.layout.Row(ci, k, q), workbook.Value(v))
					}
				}
			}
		}
	}
	return w.Err()
}

// writeBDRates writes, per content and metric, the BD-rate of every scaling
// ratio against the first one, over all QPs. With CalcBDRateInExcel the cell
// holds a bdRateExtend formula evaluated by the workbook's macro; otherwise
// the value is computed here. The in-process value is always kept for the
// report.
func (s *rdSummary) writeBDRates(w *workbook.Writer, pairIdx int, p AlgoPair) error {
	cols := s.layout.WriteCols()
	bdCols := s.layout.BDCols()
	content := s.cfg.ContentLayout()
	rdRows := content.WriteRows()
	rdCols := content.WriteCols()
	last := s.layout.NumQPs - 1

	s.bdValues[pairIdx] = make([][][]float64, len(bdCols))
	s.bdQuality[pairIdx] = make([][][]float64, len(bdCols))
	for b, bdCol := range bdCols {
		res := b + 1
		s.bdValues[pairIdx][b] = make([][]float64, s.layout.NumMetrics)
		s.bdQuality[pairIdx][b] = make([][]float64, s.layout.NumMetrics)
		w.Set(bdCol, 0, fmt.Sprintf("BD-Rate %.2f vs. %.2f", s.cfg.DnScaleRatio[res], s.cfg.DnScaleRatio[0]))
		for y, m := range s.cfg.QualityList {
			w.Set(bdCol+y, 1, m)
		}

		for ci, g := range s.layout.Groups {
			for k, c := range g.Contents {
				result, ok := s.results[c.ShortName()]
				if !ok {
					continue
				}
				rows, err := result.rows(p.SheetName())
				if err != nil {
					return err
				}
				first := s.layout.Row(ci, k, 0)

				for y := 0; y < s.layout.NumMetrics; y++ {
					if q, err := bdQualityFromRows(rows, rdRows, rdCols[0], rdCols[res], y); err == nil {
						s.bdQuality[pairIdx][b][y] = append(s.bdQuality[pairIdx][b][y], q)
					}
					v, err := bdRateFromRows(rows, rdRows, rdCols[0], rdCols[res], y)
					if err != nil {
						logging.Warn("BD-rate not computed", "content", c.FileName, "sheet", p.SheetName(), "metric", s.cfg.QualityList[y], "error", err)
					} else {
						s.bdValues[pairIdx][b][y] = append(s.bdValues[pairIdx][b][y], v)
					}

					switch {
					case s.cfg.CalcBDRateInExcel:
						w.Formula(bdCol+y, first, fmt.Sprintf("bdRateExtend(%s:%s,%s:%s,%s:%s,%s:%s)",
							workbook.AbsCell(cols[0], first), workbook.AbsCell(cols[0], first+last),
							workbook.AbsCell(cols[0]+1+y, first), workbook.AbsCell(cols[0]+1+y, first+last),
							workbook.AbsCell(cols[res], first), workbook.AbsCell(cols[res], first+last),
							workbook.AbsCell(cols[res]+1+y, first), workbook.AbsCell(cols[res]+1+y, first+last)))
					case err == nil:
						w.Set(bdCol+y, first, v/100)
					default:
						continue
					}
					w.Style(bdCol+y, first, s.percent)
				}
			}
		}
	}
	return w.Err()
}

// bdRateFromRows computes the BD-rate of the ratio block at testCol against
// the block at refCol for metric y, from a per-content result sheet.
func bdRateFromRows(rows [][]string, rdRows []int, refCol, testCol, y int) (float64, error) {
	refRates, refQty, testRates, testQty, err := curves(rows, rdRows, refCol, testCol, y)
	if err != nil {
		return 0, err
	}
	v, err := bdrate.BDRate(refRates, refQty, testRates, testQty)
	if err != nil {
		return 0, ctcerrors.NewBDRateError("BD-rate calculation failed", err)
	}
	return v, nil
}

// bdQualityFromRows is bdRateFromRows for the quality delta at equal rate.
func bdQualityFromRows(rows [][]string, rdRows []int, refCol, testCol, y int) (float64, error) {
	refRates, refQty, testRates, testQty, err := curves(rows, rdRows, refCol, testCol, y)
	if err != nil {
		return 0, err
	}
	v, err := bdrate.BDQuality(refRates, refQty, testRates, testQty)
	if err != nil {
		return 0, ctcerrors.NewBDRateError("BD-quality calculation failed", err)
	}
	return v, nil
}

func curves(rows [][]string, rdRows []int, refCol, testCol, y int) (refRates, refQty, testRates, testQty []float64, err error) {
	if refRates, err = column(rows, rdRows, refCol); err != nil {
		return
	}
	if refQty, err = column(rows, rdRows, refCol+1+y); err != nil {
		return
	}
	if testRates, err = column(rows, rdRows, testCol); err != nil {
		return
	}
	testQty, err = column(rows, rdRows, testCol+1+y)
	return
}

func column(rows [][]string, rdRows []int, col int) ([]float64, error) {
	out := make([]float64, len(rdRows))
	for i, r := range rdRows {
		s := workbook.At(rows, col, r)
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, ctcerrors.NewWorkbookError(fmt.Sprintf("cell %s is not a number: %q", workbook.Cell(col, r), s), err)
		}
		out[i] = v
	}
	return out, nil
}

// report summarizes the in-process BD-rates per pair, ratio and metric.
func (s *rdSummary) report(path string) reporter.BDRateSummary {
	summary := reporter.BDRateSummary{Workbook: path}
	for i, p := range s.pairs {
		for b, perMetric := range s.bdValues[i] {
			for y, values := range perMetric {
				if len(values) == 0 {
					continue
				}
				data := stats.Float64Data(values)
				line := reporter.BDRateLine{
					Algo:     p.SheetName(),
					Ratio:    s.cfg.DnScaleRatio[b+1],
					Metric:   s.cfg.QualityList[y],
					Contents: len(values),
				}
				line.Mean, _ = stats.Mean(data)
				line.Median, _ = stats.Median(data)
				line.Min, _ = stats.Min(data)
				line.Max, _ = stats.Max(data)
				if q := s.bdQuality[i][b][y]; len(q) > 0 {
					line.QualityMean, _ = stats.Mean(stats.Float64Data(q))
				}
				summary.Lines = append(summary.Lines, line)
			}
		}
	}
	return summary
}
