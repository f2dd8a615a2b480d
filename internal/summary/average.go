package summary

import (
	"fmt"
	"strings"

	"github.com/five82/avctc/internal/workbook"
)

const averageStartRow = 3

// sumRowsFormula averages col over rows of another sheet.
func sumRowsFormula(sheet string, rows []int, col int) string {
	cells := make([]string, len(rows))
	for i, r := range rows {
		cells[i] = fmt.Sprintf("'%s'!%s", sheet, workbook.AbsCell(col, r))
	}
	return fmt.Sprintf("SUM(%s)/%d", strings.Join(cells, ","), len(rows))
}

// weightedSumRowsFormula averages col over rows, each weighted by the cell of
// weightCol in the matching weight row, and divides by total.
func weightedSumRowsFormula(rows []int, col int, weightRows []int, weightCol, total int) string {
	cells := make([]string, len(rows))
	for i, r := range rows {
		cells[i] = fmt.Sprintf("%s * %s", workbook.AbsCell(col, r), workbook.AbsCell(weightCol, weightRows[i]))
	}
	return fmt.Sprintf("SUM(%s)/%d", strings.Join(cells, ","), total)
}

// averageCols returns the first column of each scaling ratio block and the
// offset of each algorithm pair inside a block. The reference ratio has a
// single block since it is never scaled.
func (s *rdSummary) averageCols() (colsRes, colsPair []int) {
	m := s.layout.NumMetrics
	colsRes = []int{startCol}
	second := startCol + m + 2
	step := len(s.pairs)*(m+1) + 1
	for i := 0; i < s.layout.NumRatios-1; i++ {
		colsRes = append(colsRes, second+step*i)
	}
	for j := range s.pairs {
		colsPair = append(colsPair, (m+1)*j)
	}
	return colsRes, colsPair
}

// writeAverage writes the per-class mean bitrate and quality of every QP,
// scaling ratio and algorithm pair, followed by the content-weighted total.
func (s *rdSummary) writeAverage(w *workbook.Writer) error {
	w.Set(0, 2, "Content Class")
	w.Set(1, 2, "Content Number")
	w.Set(2, 2, "QP")

	colsRes, colsPair := s.averageCols()
	for r, colRes := range colsRes {
		w.Set(colRes, 0, fmt.Sprintf("ScalingRatio = %.2f", s.cfg.DnScaleRatio[r]))
		if r == 0 {
			w.Set(colRes+1, 1, "None")
			s.metricHeaders(w, colRes, 2, true)
			continue
		}
		for j, p := range s.pairs {
			w.Set(colRes+colsPair[j]+1, 1, p.SheetName())
			s.metricHeaders(w, colRes+colsPair[j], 2, true)
		}
	}

	if len(s.layout.Groups) == 0 {
		return w.Err()
	}

	nQPs := s.layout.NumQPs
	rdCols := s.layout.WriteCols()
	classRows := make([]int, len(s.layout.Groups))
	for ci, g := range s.layout.Groups {
		row := averageStartRow + nQPs*ci
		classRows[ci] = row
		w.Set(0, row, g.Class)
		w.Set(1, row, len(g.Contents))
		for i, qp := range s.cfg.QPs {
			w.Set(2, row+i, qp)
		}

		for r, colRes := range colsRes {
			for i := 0; i < nQPs; i++ {
				sumRows := make([]int, len(g.Contents))
				for k := range g.Contents {
					sumRows[k] = s.layout.Row(ci, k, i)
				}
				for j, p := range s.pairs {
					for y := 0; y <= s.layout.NumMetrics; y++ {
						w.Formula(colRes+colsPair[j]+y, row+i, sumRowsFormula(p.SheetName(), sumRows, rdCols[r]+y))
					}
					if r == 0 {
						break
					}
				}
			}
		}
	}

	total := classRows[len(classRows)-1] + nQPs + 1
	w.Set(0, total, "Total")
	w.Set(1, total, s.layout.NumContents())
	for i, qp := range s.cfg.QPs {
		w.Set(2, total+i, qp)
	}
	for r, colRes := range colsRes {
		for i := 0; i < nQPs; i++ {
			sumRows := make([]int, len(classRows))
			for ci, row := range classRows {
				sumRows[ci] = row + i
			}
			for j := range s.pairs {
				for y := 0; y <= s.layout.NumMetrics; y++ {
					col := colRes + colsPair[j] + y
					w.Formula(col, total+i, weightedSumRowsFormula(sumRows, col, classRows, 1, s.layout.NumContents()))
				}
				if r == 0 {
					break
				}
			}
		}
	}
	return w.Err()
}

// metricHeaders writes the optional bitrate header and the metric names of a
// block starting at col.
func (s *rdSummary) metricHeaders(w *workbook.Writer, col, row int, bitrate bool) {
	if bitrate {
		w.Set(col, row, "Bitrate(kbps)")
		col++
	}
	for y, m := range s.cfg.QualityList {
		w.Set(col+y, row, m)
	}
}

// writeBDRateAverage writes the per-class mean BD-rate of every scaling ratio,
// algorithm pair and metric, followed by the content-weighted total.
func (s *rdSummary) writeBDRateAverage(w *workbook.Writer) error {
	w.Set(0, 2, "Content Class")
	w.Set(1, 2, "Content Number")

	m := s.layout.NumMetrics
	stepPair := m + 1
	stepRes := len(s.pairs)*stepPair + 1
	bdCols := s.layout.BDCols()
	colsRes := make([]int, len(bdCols))
	for b := range colsRes {
		colsRes[b] = 2 + stepRes*b
		w.Set(colsRes[b], 0, fmt.Sprintf("BD-Rate %.2f vs. %.2f", s.cfg.DnScaleRatio[b+1], s.cfg.DnScaleRatio[0]))
		for j, p := range s.pairs {
			w.Set(colsRes[b]+stepPair*j, 1, p.SheetName())
			s.metricHeaders(w, colsRes[b]+stepPair*j, 2, false)
		}
	}

	if len(s.layout.Groups) == 0 {
		return w.Err()
	}

	classRows := make([]int, len(s.layout.Groups))
	for ci, g := range s.layout.Groups {
		row := averageStartRow + ci
		classRows[ci] = row
		w.Set(0, row, g.Class)
		w.Set(1, row, len(g.Contents))

		sumRows := make([]int, len(g.Contents))
		for k := range g.Contents {
			sumRows[k] = s.layout.Row(ci, k, 0)
		}
		for b, bdCol := range bdCols {
			for j, p := range s.pairs {
				for y := 0; y < m; y++ {
					col := colsRes[b] + stepPair*j + y
					w.Formula(col, row, sumRowsFormula(p.SheetName(), sumRows, bdCol+y))
					w.Style(col, row, s.percent)
				}
			}
		}
	}

	total := classRows[len(classRows)-1] + 1
	w.Set(0, total, "Total")
	w.Set(1, total, s.layout.NumContents())
	for b := range bdCols {
		for j := range s.pairs {
			for y := 0; y < m; y++ {
				col := colsRes[b] + stepPair*j + y
				w.Formula(col, total, weightedSumRowsFormula(classRows, col, classRows, 1, s.layout.NumContents()))
				w.Style(col, total, s.percent)
			}
		}
	}
	return w.Err()
}
