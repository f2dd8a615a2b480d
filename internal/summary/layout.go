// Package summary aggregates the per-content convex hull workbooks into the
// cross-content RD summary and convex hull data workbooks.
package summary

import (
	"github.com/five82/avctc/internal/clip"
)

// Summary sheet layout. Columns 0-2 hold class, content and QP; each scaling
// ratio block is a bitrate column plus one column per metric.
const (
	startRow    = 2
	startCol    = 3
	colInterval = 2

	// copyOffset maps a per-content result column to its summary column.
	copyOffset = 2
)

// Layout places every content of every class on the per-algorithm summary
// sheets. Rows and columns are 0-based.
type Layout struct {
	Groups     []clip.ClassGroup
	NumQPs     int
	NumRatios  int
	NumMetrics int

	// ClassRows holds the first row of each class.
	ClassRows []int
}

// NewLayout computes the row of each class: classes follow each other with
// NumQPs rows per content.
func NewLayout(groups []clip.ClassGroup, nQPs, nRatios, nMetrics int) Layout {
	l := Layout{
		Groups:     groups,
		NumQPs:     nQPs,
		NumRatios:  nRatios,
		NumMetrics: nMetrics,
		ClassRows:  make([]int, len(groups)),
	}
	row := startRow
	for i, g := range groups {
		l.ClassRows[i] = row
		row += len(g.Contents) * nQPs
	}
	return l
}

// Row returns the row of a content's QP, all indexes being positions in the
// layout.
func (l Layout) Row(class, content, qp int) int {
	return l.ClassRows[class] + content*l.NumQPs + qp
}

// WriteCols returns the bitrate column of each scaling ratio block.
func (l Layout) WriteCols() []int {
	step := colInterval + 1 + l.NumMetrics
	cols := make([]int, l.NumRatios)
	for i := range cols {
		cols[i] = startCol + step*i
	}
	return cols
}

// BDCols returns the first BD-rate column of every scaling ratio but the
// reference one. Each block holds one column per metric.
func (l Layout) BDCols() []int {
	if l.NumRatios < 2 {
		return nil
	}
	step := l.NumMetrics + 1
	first := l.WriteCols()[l.NumRatios-1] + step + 1
	cols := make([]int, l.NumRatios-1)
	for i := range cols {
		cols[i] = first + step*i
	}
	return cols
}

// NumContents returns the number of contents over all classes.
func (l Layout) NumContents() int {
	n := 0
	for _, g := range l.Groups {
		n += len(g.Contents)
	}
	return n
}
