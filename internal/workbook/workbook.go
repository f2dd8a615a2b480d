// Package workbook holds the spreadsheet helpers shared by the result writers.
// Rows and columns are 0-based throughout; excelize is 1-based.
package workbook

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"github.com/xuri/excelize/v2"

	ctcerrors "github.com/five82/avctc/internal/errors"
)

// PercentFormat is the number format of BD-rate cells.
const PercentFormat = "0.00%"

// Cell returns the A1 name of a 0-based cell.
func Cell(col, row int) string {
	name, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		panic(fmt.Sprintf("invalid cell (%d, %d): %v", col, row, err))
	}
	return name
}

// AbsCell returns the absolute $A$1 name of a 0-based cell.
func AbsCell(col, row int) string {
	name, err := excelize.CoordinatesToCellName(col+1, row+1, true)
	if err != nil {
		panic(fmt.Sprintf("invalid cell (%d, %d): %v", col, row, err))
	}
	return name
}

// New creates a workbook holding the given sheets in order.
func New(sheets ...string) (*excelize.File, error) {
	f := excelize.NewFile()
	if len(sheets) == 0 {
		return f, nil
	}
	first := f.GetSheetName(0)
	if err := f.SetSheetName(first, sheets[0]); err != nil {
		return nil, ctcerrors.NewWorkbookError(fmt.Sprintf("naming sheet %s", sheets[0]), err)
	}
	for _, name := range sheets[1:] {
		if _, err := f.NewSheet(name); err != nil {
			return nil, ctcerrors.NewWorkbookError(fmt.Sprintf("adding sheet %s", name), err)
		}
	}
	return f, nil
}

// Open reads the workbook at path.
func Open(fs afero.Fs, path string) (*excelize.File, error) {
	r, err := fs.Open(path)
	if err != nil {
		return nil, ctcerrors.NewIOError(fmt.Sprintf("opening %s", path), err)
	}
	defer func() { _ = r.Close() }()

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, ctcerrors.NewWorkbookError(fmt.Sprintf("reading %s", path), err)
	}
	return f, nil
}

// Save writes f to path. A .xlsm path is saved macro-enabled.
func Save(fs afero.Fs, f *excelize.File, path string) error {
	if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return ctcerrors.NewIOError(fmt.Sprintf("creating folder of %s", path), err)
	}
	w, err := fs.Create(path)
	if err != nil {
		return ctcerrors.NewIOError(fmt.Sprintf("creating %s", path), err)
	}

	f.Path = path
	if err := f.Write(w); err != nil {
		_ = w.Close()
		return ctcerrors.NewWorkbookError(fmt.Sprintf("writing %s", path), err)
	}
	if err := w.Close(); err != nil {
		return ctcerrors.NewIOError(fmt.Sprintf("closing %s", path), err)
	}
	return nil
}

// Writer sets cells on one sheet and keeps the first error.
type Writer struct {
	f     *excelize.File
	sheet string
	err   error
}

// NewWriter returns a writer for sheet.
func NewWriter(f *excelize.File, sheet string) *Writer {
	return &Writer{f: f, sheet: sheet}
}

// Set writes a value.
func (w *Writer) Set(col, row int, v interface{}) {
	if w.err != nil {
		return
	}
	if err := w.f.SetCellValue(w.sheet, Cell(col, row), v); err != nil {
		w.err = ctcerrors.NewWorkbookError(fmt.Sprintf("%s!%s", w.sheet, Cell(col, row)), err)
	}
}

// Formula writes a formula. A leading '=' is dropped.
func (w *Writer) Formula(col, row int, formula string) {
	if w.err != nil {
		return
	}
	formula = strings.TrimPrefix(formula, "=")
	if err := w.f.SetCellFormula(w.sheet, Cell(col, row), formula); err != nil {
		w.err = ctcerrors.NewWorkbookError(fmt.Sprintf("%s!%s", w.sheet, Cell(col, row)), err)
	}
}

// Style applies a style to a single cell.
func (w *Writer) Style(col, row, style int) {
	if w.err != nil {
		return
	}
	c := Cell(col, row)
	if err := w.f.SetCellStyle(w.sheet, c, c, style); err != nil {
		w.err = ctcerrors.NewWorkbookError(fmt.Sprintf("styling %s!%s", w.sheet, c), err)
	}
}

// Err returns the first error hit.
func (w *Writer) Err() error {
	return w.err
}

// NumberStyle registers a custom number format and returns its style ID.
func NumberStyle(f *excelize.File, format string) (int, error) {
	id, err := f.NewStyle(&excelize.Style{CustomNumFmt: &format})
	if err != nil {
		return 0, ctcerrors.NewWorkbookError(fmt.Sprintf("number format %s", format), err)
	}
	return id, nil
}

// Rows returns the raw cell values of sheet, indexed [row][col].
func Rows(f *excelize.File, sheet string) ([][]string, error) {
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, ctcerrors.NewWorkbookError(fmt.Sprintf("reading sheet %s", sheet), err)
	}
	return rows, nil
}

// At returns rows[row][col] or "" when out of range.
func At(rows [][]string, col, row int) string {
	if row < 0 || row >= len(rows) || col < 0 || col >= len(rows[row]) {
		return ""
	}
	return rows[row][col]
}

// Value converts a raw cell to a number when it parses as one, so numbers
// copied between workbooks stay numeric.
func Value(s string) interface{} {
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}
	return s
}
