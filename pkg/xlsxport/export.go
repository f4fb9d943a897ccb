package xlsxport

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// Table is an in-memory table: named columns and dynamically typed rows.
// Row values pass through FromValue on write, so rows may mix Go
// primitives, time.Time values and pre-classified CellValues.
type Table struct {
	Columns []string
	Rows    [][]interface{}
}

// colCount is the widest extent across the header and every row.
func (t *Table) colCount() int {
	n := len(t.Columns)
	for _, row := range t.Rows {
		if len(row) > n {
			n = len(row)
		}
	}
	return n
}

// Sheet pairs a table with its destination sheet name and an optional
// per-sheet configuration override.
type Sheet struct {
	Name   string
	Table  *Table
	Config *SheetConfig
}

// ExportTable writes a single table to an XLSX file. It returns the
// number of data rows and columns written.
func ExportTable(path, sheetName string, table *Table, opts Options) (int, int, error) {
	return ExportTables(path, []Sheet{{Name: sheetName, Table: table}}, opts)
}

// ExportTables writes one worksheet per entry. Per-sheet configuration is
// resolved against the global options field by field. It returns the total
// number of data rows and the widest column count across sheets.
func ExportTables(path string, sheets []Sheet, global Options) (int, int, error) {
	f, rows, cols, err := buildWorkbook(sheets, global)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return 0, 0, fmt.Errorf("save %s: %w", path, err)
	}
	return rows, cols, nil
}

// ExportTablesWriter is ExportTables writing to a stream instead of a
// file path.
func ExportTablesWriter(w io.Writer, sheets []Sheet, global Options) (int, int, error) {
	f, rows, cols, err := buildWorkbook(sheets, global)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()
	if err := f.Write(w); err != nil {
		return 0, 0, fmt.Errorf("write workbook: %w", err)
	}
	return rows, cols, nil
}

func buildWorkbook(sheets []Sheet, global Options) (*excelize.File, int, int, error) {
	if len(sheets) == 0 {
		return nil, 0, 0, fmt.Errorf("no sheets to export")
	}
	f := excelize.NewFile()
	seen := make(map[string]bool, len(sheets))
	totalRows, maxCols := 0, 0
	for i, s := range sheets {
		if s.Name == "" {
			return nil, 0, 0, fmt.Errorf("sheet %d: empty name", i)
		}
		if seen[s.Name] {
			return nil, 0, 0, fmt.Errorf("duplicate sheet name %q", s.Name)
		}
		seen[s.Name] = true
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.Name); err != nil {
				f.Close()
				return nil, 0, 0, fmt.Errorf("sheet name %q: %w", s.Name, err)
			}
		} else {
			if _, err := f.NewSheet(s.Name); err != nil {
				f.Close()
				return nil, 0, 0, fmt.Errorf("sheet name %q: %w", s.Name, err)
			}
		}
		opts := s.Config.Apply(global)
		rows, cols, err := exportSheet(f, s.Name, s.Table, opts)
		if err != nil {
			f.Close()
			return nil, 0, 0, fmt.Errorf("sheet %q: %w", s.Name, err)
		}
		totalRows += rows
		if cols > maxCols {
			maxCols = cols
		}
	}
	return f, totalRows, maxCols, nil
}

// exportSheet runs the full feature pipeline for one sheet: header row,
// data rows, table, formula columns, conditional formats, freeze panes,
// column widths, row heights, merged ranges, hyperlinks, notes,
// validations, rich text and images, in that order.
func exportSheet(f *excelize.File, sheet string, table *Table, opts Options) (int, int, error) {
	if table == nil {
		table = &Table{}
	}
	colCount := table.colCount()
	st, err := resolveStyles(f, table.Columns, opts)
	if err != nil {
		return 0, 0, err
	}

	contentWidths := make([]float64, colCount)
	headerRow, dataStart := 1, 1
	if opts.Header {
		dataStart = 2
		for i, name := range table.Columns {
			cell, err := excelize.CoordinatesToCellName(i+1, headerRow)
			if err != nil {
				return 0, 0, err
			}
			if err := f.SetCellStr(sheet, cell, name); err != nil {
				return 0, 0, err
			}
			if st.header != 0 {
				if err := f.SetCellStyle(sheet, cell, cell, st.header); err != nil {
					return 0, 0, err
				}
			}
			if w := float64(len(name)); w > contentWidths[i] {
				contentWidths[i] = w
			}
		}
	}

	for r, row := range table.Rows {
		for c, raw := range row {
			v := FromValue(raw)
			cell, err := excelize.CoordinatesToCellName(c+1, dataStart+r)
			if err != nil {
				return 0, 0, err
			}
			if err := writeCell(f, sheet, cell, v, st.styleFor(c, v)); err != nil {
				return 0, 0, fmt.Errorf("write cell (%d, %d): %w", r, c, err)
			}
			if w := float64(v.displayWidth()); w > contentWidths[c] {
				contentWidths[c] = w
			}
		}
	}

	rowCount := len(table.Rows)
	lastRow := dataStart + rowCount - 1

	if opts.TableStyle != "" && rowCount > 0 {
		if err := applyTable(f, sheet, opts, colCount, headerRow, lastRow); err != nil {
			return 0, 0, err
		}
	}
	totalCols, err := applyFormulaColumns(f, sheet, opts, st, colCount, dataStart, lastRow)
	if err != nil {
		return 0, 0, err
	}
	if err := applyConditionalFormats(f, sheet, opts, table.Columns, dataStart, lastRow); err != nil {
		return 0, 0, err
	}
	if opts.FreezePanes && opts.Header {
		if err := applyFreezePanes(f, sheet); err != nil {
			return 0, 0, err
		}
	}
	if err := applyColumnWidths(f, sheet, opts, totalCols, contentWidths); err != nil {
		return 0, 0, err
	}
	if err := applyRowHeights(f, sheet, opts); err != nil {
		return 0, 0, err
	}
	if err := applyMergedRanges(f, sheet, opts); err != nil {
		return 0, 0, err
	}
	if err := applyHyperlinks(f, sheet, opts); err != nil {
		return 0, 0, err
	}
	if err := applyNotes(f, sheet, opts); err != nil {
		return 0, 0, err
	}
	if err := applyValidations(f, sheet, opts, table.Columns, dataStart, lastRow); err != nil {
		return 0, 0, err
	}
	if err := applyRichText(f, sheet, opts); err != nil {
		return 0, 0, err
	}
	if err := applyImages(f, sheet, opts); err != nil {
		return 0, 0, err
	}
	return rowCount, totalCols, nil
}

// writeCell writes one typed value. Dates and datetimes carry their
// serial number with a date style resolved by the caller.
func writeCell(f *excelize.File, sheet, cell string, v CellValue, styleID int) error {
	var err error
	switch v.Kind {
	case KindEmpty:
		err = f.SetCellStr(sheet, cell, "")
	case KindInteger:
		err = f.SetCellValue(sheet, cell, v.Int)
	case KindFloat:
		err = f.SetCellValue(sheet, cell, v.Num)
	case KindBoolean:
		err = f.SetCellBool(sheet, cell, v.Bool)
	case KindDate, KindDateTime:
		err = f.SetCellValue(sheet, cell, v.Num)
	default:
		err = f.SetCellStr(sheet, cell, v.Str)
	}
	if err != nil {
		return err
	}
	if styleID != 0 {
		return f.SetCellStyle(sheet, cell, cell, styleID)
	}
	return nil
}
