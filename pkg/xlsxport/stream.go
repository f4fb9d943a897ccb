package xlsxport

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// ExportTablesStream writes worksheets through the stream writer, keeping
// memory bounded by the row size. Only the header row, data rows, header
// style, column styles and explicit column widths are applied; features
// that need to revisit written rows (tables, conditional formats, freeze
// panes, auto-sizing, merges, notes, validations, rich text, images) are
// skipped.
func ExportTablesStream(path string, sheets []Sheet, global Options) (int, int, error) {
	if len(sheets) == 0 {
		return 0, 0, fmt.Errorf("no sheets to export")
	}
	f := excelize.NewFile()
	defer f.Close()

	seen := make(map[string]bool, len(sheets))
	totalRows, maxCols := 0, 0
	for i, s := range sheets {
		if s.Name == "" {
			return 0, 0, fmt.Errorf("sheet %d: empty name", i)
		}
		if seen[s.Name] {
			return 0, 0, fmt.Errorf("duplicate sheet name %q", s.Name)
		}
		seen[s.Name] = true
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.Name); err != nil {
				return 0, 0, fmt.Errorf("sheet name %q: %w", s.Name, err)
			}
		} else {
			if _, err := f.NewSheet(s.Name); err != nil {
				return 0, 0, fmt.Errorf("sheet name %q: %w", s.Name, err)
			}
		}
		opts := s.Config.Apply(global)
		rows, cols, err := streamSheet(f, s.Name, s.Table, opts)
		if err != nil {
			return 0, 0, fmt.Errorf("sheet %q: %w", s.Name, err)
		}
		totalRows += rows
		if cols > maxCols {
			maxCols = cols
		}
	}
	if err := f.SaveAs(path); err != nil {
		return 0, 0, fmt.Errorf("save %s: %w", path, err)
	}
	return totalRows, maxCols, nil
}

func streamSheet(f *excelize.File, sheet string, table *Table, opts Options) (int, int, error) {
	if table == nil {
		table = &Table{}
	}
	colCount := table.colCount()
	st, err := resolveStyles(f, table.Columns, opts)
	if err != nil {
		return 0, 0, err
	}
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return 0, 0, fmt.Errorf("stream writer: %w", err)
	}

	// The stream writer requires widths before the first row.
	if err := streamColumnWidths(sw, opts, colCount); err != nil {
		return 0, 0, err
	}

	row := 1
	if opts.Header {
		cells := make([]interface{}, len(table.Columns))
		for i, name := range table.Columns {
			cells[i] = excelize.Cell{Value: name, StyleID: st.header}
		}
		anchor, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return 0, 0, err
		}
		if err := sw.SetRow(anchor, cells); err != nil {
			return 0, 0, fmt.Errorf("write header: %w", err)
		}
		row++
	}

	for r, raw := range table.Rows {
		cells := make([]interface{}, len(raw))
		for c, rv := range raw {
			v := FromValue(rv)
			cells[c] = excelize.Cell{Value: streamValue(v), StyleID: st.styleFor(c, v)}
		}
		anchor, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return 0, 0, err
		}
		if err := sw.SetRow(anchor, cells); err != nil {
			return 0, 0, fmt.Errorf("write error at row %d: %w", r+1, err)
		}
		row++
	}

	if err := sw.Flush(); err != nil {
		return 0, 0, fmt.Errorf("flush stream: %w", err)
	}
	return len(table.Rows), colCount, nil
}

func streamValue(v CellValue) interface{} {
	switch v.Kind {
	case KindInteger:
		return v.Int
	case KindFloat, KindDate, KindDateTime:
		return v.Num
	case KindBoolean:
		return v.Bool
	case KindString:
		return v.Str
	default:
		return ""
	}
}

func streamColumnWidths(sw *excelize.StreamWriter, opts Options, colCount int) error {
	if len(opts.ColumnWidths) == 0 {
		return nil
	}
	all, hasAll := opts.ColumnWidths["_all"]
	for i := 0; i < colCount; i++ {
		width, ok := opts.ColumnWidths[strconv.Itoa(i)]
		if !ok {
			if !hasAll {
				continue
			}
			width = all
		}
		if err := sw.SetColWidth(i+1, i+1, width); err != nil {
			return fmt.Errorf("column width %d: %w", i, err)
		}
	}
	return nil
}
