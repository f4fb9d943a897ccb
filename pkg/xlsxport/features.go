package xlsxport

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// tableStyleName validates a short style name ("Medium9", "Light1",
// "Dark11", "None") and returns the workbook style identifier. "None"
// yields an empty identifier, an unstyled table.
func tableStyleName(style string) (string, error) {
	if strings.EqualFold(style, "None") {
		return "", nil
	}
	for _, family := range []struct {
		prefix string
		max    int
	}{
		{"Light", 21},
		{"Medium", 28},
		{"Dark", 11},
	} {
		rest, ok := strings.CutPrefix(style, family.prefix)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(rest)
		if err != nil || n < 1 || n > family.max {
			return "", fmt.Errorf("invalid table style %q: %s supports 1..%d", style, family.prefix, family.max)
		}
		return "TableStyle" + style, nil
	}
	return "", fmt.Errorf("invalid table style %q: expected None, Light1..21, Medium1..28 or Dark1..11", style)
}

// sanitizeTableName makes a workbook-legal table name: alphanumerics and
// underscores only, a leading underscore when the name starts with a
// digit, at most 255 characters.
func sanitizeTableName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if r == '_' || (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	s := b.String()
	if s == "" {
		s = "Table1"
	}
	if s[0] >= '0' && s[0] <= '9' {
		s = "_" + s
	}
	if len(s) > 255 {
		s = s[:255]
	}
	return s
}

// parseCellRef validates an A1-style reference and returns one-based
// column and row.
func parseCellRef(ref string) (col, row int, err error) {
	col, row, err = excelize.CellNameToCoordinates(strings.ToUpper(strings.TrimSpace(ref)))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid cell reference %q", ref)
	}
	return col, row, nil
}

// parseRangeRef validates an "A1:D5" range and returns its normalized
// corner references.
func parseRangeRef(ref string) (start, end string, err error) {
	first, rest, ok := strings.Cut(ref, ":")
	if !ok {
		return "", "", fmt.Errorf("invalid range %q: expected START:END", ref)
	}
	sc, sr, err := parseCellRef(first)
	if err != nil {
		return "", "", err
	}
	ec, er, err := parseCellRef(rest)
	if err != nil {
		return "", "", err
	}
	if start, err = excelize.CoordinatesToCellName(sc, sr); err != nil {
		return "", "", err
	}
	if end, err = excelize.CoordinatesToCellName(ec, er); err != nil {
		return "", "", err
	}
	return start, end, nil
}

func applyTable(f *excelize.File, sheet string, opts Options, colCount, headerRow, lastRow int) error {
	styleName, err := tableStyleName(opts.TableStyle)
	if err != nil {
		return err
	}
	start, err := excelize.CoordinatesToCellName(1, headerRow)
	if err != nil {
		return err
	}
	end, err := excelize.CoordinatesToCellName(colCount, lastRow)
	if err != nil {
		return err
	}
	name := opts.TableName
	if name == "" {
		name = sheet
	}
	table := excelize.Table{
		Range:     start + ":" + end,
		Name:      sanitizeTableName(name),
		StyleName: styleName,
	}
	if !opts.Header {
		// Without a header row the first data row must not be promoted
		// to one.
		showHeader := false
		table.ShowHeaderRow = &showHeader
	}
	if err := f.AddTable(sheet, &table); err != nil {
		return fmt.Errorf("add table: %w", err)
	}
	return nil
}

// applyFormulaColumns writes computed columns after the last data column
// and returns the new total column count. An empty sheet gets no formula
// columns, not even their header cells.
func applyFormulaColumns(f *excelize.File, sheet string, opts Options, st *sheetStyles, colCount, dataStart, lastRow int) (int, error) {
	if lastRow < dataStart {
		return colCount, nil
	}
	total := colCount
	for _, fc := range opts.FormulaColumns {
		total++
		if opts.Header {
			cell, err := excelize.CoordinatesToCellName(total, dataStart-1)
			if err != nil {
				return 0, err
			}
			if err := f.SetCellStr(sheet, cell, fc.Name); err != nil {
				return 0, err
			}
			if st.header != 0 {
				if err := f.SetCellStyle(sheet, cell, cell, st.header); err != nil {
					return 0, err
				}
			}
		}
		for row := dataStart; row <= lastRow; row++ {
			cell, err := excelize.CoordinatesToCellName(total, row)
			if err != nil {
				return 0, err
			}
			formula := strings.ReplaceAll(fc.Template, "{row}", strconv.Itoa(row))
			if err := f.SetCellFormula(sheet, cell, formula); err != nil {
				return 0, fmt.Errorf("formula column %q: %w", fc.Name, err)
			}
		}
	}
	return total, nil
}

var condTypeAliases = map[string]string{
	"2_color_scale":     "2_color_scale",
	"2colorscale":       "2_color_scale",
	"two_color_scale":   "2_color_scale",
	"3_color_scale":     "3_color_scale",
	"3colorscale":       "3_color_scale",
	"three_color_scale": "3_color_scale",
	"data_bar":          "data_bar",
	"databar":           "data_bar",
	"icon_set":          "icon_set",
	"iconset":           "icon_set",
}

var iconStyleNames = map[string]string{
	"3_arrows":                "3Arrows",
	"3_arrows_gray":           "3ArrowsGray",
	"3_flags":                 "3Flags",
	"3_traffic_lights":        "3TrafficLights1",
	"3_traffic_lights_rimmed": "3TrafficLights2",
	"3_signs":                 "3Signs",
	"3_symbols":               "3Symbols",
	"3_symbols_uncircled":     "3Symbols2",
	"4_arrows":                "4Arrows",
	"4_arrows_gray":           "4ArrowsGray",
	"4_rating":                "4Rating",
	"4_traffic_lights":        "4TrafficLights",
	"5_arrows":                "5Arrows",
	"5_arrows_gray":           "5ArrowsGray",
	"5_rating":                "5Rating",
	"5_quarters":              "5Quarters",
}

func condColor(c, fallback string) (string, error) {
	if c == "" {
		return fallback, nil
	}
	hex, err := parseColor(c)
	if err != nil {
		return "", err
	}
	return "#" + hex, nil
}

// condFormatOptions translates a rule body to the writer's conditional
// format options.
func condFormatOptions(cf CondFormat) (excelize.ConditionalFormatOptions, error) {
	kind, ok := condTypeAliases[strings.ToLower(strings.TrimSpace(cf.Type))]
	if !ok {
		return excelize.ConditionalFormatOptions{}, fmt.Errorf("unknown conditional format type %q", cf.Type)
	}
	opt := excelize.ConditionalFormatOptions{Type: kind, Criteria: "="}
	var err error
	switch kind {
	case "2_color_scale":
		opt.MinType, opt.MaxType = "min", "max"
		if opt.MinColor, err = condColor(cf.MinColor, "#FF7128"); err != nil {
			return opt, err
		}
		if opt.MaxColor, err = condColor(cf.MaxColor, "#FFEF9C"); err != nil {
			return opt, err
		}
	case "3_color_scale":
		opt.MinType, opt.MidType, opt.MaxType = "min", "percentile", "max"
		if opt.MinColor, err = condColor(cf.MinColor, "#F8696B"); err != nil {
			return opt, err
		}
		if opt.MidColor, err = condColor(cf.MidColor, "#FFEB84"); err != nil {
			return opt, err
		}
		if opt.MaxColor, err = condColor(cf.MaxColor, "#63BE7B"); err != nil {
			return opt, err
		}
	case "data_bar":
		opt.MinType, opt.MaxType = "min", "max"
		if opt.BarColor, err = condColor(cf.BarColor, "#638EC6"); err != nil {
			return opt, err
		}
		if cf.BarBorderColor != "" {
			if opt.BarBorderColor, err = condColor(cf.BarBorderColor, ""); err != nil {
				return opt, err
			}
		}
		opt.BarSolid = cf.Solid
		switch strings.ToLower(cf.Direction) {
		case "", "context":
		case "left_to_right", "ltr":
			opt.BarDirection = "leftToRight"
		case "right_to_left", "rtl":
			opt.BarDirection = "rightToLeft"
		default:
			return opt, fmt.Errorf("unknown data bar direction %q", cf.Direction)
		}
	case "icon_set":
		style, ok := iconStyleNames[strings.ToLower(strings.TrimSpace(cf.IconType))]
		if !ok {
			return opt, fmt.Errorf("unknown icon set type %q", cf.IconType)
		}
		opt.Criteria = ""
		opt.IconStyle = style
		opt.ReverseIcons = cf.Reverse
		opt.IconsOnly = cf.IconsOnly
	}
	return opt, nil
}

// applyConditionalFormats applies each rule to the data rows of every
// matched column.
func applyConditionalFormats(f *excelize.File, sheet string, opts Options, columns []string, dataStart, lastRow int) error {
	if lastRow < dataStart {
		return nil
	}
	for _, rule := range opts.ConditionalFormats {
		opt, err := condFormatOptions(rule.Format)
		if err != nil {
			return fmt.Errorf("conditional format %q: %w", rule.Pattern, err)
		}
		for _, col := range matchColumns(rule.Pattern, columns) {
			start, err := excelize.CoordinatesToCellName(col+1, dataStart)
			if err != nil {
				return err
			}
			end, err := excelize.CoordinatesToCellName(col+1, lastRow)
			if err != nil {
				return err
			}
			rangeRef := start + ":" + end
			if err := f.SetConditionalFormat(sheet, rangeRef, []excelize.ConditionalFormatOptions{opt}); err != nil {
				return fmt.Errorf("conditional format %q: %w", rule.Pattern, err)
			}
		}
	}
	return nil
}

const (
	autofitPadding  = 1.2
	autofitMaxWidth = 50.0
)

// applyColumnWidths sets widths from the configured map. A numeric key
// targets that zero-based column; "_all" targets every column. A specific
// key always wins over "_all". When tracked content widths are supplied,
// auto-sized widths are written first and explicit settings overwrite them.
func applyColumnWidths(f *excelize.File, sheet string, opts Options, colCount int, contentWidths []float64) error {
	if opts.Autofit && contentWidths != nil {
		for i := 0; i < colCount && i < len(contentWidths); i++ {
			w := math.Min(contentWidths[i]*autofitPadding, autofitMaxWidth)
			if w <= 0 {
				continue
			}
			name, err := excelize.ColumnNumberToName(i + 1)
			if err != nil {
				return err
			}
			if err := f.SetColWidth(sheet, name, name, w); err != nil {
				return err
			}
		}
	}
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
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, name, name, width); err != nil {
			return fmt.Errorf("column width %d: %w", i, err)
		}
	}
	return nil
}

// applyRowHeights sets explicit heights, keyed by zero-based worksheet
// row. With a header present, index 0 targets the header row.
func applyRowHeights(f *excelize.File, sheet string, opts Options) error {
	for idx, height := range opts.RowHeights {
		if err := f.SetRowHeight(sheet, idx+1, height); err != nil {
			return fmt.Errorf("row height %d: %w", idx, err)
		}
	}
	return nil
}

func applyMergedRanges(f *excelize.File, sheet string, opts Options) error {
	for _, m := range opts.MergedRanges {
		start, end, err := parseRangeRef(m.Range)
		if err != nil {
			return err
		}
		if err := f.MergeCell(sheet, start, end); err != nil {
			return fmt.Errorf("merge %s: %w", m.Range, err)
		}
		if m.Text != "" {
			if err := f.SetCellStr(sheet, start, m.Text); err != nil {
				return err
			}
		}
		styleID, err := mergedRangeStyle(f, m.Style)
		if err != nil {
			return fmt.Errorf("merge %s: %w", m.Range, err)
		}
		if err := f.SetCellStyle(sheet, start, end, styleID); err != nil {
			return err
		}
	}
	return nil
}

// mergedRangeStyle centers the merged text unless an explicit style is
// given.
func mergedRangeStyle(f *excelize.File, spec *StyleSpec) (int, error) {
	if spec == nil {
		return f.NewStyle(&excelize.Style{
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		})
	}
	return newStyleID(f, spec, true)
}

func applyHyperlinks(f *excelize.File, sheet string, opts Options) error {
	for _, h := range opts.Hyperlinks {
		if _, _, err := parseCellRef(h.Cell); err != nil {
			return err
		}
		cell := strings.ToUpper(strings.TrimSpace(h.Cell))
		if err := f.SetCellHyperLink(sheet, cell, h.URL, "External"); err != nil {
			return fmt.Errorf("hyperlink %s: %w", h.Cell, err)
		}
		display := h.Display
		if display == "" {
			display = h.URL
		}
		if err := f.SetCellStr(sheet, cell, display); err != nil {
			return err
		}
	}
	return nil
}

func applyNotes(f *excelize.File, sheet string, opts Options) error {
	for _, n := range opts.Notes {
		if _, _, err := parseCellRef(n.Cell); err != nil {
			return err
		}
		comment := excelize.Comment{
			Cell:      strings.ToUpper(strings.TrimSpace(n.Cell)),
			Author:    n.Author,
			Paragraph: []excelize.RichTextRun{{Text: n.Text}},
		}
		if err := f.AddComment(sheet, comment); err != nil {
			return fmt.Errorf("note %s: %w", n.Cell, err)
		}
	}
	return nil
}

// maxListLength is the hard file format limit on a dropdown list: the
// combined length of every value plus the separating commas.
const maxListLength = 255

func listLength(values []string) int {
	n := 0
	for _, v := range values {
		n += len(v)
	}
	if len(values) > 1 {
		n += len(values) - 1
	}
	return n
}

func buildValidation(v Validation) (*excelize.DataValidation, error) {
	dv := excelize.NewDataValidation(true)
	switch strings.ToLower(strings.TrimSpace(v.Type)) {
	case "list":
		if n := listLength(v.Values); n > maxListLength {
			return nil, fmt.Errorf("validation list too long: %d characters, limit is %d", n, maxListLength)
		}
		if err := dv.SetDropList(v.Values); err != nil {
			return nil, err
		}
	case "whole_number", "whole", "integer":
		min, max := rangeOrDefault(v, math.MinInt32, math.MaxInt32)
		if err := dv.SetRange(min, max, excelize.DataValidationTypeWhole, excelize.DataValidationOperatorBetween); err != nil {
			return nil, err
		}
	case "decimal", "number":
		min, max := rangeOrDefault(v, -1e300, 1e300)
		if err := dv.SetRange(min, max, excelize.DataValidationTypeDecimal, excelize.DataValidationOperatorBetween); err != nil {
			return nil, err
		}
	case "text_length", "textlength", "length":
		min, max := rangeOrDefault(v, 0, 32767)
		if err := dv.SetRange(min, max, excelize.DataValidationTypeTextLength, excelize.DataValidationOperatorBetween); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown validation type %q", v.Type)
	}
	if v.InputMessage != "" || v.InputTitle != "" {
		dv.SetInput(v.InputTitle, v.InputMessage)
	}
	if v.ErrorMessage != "" || v.ErrorTitle != "" {
		dv.SetError(excelize.DataValidationErrorStyleStop, v.ErrorTitle, v.ErrorMessage)
	}
	return dv, nil
}

func rangeOrDefault(v Validation, defMin, defMax float64) (float64, float64) {
	min, max := defMin, defMax
	if v.Min != nil {
		min = *v.Min
	}
	if v.Max != nil {
		max = *v.Max
	}
	return min, max
}

// applyValidations attaches each rule to the data rows of every matched
// column.
func applyValidations(f *excelize.File, sheet string, opts Options, columns []string, dataStart, lastRow int) error {
	if lastRow < dataStart {
		return nil
	}
	for _, rule := range opts.Validations {
		for _, col := range matchColumns(rule.Pattern, columns) {
			dv, err := buildValidation(rule.Validation)
			if err != nil {
				return fmt.Errorf("validation %q: %w", rule.Pattern, err)
			}
			start, err := excelize.CoordinatesToCellName(col+1, dataStart)
			if err != nil {
				return err
			}
			end, err := excelize.CoordinatesToCellName(col+1, lastRow)
			if err != nil {
				return err
			}
			dv.Sqref = start + ":" + end
			if err := f.AddDataValidation(sheet, dv); err != nil {
				return fmt.Errorf("validation %q: %w", rule.Pattern, err)
			}
		}
	}
	return nil
}

func applyRichText(f *excelize.File, sheet string, opts Options) error {
	for _, rt := range opts.RichText {
		if _, _, err := parseCellRef(rt.Cell); err != nil {
			return err
		}
		runs := make([]excelize.RichTextRun, 0, len(rt.Segments))
		for _, seg := range rt.Segments {
			run := excelize.RichTextRun{Text: seg.Text}
			if seg.Style != nil {
				font := excelize.Font{
					Bold:   seg.Style.Bold,
					Italic: seg.Style.Italic,
					Size:   seg.Style.FontSize,
				}
				if seg.Style.Underline {
					font.Underline = "single"
				}
				if seg.Style.FontColor != "" {
					hex, err := parseColor(seg.Style.FontColor)
					if err != nil {
						return fmt.Errorf("rich text %s: %w", rt.Cell, err)
					}
					font.Color = hex
				}
				run.Font = &font
			}
			runs = append(runs, run)
		}
		cell := strings.ToUpper(strings.TrimSpace(rt.Cell))
		if err := f.SetCellRichText(sheet, cell, runs); err != nil {
			return fmt.Errorf("rich text %s: %w", rt.Cell, err)
		}
	}
	return nil
}

func applyImages(f *excelize.File, sheet string, opts Options) error {
	for _, img := range opts.Images {
		if _, _, err := parseCellRef(img.Cell); err != nil {
			return err
		}
		gopts := excelize.GraphicOptions{
			ScaleX:  img.ScaleWidth,
			ScaleY:  img.ScaleHeight,
			AltText: img.AltText,
		}
		if gopts.ScaleX == 0 {
			gopts.ScaleX = 1
		}
		if gopts.ScaleY == 0 {
			gopts.ScaleY = 1
		}
		cell := strings.ToUpper(strings.TrimSpace(img.Cell))
		if err := f.AddPicture(sheet, cell, img.Path, &gopts); err != nil {
			return fmt.Errorf("image %s: %w", img.Path, err)
		}
	}
	return nil
}

// applyFreezePanes freezes the header row.
func applyFreezePanes(f *excelize.File, sheet string) error {
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}
