package xlsxport

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// StyleSpec is the declarative cell style used in configuration. Zero
// values mean "not set". NumFormat and Border only take effect on column
// styles; header styles ignore them.
type StyleSpec struct {
	Bold      bool    `yaml:"bold,omitempty"`
	Italic    bool    `yaml:"italic,omitempty"`
	Underline bool    `yaml:"underline,omitempty"`
	BgColor   string  `yaml:"bg_color,omitempty"`
	FontColor string  `yaml:"font_color,omitempty"`
	FontSize  float64 `yaml:"font_size,omitempty"`
	NumFormat string  `yaml:"num_format,omitempty"`
	Border    bool    `yaml:"border,omitempty"`
}

// StyleRule binds a column selector to a style. Rules are evaluated in
// declaration order and the first match wins.
type StyleRule struct {
	Pattern string    `yaml:"pattern"`
	Style   StyleSpec `yaml:"style"`
}

var namedColors = map[string]string{
	"white":   "FFFFFF",
	"black":   "000000",
	"red":     "FF0000",
	"green":   "008000",
	"blue":    "0000FF",
	"yellow":  "FFFF00",
	"cyan":    "00FFFF",
	"magenta": "FF00FF",
	"gray":    "808080",
	"grey":    "808080",
	"silver":  "C0C0C0",
	"orange":  "FFA500",
	"purple":  "800080",
	"navy":    "000080",
	"teal":    "008080",
	"maroon":  "800000",
}

// parseColor resolves a "#RRGGBB" code or a named color to an RRGGBB hex
// string without the hash.
func parseColor(s string) (string, error) {
	c := strings.TrimSpace(s)
	if hex, ok := strings.CutPrefix(c, "#"); ok {
		if len(hex) != 6 {
			return "", fmt.Errorf("invalid color %q: expected #RRGGBB", s)
		}
		for _, r := range hex {
			switch {
			case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
			default:
				return "", fmt.Errorf("invalid color %q: expected #RRGGBB", s)
			}
		}
		return strings.ToUpper(hex), nil
	}
	if hex, ok := namedColors[strings.ToLower(c)]; ok {
		return hex, nil
	}
	return "", fmt.Errorf("unknown color %q", s)
}

// newStyleID materializes a StyleSpec into a workbook style handle.
// columnScope enables the number format and border fields.
func newStyleID(f *excelize.File, spec *StyleSpec, columnScope bool) (int, error) {
	if spec == nil {
		return 0, nil
	}
	style := excelize.Style{}
	font := excelize.Font{
		Bold:   spec.Bold,
		Italic: spec.Italic,
		Size:   spec.FontSize,
	}
	hasFont := spec.Bold || spec.Italic || spec.Underline || spec.FontSize != 0
	if spec.Underline {
		font.Underline = "single"
	}
	if spec.FontColor != "" {
		hex, err := parseColor(spec.FontColor)
		if err != nil {
			return 0, fmt.Errorf("font_color: %w", err)
		}
		font.Color = hex
		hasFont = true
	}
	if hasFont {
		style.Font = &font
	}
	if spec.BgColor != "" {
		hex, err := parseColor(spec.BgColor)
		if err != nil {
			return 0, fmt.Errorf("bg_color: %w", err)
		}
		style.Fill = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{hex}}
	}
	if columnScope {
		if spec.NumFormat != "" {
			numFmt := spec.NumFormat
			style.CustomNumFmt = &numFmt
		}
		if spec.Border {
			style.Border = thinBorder()
		}
	}
	id, err := f.NewStyle(&style)
	if err != nil {
		return 0, fmt.Errorf("create style: %w", err)
	}
	return id, nil
}

func thinBorder() []excelize.Border {
	sides := []string{"left", "right", "top", "bottom"}
	borders := make([]excelize.Border, 0, len(sides))
	for _, s := range sides {
		borders = append(borders, excelize.Border{Type: s, Style: 1, Color: "000000"})
	}
	return borders
}

// withDateFormat layers a date number format onto a column style so typed
// date cells in a styled column keep their display format.
func withDateFormat(f *excelize.File, spec StyleSpec, numFmt string) (int, error) {
	spec.NumFormat = numFmt
	return newStyleID(f, &spec, true)
}

const (
	dateNumFmt     = "yyyy-mm-dd"
	dateTimeNumFmt = "yyyy-mm-dd hh:mm:ss"
)

// sheetStyles holds the per-sheet resolved style handles.
type sheetStyles struct {
	header   int
	date     int
	dateTime int
	// columns[i] is the style for zero-based column i, 0 when unstyled.
	columns []int
	// colDate and colDateTime carry the column style merged with the
	// date number formats, falling back to the plain date styles.
	colDate     []int
	colDateTime []int
	colSpecs    []*StyleSpec
}

// resolveStyles builds every style the emission loop needs up front so the
// loop itself only deals in handles.
func resolveStyles(f *excelize.File, columns []string, opts Options) (*sheetStyles, error) {
	st := &sheetStyles{
		columns:     make([]int, len(columns)),
		colDate:     make([]int, len(columns)),
		colDateTime: make([]int, len(columns)),
		colSpecs:    make([]*StyleSpec, len(columns)),
	}
	var err error
	if st.header, err = newStyleID(f, opts.HeaderStyle, false); err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}
	if st.date, err = withDateFormat(f, StyleSpec{}, dateNumFmt); err != nil {
		return nil, err
	}
	if st.dateTime, err = withDateFormat(f, StyleSpec{}, dateTimeNumFmt); err != nil {
		return nil, err
	}
	for i, name := range columns {
		for r := range opts.ColumnStyles {
			rule := &opts.ColumnStyles[r]
			if !MatchPattern(rule.Pattern, name) {
				continue
			}
			spec := rule.Style
			st.colSpecs[i] = &spec
			if st.columns[i], err = newStyleID(f, &spec, true); err != nil {
				return nil, fmt.Errorf("column style %q: %w", rule.Pattern, err)
			}
			break
		}
	}
	for i := range columns {
		if st.colSpecs[i] == nil {
			st.colDate[i] = st.date
			st.colDateTime[i] = st.dateTime
			continue
		}
		spec := *st.colSpecs[i]
		if spec.NumFormat != "" {
			// An explicit number format on the rule wins over the
			// default date display.
			st.colDate[i] = st.columns[i]
			st.colDateTime[i] = st.columns[i]
			continue
		}
		if st.colDate[i], err = withDateFormat(f, spec, dateNumFmt); err != nil {
			return nil, err
		}
		if st.colDateTime[i], err = withDateFormat(f, spec, dateTimeNumFmt); err != nil {
			return nil, err
		}
	}
	return st, nil
}

// styleFor picks the handle to apply for a value in a column, 0 for none.
func (st *sheetStyles) styleFor(col int, v CellValue) int {
	var base, date, dateTime int
	if col < len(st.columns) {
		base = st.columns[col]
		date = st.colDate[col]
		dateTime = st.colDateTime[col]
	} else {
		date = st.date
		dateTime = st.dateTime
	}
	switch v.Kind {
	case KindDate:
		return date
	case KindDateTime:
		return dateTime
	default:
		return base
	}
}
