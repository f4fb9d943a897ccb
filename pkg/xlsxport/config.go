package xlsxport

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CondFormat describes one conditional formatting rule body.
type CondFormat struct {
	Type string `yaml:"type"`

	// Color scales.
	MinColor string `yaml:"min_color,omitempty"`
	MidColor string `yaml:"mid_color,omitempty"`
	MaxColor string `yaml:"max_color,omitempty"`

	// Data bars.
	BarColor       string `yaml:"bar_color,omitempty"`
	BarBorderColor string `yaml:"bar_border_color,omitempty"`
	Solid          bool   `yaml:"solid,omitempty"`
	Direction      string `yaml:"direction,omitempty"`

	// Icon sets.
	IconType  string `yaml:"icon_type,omitempty"`
	Reverse   bool   `yaml:"reverse,omitempty"`
	IconsOnly bool   `yaml:"icons_only,omitempty"`
}

// CondRule binds a column selector to a conditional format.
type CondRule struct {
	Pattern string     `yaml:"pattern"`
	Format  CondFormat `yaml:"format"`
}

// FormulaColumn appends a computed column after the data columns. The
// template's "{row}" placeholder expands to the one-based worksheet row.
type FormulaColumn struct {
	Name     string `yaml:"name"`
	Template string `yaml:"template"`
}

// Validation describes a data validation rule body.
type Validation struct {
	Type   string   `yaml:"type"`
	Values []string `yaml:"values,omitempty"`
	Min    *float64 `yaml:"min,omitempty"`
	Max    *float64 `yaml:"max,omitempty"`

	InputTitle   string `yaml:"input_title,omitempty"`
	InputMessage string `yaml:"input_message,omitempty"`
	ErrorTitle   string `yaml:"error_title,omitempty"`
	ErrorMessage string `yaml:"error_message,omitempty"`
}

// ValidationRule binds a column selector to a validation.
type ValidationRule struct {
	Pattern    string     `yaml:"pattern"`
	Validation Validation `yaml:"validation"`
}

// MergedRange merges a rectangular range and writes text into its anchor.
// Without an explicit style, the text is centered.
type MergedRange struct {
	Range string     `yaml:"range"`
	Text  string     `yaml:"text,omitempty"`
	Style *StyleSpec `yaml:"style,omitempty"`
}

// Hyperlink attaches an external link to a cell, optionally with display
// text different from the URL.
type Hyperlink struct {
	Cell    string `yaml:"cell"`
	URL     string `yaml:"url"`
	Display string `yaml:"display,omitempty"`
}

// Note attaches a comment box to a cell.
type Note struct {
	Cell   string `yaml:"cell"`
	Text   string `yaml:"text"`
	Author string `yaml:"author,omitempty"`
}

// RichTextSegment is one run of a rich text cell.
type RichTextSegment struct {
	Text  string     `yaml:"text"`
	Style *StyleSpec `yaml:"style,omitempty"`
}

// RichTextCell writes multi-format text into one cell.
type RichTextCell struct {
	Cell     string            `yaml:"cell"`
	Segments []RichTextSegment `yaml:"segments"`
}

// Image embeds a picture anchored at a cell.
type Image struct {
	Cell        string  `yaml:"cell"`
	Path        string  `yaml:"path"`
	ScaleWidth  float64 `yaml:"scale_width,omitempty"`
	ScaleHeight float64 `yaml:"scale_height,omitempty"`
	AltText     string  `yaml:"alt_text,omitempty"`
}

// Options is the fully resolved per-sheet configuration. Column width keys
// are zero-based column indexes as strings, or "_all" for every column.
type Options struct {
	Header      bool
	Autofit     bool
	FreezePanes bool
	// TableStyle enables table rendering; empty string means no table.
	// "None" renders an unstyled table.
	TableStyle string
	TableName  string
	DateOrder  DateOrder

	ColumnWidths map[string]float64
	RowHeights   map[int]float64

	HeaderStyle        *StyleSpec
	ColumnStyles       []StyleRule
	ConditionalFormats []CondRule
	FormulaColumns     []FormulaColumn
	MergedRanges       []MergedRange
	Hyperlinks         []Hyperlink
	Notes              []Note
	Validations        []ValidationRule
	RichText           []RichTextCell
	Images             []Image
}

// DefaultOptions returns the baseline configuration: header row on,
// everything else off.
func DefaultOptions() Options {
	return Options{Header: true}
}

// SheetConfig overrides Options for one sheet. Nil fields inherit the
// global value; non-nil scalars and non-nil maps or slices replace it
// wholesale. There is no per-entry merging.
type SheetConfig struct {
	Header      *bool   `yaml:"header,omitempty"`
	Autofit     *bool   `yaml:"autofit,omitempty"`
	FreezePanes *bool   `yaml:"freeze_panes,omitempty"`
	TableStyle  *string `yaml:"table_style,omitempty"`
	TableName   *string `yaml:"table_name,omitempty"`

	ColumnWidths map[string]float64 `yaml:"column_widths,omitempty"`
	RowHeights   map[int]float64    `yaml:"row_heights,omitempty"`

	HeaderStyle        *StyleSpec       `yaml:"header_style,omitempty"`
	ColumnStyles       []StyleRule      `yaml:"column_styles,omitempty"`
	ConditionalFormats []CondRule       `yaml:"conditional_formats,omitempty"`
	FormulaColumns     []FormulaColumn  `yaml:"formula_columns,omitempty"`
	MergedRanges       []MergedRange    `yaml:"merged_ranges,omitempty"`
	Hyperlinks         []Hyperlink      `yaml:"hyperlinks,omitempty"`
	Notes              []Note           `yaml:"notes,omitempty"`
	Validations        []ValidationRule `yaml:"validations,omitempty"`
	RichText           []RichTextCell   `yaml:"rich_text,omitempty"`
	Images             []Image          `yaml:"images,omitempty"`
}

// Apply resolves the effective options for a sheet on top of the global
// defaults.
func (c *SheetConfig) Apply(global Options) Options {
	out := global
	if c == nil {
		return out
	}
	if c.Header != nil {
		out.Header = *c.Header
	}
	if c.Autofit != nil {
		out.Autofit = *c.Autofit
	}
	if c.FreezePanes != nil {
		out.FreezePanes = *c.FreezePanes
	}
	if c.TableStyle != nil {
		out.TableStyle = *c.TableStyle
	}
	if c.TableName != nil {
		out.TableName = *c.TableName
	}
	if c.ColumnWidths != nil {
		out.ColumnWidths = c.ColumnWidths
	}
	if c.RowHeights != nil {
		out.RowHeights = c.RowHeights
	}
	if c.HeaderStyle != nil {
		out.HeaderStyle = c.HeaderStyle
	}
	if c.ColumnStyles != nil {
		out.ColumnStyles = c.ColumnStyles
	}
	if c.ConditionalFormats != nil {
		out.ConditionalFormats = c.ConditionalFormats
	}
	if c.FormulaColumns != nil {
		out.FormulaColumns = c.FormulaColumns
	}
	if c.MergedRanges != nil {
		out.MergedRanges = c.MergedRanges
	}
	if c.Hyperlinks != nil {
		out.Hyperlinks = c.Hyperlinks
	}
	if c.Notes != nil {
		out.Notes = c.Notes
	}
	if c.Validations != nil {
		out.Validations = c.Validations
	}
	if c.RichText != nil {
		out.RichText = c.RichText
	}
	if c.Images != nil {
		out.Images = c.Images
	}
	return out
}

// FileConfig is the on-disk YAML configuration. Top-level fields are the
// global defaults; entries under sheets override them per sheet name.
type FileConfig struct {
	DateOrder string             `yaml:"date_order,omitempty"`
	Global    SheetConfig        `yaml:",inline"`
	Sheets    []NamedSheetConfig `yaml:"sheets,omitempty"`
}

// NamedSheetConfig is a sheet override keyed by sheet name.
type NamedSheetConfig struct {
	Name        string `yaml:"name"`
	SheetConfig `yaml:",inline"`
}

// GlobalOptions resolves the file's top-level settings into Options.
func (fc *FileConfig) GlobalOptions() (Options, error) {
	opts := fc.Global.Apply(DefaultOptions())
	if fc.DateOrder != "" {
		order, err := ParseDateOrder(fc.DateOrder)
		if err != nil {
			return Options{}, err
		}
		opts.DateOrder = order
	}
	return opts, nil
}

// SheetOptions resolves the effective options for a named sheet. Sheets
// without an override use the global defaults.
func (fc *FileConfig) SheetOptions(name string) (Options, error) {
	global, err := fc.GlobalOptions()
	if err != nil {
		return Options{}, err
	}
	for i := range fc.Sheets {
		if fc.Sheets[i].Name == name {
			return fc.Sheets[i].SheetConfig.Apply(global), nil
		}
	}
	return global, nil
}

// ParseConfig decodes a YAML configuration document.
func ParseConfig(data []byte) (*FileConfig, error) {
	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if _, err := fc.GlobalOptions(); err != nil {
		return nil, err
	}
	return &fc, nil
}

// LoadConfig reads and decodes a YAML configuration file.
func LoadConfig(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return ParseConfig(data)
}
