package xlsxport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig(t *testing.T) {
	yamlConfig := `
date_order: dmy
header: true
autofit: true
table_style: Medium9
column_widths:
  "0": 20
  _all: 12
column_styles:
  - pattern: "price_*"
    style:
      bold: true
      num_format: "$#,##0.00"
  - pattern: "*"
    style:
      italic: true
sheets:
  - name: Raw
    header: false
    autofit: false
  - name: Report
    conditional_formats:
      - pattern: "score"
        format:
          type: 3_color_scale
`
	fc, err := ParseConfig([]byte(yamlConfig))
	require.NoError(t, err)

	global, err := fc.GlobalOptions()
	require.NoError(t, err)
	assert.Equal(t, DateOrderDMY, global.DateOrder)
	assert.True(t, global.Header)
	assert.True(t, global.Autofit)
	assert.Equal(t, "Medium9", global.TableStyle)
	assert.Equal(t, 20.0, global.ColumnWidths["0"])
	assert.Equal(t, 12.0, global.ColumnWidths["_all"])
	require.Len(t, global.ColumnStyles, 2)
	assert.Equal(t, "price_*", global.ColumnStyles[0].Pattern)
	assert.True(t, global.ColumnStyles[0].Style.Bold)
}

func TestSheetOptionsMerge(t *testing.T) {
	yamlConfig := `
header: true
autofit: true
table_style: Light1
column_styles:
  - pattern: "a"
    style: {bold: true}
sheets:
  - name: Raw
    header: false
    column_styles:
      - pattern: "b"
        style: {italic: true}
`
	fc, err := ParseConfig([]byte(yamlConfig))
	require.NoError(t, err)

	// Overridden fields replace wholesale, untouched fields inherit.
	raw, err := fc.SheetOptions("Raw")
	require.NoError(t, err)
	assert.False(t, raw.Header)
	assert.True(t, raw.Autofit)
	assert.Equal(t, "Light1", raw.TableStyle)
	require.Len(t, raw.ColumnStyles, 1)
	assert.Equal(t, "b", raw.ColumnStyles[0].Pattern)

	// Unknown sheets use the global defaults.
	other, err := fc.SheetOptions("Other")
	require.NoError(t, err)
	assert.True(t, other.Header)
	require.Len(t, other.ColumnStyles, 1)
	assert.Equal(t, "a", other.ColumnStyles[0].Pattern)
}

func TestSheetConfigApplyNil(t *testing.T) {
	global := DefaultOptions()
	global.TableStyle = "Dark3"
	var cfg *SheetConfig
	out := cfg.Apply(global)
	assert.Equal(t, global, out)
}

func TestParseConfigBadDateOrder(t *testing.T) {
	_, err := ParseConfig([]byte("date_order: sideways\n"))
	assert.Error(t, err)
}

func TestParseConfigBadYAML(t *testing.T) {
	_, err := ParseConfig([]byte(":\n  - ["))
	assert.Error(t, err)
}
