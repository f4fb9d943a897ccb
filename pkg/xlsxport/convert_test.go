package xlsxport

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestConvertCSV(t *testing.T) {
	in := writeTempCSV(t, "id,name,score,active,joined\n1,Alice,91.5,true,2025-01-15\n2,Bob,78,false,2025-02-01\n")
	out := filepath.Join(t.TempDir(), "out.xlsx")

	rows, cols, err := ConvertCSV(in, out, WithSheetName("Data"))
	require.NoError(t, err)
	assert.Equal(t, 3, rows)
	assert.Equal(t, 5, cols)

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()

	// The header record is classified like any other row.
	got, err := f.GetCellValue("Data", "A1")
	require.NoError(t, err)
	assert.Equal(t, "id", got)

	got, err = f.GetCellValue("Data", "A2")
	require.NoError(t, err)
	assert.Equal(t, "1", got)
	got, err = f.GetCellValue("Data", "C2")
	require.NoError(t, err)
	assert.Equal(t, "91.5", got)
	got, err = f.GetCellValue("Data", "D2")
	require.NoError(t, err)
	assert.Equal(t, "TRUE", got)

	raw, err := f.GetCellValue("Data", "E2", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "45672", raw)
}

func TestConvertCSVMixedTypesAndBlankRow(t *testing.T) {
	in := writeTempCSV(t, "1,2024-01-15,true\n,,\n")
	out := filepath.Join(t.TempDir(), "out.xlsx")

	rows, cols, err := ConvertCSV(in, out)
	require.NoError(t, err)
	assert.Equal(t, 2, rows)
	assert.Equal(t, 3, cols)

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetCellValue("Sheet1", "A1")
	require.NoError(t, err)
	assert.Equal(t, "1", got)
	raw, err := f.GetCellValue("Sheet1", "B1", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "45306", raw)
	got, err = f.GetCellValue("Sheet1", "C1")
	require.NoError(t, err)
	assert.Equal(t, "TRUE", got)

	for _, cell := range []string{"A2", "B2", "C2"} {
		got, err = f.GetCellValue("Sheet1", cell)
		require.NoError(t, err)
		assert.Empty(t, got, cell)
	}
}

func TestConvertCSVEmptyInput(t *testing.T) {
	in := writeTempCSV(t, "")
	out := filepath.Join(t.TempDir(), "out.xlsx")

	rows, cols, err := ConvertCSV(in, out)
	require.NoError(t, err)
	assert.Zero(t, rows)
	assert.Zero(t, cols)
	_, err = os.Stat(out)
	assert.NoError(t, err)
}

func TestConvertCSVRaggedRows(t *testing.T) {
	in := writeTempCSV(t, "a,b\n1\n1,2,3\n")
	out := filepath.Join(t.TempDir(), "out.xlsx")

	rows, cols, err := ConvertCSV(in, out)
	require.NoError(t, err)
	assert.Equal(t, 3, rows)
	assert.Equal(t, 3, cols)
}

func TestConvertCSVInvalidSheetName(t *testing.T) {
	in := writeTempCSV(t, "a\n")
	out := filepath.Join(t.TempDir(), "out.xlsx")

	_, _, err := ConvertCSV(in, out, WithSheetName("bad[name]"))
	assert.Error(t, err)
}

func TestConvertCSVMissingInput(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.xlsx")
	_, _, err := ConvertCSV(filepath.Join(t.TempDir(), "nope.csv"), out)
	assert.Error(t, err)
}

func TestConvertCSVDateOrder(t *testing.T) {
	in := writeTempCSV(t, "03/04/2025\n")
	out := filepath.Join(t.TempDir(), "out.xlsx")

	_, _, err := ConvertCSV(in, out, WithDateOrder(DateOrderMDY))
	require.NoError(t, err)

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()

	raw, err := f.GetCellValue("Sheet1", "A1", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	// March 4, 2025 under month-first order.
	assert.Equal(t, "45720", raw)
}

func TestConvertCSVParallelMatchesSequential(t *testing.T) {
	content := "id,score,when\n"
	for i := 0; i < 200; i++ {
		content += "7,3.5,2025-06-01\n"
	}
	in := writeTempCSV(t, content)
	dir := t.TempDir()
	seqOut := filepath.Join(dir, "seq.xlsx")
	parOut := filepath.Join(dir, "par.xlsx")

	seqRows, seqCols, err := ConvertCSV(in, seqOut)
	require.NoError(t, err)
	parRows, parCols, err := ConvertCSVParallel(context.Background(), in, parOut, WithWorkers(4))
	require.NoError(t, err)

	assert.Equal(t, seqRows, parRows)
	assert.Equal(t, seqCols, parCols)

	fs, err := excelize.OpenFile(seqOut)
	require.NoError(t, err)
	defer fs.Close()
	fp, err := excelize.OpenFile(parOut)
	require.NoError(t, err)
	defer fp.Close()

	// Row order is preserved despite parallel classification.
	for _, cell := range []string{"A1", "B2", "C2", "A201", "C201"} {
		want, err := fs.GetCellValue("Sheet1", cell, excelize.Options{RawCellValue: true})
		require.NoError(t, err)
		got, err := fp.GetCellValue("Sheet1", cell, excelize.Options{RawCellValue: true})
		require.NoError(t, err)
		assert.Equal(t, want, got, cell)
	}
}

func TestConvertCSVProgress(t *testing.T) {
	in := writeTempCSV(t, "1\n2\n3\n4\n5\n")
	out := filepath.Join(t.TempDir(), "out.xlsx")

	var calls []int
	_, _, err := ConvertCSV(in, out, WithProgress(2, func(rows int) {
		calls = append(calls, rows)
	}))
	require.NoError(t, err)
	assert.Equal(t, []int{2, 4}, calls)
}

func TestTableFromCSV(t *testing.T) {
	in := writeTempCSV(t, "id,name\n1,Alice\n2,Bob\n")

	table, err := TableFromCSV(in, true, DateOrderAuto)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name"}, table.Columns)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, IntegerValue(1), table.Rows[0][0])
	assert.Equal(t, StringValue("Alice"), table.Rows[0][1])

	table, err = TableFromCSV(in, false, DateOrderAuto)
	require.NoError(t, err)
	assert.Equal(t, []string{"Column1", "Column2"}, table.Columns)
	assert.Len(t, table.Rows, 3)
}
