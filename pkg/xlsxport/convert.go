package xlsxport

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/locvowork/tablexport/pkg/dataflow"
	"github.com/xuri/excelize/v2"
)

const csvReadBufferSize = 1 << 20

// CSVOption configures a CSV conversion.
type CSVOption func(*csvConfig)

type csvConfig struct {
	sheetName     string
	order         DateOrder
	workers       int
	progressEvery int
	progress      func(rows int)
}

func defaultCSVConfig() *csvConfig {
	return &csvConfig{
		sheetName: "Sheet1",
		workers:   runtime.GOMAXPROCS(0),
	}
}

// WithSheetName sets the destination sheet name. Default is "Sheet1".
func WithSheetName(name string) CSVOption {
	return func(c *csvConfig) {
		if name != "" {
			c.sheetName = name
		}
	}
}

// WithDateOrder sets how ambiguous dates are read.
func WithDateOrder(order DateOrder) CSVOption {
	return func(c *csvConfig) {
		c.order = order
	}
}

// WithWorkers sets the parser worker count for the parallel converter.
func WithWorkers(n int) CSVOption {
	return func(c *csvConfig) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithProgress installs a callback invoked after every n converted rows.
func WithProgress(every int, fn func(rows int)) CSVOption {
	return func(c *csvConfig) {
		if every > 0 && fn != nil {
			c.progressEvery = every
			c.progress = fn
		}
	}
}

// ConvertCSV converts a CSV file to an XLSX file, classifying every field
// into a typed cell. Records stream through one at a time, so memory use
// stays bounded by the row size, not the file size. It returns the number
// of rows and the widest column count written.
func ConvertCSV(inputPath, outputPath string, opts ...CSVOption) (int, int, error) {
	cfg := defaultCSVConfig()
	for _, o := range opts {
		o(cfg)
	}

	in, err := os.Open(inputPath)
	if err != nil {
		return 0, 0, fmt.Errorf("open %s: %w", inputPath, err)
	}
	defer in.Close()
	reader := newCSVReader(in)

	sink, err := newStreamSink(cfg.sheetName)
	if err != nil {
		return 0, 0, err
	}
	defer sink.close()

	rows, cols := 0, 0
	buf := make([]CellValue, 0, 16)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, 0, fmt.Errorf("CSV parse error at row %d: %w", rows+1, err)
		}
		buf = buf[:0]
		for _, field := range record {
			buf = append(buf, Classify(field, cfg.order))
		}
		if err := sink.writeRow(rows+1, buf); err != nil {
			return 0, 0, fmt.Errorf("write error at row %d: %w", rows+1, err)
		}
		rows++
		if len(record) > cols {
			cols = len(record)
		}
		if cfg.progress != nil && rows%cfg.progressEvery == 0 {
			cfg.progress(rows)
		}
	}

	if err := sink.save(outputPath); err != nil {
		return 0, 0, err
	}
	return rows, cols, nil
}

// ConvertCSVParallel converts a CSV file to an XLSX file using a pool of
// classification workers. The whole input is read up front, so it trades
// memory for speed on large files with heavy date or number content.
func ConvertCSVParallel(ctx context.Context, inputPath, outputPath string, opts ...CSVOption) (int, int, error) {
	cfg := defaultCSVConfig()
	for _, o := range opts {
		o(cfg)
	}

	records, err := readCSVRecords(inputPath)
	if err != nil {
		return 0, 0, err
	}

	type job struct {
		index  int
		fields []string
	}
	jobs := make([]job, len(records))
	for i, rec := range records {
		jobs[i] = job{index: i, fields: rec}
	}
	// Workers write to disjoint slots, so no locking is needed.
	parsed := make([][]CellValue, len(records))
	err = dataflow.ForEach(ctx, dataflow.From(ctx, jobs), func(j job) error {
		row := make([]CellValue, len(j.fields))
		for c, field := range j.fields {
			row[c] = Classify(field, cfg.order)
		}
		parsed[j.index] = row
		return nil
	}, dataflow.WithWorkers(cfg.workers))
	if err != nil {
		return 0, 0, err
	}

	sink, err := newStreamSink(cfg.sheetName)
	if err != nil {
		return 0, 0, err
	}
	defer sink.close()

	cols := 0
	for i, row := range parsed {
		if err := sink.writeRow(i+1, row); err != nil {
			return 0, 0, fmt.Errorf("write error at row %d: %w", i+1, err)
		}
		if len(row) > cols {
			cols = len(row)
		}
		if cfg.progress != nil && (i+1)%cfg.progressEvery == 0 {
			cfg.progress(i + 1)
		}
	}

	if err := sink.save(outputPath); err != nil {
		return 0, 0, err
	}
	return len(parsed), cols, nil
}

// TableFromCSV reads a CSV file into a Table, classifying every field.
// With hasHeader, the first record supplies the column names; otherwise
// columns are named Column1..N.
func TableFromCSV(path string, hasHeader bool, order DateOrder) (*Table, error) {
	records, err := readCSVRecords(path)
	if err != nil {
		return nil, err
	}
	t := &Table{}
	cols := 0
	for _, rec := range records {
		if len(rec) > cols {
			cols = len(rec)
		}
	}
	if hasHeader && len(records) > 0 {
		t.Columns = records[0]
		records = records[1:]
	} else {
		t.Columns = make([]string, cols)
		for i := range t.Columns {
			t.Columns[i] = fmt.Sprintf("Column%d", i+1)
		}
	}
	t.Rows = make([][]interface{}, len(records))
	for i, rec := range records {
		row := make([]interface{}, len(rec))
		for c, field := range rec {
			row[c] = Classify(field, order)
		}
		t.Rows[i] = row
	}
	return t, nil
}

func newCSVReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(bufio.NewReaderSize(r, csvReadBufferSize))
	reader.FieldsPerRecord = -1
	return reader
}

func readCSVRecords(path string) ([][]string, error) {
	in, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer in.Close()
	records, err := newCSVReader(in).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("CSV parse error: %w", err)
	}
	return records, nil
}

// streamSink writes classified rows through the workbook stream writer,
// keeping only the current row in memory.
type streamSink struct {
	f        *excelize.File
	sw       *excelize.StreamWriter
	sheet    string
	date     int
	dateTime int
}

func newStreamSink(sheetName string) (*streamSink, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		f.Close()
		return nil, fmt.Errorf("sheet name %q: %w", sheetName, err)
	}
	s := &streamSink{f: f, sheet: sheetName}
	var err error
	if s.date, err = withDateFormat(f, StyleSpec{}, dateNumFmt); err != nil {
		f.Close()
		return nil, err
	}
	if s.dateTime, err = withDateFormat(f, StyleSpec{}, dateTimeNumFmt); err != nil {
		f.Close()
		return nil, err
	}
	if s.sw, err = f.NewStreamWriter(sheetName); err != nil {
		f.Close()
		return nil, fmt.Errorf("stream writer: %w", err)
	}
	return s, nil
}

// writeRow writes one classified row at the given one-based row number.
// Rows must be written in ascending order.
func (s *streamSink) writeRow(row int, values []CellValue) error {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = s.streamCell(v)
	}
	anchor, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return s.sw.SetRow(anchor, cells)
}

func (s *streamSink) streamCell(v CellValue) excelize.Cell {
	switch v.Kind {
	case KindInteger:
		return excelize.Cell{Value: v.Int}
	case KindFloat:
		return excelize.Cell{Value: v.Num}
	case KindBoolean:
		return excelize.Cell{Value: v.Bool}
	case KindDate:
		return excelize.Cell{Value: v.Num, StyleID: s.date}
	case KindDateTime:
		return excelize.Cell{Value: v.Num, StyleID: s.dateTime}
	case KindString:
		return excelize.Cell{Value: v.Str}
	default:
		return excelize.Cell{Value: ""}
	}
}

func (s *streamSink) save(path string) error {
	if err := s.sw.Flush(); err != nil {
		return fmt.Errorf("flush stream: %w", err)
	}
	if err := s.f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

func (s *streamSink) close() error {
	return s.f.Close()
}
