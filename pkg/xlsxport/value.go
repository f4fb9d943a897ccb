package xlsxport

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// CellKind identifies the native worksheet type a value is written as.
type CellKind int

const (
	KindEmpty CellKind = iota
	KindInteger
	KindFloat
	KindBoolean
	KindDate
	KindDateTime
	KindString
)

// CellValue is a typed cell ready to be written to a worksheet.
// For KindDate and KindDateTime, Num holds the Excel serial number.
type CellValue struct {
	Kind CellKind
	Int  int64
	Num  float64
	Bool bool
	Str  string
}

func EmptyValue() CellValue          { return CellValue{Kind: KindEmpty} }
func IntegerValue(v int64) CellValue { return CellValue{Kind: KindInteger, Int: v} }
func FloatValue(v float64) CellValue { return CellValue{Kind: KindFloat, Num: v} }
func BoolValue(v bool) CellValue     { return CellValue{Kind: KindBoolean, Bool: v} }
func StringValue(s string) CellValue { return CellValue{Kind: KindString, Str: s} }

func DateValue(serial float64) CellValue {
	return CellValue{Kind: KindDate, Num: serial}
}

func DateTimeValue(serial float64) CellValue {
	return CellValue{Kind: KindDateTime, Num: serial}
}

// maxSafeInt is the largest integer magnitude exactly representable in a
// 64-bit float. Cells are stored as doubles in the file format, so larger
// integers fall back to text to avoid silent precision loss.
const maxSafeInt int64 = 1 << 53

// Serial date numbers count days from the 1900 epoch. December 30, 1899
// is day zero, which absorbs the historical lotus leap year bug.
var serialEpochUnix = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC).Unix()

// DateOrder selects how ambiguous numeric dates such as 03/04/2025 are read.
type DateOrder int

const (
	DateOrderAuto DateOrder = iota
	DateOrderMDY
	DateOrderDMY
)

// ParseDateOrder reads a date order name. It accepts "auto", "mdy" or "us",
// and "dmy", "eu" or "european", case insensitively.
func ParseDateOrder(s string) (DateOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return DateOrderAuto, nil
	case "mdy", "us":
		return DateOrderMDY, nil
	case "dmy", "eu", "european":
		return DateOrderDMY, nil
	}
	return DateOrderAuto, fmt.Errorf("unknown date order %q (expected auto, mdy or dmy)", s)
}

func (o DateOrder) String() string {
	switch o {
	case DateOrderMDY:
		return "mdy"
	case DateOrderDMY:
		return "dmy"
	default:
		return "auto"
	}
}

// ISO layouts are unambiguous and always tried before the locale-dependent
// ones. Auto resolves ambiguity day-first, matching most non-US locales.
var (
	isoDateLayouts = []string{"2006-01-02", "2006/01/02"}
	dmyDateLayouts = []string{"02-01-2006", "02/01/2006"}
	mdyDateLayouts = []string{"01-02-2006", "01/02/2006"}

	dateTimeLayouts = []string{
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
	}
)

func (o DateOrder) dateLayouts() []string {
	layouts := make([]string, 0, 6)
	layouts = append(layouts, isoDateLayouts...)
	if o == DateOrderMDY {
		layouts = append(layouts, mdyDateLayouts...)
		layouts = append(layouts, dmyDateLayouts...)
	} else {
		layouts = append(layouts, dmyDateLayouts...)
		layouts = append(layouts, mdyDateLayouts...)
	}
	return layouts
}

// timeToSerial converts a wall clock time to an Excel serial number.
// Arithmetic is done on Unix seconds so dates far from the epoch do not
// overflow a Duration.
func timeToSerial(t time.Time) float64 {
	utc := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
	return float64(utc.Unix()-serialEpochUnix) / 86400.0
}

// Classify parses raw text into a typed cell value. Detection runs in a
// fixed order: empty, integer, float, boolean, datetime, date, then plain
// text. Whitespace is trimmed before and after detection.
func Classify(raw string, order DateOrder) CellValue {
	s := strings.TrimSpace(raw)
	if s == "" {
		return EmptyValue()
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n > maxSafeInt || n < -maxSafeInt {
			return StringValue(s)
		}
		return IntegerValue(n)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return EmptyValue()
		}
		return FloatValue(f)
	}
	switch strings.ToLower(s) {
	case "true":
		return BoolValue(true)
	case "false":
		return BoolValue(false)
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateTimeValue(timeToSerial(t))
		}
	}
	for _, layout := range order.dateLayouts() {
		if t, err := time.Parse(layout, s); err == nil {
			return DateValue(timeToSerial(t))
		}
	}
	return StringValue(s)
}

// FromValue adapts an arbitrary dynamic value to a typed cell. nil maps to
// an empty cell, time.Time to a date or datetime depending on its clock,
// and out-of-range or non-finite numbers degrade the same way Classify
// degrades them. Anything unrecognized is stringified.
func FromValue(v interface{}) CellValue {
	if v == nil {
		return EmptyValue()
	}
	switch x := v.(type) {
	case CellValue:
		return x
	case bool:
		return BoolValue(x)
	case string:
		if x == "" {
			return EmptyValue()
		}
		return StringValue(x)
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return DateValue(timeToSerial(x))
		}
		return DateTimeValue(timeToSerial(x))
	case int:
		return intCell(int64(x))
	case int8:
		return intCell(int64(x))
	case int16:
		return intCell(int64(x))
	case int32:
		return intCell(int64(x))
	case int64:
		return intCell(x)
	case uint:
		return uintCell(uint64(x))
	case uint8:
		return uintCell(uint64(x))
	case uint16:
		return uintCell(uint64(x))
	case uint32:
		return uintCell(uint64(x))
	case uint64:
		return uintCell(x)
	case float32:
		return floatCell(float64(x))
	case float64:
		return floatCell(x)
	case []byte:
		return FromValue(string(x))
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return BoolValue(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return intCell(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return uintCell(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return floatCell(rv.Float())
	case reflect.String:
		return FromValue(rv.String())
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return EmptyValue()
		}
		return FromValue(rv.Elem().Interface())
	}
	return StringValue(fmt.Sprintf("%v", v))
}

func intCell(n int64) CellValue {
	if n > maxSafeInt || n < -maxSafeInt {
		return StringValue(strconv.FormatInt(n, 10))
	}
	return IntegerValue(n)
}

func uintCell(n uint64) CellValue {
	if n > uint64(maxSafeInt) {
		return StringValue(strconv.FormatUint(n, 10))
	}
	return IntegerValue(int64(n))
}

func floatCell(f float64) CellValue {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return EmptyValue()
	}
	return FloatValue(f)
}

// displayWidth is the number of characters the value occupies when shown,
// used for width auto-sizing.
func (v CellValue) displayWidth() int {
	switch v.Kind {
	case KindEmpty:
		return 0
	case KindInteger:
		return len(strconv.FormatInt(v.Int, 10))
	case KindFloat:
		return len(strconv.FormatFloat(v.Num, 'f', -1, 64))
	case KindBoolean:
		if v.Bool {
			return 4
		}
		return 5
	case KindDate:
		return len("yyyy-mm-dd")
	case KindDateTime:
		return len("yyyy-mm-dd hh:mm:ss")
	default:
		return len(v.Str)
	}
}
