package xlsxport

import (
	"math"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyBasicTypes(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want CellValue
	}{
		{"empty", "", EmptyValue()},
		{"whitespace only", "   \t ", EmptyValue()},
		{"integer", "42", IntegerValue(42)},
		{"negative integer", "-7", IntegerValue(-7)},
		{"trimmed integer", "  42  ", IntegerValue(42)},
		{"float", "3.14", FloatValue(3.14)},
		{"scientific", "1e3", FloatValue(1000)},
		{"true lowercase", "true", BoolValue(true)},
		{"true mixed case", "TrUe", BoolValue(true)},
		{"false uppercase", "FALSE", BoolValue(false)},
		{"plain text", "hello", StringValue("hello")},
		{"trimmed text", "  hello  ", StringValue("hello")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.raw, DateOrderAuto))
		})
	}
}

func TestClassifyIntegerPrecisionBoundary(t *testing.T) {
	safe := int64(1) << 53
	assert.Equal(t, IntegerValue(safe), Classify(strconv.FormatInt(safe, 10), DateOrderAuto))
	assert.Equal(t, IntegerValue(-safe), Classify(strconv.FormatInt(-safe, 10), DateOrderAuto))

	over := strconv.FormatInt(safe+1, 10)
	assert.Equal(t, StringValue(over), Classify(over, DateOrderAuto))
	under := strconv.FormatInt(-safe-1, 10)
	assert.Equal(t, StringValue(under), Classify(under, DateOrderAuto))
}

func TestClassifyNonFiniteFloats(t *testing.T) {
	for _, raw := range []string{"NaN", "nan", "Inf", "-Inf", "+Inf", "Infinity"} {
		t.Run(raw, func(t *testing.T) {
			assert.Equal(t, KindEmpty, Classify(raw, DateOrderAuto).Kind)
		})
	}
}

func TestClassifyDates(t *testing.T) {
	// Day 1 of the serial calendar is December 31, 1899.
	v := Classify("1899-12-31", DateOrderAuto)
	require.Equal(t, KindDate, v.Kind)
	assert.Equal(t, 1.0, v.Num)

	v = Classify("1900/01/01", DateOrderAuto)
	require.Equal(t, KindDate, v.Kind)
	assert.Equal(t, 2.0, v.Num)
}

func TestClassifyDateTimes(t *testing.T) {
	v := Classify("1900-01-01 12:00:00", DateOrderAuto)
	require.Equal(t, KindDateTime, v.Kind)
	assert.Equal(t, 2.5, v.Num)

	v = Classify("1900-01-01T18:00:00", DateOrderAuto)
	require.Equal(t, KindDateTime, v.Kind)
	assert.Equal(t, 2.75, v.Num)
}

func TestClassifyDateOrder(t *testing.T) {
	// 03/04/2025 is April 3 day-first and March 4 month-first.
	dayFirst := timeToSerial(time.Date(2025, time.April, 3, 0, 0, 0, 0, time.UTC))
	monthFirst := timeToSerial(time.Date(2025, time.March, 4, 0, 0, 0, 0, time.UTC))

	v := Classify("03/04/2025", DateOrderAuto)
	require.Equal(t, KindDate, v.Kind)
	assert.Equal(t, dayFirst, v.Num)

	v = Classify("03/04/2025", DateOrderDMY)
	require.Equal(t, KindDate, v.Kind)
	assert.Equal(t, dayFirst, v.Num)

	v = Classify("03/04/2025", DateOrderMDY)
	require.Equal(t, KindDate, v.Kind)
	assert.Equal(t, monthFirst, v.Num)
}

func TestClassifyISOWinsOverLocale(t *testing.T) {
	// ISO layouts are tried first regardless of date order.
	iso := timeToSerial(time.Date(2025, time.March, 4, 0, 0, 0, 0, time.UTC))
	for _, order := range []DateOrder{DateOrderAuto, DateOrderMDY, DateOrderDMY} {
		v := Classify("2025-03-04", order)
		require.Equal(t, KindDate, v.Kind)
		assert.Equal(t, iso, v.Num)
	}
}

func TestClassifyInvalidDatesStayText(t *testing.T) {
	for _, raw := range []string{"2025-13-01", "32/01/2025", "13/13/2025", "2025-02-30"} {
		t.Run(raw, func(t *testing.T) {
			assert.Equal(t, KindString, Classify(raw, DateOrderAuto).Kind)
		})
	}
}

func TestParseDateOrder(t *testing.T) {
	for raw, want := range map[string]DateOrder{
		"auto": DateOrderAuto, "": DateOrderAuto,
		"mdy": DateOrderMDY, "US": DateOrderMDY,
		"dmy": DateOrderDMY, "eu": DateOrderDMY, "European": DateOrderDMY,
	} {
		got, err := ParseDateOrder(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}
	_, err := ParseDateOrder("ymd")
	assert.Error(t, err)
}

func TestFromValue(t *testing.T) {
	assert.Equal(t, EmptyValue(), FromValue(nil))
	assert.Equal(t, BoolValue(true), FromValue(true))
	assert.Equal(t, IntegerValue(42), FromValue(42))
	assert.Equal(t, IntegerValue(7), FromValue(uint8(7)))
	assert.Equal(t, FloatValue(2.5), FromValue(float32(2.5)))
	assert.Equal(t, StringValue("hi"), FromValue("hi"))
	assert.Equal(t, StringValue("hi"), FromValue([]byte("hi")))
	assert.Equal(t, EmptyValue(), FromValue(""))
	assert.Equal(t, EmptyValue(), FromValue(math.NaN()))
	assert.Equal(t, EmptyValue(), FromValue(math.Inf(1)))

	big := uint64(1)<<53 + 1
	assert.Equal(t, StringValue(strconv.FormatUint(big, 10)), FromValue(big))

	// Typed values pass through untouched.
	assert.Equal(t, DateValue(10), FromValue(DateValue(10)))
}

func TestFromValueTime(t *testing.T) {
	midnight := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	v := FromValue(midnight)
	require.Equal(t, KindDate, v.Kind)
	assert.Equal(t, timeToSerial(midnight), v.Num)

	afternoon := time.Date(2025, time.June, 1, 15, 30, 0, 0, time.UTC)
	v = FromValue(afternoon)
	require.Equal(t, KindDateTime, v.Kind)
	assert.Equal(t, timeToSerial(afternoon), v.Num)
}

func TestFromValueDefinedTypes(t *testing.T) {
	type myInt int
	type myString string
	assert.Equal(t, IntegerValue(5), FromValue(myInt(5)))
	assert.Equal(t, StringValue("x"), FromValue(myString("x")))

	var p *int
	assert.Equal(t, EmptyValue(), FromValue(p))
	n := 9
	assert.Equal(t, IntegerValue(9), FromValue(&n))
}
