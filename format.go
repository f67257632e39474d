package janus

import (
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Formats carries the layouts shared by path, query and form string
// conversion. The zero value is not usable; use DefaultFormats.
type Formats struct {
	// DateTime is the layout for time.Time values.
	DateTime string
	// Time is the layout for the time-of-day rendering of durations.
	Time string
}

// DefaultFormats returns the stock layouts: "yyyy-MM-dd HH:mm:ss" dates and
// "HH:mm:ss" durations, expressed as Go reference layouts.
func DefaultFormats() Formats {
	return Formats{
		DateTime: "2006-01-02 15:04:05",
		Time:     "15:04:05",
	}
}

// FormatValue converts v to its string form using the shared rules: times
// through the DateTime layout, durations as clock time, uuid values and
// other Stringers through String(), scalars through strconv, nil to "".
func FormatValue(v any, f Formats) string {
	if v == nil {
		return ""
	}
	switch tv := v.(type) {
	case time.Time:
		return tv.Format(f.DateTime)
	case *time.Time:
		if tv == nil {
			return ""
		}
		return tv.Format(f.DateTime)
	case time.Duration:
		return formatClock(tv, f.Time)
	case uuid.UUID:
		return tv.String()
	case string:
		return tv
	case bool:
		return strconv.FormatBool(tv)
	case fmt.Stringer:
		return tv.String()
	case error:
		return tv.Error()
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return ""
		}
		rv = rv.Elem()
	}
	if rv.Type() == reflect.TypeOf(time.Time{}) || rv.Type() == reflect.TypeOf(uuid.UUID{}) || rv.Type() == reflect.TypeOf(time.Duration(0)) {
		return FormatValue(rv.Interface(), f)
	}
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 32)
	case reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64)
	case reflect.Invalid:
		return ""
	}
	return fmt.Sprintf("%v", rv.Interface())
}

// formatClock renders a duration on a 24h clock face using a time layout, so
// the default layout yields "HH:mm:ss". Durations of a day or more wrap.
func formatClock(d time.Duration, layout string) string {
	if d < 0 {
		d = -d
	}
	base := time.Date(0, 1, 1, 0, 0, 0, 0, time.UTC)
	return base.Add(d).Format(layout)
}
