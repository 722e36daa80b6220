// Package record models the loosely typed rows extracted from a workbook as
// tagged field values with explicit coercion rules.
package record

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Kind identifies which variant a Value holds.
type Kind int

const (
	// KindAbsent is a null, missing, or undefined field.
	KindAbsent Kind = iota
	KindString
	KindNumber
	KindBool
	KindDate
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindDate:
		return "date"
	default:
		return "absent"
	}
}

// Value is a single scalar field value.
type Value struct {
	kind Kind
	s    string
	n    float64
	b    bool
	t    time.Time
}

// Absent returns the absent value.
func Absent() Value { return Value{} }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Number returns a numeric value. NaN is stored as absent.
func Number(n float64) Value {
	if math.IsNaN(n) {
		return Value{}
	}
	return Value{kind: KindNumber, n: n}
}

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Date returns a date value.
func Date(t time.Time) Value { return Value{kind: KindDate, t: t} }

// Kind reports the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsEmpty reports whether v is absent or an empty string. Zero and false are
// not empty.
func (v Value) IsEmpty() bool {
	switch v.kind {
	case KindAbsent:
		return true
	case KindString:
		return v.s == ""
	default:
		return false
	}
}

// Float coerces v to a finite number using parseFloat rules: numbers pass
// through, strings yield their longest leading decimal literal, everything
// else is not numeric.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindNumber:
		if math.IsInf(v.n, 0) {
			return 0, false
		}
		return v.n, true
	case KindString:
		return ParseFloat(v.s)
	default:
		return 0, false
	}
}

// FloatOrZero is Float with unparsable values contributing 0.
func (v Value) FloatOrZero() float64 {
	f, ok := v.Float()
	if !ok {
		return 0
	}
	return f
}

// IsNumeric reports whether v is a number or text that is a number in full.
// "1001-A" parses as 1001 with Float but is not numeric.
func (v Value) IsNumeric() bool {
	switch v.kind {
	case KindNumber:
		return !math.IsInf(v.n, 0) && !math.IsNaN(v.n)
	case KindString:
		return Infer(v.s).kind == KindNumber
	default:
		return false
	}
}

// Text renders v as a grouping key. Absent values render as "".
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindNumber:
		return strconv.FormatFloat(v.n, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindDate:
		return v.t.UTC().Format(time.RFC3339)
	default:
		return ""
	}
}

// Time coerces v to a timestamp. Numbers are epoch milliseconds; strings are
// tried against the layouts workbooks and the extraction service produce.
func (v Value) Time() (time.Time, bool) {
	switch v.kind {
	case KindDate:
		return v.t, true
	case KindNumber:
		if math.IsInf(v.n, 0) {
			return time.Time{}, false
		}
		return time.UnixMilli(int64(v.n)).UTC(), true
	case KindString:
		return ParseTime(v.s)
	default:
		return time.Time{}, false
	}
}

// DayKey truncates v to its UTC calendar day, formatted YYYY-MM-DD.
func (v Value) DayKey() (string, bool) {
	t, ok := v.Time()
	if !ok {
		return "", false
	}
	return t.UTC().Format("2006-01-02"), true
}

// Equal reports whether two values hold the same variant and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.s == o.s
	case KindNumber:
		return v.n == o.n
	case KindBool:
		return v.b == o.b
	case KindDate:
		return v.t.Equal(o.t)
	default:
		return true
	}
}

// MarshalJSON encodes v as its natural JSON scalar.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.s)
	case KindNumber:
		if math.IsInf(v.n, 0) {
			return []byte("null"), nil
		}
		return json.Marshal(v.n)
	case KindBool:
		return json.Marshal(v.b)
	case KindDate:
		return json.Marshal(v.t.UTC().Format(time.RFC3339))
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes any JSON scalar into v.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	*v = FromAny(raw)
	return nil
}

// FromAny converts a decoded JSON or Go value into a Value.
func FromAny(raw any) Value {
	switch x := raw.(type) {
	case nil:
		return Absent()
	case Value:
		return x
	case string:
		return String(x)
	case bool:
		return Bool(x)
	case time.Time:
		return Date(x)
	case json.Number, float64, float32, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		f, err := cast.ToFloat64E(x)
		if err != nil {
			return String(cast.ToString(x))
		}
		return Number(f)
	default:
		s, err := cast.ToStringE(x)
		if err != nil {
			return Absent()
		}
		return String(s)
	}
}

// Infer converts raw cell text into the most specific Value: empty text is
// absent, fully numeric text is a number, true/false is a bool.
func Infer(s string) Value {
	s = strings.TrimSpace(s)
	if s == "" {
		return Absent()
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return Number(f)
	}
	switch strings.ToLower(s) {
	case "true":
		return Bool(true)
	case "false":
		return Bool(false)
	}
	return String(s)
}
