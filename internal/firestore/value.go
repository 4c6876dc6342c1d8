package firestore

import (
	"strconv"
	"time"
)

// Value is the one-of typed field encoding of the Firestore REST API.
// Exactly one member is set. integerValue is string-encoded on the wire.
type Value struct {
	StringValue    *string  `json:"stringValue,omitempty"`
	DoubleValue    *float64 `json:"doubleValue,omitempty"`
	IntegerValue   *string  `json:"integerValue,omitempty"`
	BooleanValue   *bool    `json:"booleanValue,omitempty"`
	TimestampValue *string  `json:"timestampValue,omitempty"`
}

func String(s string) Value {
	return Value{StringValue: &s}
}

func Double(f float64) Value {
	return Value{DoubleValue: &f}
}

func Integer(i int64) Value {
	s := strconv.FormatInt(i, 10)
	return Value{IntegerValue: &s}
}

func Boolean(b bool) Value {
	return Value{BooleanValue: &b}
}

func Timestamp(t time.Time) Value {
	s := t.UTC().Format(time.RFC3339Nano)
	return Value{TimestampValue: &s}
}

func (v Value) AsString() (string, bool) {
	if v.StringValue != nil {
		return *v.StringValue, true
	}
	return "", false
}

// AsFloat accepts both double and integer encodings. Mobile clients write
// whole-number coordinates and amounts as integerValue.
func (v Value) AsFloat() (float64, bool) {
	if v.DoubleValue != nil {
		return *v.DoubleValue, true
	}
	if v.IntegerValue != nil {
		if f, err := strconv.ParseFloat(*v.IntegerValue, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

func (v Value) AsInt64() (int64, bool) {
	if v.IntegerValue != nil {
		if i, err := strconv.ParseInt(*v.IntegerValue, 10, 64); err == nil {
			return i, true
		}
	}
	if v.DoubleValue != nil {
		return int64(*v.DoubleValue), true
	}
	return 0, false
}

func (v Value) AsBool() (bool, bool) {
	if v.BooleanValue != nil {
		return *v.BooleanValue, true
	}
	return false, false
}

// AsTimestamp accepts both timestampValue and stringValue encodings; older
// mobile builds wrote dates as plain strings.
func (v Value) AsTimestamp() (string, bool) {
	if v.TimestampValue != nil {
		return *v.TimestampValue, true
	}
	if v.StringValue != nil {
		return *v.StringValue, true
	}
	return "", false
}
