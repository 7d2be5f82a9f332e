package vm

import (
	"fmt"
	"math"
	"strconv"
)

// ValueType identifies the type of value stored in the Value struct
type ValueType uint8

const (
	ValNil ValueType = iota
	ValNumber
	ValBool
	ValString
)

var valueTypeNames = [...]string{
	ValNil:    "nil",
	ValNumber: "number",
	ValBool:   "boolean",
	ValString: "string",
}

func (t ValueType) String() string {
	if int(t) < len(valueTypeNames) {
		return valueTypeNames[t]
	}
	return "unknown"
}

// Value is a copy-semantics tagged union.
// Numbers and booleans live in Data; strings in Str.
type Value struct {
	Type ValueType
	Data uint64 // float64 bits, or bool (0/1)
	Str  string
}

// Constructors

func NilVal() Value {
	return Value{Type: ValNil}
}

func NumberVal(v float64) Value {
	return Value{Type: ValNumber, Data: math.Float64bits(v)}
}

func BoolVal(v bool) Value {
	var data uint64
	if v {
		data = 1
	}
	return Value{Type: ValBool, Data: data}
}

func StringVal(s string) Value {
	return Value{Type: ValString, Str: s}
}

// Accessors

func (v Value) AsNumber() float64 {
	return math.Float64frombits(v.Data)
}

func (v Value) AsBool() bool {
	return v.Data == 1
}

func (v Value) AsString() string {
	return v.Str
}

// Type checking helpers

func (v Value) IsNumber() bool { return v.Type == ValNumber }
func (v Value) IsBool() bool   { return v.Type == ValBool }
func (v Value) IsNil() bool    { return v.Type == ValNil }
func (v Value) IsString() bool { return v.Type == ValString }

// IsTruthy is false only for false and nil.
func (v Value) IsTruthy() bool {
	switch v.Type {
	case ValNil:
		return false
	case ValBool:
		return v.AsBool()
	default:
		return true
	}
}

// ToNumber coerces v for arithmetic and ordering.
func (v Value) ToNumber() (float64, error) {
	switch v.Type {
	case ValNumber:
		return v.AsNumber(), nil
	case ValString:
		n, err := strconv.ParseFloat(v.Str, 64)
		if err != nil {
			return 0, fmt.Errorf("Cannot convert '%s' to number", v.Str)
		}
		return n, nil
	case ValBool:
		if v.AsBool() {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("Cannot convert nil to number")
	}
}

// Equals is structural. Values of different types are never equal.
func (v Value) Equals(other Value) bool {
	if v.Type != other.Type {
		return false
	}
	switch v.Type {
	case ValNumber:
		return v.AsNumber() == other.AsNumber()
	case ValBool:
		return v.Data == other.Data
	case ValString:
		return v.Str == other.Str
	case ValNil:
		return true
	default:
		return false
	}
}

// String returns the display form used by show and string concatenation.
func (v Value) String() string {
	switch v.Type {
	case ValNumber:
		return FormatNumber(v.AsNumber())
	case ValBool:
		return strconv.FormatBool(v.AsBool())
	case ValString:
		return v.Str
	default:
		return "nil"
	}
}

// Inspect returns a debugging representation; strings are quoted.
func (v Value) Inspect() string {
	if v.Type == ValString {
		return strconv.Quote(v.Str)
	}
	return v.String()
}

// FormatNumber prints integral numbers without a fraction.
func FormatNumber(n float64) string {
	switch {
	case math.IsNaN(n):
		return "NaN"
	case math.IsInf(n, 1):
		return "inf"
	case math.IsInf(n, -1):
		return "-inf"
	case n == 0:
		return "0"
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}
