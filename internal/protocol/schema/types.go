package schema

import (
	"fmt"
	"math"
)

// Type is the wire type of a schema item.
type Type uint8

const (
	TypeU8 Type = iota + 1
	TypeU16
	TypeU32
	TypeI8
	TypeI16
	TypeI32
	TypeBool
	TypeBytes
	TypeString
	TypeEnum
)

var typeNames = map[string]Type{
	"u8":     TypeU8,
	"u16":    TypeU16,
	"u32":    TypeU32,
	"i8":     TypeI8,
	"i16":    TypeI16,
	"i32":    TypeI32,
	"bool":   TypeBool,
	"bytes":  TypeBytes,
	"string": TypeString,
	"enum":   TypeEnum,
}

func ParseType(s string) (Type, error) {
	t, ok := typeNames[s]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownType, s)
	}
	return t, nil
}

func (t Type) String() string {
	for name, v := range typeNames {
		if v == t {
			return name
		}
	}
	return fmt.Sprintf("type(%d)", uint8(t))
}

func (t Type) numeric() bool {
	return t >= TypeU8 && t <= TypeBool
}

// bounds is the inclusive range a numeric type can hold.
func (t Type) bounds() (int64, int64) {
	switch t {
	case TypeU8:
		return 0, math.MaxUint8
	case TypeU16:
		return 0, math.MaxUint16
	case TypeU32:
		return 0, math.MaxUint32
	case TypeI8:
		return math.MinInt8, math.MaxInt8
	case TypeI16:
		return math.MinInt16, math.MaxInt16
	case TypeI32:
		return math.MinInt32, math.MaxInt32
	case TypeBool:
		return 0, 1
	}
	return 0, 0
}
