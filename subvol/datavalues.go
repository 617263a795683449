/*
   This file handles the layout of a single voxel element and routines that
   extract scalar values from a slice of little-endian bytes.
*/

package subvol

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// DataType identifies the element type of a raw volume, e.g., a uint8 or a float32.
type DataType uint8

const (
	T_uint8 DataType = iota
	T_int8
	T_uint16
	T_int16
	T_uint32
	T_int32
	T_float32
	T_float64
)

var typeBytes = map[DataType]int32{
	T_uint8:   1,
	T_int8:    1,
	T_uint16:  2,
	T_int16:   2,
	T_uint32:  4,
	T_int32:   4,
	T_float32: 4,
	T_float64: 8,
}

var typeNames = map[DataType]string{
	T_uint8:   "uint8",
	T_int8:    "int8",
	T_uint16:  "uint16",
	T_int16:   "int16",
	T_uint32:  "uint32",
	T_int32:   "int32",
	T_float32: "float32",
	T_float64: "float64",
}

// dataTypeAliases maps every accepted spelling, including the names used by .dat
// descriptors and older tooling, onto a DataType.
var dataTypeAliases = map[string]DataType{
	"uint8":            T_uint8,
	"uchar":            T_uint8,
	"unsigned char":    T_uint8,
	"int8":             T_int8,
	"char":             T_int8,
	"uint16":           T_uint16,
	"ushort":           T_uint16,
	"unsigned short":   T_uint16,
	"int16":            T_int16,
	"short":            T_int16,
	"uint32":           T_uint32,
	"uint":             T_uint32,
	"unsigned integer": T_uint32,
	"int32":            T_int32,
	"int":              T_int32,
	"float32":          T_float32,
	"float":            T_float32,
	"float64":          T_float64,
	"double":           T_float64,
}

// ParseDataType returns the DataType for a name such as "uint16" or "ushort".
// Matching is case-insensitive.
func ParseDataType(name string) (DataType, error) {
	t, found := dataTypeAliases[strings.ToLower(strings.TrimSpace(name))]
	if !found {
		return 0, &ConfigError{Field: "dtype", Value: name, Msg: "unknown data type"}
	}
	return t, nil
}

// Bytes returns the size in bytes of one element of this type.
func (t DataType) Bytes() int32 {
	return typeBytes[t]
}

// String returns the canonical name of the type, e.g., "uint16".
func (t DataType) String() string {
	if name, found := typeNames[t]; found {
		return name
	}
	return fmt.Sprintf("unknown data type %d", uint8(t))
}

// IsFloat returns true for floating point element types.
func (t DataType) IsFloat() bool {
	return t == T_float32 || t == T_float64
}

// Min returns the smallest value representable by the type.  For floating point types
// this is the most negative finite value.
func (t DataType) Min() float64 {
	switch t {
	case T_uint8, T_uint16, T_uint32:
		return 0
	case T_int8:
		return math.MinInt8
	case T_int16:
		return math.MinInt16
	case T_int32:
		return math.MinInt32
	case T_float32:
		return -math.MaxFloat32
	case T_float64:
		return -math.MaxFloat64
	}
	return 0
}

// Max returns the largest finite value representable by the type.
func (t DataType) Max() float64 {
	switch t {
	case T_uint8:
		return math.MaxUint8
	case T_int8:
		return math.MaxInt8
	case T_uint16:
		return math.MaxUint16
	case T_int16:
		return math.MaxInt16
	case T_uint32:
		return math.MaxUint32
	case T_int32:
		return math.MaxInt32
	case T_float32:
		return math.MaxFloat32
	case T_float64:
		return math.MaxFloat64
	}
	return 0
}

// Decoder converts one little-endian element at the start of b into a float64.
type Decoder func(b []byte) float64

// Decoder returns the element decoder for the type.
func (t DataType) Decoder() Decoder {
	switch t {
	case T_uint8:
		return func(b []byte) float64 { return float64(b[0]) }
	case T_int8:
		return func(b []byte) float64 { return float64(int8(b[0])) }
	case T_uint16:
		return func(b []byte) float64 { return float64(binary.LittleEndian.Uint16(b)) }
	case T_int16:
		return func(b []byte) float64 { return float64(int16(binary.LittleEndian.Uint16(b))) }
	case T_uint32:
		return func(b []byte) float64 { return float64(binary.LittleEndian.Uint32(b)) }
	case T_int32:
		return func(b []byte) float64 { return float64(int32(binary.LittleEndian.Uint32(b))) }
	case T_float32:
		return func(b []byte) float64 {
			return float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
		}
	case T_float64:
		return func(b []byte) float64 { return math.Float64frombits(binary.LittleEndian.Uint64(b)) }
	}
	return nil
}

// Encode appends the little-endian representation of v, converted to the type, to dst.
// It is the inverse of Decoder and is mostly useful for building test volumes.
func (t DataType) Encode(dst []byte, v float64) []byte {
	var buf [8]byte
	switch t {
	case T_uint8:
		return append(dst, uint8(v))
	case T_int8:
		return append(dst, uint8(int8(v)))
	case T_uint16:
		binary.LittleEndian.PutUint16(buf[:], uint16(v))
		return append(dst, buf[:2]...)
	case T_int16:
		binary.LittleEndian.PutUint16(buf[:], uint16(int16(v)))
		return append(dst, buf[:2]...)
	case T_uint32:
		binary.LittleEndian.PutUint32(buf[:], uint32(v))
		return append(dst, buf[:4]...)
	case T_int32:
		binary.LittleEndian.PutUint32(buf[:], uint32(int32(v)))
		return append(dst, buf[:4]...)
	case T_float32:
		binary.LittleEndian.PutUint32(buf[:], math.Float32bits(float32(v)))
		return append(dst, buf[:4]...)
	case T_float64:
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		return append(dst, buf[:8]...)
	}
	return dst
}

// MarshalJSON implements the json.Marshaler interface.
func (t DataType) MarshalJSON() ([]byte, error) {
	name, found := typeNames[t]
	if !found {
		return nil, fmt.Errorf("cannot marshal unknown data type %d", uint8(t))
	}
	return json.Marshal(name)
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (t *DataType) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	dt, err := ParseDataType(name)
	if err != nil {
		return err
	}
	*t = dt
	return nil
}

// UnmarshalText lets a DataType be decoded directly from TOML strings.
func (t *DataType) UnmarshalText(b []byte) error {
	dt, err := ParseDataType(string(b))
	if err != nil {
		return err
	}
	*t = dt
	return nil
}
