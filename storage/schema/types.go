package schema

import (
	"math"
	"strconv"
	"strings"

	"github.com/apache/arrow/go/v12/arrow"
	serrors "github.com/minio/spark-select/go/common/errors"
	"github.com/pkg/errors"
)

// DataType is the fixed set of primitive column types a Schema may declare.
type DataType int8

const (
	String DataType = iota
	Boolean
	Int
	Long
	Float
	Double

	maxDataType
)

var typeNames = [...]string{
	String:  "string",
	Boolean: "boolean",
	Int:     "int",
	Long:    "long",
	Float:   "float",
	Double:  "double",
}

var typeAliases = map[string]DataType{
	"string":  String,
	"varchar": String,
	"text":    String,
	"utf8":    String,
	"boolean": Boolean,
	"bool":    Boolean,
	"int":     Int,
	"integer": Int,
	"int32":   Int,
	"long":    Long,
	"bigint":  Long,
	"int64":   Long,
	"float":   Float,
	"real":    Float,
	"float32": Float,
	"double":  Double,
	"float64": Double,
}

func ParseDataType(s string) (DataType, error) {
	t, ok := typeAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, errors.Wrapf(serrors.ErrUnsupportedType, "%q", s)
	}
	return t, nil
}

func (t DataType) Valid() bool {
	return t >= 0 && t < maxDataType
}

func (t DataType) String() string {
	if !t.Valid() {
		return "unknown(" + strconv.Itoa(int(t)) + ")"
	}
	return typeNames[t]
}

func (t DataType) IsNumeric() bool {
	return t == Int || t == Long || t == Float || t == Double
}

func (t DataType) ArrowType() arrow.DataType {
	switch t {
	case String:
		return arrow.BinaryTypes.String
	case Boolean:
		return arrow.FixedWidthTypes.Boolean
	case Int:
		return arrow.PrimitiveTypes.Int32
	case Long:
		return arrow.PrimitiveTypes.Int64
	case Float:
		return arrow.PrimitiveTypes.Float32
	case Double:
		return arrow.PrimitiveTypes.Float64
	default:
		return nil
	}
}

// SQLType is the type name used in S3 Select CAST expressions.
func (t DataType) SQLType() string {
	switch t {
	case String:
		return "STRING"
	case Boolean:
		return "BOOL"
	case Int, Long:
		return "INT"
	default:
		return "FLOAT"
	}
}

// FromArrowType maps a physical arrow type onto the closest DataType.
func FromArrowType(t arrow.DataType) (DataType, bool) {
	switch t.ID() {
	case arrow.STRING, arrow.LARGE_STRING:
		return String, true
	case arrow.BOOL:
		return Boolean, true
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.UINT8, arrow.UINT16:
		return Int, true
	case arrow.INT64, arrow.UINT32:
		return Long, true
	case arrow.FLOAT16, arrow.FLOAT32:
		return Float, true
	case arrow.FLOAT64:
		return Double, true
	case arrow.DICTIONARY:
		return FromArrowType(t.(*arrow.DictionaryType).ValueType)
	default:
		return 0, false
	}
}

// CanReadAs reports whether values stored as physical can be read as t
// without loss.
func CanReadAs(physical, t DataType) bool {
	if physical == t {
		return true
	}
	switch t {
	case Long:
		return physical == Int
	case Double:
		return physical == Int || physical == Float
	}
	return false
}

// Coerce converts a decoded value into the Go representation of t:
// string, bool, int32, int64, float32 or float64. Strings are parsed, so
// text sources such as CSV cells can be coerced into typed values.
func (t DataType) Coerce(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch t {
	case String:
		switch x := v.(type) {
		case string:
			return x, nil
		case []byte:
			return string(x), nil
		case bool:
			return strconv.FormatBool(x), nil
		case interface{ String() string }:
			return x.String(), nil
		}
		i, ok := toInt64(v)
		if ok {
			return strconv.FormatInt(i, 10), nil
		}
		if f, ok := toFloat64(v); ok {
			return strconv.FormatFloat(f, 'g', -1, 64), nil
		}
	case Boolean:
		switch x := v.(type) {
		case bool:
			return x, nil
		case string:
			b, err := strconv.ParseBool(strings.TrimSpace(x))
			if err == nil {
				return b, nil
			}
		}
	case Int:
		if i, ok := toInt64(v); ok && i >= math.MinInt32 && i <= math.MaxInt32 {
			return int32(i), nil
		}
	case Long:
		if i, ok := toInt64(v); ok {
			return i, nil
		}
	case Float:
		if f, ok := toFloat64(v); ok {
			return float32(f), nil
		}
	case Double:
		if f, ok := toFloat64(v); ok {
			return f, nil
		}
	}
	return nil, errors.Errorf("cannot convert %v (%T) to %s", v, v, t)
}

type numberLike interface {
	Int64() (int64, error)
	Float64() (float64, error)
}

func toInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case float32:
		if float32(int64(x)) == x {
			return int64(x), true
		}
	case float64:
		if float64(int64(x)) == x {
			return int64(x), true
		}
	case numberLike:
		if i, err := x.Int64(); err == nil {
			return i, true
		}
		if f, err := x.Float64(); err == nil && float64(int64(f)) == f {
			return int64(f), true
		}
	case string:
		if i, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64); err == nil {
			return i, true
		}
	}
	return 0, false
}

func toFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float32:
		return float64(x), true
	case float64:
		return x, true
	case numberLike:
		if f, err := x.Float64(); err == nil {
			return f, true
		}
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil {
			return f, true
		}
	}
	if i, ok := toInt64(v); ok {
		return float64(i), true
	}
	return 0, false
}
