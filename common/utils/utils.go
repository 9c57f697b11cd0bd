package utils

import (
	"path"
	"strings"

	"github.com/apache/arrow/go/v12/arrow"
	"github.com/apache/arrow/go/v12/arrow/array"
	"github.com/google/uuid"
	"github.com/minio/spark-select/go/common/constant"
	"github.com/pkg/errors"
)

// ProjectSchema keeps the named columns of schema in the given order.
// An empty column list keeps everything.
func ProjectSchema(schema *arrow.Schema, columns []string) *arrow.Schema {
	if len(columns) == 0 {
		return schema
	}
	fields := make([]arrow.Field, 0, len(columns))
	for _, c := range columns {
		indices := schema.FieldIndices(c)
		if len(indices) == 0 {
			continue
		}
		fields = append(fields, schema.Field(indices[0]))
	}
	return arrow.NewSchema(fields, nil)
}

// ValueAt returns the Go value stored at row i of arr, nil for nulls.
// Integers are returned with their arrow width (int32 for INT32 etc.).
func ValueAt(arr arrow.Array, i int) any {
	if arr.IsNull(i) {
		return nil
	}
	switch a := arr.(type) {
	case *array.String:
		return a.Value(i)
	case *array.LargeString:
		return a.Value(i)
	case *array.Binary:
		return string(a.Value(i))
	case *array.Boolean:
		return a.Value(i)
	case *array.Int8:
		return a.Value(i)
	case *array.Int16:
		return a.Value(i)
	case *array.Int32:
		return a.Value(i)
	case *array.Int64:
		return a.Value(i)
	case *array.Uint8:
		return a.Value(i)
	case *array.Uint16:
		return a.Value(i)
	case *array.Uint32:
		return a.Value(i)
	case *array.Float32:
		return a.Value(i)
	case *array.Float64:
		return a.Value(i)
	case *array.Dictionary:
		return ValueAt(a.Dictionary(), a.GetValueIndex(i))
	default:
		return nil
	}
}

// AppendValue appends a value already converted to the builder's Go type.
func AppendValue(b array.Builder, v any) error {
	if v == nil {
		b.AppendNull()
		return nil
	}
	var ok bool
	switch bb := b.(type) {
	case *array.StringBuilder:
		var x string
		if x, ok = v.(string); ok {
			bb.Append(x)
		}
	case *array.BooleanBuilder:
		var x bool
		if x, ok = v.(bool); ok {
			bb.Append(x)
		}
	case *array.Int32Builder:
		var x int32
		if x, ok = v.(int32); ok {
			bb.Append(x)
		}
	case *array.Int64Builder:
		var x int64
		if x, ok = v.(int64); ok {
			bb.Append(x)
		}
	case *array.Float32Builder:
		var x float32
		if x, ok = v.(float32); ok {
			bb.Append(x)
		}
	case *array.Float64Builder:
		var x float64
		if x, ok = v.(float64); ok {
			bb.Append(x)
		}
	default:
		return errors.Errorf("unsupported builder %T", b)
	}
	if !ok {
		return errors.Errorf("value %v (%T) does not match builder %T", v, v, b)
	}
	return nil
}

// IsHiddenFile reports files that directory reads skip, such as _SUCCESS
// markers and dot files.
func IsHiddenFile(p string) bool {
	base := path.Base(p)
	return strings.HasPrefix(base, "_") || strings.HasPrefix(base, ".")
}

// GetNewParquetFilePath returns a unique parquet object name under dir.
func GetNewParquetFilePath(dir string) string {
	return path.Join(dir, uuid.NewString()+constant.ParquetDataFileSuffix)
}
