package filter

import (
	"math"
	"strconv"
	"strings"

	"github.com/apache/arrow/go/v12/parquet/metadata"
	pqschema "github.com/apache/arrow/go/v12/parquet/schema"
	serrors "github.com/minio/spark-select/go/common/errors"
	"github.com/minio/spark-select/go/storage/schema"
	"github.com/pkg/errors"
)

// normalizeLiteral widens Go numeric literals to int64 or float64.
func normalizeLiteral(v any) any {
	switch x := v.(type) {
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case float32:
		return float64(x)
	}
	return v
}

func bindLiteral(column string, t schema.DataType, v any) (any, error) {
	v = normalizeLiteral(v)
	switch t {
	case schema.String:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case schema.Boolean:
		switch x := v.(type) {
		case bool:
			return x, nil
		case string:
			if b, err := strconv.ParseBool(x); err == nil {
				return b, nil
			}
		}
	default:
		switch x := v.(type) {
		case int64, float64:
			return x, nil
		case string:
			if i, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64); err == nil {
				return i, nil
			}
			if f, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil {
				return f, nil
			}
		}
	}
	return nil, errors.Wrapf(serrors.ErrInvalidFilter, "literal %s cannot be compared with %s column %q", literalString(v), t, column)
}

func asInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int32:
		return int64(x), true
	case int16:
		return int64(x), true
	case int8:
		return int64(x), true
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	}
	return 0, false
}

func asFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	}
	if i, ok := asInt64(v); ok {
		return float64(i), true
	}
	return 0, false
}

// compareValues compares a column value with a literal. ok is false when
// the values are not comparable (different kinds or NaN).
func compareValues(a, b any) (int, bool) {
	if ai, ok := asInt64(a); ok {
		if bi, ok := asInt64(b); ok {
			switch {
			case ai < bi:
				return -1, true
			case ai > bi:
				return 1, true
			}
			return 0, true
		}
	}
	if af, ok := asFloat64(a); ok {
		bf, ok := asFloat64(b)
		if !ok || math.IsNaN(af) || math.IsNaN(bf) {
			return 0, false
		}
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		}
		return 0, true
	}
	switch x := a.(type) {
	case string:
		y, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(x, y), true
	case bool:
		y, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case x == y:
			return 0, true
		case !x:
			return -1, true
		}
		return 1, true
	}
	return 0, false
}

func statsMinMax(st metadata.TypedStatistics) (any, any, bool) {
	if st == nil || !st.HasMinMax() {
		return nil, nil, false
	}
	unsigned := st.Descr() != nil && st.Descr().SortOrder() == pqschema.SortUNSIGNED
	switch s := st.(type) {
	case *metadata.Int32Statistics:
		if unsigned {
			return int64(uint32(s.Min())), int64(uint32(s.Max())), true
		}
		return int64(s.Min()), int64(s.Max()), true
	case *metadata.Int64Statistics:
		if unsigned {
			// uint64 values do not fit the int64 literals
			return nil, nil, false
		}
		return s.Min(), s.Max(), true
	case *metadata.Float32Statistics:
		return float64(s.Min()), float64(s.Max()), true
	case *metadata.Float64Statistics:
		return s.Min(), s.Max(), true
	case *metadata.BooleanStatistics:
		return s.Min(), s.Max(), true
	case *metadata.ByteArrayStatistics:
		return string(s.Min()), string(s.Max()), true
	}
	return nil, nil, false
}

// literalSQL renders a literal for S3 Select. Non finite floats have no
// SQL spelling.
func literalSQL(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return "'" + strings.ReplaceAll(x, "'", "''") + "'", true
	case bool:
		if x {
			return "TRUE", true
		}
		return "FALSE", true
	case int64:
		return strconv.FormatInt(x, 10), true
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return "", false
		}
		return strconv.FormatFloat(x, 'f', -1, 64), true
	}
	return "", false
}

func literalString(v any) string {
	if s, ok := literalSQL(v); ok {
		return s
	}
	if v == nil {
		return "null"
	}
	if f, ok := v.(float64); ok {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return "?"
}
