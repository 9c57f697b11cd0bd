package filter

import (
	"github.com/apache/arrow/go/v12/arrow"
	"github.com/bits-and-blooms/bitset"
	serrors "github.com/minio/spark-select/go/common/errors"
	"github.com/minio/spark-select/go/common/utils"
	"github.com/minio/spark-select/go/storage/schema"
	"github.com/pkg/errors"
)

// ConstantFilter compares a column with a literal.
type ConstantFilter struct {
	cmpType    ComparisonType
	columnName string
	value      any
}

func NewConstantFilter(cmpType ComparisonType, columnName string, value any) *ConstantFilter {
	return &ConstantFilter{
		cmpType:    cmpType,
		columnName: columnName,
		value:      normalizeLiteral(value),
	}
}

func (f *ConstantFilter) Comparison() ComparisonType {
	return f.cmpType
}

func (f *ConstantFilter) Value() any {
	return f.value
}

func (f *ConstantFilter) CheckStatistics(stats *RowGroupStats) bool {
	st, ok := stats.column(f.columnName)
	if !ok {
		return false
	}
	min, max, ok := statsMinMax(st)
	if !ok {
		return false
	}
	lo, ok1 := compareValues(min, f.value)
	hi, ok2 := compareValues(max, f.value)
	if !ok1 || !ok2 {
		return false
	}
	switch f.cmpType {
	case Equal:
		return lo > 0 || hi < 0
	case NotEqual:
		return lo == 0 && hi == 0
	case LessThan:
		return lo >= 0
	case LessThanOrEqual:
		return lo > 0
	case GreaterThan:
		return hi <= 0
	case GreaterThanOrEqual:
		return hi < 0
	}
	return false
}

func (f *ConstantFilter) Type() FilterType {
	return Constant
}

func (f *ConstantFilter) Apply(rec arrow.Record, filterBitSet *bitset.BitSet) {
	apply(f, rec, filterBitSet)
}

func (f *ConstantFilter) Evaluate(rec arrow.Record) []Tri {
	col := columnOf(rec, f.columnName)
	if col == nil {
		return unknowns(rec.NumRows())
	}
	ret := make([]Tri, col.Len())
	for i := range ret {
		v := utils.ValueAt(col, i)
		if v == nil {
			ret[i] = Unknown
			continue
		}
		cmp, ok := compareValues(v, f.value)
		switch {
		case !ok:
			ret[i] = Unknown
		case f.cmpType.holds(cmp):
			ret[i] = True
		default:
			ret[i] = False
		}
	}
	return ret
}

func (f *ConstantFilter) GetColumnName() string {
	return f.columnName
}

func (f *ConstantFilter) GetColumnNames() []string {
	return []string{f.columnName}
}

func (f *ConstantFilter) Bind(s *schema.Schema) (Filter, error) {
	field, _, ok := s.FieldByName(f.columnName)
	if !ok {
		return nil, errors.Wrapf(serrors.ErrColumnNotExist, "%q", f.columnName)
	}
	v, err := bindLiteral(f.columnName, field.Type, f.value)
	if err != nil {
		return nil, err
	}
	return &ConstantFilter{cmpType: f.cmpType, columnName: f.columnName, value: v}, nil
}

func (f *ConstantFilter) ToSQL(ctx *SQLContext) (string, bool) {
	lit, ok := literalSQL(f.value)
	if !ok {
		return "", false
	}
	op := f.cmpType.String()
	if f.cmpType == NotEqual {
		op = "<>"
	}
	return ctx.column(f.columnName) + " " + op + " " + lit, true
}

func (f *ConstantFilter) String() string {
	return f.columnName + " " + f.cmpType.String() + " " + literalString(f.value)
}
