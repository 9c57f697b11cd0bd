package filter

import (
	"strings"

	"github.com/apache/arrow/go/v12/arrow"
	"github.com/bits-and-blooms/bitset"
	serrors "github.com/minio/spark-select/go/common/errors"
	"github.com/minio/spark-select/go/common/utils"
	"github.com/minio/spark-select/go/storage/schema"
	"github.com/pkg/errors"
)

// InFilter matches rows whose column equals one of a list of literals.
type InFilter struct {
	columnName string
	values     []any
}

func NewInFilter(columnName string, values ...any) *InFilter {
	normalized := make([]any, len(values))
	for i, v := range values {
		normalized[i] = normalizeLiteral(v)
	}
	return &InFilter{columnName: columnName, values: normalized}
}

func (f *InFilter) CheckStatistics(stats *RowGroupStats) bool {
	st, ok := stats.column(f.columnName)
	if !ok {
		return false
	}
	min, max, ok := statsMinMax(st)
	if !ok {
		return false
	}
	for _, v := range f.values {
		lo, ok1 := compareValues(min, v)
		hi, ok2 := compareValues(max, v)
		if !ok1 || !ok2 || (lo <= 0 && hi >= 0) {
			return false
		}
	}
	return true
}

func (f *InFilter) Type() FilterType {
	return In
}

func (f *InFilter) Apply(rec arrow.Record, filterBitSet *bitset.BitSet) {
	apply(f, rec, filterBitSet)
}

func (f *InFilter) Evaluate(rec arrow.Record) []Tri {
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
		ret[i] = False
		for _, lit := range f.values {
			if cmp, ok := compareValues(v, lit); ok && cmp == 0 {
				ret[i] = True
				break
			}
		}
	}
	return ret
}

func (f *InFilter) GetColumnNames() []string {
	return []string{f.columnName}
}

func (f *InFilter) Bind(s *schema.Schema) (Filter, error) {
	field, _, ok := s.FieldByName(f.columnName)
	if !ok {
		return nil, errors.Wrapf(serrors.ErrColumnNotExist, "%q", f.columnName)
	}
	if len(f.values) == 0 {
		return nil, errors.Wrapf(serrors.ErrInvalidFilter, "empty IN list for %q", f.columnName)
	}
	values := make([]any, len(f.values))
	for i, v := range f.values {
		bound, err := bindLiteral(f.columnName, field.Type, v)
		if err != nil {
			return nil, err
		}
		values[i] = bound
	}
	return &InFilter{columnName: f.columnName, values: values}, nil
}

func (f *InFilter) ToSQL(ctx *SQLContext) (string, bool) {
	lits := make([]string, len(f.values))
	for i, v := range f.values {
		lit, ok := literalSQL(v)
		if !ok {
			return "", false
		}
		lits[i] = lit
	}
	return ctx.column(f.columnName) + " IN (" + strings.Join(lits, ", ") + ")", true
}

func (f *InFilter) String() string {
	lits := make([]string, len(f.values))
	for i, v := range f.values {
		lits[i] = literalString(v)
	}
	return f.columnName + " IN (" + strings.Join(lits, ", ") + ")"
}
