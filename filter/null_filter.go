package filter

import (
	"github.com/apache/arrow/go/v12/arrow"
	"github.com/bits-and-blooms/bitset"
	serrors "github.com/minio/spark-select/go/common/errors"
	"github.com/minio/spark-select/go/storage/schema"
	"github.com/pkg/errors"
)

// NullFilter is IS NULL, or IS NOT NULL when negated.
type NullFilter struct {
	columnName string
	negated    bool
}

func NewIsNullFilter(columnName string) *NullFilter {
	return &NullFilter{columnName: columnName}
}

func NewIsNotNullFilter(columnName string) *NullFilter {
	return &NullFilter{columnName: columnName, negated: true}
}

// CheckStatistics never trusts a zero null count, the parquet writer
// reports zero for chunks that hold nulls. IS NULL only skips required
// columns, which cannot hold nulls at all.
func (f *NullFilter) CheckStatistics(stats *RowGroupStats) bool {
	st, ok := stats.column(f.columnName)
	if !ok {
		return false
	}
	if !f.negated {
		return st.Descr() != nil && st.Descr().MaxDefinitionLevel() == 0
	}
	return st.HasNullCount() && stats.NumRows > 0 && st.NullCount() == stats.NumRows
}

func (f *NullFilter) Type() FilterType {
	return Null
}

func (f *NullFilter) Apply(rec arrow.Record, filterBitSet *bitset.BitSet) {
	apply(f, rec, filterBitSet)
}

func (f *NullFilter) Evaluate(rec arrow.Record) []Tri {
	col := columnOf(rec, f.columnName)
	if col == nil {
		return unknowns(rec.NumRows())
	}
	ret := make([]Tri, col.Len())
	for i := range ret {
		if col.IsNull(i) != f.negated {
			ret[i] = True
		}
	}
	return ret
}

func (f *NullFilter) GetColumnNames() []string {
	return []string{f.columnName}
}

func (f *NullFilter) Bind(s *schema.Schema) (Filter, error) {
	if _, _, ok := s.FieldByName(f.columnName); !ok {
		return nil, errors.Wrapf(serrors.ErrColumnNotExist, "%q", f.columnName)
	}
	return f, nil
}

// ToSQL refuses inputs that cannot tell a missing value from an empty one,
// S3 Select reads empty CSV cells as empty strings.
func (f *NullFilter) ToSQL(ctx *SQLContext) (string, bool) {
	if !ctx.NullsDistinguishable {
		return "", false
	}
	if f.negated {
		return ctx.column(f.columnName) + " IS NOT NULL", true
	}
	return ctx.column(f.columnName) + " IS NULL", true
}

func (f *NullFilter) String() string {
	if f.negated {
		return f.columnName + " IS NOT NULL"
	}
	return f.columnName + " IS NULL"
}
