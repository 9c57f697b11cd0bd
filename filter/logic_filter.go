package filter

import (
	"strings"

	"github.com/apache/arrow/go/v12/arrow"
	"github.com/bits-and-blooms/bitset"
	serrors "github.com/minio/spark-select/go/common/errors"
	"github.com/minio/spark-select/go/storage/schema"
	"github.com/pkg/errors"
)

type AndFilter struct {
	filters []Filter
}

func NewAndFilter(filters ...Filter) *AndFilter {
	return &AndFilter{filters: filters}
}

func (f *AndFilter) Filters() []Filter {
	return f.filters
}

func (f *AndFilter) CheckStatistics(stats *RowGroupStats) bool {
	for _, child := range f.filters {
		if child.CheckStatistics(stats) {
			return true
		}
	}
	return false
}

func (f *AndFilter) Type() FilterType {
	return And
}

func (f *AndFilter) Apply(rec arrow.Record, filterBitSet *bitset.BitSet) {
	for _, child := range f.filters {
		child.Apply(rec, filterBitSet)
	}
}

func (f *AndFilter) Evaluate(rec arrow.Record) []Tri {
	ret := make([]Tri, rec.NumRows())
	for i := range ret {
		ret[i] = True
	}
	for _, child := range f.filters {
		for i, r := range child.Evaluate(rec) {
			switch {
			case r == False:
				ret[i] = False
			case r == Unknown && ret[i] == True:
				ret[i] = Unknown
			}
		}
	}
	return ret
}

func (f *AndFilter) GetColumnNames() []string {
	return ColumnNames(f.filters)
}

func (f *AndFilter) Bind(s *schema.Schema) (Filter, error) {
	bound, err := bindAll(s, f.filters)
	if err != nil {
		return nil, err
	}
	return &AndFilter{filters: bound}, nil
}

func (f *AndFilter) ToSQL(ctx *SQLContext) (string, bool) {
	return joinSQL(ctx, f.filters, " AND ")
}

func (f *AndFilter) String() string {
	return joinString(f.filters, " AND ")
}

type OrFilter struct {
	filters []Filter
}

func NewOrFilter(filters ...Filter) *OrFilter {
	return &OrFilter{filters: filters}
}

func (f *OrFilter) CheckStatistics(stats *RowGroupStats) bool {
	for _, child := range f.filters {
		if !child.CheckStatistics(stats) {
			return false
		}
	}
	return len(f.filters) > 0
}

func (f *OrFilter) Type() FilterType {
	return Or
}

func (f *OrFilter) Apply(rec arrow.Record, filterBitSet *bitset.BitSet) {
	apply(f, rec, filterBitSet)
}

func (f *OrFilter) Evaluate(rec arrow.Record) []Tri {
	ret := make([]Tri, rec.NumRows())
	for _, child := range f.filters {
		for i, r := range child.Evaluate(rec) {
			switch {
			case r == True:
				ret[i] = True
			case r == Unknown && ret[i] == False:
				ret[i] = Unknown
			}
		}
	}
	return ret
}

func (f *OrFilter) GetColumnNames() []string {
	return ColumnNames(f.filters)
}

func (f *OrFilter) Bind(s *schema.Schema) (Filter, error) {
	bound, err := bindAll(s, f.filters)
	if err != nil {
		return nil, err
	}
	return &OrFilter{filters: bound}, nil
}

func (f *OrFilter) ToSQL(ctx *SQLContext) (string, bool) {
	return joinSQL(ctx, f.filters, " OR ")
}

func (f *OrFilter) String() string {
	return joinString(f.filters, " OR ")
}

type NotFilter struct {
	filter Filter
}

func NewNotFilter(filter Filter) *NotFilter {
	return &NotFilter{filter: filter}
}

// CheckStatistics only handles a negated comparison, which is the same
// as the opposite comparison under three-valued logic.
func (f *NotFilter) CheckStatistics(stats *RowGroupStats) bool {
	if c, ok := f.filter.(*ConstantFilter); ok {
		return NewConstantFilter(c.cmpType.Negate(), c.columnName, c.value).CheckStatistics(stats)
	}
	return false
}

func (f *NotFilter) Type() FilterType {
	return Not
}

func (f *NotFilter) Apply(rec arrow.Record, filterBitSet *bitset.BitSet) {
	apply(f, rec, filterBitSet)
}

func (f *NotFilter) Evaluate(rec arrow.Record) []Tri {
	ret := f.filter.Evaluate(rec)
	for i, r := range ret {
		ret[i] = r.Not()
	}
	return ret
}

func (f *NotFilter) GetColumnNames() []string {
	return f.filter.GetColumnNames()
}

func (f *NotFilter) Bind(s *schema.Schema) (Filter, error) {
	if f.filter == nil {
		return nil, errors.Wrap(serrors.ErrInvalidFilter, "NOT without operand")
	}
	bound, err := f.filter.Bind(s)
	if err != nil {
		return nil, err
	}
	return &NotFilter{filter: bound}, nil
}

func (f *NotFilter) ToSQL(ctx *SQLContext) (string, bool) {
	sql, ok := f.filter.ToSQL(ctx)
	if !ok {
		return "", false
	}
	return "NOT (" + sql + ")", true
}

func (f *NotFilter) String() string {
	return "NOT (" + f.filter.String() + ")"
}

func bindAll(s *schema.Schema, filters []Filter) ([]Filter, error) {
	if len(filters) == 0 {
		return nil, errors.Wrap(serrors.ErrInvalidFilter, "logical filter without operands")
	}
	bound := make([]Filter, len(filters))
	for i, child := range filters {
		if child == nil {
			return nil, errors.Wrap(serrors.ErrInvalidFilter, "nil operand")
		}
		b, err := child.Bind(s)
		if err != nil {
			return nil, err
		}
		bound[i] = b
	}
	return bound, nil
}

func joinSQL(ctx *SQLContext, filters []Filter, sep string) (string, bool) {
	parts := make([]string, len(filters))
	for i, child := range filters {
		sql, ok := child.ToSQL(ctx)
		if !ok {
			return "", false
		}
		parts[i] = sql
	}
	return "(" + strings.Join(parts, sep) + ")", true
}

func joinString(filters []Filter, sep string) string {
	parts := make([]string, len(filters))
	for i, child := range filters {
		parts[i] = child.String()
	}
	return "(" + strings.Join(parts, sep) + ")"
}
