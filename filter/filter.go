package filter

import (
	"github.com/apache/arrow/go/v12/arrow"
	"github.com/apache/arrow/go/v12/parquet/metadata"
	"github.com/bits-and-blooms/bitset"
	"github.com/minio/spark-select/go/storage/schema"
)

type FilterType int8

const (
	And FilterType = iota
	Or
	Not
	Constant
	In
	Null
)

// Tri is the result of evaluating a predicate under SQL three-valued logic.
type Tri int8

const (
	False Tri = iota
	True
	Unknown
)

func (t Tri) Not() Tri {
	switch t {
	case True:
		return False
	case False:
		return True
	default:
		return Unknown
	}
}

// RowGroupStats carries the column statistics of one parquet row group.
type RowGroupStats struct {
	NumRows int64
	Columns map[string]metadata.TypedStatistics
}

// NewRowGroupStats collects the statistics of the top level columns of rg.
func NewRowGroupStats(rg *metadata.RowGroupMetaData) (*RowGroupStats, error) {
	stats := &RowGroupStats{
		NumRows: rg.NumRows(),
		Columns: make(map[string]metadata.TypedStatistics, rg.NumColumns()),
	}
	for i := 0; i < rg.NumColumns(); i++ {
		cc, err := rg.ColumnChunk(i)
		if err != nil {
			return nil, err
		}
		path := cc.PathInSchema()
		if len(path) != 1 {
			continue
		}
		st, err := cc.Statistics()
		if err != nil {
			return nil, err
		}
		if st != nil {
			stats.Columns[path[0]] = st
		}
	}
	return stats, nil
}

func (s *RowGroupStats) column(name string) (metadata.TypedStatistics, bool) {
	if s == nil {
		return nil, false
	}
	st, ok := s.Columns[name]
	return st, ok && st != nil
}

type Filter interface {
	// CheckStatistics reports whether no row of a row group with the given
	// statistics can match, so the row group can be skipped.
	CheckStatistics(stats *RowGroupStats) bool
	Type() FilterType
	// Apply clears the bits of the rows of rec that do not match.
	Apply(rec arrow.Record, filterBitSet *bitset.BitSet)
	// Evaluate returns the truth value of the predicate for every row of rec.
	Evaluate(rec arrow.Record) []Tri
	GetColumnNames() []string
	// Bind checks the filter against s and returns a copy whose literals are
	// converted to the column types.
	Bind(s *schema.Schema) (Filter, error)
	// ToSQL renders the filter as an S3 Select WHERE expression. ok is false
	// when the filter cannot be expressed exactly.
	ToSQL(ctx *SQLContext) (sql string, ok bool)
	String() string
}

type ComparisonType int8

const (
	Equal ComparisonType = iota
	NotEqual
	LessThan
	LessThanOrEqual
	GreaterThan
	GreaterThanOrEqual
)

var comparisonSymbols = [...]string{
	Equal:              "=",
	NotEqual:           "!=",
	LessThan:           "<",
	LessThanOrEqual:    "<=",
	GreaterThan:        ">",
	GreaterThanOrEqual: ">=",
}

func (c ComparisonType) String() string {
	if c < 0 || int(c) >= len(comparisonSymbols) {
		return "?"
	}
	return comparisonSymbols[c]
}

func (c ComparisonType) holds(cmp int) bool {
	switch c {
	case Equal:
		return cmp == 0
	case NotEqual:
		return cmp != 0
	case LessThan:
		return cmp < 0
	case LessThanOrEqual:
		return cmp <= 0
	case GreaterThan:
		return cmp > 0
	case GreaterThanOrEqual:
		return cmp >= 0
	}
	return false
}

// Negate returns the comparison that holds exactly when c does not.
func (c ComparisonType) Negate() ComparisonType {
	switch c {
	case Equal:
		return NotEqual
	case NotEqual:
		return Equal
	case LessThan:
		return GreaterThanOrEqual
	case LessThanOrEqual:
		return GreaterThan
	case GreaterThan:
		return LessThanOrEqual
	default:
		return LessThan
	}
}

func apply(f Filter, rec arrow.Record, filterBitSet *bitset.BitSet) {
	for i, r := range f.Evaluate(rec) {
		if r != True {
			filterBitSet.Clear(uint(i))
		}
	}
}

func columnOf(rec arrow.Record, name string) arrow.Array {
	indices := rec.Schema().FieldIndices(name)
	if len(indices) == 0 {
		return nil
	}
	return rec.Column(indices[0])
}

func unknowns(n int64) []Tri {
	ret := make([]Tri, n)
	for i := range ret {
		ret[i] = Unknown
	}
	return ret
}

// Matches evaluates the conjunction of filters over rec and returns the
// bitset of matching rows.
func Matches(rec arrow.Record, filters []Filter) *bitset.BitSet {
	n := uint(rec.NumRows())
	bs := bitset.New(n)
	for i := uint(0); i < n; i++ {
		bs.Set(i)
	}
	for _, f := range filters {
		f.Apply(rec, bs)
	}
	return bs
}

// ColumnNames returns the distinct columns referenced by filters.
func ColumnNames(filters []Filter) []string {
	var names []string
	seen := make(map[string]struct{})
	for _, f := range filters {
		for _, c := range f.GetColumnNames() {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			names = append(names, c)
		}
	}
	return names
}
