package filter

import (
	"strings"
)

// SQLContext controls how filters are rendered into an S3 Select WHERE
// clause.
type SQLContext struct {
	// Column renders a reference to a column, for example s."age" or
	// CAST(s."age" AS INT).
	Column func(name string) string
	// NullsDistinguishable is false for inputs such as CSV where a missing
	// value reads back as an empty string.
	NullsDistinguishable bool
}

func (ctx *SQLContext) column(name string) string {
	if ctx.Column == nil {
		return QuoteIdentifier(name)
	}
	return ctx.Column(name)
}

// QuoteIdentifier renders name as a double quoted S3 Select identifier.
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Pushdown flattens the top level conjunction of filters and renders every
// conjunct that has an exact SQL form. The WHERE expression selects a
// superset of the matching rows, so the caller still evaluates the
// residual filters locally.
func Pushdown(filters []Filter, ctx *SQLContext) (where string, pushed, residual []Filter) {
	var parts []string
	for _, f := range flattenAnd(filters) {
		if sql, ok := f.ToSQL(ctx); ok {
			parts = append(parts, sql)
			pushed = append(pushed, f)
			continue
		}
		residual = append(residual, f)
	}
	return strings.Join(parts, " AND "), pushed, residual
}

func flattenAnd(filters []Filter) []Filter {
	var ret []Filter
	for _, f := range filters {
		if and, ok := f.(*AndFilter); ok {
			ret = append(ret, flattenAnd(and.filters)...)
			continue
		}
		ret = append(ret, f)
	}
	return ret
}
