package selector

import (
	"strconv"
	"strings"

	"github.com/minio/spark-select/go/common/constant"
	"github.com/minio/spark-select/go/filter"
	"github.com/minio/spark-select/go/storage/schema"
)

// BuildQuery renders the Select statement that returns the columns of sc
// for the rows passing the pushable part of filters. sources names, for
// every declared field, the column of the object it is read from, nil when
// the names are the same. CSV cells are text, so non string columns are
// cast to their declared type. Without a CSV header columns are addressed
// by position.
func BuildQuery(sc *schema.Schema, format string, csv CSVOptions, filters []filter.Filter, sources []string) *Query {
	ref := columnRef(sc, format, csv, sources)
	ctx := &filter.SQLContext{
		Column:               ref,
		NullsDistinguishable: format != constant.FormatSelectCSV,
	}
	where, pushed, residual := filter.Pushdown(filters, ctx)

	names := sc.Names()
	cols := make([]string, len(names))
	for i, name := range names {
		cols[i] = ref(name) + " AS " + filter.QuoteIdentifier(name)
	}
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(cols, ", "))
	b.WriteString(" FROM S3Object ")
	b.WriteString(constant.SelectTableAlias)
	if where != "" {
		b.WriteString(" WHERE ")
		b.WriteString(where)
	}
	return &Query{
		SQL:      b.String(),
		Columns:  names,
		Schema:   sc,
		Sources:  sources,
		Pushed:   pushed,
		Residual: residual,
	}
}

func columnRef(sc *schema.Schema, format string, csv CSVOptions, sources []string) func(string) string {
	return func(name string) string {
		field, idx, _ := sc.FieldByName(name)
		source := name
		if idx < len(sources) {
			source = sources[idx]
		}
		ref := constant.SelectTableAlias + "." + filter.QuoteIdentifier(source)
		if format != constant.FormatSelectCSV {
			return ref
		}
		if !csv.Header {
			ref = constant.SelectTableAlias + "._" + strconv.Itoa(idx+1)
		}
		if field.Type == schema.String {
			return ref
		}
		return "CAST(" + ref + " AS " + field.Type.SQLType() + ")"
	}
}
