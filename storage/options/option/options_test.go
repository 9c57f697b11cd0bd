package option

import (
	"testing"

	"github.com/minio/spark-select/go/filter"
	"github.com/stretchr/testify/assert"
)

func TestReadOptionsClone(t *testing.T) {
	o := NewReadOptions()
	o.AddFilter(filter.NewConstantFilter(filter.GreaterThan, "age", 19))
	o.AddColumn("name")

	c := o.Clone()
	c.AddFilter(filter.NewIsNullFilter("name"))
	c.SetColumns([]string{"age"})

	assert.Len(t, o.Filters, 1)
	assert.Equal(t, []string{"name"}, o.OutputColumns())
	assert.Len(t, c.Filters, 2)
	assert.Equal(t, []string{"age"}, c.OutputColumns())
	assert.True(t, c.Pushdown)
	assert.Equal(t, ",", c.CSV.Delimiter)
}
