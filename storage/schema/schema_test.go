package schema

import (
	"encoding/json"
	"testing"

	"github.com/apache/arrow/go/v12/arrow"
	serrors "github.com/minio/spark-select/go/common/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func peopleSchema() *Schema {
	return NewSchema(
		NewField("name", String, true),
		NewField("age", Int, false),
	)
}

func TestBuildSchema(t *testing.T) {
	sc := peopleSchema()
	require.NoError(t, sc.Validate())
	assert.Equal(t, []string{"name", "age"}, sc.Names())

	as := sc.Schema()
	require.Len(t, as.Fields(), 2)
	assert.Equal(t, arrow.BinaryTypes.String, as.Field(0).Type)
	assert.True(t, as.Field(0).Nullable)
	assert.Equal(t, arrow.PrimitiveTypes.Int32, as.Field(1).Type)
	assert.False(t, as.Field(1).Nullable)

	f, idx, ok := sc.FieldByName("age")
	assert.True(t, ok)
	assert.Equal(t, 1, idx)
	assert.Equal(t, Int, f.Type)
}

func TestValidate(t *testing.T) {
	var nilSchema *Schema
	assert.ErrorIs(t, nilSchema.Validate(), serrors.ErrSchemaIsNil)
	assert.ErrorIs(t, NewSchema().Validate(), serrors.ErrInvalidSchema)
	assert.ErrorIs(t, NewSchema(NewField("a", Int, true), NewField("a", Long, true)).Validate(), serrors.ErrInvalidSchema)
	assert.ErrorIs(t, NewSchema(NewField(" ", Int, true)).Validate(), serrors.ErrInvalidSchema)
	assert.ErrorIs(t, NewSchema(NewField("a", DataType(42), true)).Validate(), serrors.ErrInvalidSchema)
}

func TestProject(t *testing.T) {
	sc := peopleSchema()

	p, err := sc.Project([]string{"*"})
	require.NoError(t, err)
	assert.Same(t, sc, p)

	p, err = sc.Project([]string{"age"})
	require.NoError(t, err)
	assert.Equal(t, []string{"age"}, p.Names())

	_, err = sc.Project([]string{"height"})
	assert.ErrorIs(t, err, serrors.ErrColumnNotExist)

	_, err = sc.Project([]string{"age", "age"})
	assert.ErrorIs(t, err, serrors.ErrInvalidSchema)
}

func TestReconcile(t *testing.T) {
	sc := peopleSchema()

	physical := arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64},
		{Name: "Age", Type: arrow.PrimitiveTypes.Int32, Nullable: true},
		{Name: "name", Type: arrow.BinaryTypes.String, Nullable: true},
	}, nil)
	idx, err := sc.Reconcile(physical)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 1}, idx)

	widened := NewSchema(NewField("age", Double, true))
	idx, err = widened.Reconcile(physical)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, idx)

	// float32 cannot hold every int32
	lossy := NewSchema(NewField("age", Float, true))
	_, err = lossy.Reconcile(physical)
	assert.ErrorIs(t, err, serrors.ErrSchemaNotMatch)

	narrowed := NewSchema(NewField("id", Int, true))
	_, err = narrowed.Reconcile(physical)
	assert.ErrorIs(t, err, serrors.ErrSchemaNotMatch)

	missing := NewSchema(NewField("height", Int, true))
	_, err = missing.Reconcile(physical)
	assert.ErrorIs(t, err, serrors.ErrSchemaNotMatch)

	wrongType := NewSchema(NewField("name", Int, true))
	_, err = wrongType.Reconcile(physical)
	assert.ErrorIs(t, err, serrors.ErrSchemaNotMatch)

	ambiguous := arrow.NewSchema([]arrow.Field{
		{Name: "AGE", Type: arrow.PrimitiveTypes.Int32},
		{Name: "Age", Type: arrow.PrimitiveTypes.Int32},
	}, nil)
	_, err = NewSchema(NewField("age", Int, true)).Reconcile(ambiguous)
	assert.ErrorIs(t, err, serrors.ErrSchemaNotMatch)
}

func TestCanReadAs(t *testing.T) {
	assert.True(t, CanReadAs(Int, Long))
	assert.True(t, CanReadAs(Int, Double))
	assert.True(t, CanReadAs(Float, Double))
	assert.False(t, CanReadAs(Int, Float))
	assert.False(t, CanReadAs(Long, Double))
	assert.False(t, CanReadAs(Long, Int))
}

func TestFromArrow(t *testing.T) {
	physical := arrow.NewSchema([]arrow.Field{
		{Name: "a", Type: arrow.PrimitiveTypes.Int16},
		{Name: "b", Type: arrow.ListOf(arrow.PrimitiveTypes.Int32)},
		{Name: "c", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	}, nil)
	sc := FromArrow(physical)
	assert.Equal(t, "a int not null, c double", sc.String())
}

func TestParseDDL(t *testing.T) {
	sc, err := ParseDDL("name string, age INT NOT NULL")
	require.NoError(t, err)
	assert.Equal(t, peopleSchema().Fields(), sc.Fields())

	sc, err = ParseDDL("`first name` varchar null, \"x,y\" bigint")
	require.NoError(t, err)
	assert.Equal(t, []Field{
		NewField("first name", String, true),
		NewField("x,y", Long, true),
	}, sc.Fields())
	assert.Equal(t, "`first name` string, `x,y` long", sc.String())

	for _, bad := range []string{"", "name", "name blob", "name string nullable", "a int, a int", "a int,", "`a int"} {
		_, err := ParseDDL(bad)
		assert.ErrorIs(t, err, serrors.ErrInvalidSchema, bad)
	}
}

func TestCoerce(t *testing.T) {
	cases := []struct {
		t    DataType
		in   any
		want any
	}{
		{String, "x", "x"},
		{String, json.Number("30"), "30"},
		{String, int64(7), "7"},
		{Boolean, "true", true},
		{Boolean, false, false},
		{Int, json.Number("30"), int32(30)},
		{Int, float64(30), int32(30)},
		{Int, " 19 ", int32(19)},
		{Long, int32(5), int64(5)},
		{Float, "1.5", float32(1.5)},
		{Double, json.Number("2.25"), 2.25},
		{Double, int32(3), float64(3)},
		{Int, nil, nil},
	}
	for _, c := range cases {
		got, err := c.t.Coerce(c.in)
		require.NoError(t, err, "%s <- %v", c.t, c.in)
		assert.Equal(t, c.want, got, "%s <- %v", c.t, c.in)
	}

	for _, bad := range []struct {
		t  DataType
		in any
	}{
		{Int, "abc"},
		{Int, float64(1.5)},
		{Int, int64(1) << 40},
		{Boolean, "yes please"},
		{Double, true},
	} {
		_, err := bad.t.Coerce(bad.in)
		assert.Error(t, err, "%s <- %v", bad.t, bad.in)
	}
}

func TestMatchNames(t *testing.T) {
	sc := peopleSchema()
	indices, err := sc.MatchNames([]string{"id", "AGE", "name"})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 1}, indices)

	_, err = sc.MatchNames([]string{"name"})
	assert.ErrorIs(t, err, serrors.ErrSchemaNotMatch)

	_, err = sc.MatchNames([]string{"name", "Age", "age "})
	require.NoError(t, err)
	_, err = sc.MatchNames([]string{"name", "Age", "AGE"})
	assert.ErrorIs(t, err, serrors.ErrSchemaNotMatch)
}
