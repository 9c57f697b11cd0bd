package schema

import (
	"strings"

	"github.com/apache/arrow/go/v12/arrow"
	serrors "github.com/minio/spark-select/go/common/errors"
	"github.com/pkg/errors"
)

type Field struct {
	Name     string
	Type     DataType
	Nullable bool
}

func NewField(name string, t DataType, nullable bool) Field {
	return Field{Name: name, Type: t, Nullable: nullable}
}

func (f Field) ArrowField() arrow.Field {
	return arrow.Field{Name: f.Name, Type: f.Type.ArrowType(), Nullable: f.Nullable}
}

func (f Field) String() string {
	if f.Nullable {
		return quoteIdent(f.Name) + " " + f.Type.String()
	}
	return quoteIdent(f.Name) + " " + f.Type.String() + " not null"
}

// Schema is a wrapper of arrow schema restricted to the declared field types.
type Schema struct {
	schema *arrow.Schema
	fields []Field
	index  map[string]int
}

func NewSchema(fields ...Field) *Schema {
	s := &Schema{
		fields: append([]Field(nil), fields...),
		index:  make(map[string]int, len(fields)),
	}
	arrowFields := make([]arrow.Field, 0, len(fields))
	for i, f := range s.fields {
		if _, ok := s.index[f.Name]; !ok {
			s.index[f.Name] = i
		}
		if f.Type.Valid() {
			arrowFields = append(arrowFields, f.ArrowField())
		}
	}
	s.schema = arrow.NewSchema(arrowFields, nil)
	return s
}

// FromArrow converts a physical arrow schema. Columns of types outside the
// supported set are skipped, they can never be declared anyway.
func FromArrow(as *arrow.Schema) *Schema {
	fields := make([]Field, 0, len(as.Fields()))
	for _, f := range as.Fields() {
		t, ok := FromArrowType(f.Type)
		if !ok {
			continue
		}
		fields = append(fields, NewField(f.Name, t, f.Nullable))
	}
	return NewSchema(fields...)
}

func (s *Schema) Schema() *arrow.Schema {
	return s.schema
}

func (s *Schema) Fields() []Field {
	return s.fields
}

func (s *Schema) Len() int {
	return len(s.fields)
}

func (s *Schema) Names() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.Name
	}
	return names
}

func (s *Schema) FieldByName(name string) (Field, int, bool) {
	i, ok := s.index[name]
	if !ok {
		return Field{}, -1, false
	}
	return s.fields[i], i, true
}

// Validate checks the schema is structurally well formed. It never touches
// the data source.
func (s *Schema) Validate() error {
	if s == nil {
		return serrors.ErrSchemaIsNil
	}
	if len(s.fields) == 0 {
		return errors.Wrap(serrors.ErrInvalidSchema, "schema has no fields")
	}
	seen := make(map[string]struct{}, len(s.fields))
	for i, f := range s.fields {
		if strings.TrimSpace(f.Name) == "" {
			return errors.Wrapf(serrors.ErrInvalidSchema, "field %d has an empty name", i)
		}
		if !f.Type.Valid() {
			return errors.Wrapf(serrors.ErrInvalidSchema, "field %q: %v", f.Name, serrors.ErrUnsupportedType)
		}
		if _, ok := seen[f.Name]; ok {
			return errors.Wrapf(serrors.ErrInvalidSchema, "%v: %q", serrors.ErrDuplicateColumn, f.Name)
		}
		seen[f.Name] = struct{}{}
	}
	return nil
}

// Project keeps the named columns in the given order. "*" keeps all of them.
func (s *Schema) Project(columns []string) (*Schema, error) {
	if len(columns) == 0 || (len(columns) == 1 && columns[0] == "*") {
		return s, nil
	}
	fields := make([]Field, 0, len(columns))
	for _, c := range columns {
		if c == "*" {
			fields = append(fields, s.fields...)
			continue
		}
		f, _, ok := s.FieldByName(c)
		if !ok {
			return nil, errors.Wrapf(serrors.ErrColumnNotExist, "%q", c)
		}
		fields = append(fields, f)
	}
	projected := NewSchema(fields...)
	if err := projected.Validate(); err != nil {
		return nil, err
	}
	return projected, nil
}

// Reconcile matches every declared field against the physical layout of a
// data source and returns, for each declared field, the index of the
// physical column it is read from. Names match exactly first and
// case-insensitively second. Declared non-nullable fields may be backed by
// nullable physical columns, nulls are rejected when rows are read.
func (s *Schema) Reconcile(physical *arrow.Schema) ([]int, error) {
	indices := make([]int, len(s.fields))
	for i, f := range s.fields {
		idx, err := lookupPhysical(physical, f.Name)
		if err != nil {
			return nil, err
		}
		pf := physical.Field(idx)
		pt, ok := FromArrowType(pf.Type)
		if !ok || !CanReadAs(pt, f.Type) {
			return nil, errors.Wrapf(serrors.ErrSchemaNotMatch,
				"column %q is stored as %s and cannot be read as %s", f.Name, pf.Type, f.Type)
		}
		indices[i] = idx
	}
	return indices, nil
}

// MatchNames matches the declared fields against the column names of a
// source that carries no types, such as a CSV header.
func (s *Schema) MatchNames(names []string) ([]int, error) {
	fields := make([]arrow.Field, len(names))
	for i, n := range names {
		fields[i] = arrow.Field{Name: n, Type: arrow.Null, Nullable: true}
	}
	physical := arrow.NewSchema(fields, nil)
	indices := make([]int, len(s.fields))
	for i, f := range s.fields {
		idx, err := lookupPhysical(physical, f.Name)
		if err != nil {
			return nil, err
		}
		indices[i] = idx
	}
	return indices, nil
}

func lookupPhysical(physical *arrow.Schema, name string) (int, error) {
	if idx := physical.FieldIndices(name); len(idx) == 1 {
		return idx[0], nil
	} else if len(idx) > 1 {
		return -1, errors.Wrapf(serrors.ErrSchemaNotMatch, "column %q is ambiguous", name)
	}
	found := -1
	for i, pf := range physical.Fields() {
		if strings.EqualFold(pf.Name, name) {
			if found != -1 {
				return -1, errors.Wrapf(serrors.ErrSchemaNotMatch, "column %q is ambiguous", name)
			}
			found = i
		}
	}
	if found == -1 {
		return -1, errors.Wrapf(serrors.ErrSchemaNotMatch, "column %q not found in data source", name)
	}
	return found, nil
}

// String renders the schema in the DDL form accepted by ParseDDL.
func (s *Schema) String() string {
	parts := make([]string, len(s.fields))
	for i, f := range s.fields {
		parts[i] = f.String()
	}
	return strings.Join(parts, ", ")
}

func quoteIdent(name string) string {
	for _, r := range name {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return "`" + strings.ReplaceAll(name, "`", "``") + "`"
		}
	}
	return name
}
