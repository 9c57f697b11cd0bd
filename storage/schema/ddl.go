package schema

import (
	"strings"
	"unicode"

	serrors "github.com/minio/spark-select/go/common/errors"
	"github.com/pkg/errors"
)

// ParseDDL parses a comma separated column list such as
// "name string, age int not null". Names may be quoted with backticks or
// double quotes. The result is validated.
func ParseDDL(ddl string) (*Schema, error) {
	var fields []Field
	for i, def := range splitDefinitions(ddl) {
		def = strings.TrimSpace(def)
		if def == "" {
			return nil, errors.Wrapf(serrors.ErrInvalidSchema, "empty column definition at position %d", i)
		}
		f, err := parseColumn(def)
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	s := NewSchema(fields...)
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func splitDefinitions(ddl string) []string {
	var (
		parts []string
		quote rune
		start int
	)
	for i, r := range ddl {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '`' || r == '"':
			quote = r
		case r == ',':
			parts = append(parts, ddl[start:i])
			start = i + 1
		}
	}
	return append(parts, ddl[start:])
}

func parseColumn(def string) (Field, error) {
	name, rest, err := cutName(def)
	if err != nil {
		return Field{}, err
	}
	words := strings.Fields(strings.ToLower(rest))
	if len(words) == 0 {
		return Field{}, errors.Wrapf(serrors.ErrInvalidSchema, "column %q has no type", name)
	}
	t, err := ParseDataType(words[0])
	if err != nil {
		return Field{}, errors.Wrapf(serrors.ErrInvalidSchema, "column %q: %v", name, err)
	}
	f := NewField(name, t, true)
	switch strings.Join(words[1:], " ") {
	case "":
	case "null":
	case "not null":
		f.Nullable = false
	default:
		return Field{}, errors.Wrapf(serrors.ErrInvalidSchema, "column %q: unexpected %q", name, strings.Join(words[1:], " "))
	}
	return f, nil
}

func cutName(def string) (string, string, error) {
	if q := rune(def[0]); q == '`' || q == '"' {
		var b strings.Builder
		for i := 1; i < len(def); i++ {
			if rune(def[i]) != q {
				b.WriteByte(def[i])
				continue
			}
			if i+1 < len(def) && rune(def[i+1]) == q {
				b.WriteByte(def[i])
				i++
				continue
			}
			return b.String(), def[i+1:], nil
		}
		return "", "", errors.Wrapf(serrors.ErrInvalidSchema, "unterminated quoted name in %q", def)
	}
	end := strings.IndexFunc(def, unicode.IsSpace)
	if end == -1 {
		return def, "", nil
	}
	return def[:end], def[end:], nil
}
