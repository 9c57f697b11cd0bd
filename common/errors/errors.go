package errors

import "errors"

var (
	ErrInvalidSchema      = errors.New("invalid schema")
	ErrSchemaIsNil        = errors.New("schema is nil")
	ErrSchemaNotMatch     = errors.New("schema not match")
	ErrColumnNotExist     = errors.New("column not exist")
	ErrDuplicateColumn    = errors.New("duplicate column")
	ErrUnsupportedType    = errors.New("unsupported type")
	ErrNotFound           = errors.New("object not found")
	ErrInvalidPath        = errors.New("invalid path")
	ErrInvalidURI         = errors.New("invalid uri")
	ErrNoEndpoint         = errors.New("no endpoint specified")
	ErrUnknownFormat      = errors.New("unknown data source format")
	ErrUnknownFs          = errors.New("unknown fs type")
	ErrInvalidFilter      = errors.New("invalid filter")
	ErrNullViolation      = errors.New("null value in non-nullable column")
	ErrSelectNotSupported = errors.New("select is not supported by fs")
	ErrInvalidConfig      = errors.New("invalid config")
)
