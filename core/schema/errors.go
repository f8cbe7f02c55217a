package schema

import "errors"

var (
	ErrEmptyFieldName = errors.New("field does not have a name")
	ErrEmptyIndexName = errors.New("index does not have a machine name")
	ErrNoMapping      = errors.New("no mapping stored for namespace")
)
