package endpoint

import "errors"

var (
	ErrEntityNotFound = errors.New("endpoint: entity not found")
	ErrGroupNotEmpty  = errors.New("endpoint: group has contained endpoints")
)
