package models

import (
	"errors"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation error")
	ErrUnsupportedKind = errors.New("unsupported resource kind")
)
