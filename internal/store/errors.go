package store

import (
	"errors"
	"fmt"

	"recops/internal/models"
)

var (
	ErrNotFound  = fmt.Errorf("store: %w", models.ErrNotFound)
	ErrDuplicate = errors.New("store: duplicate resource")
)
