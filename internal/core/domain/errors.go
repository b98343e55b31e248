package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")

	// ErrAlreadyProcessed is returned when an outcome is stored for an
	// application that is no longer in Processando.
	ErrAlreadyProcessed = fmt.Errorf("%w: application already processed", ErrConflict)
)
