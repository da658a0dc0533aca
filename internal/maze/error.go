package maze

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidSize       = errors.New("maze size out of range")
	ErrInvalidDensity    = errors.New("wall density must be in [0, 1)")
	ErrInvalidMode       = errors.New("unknown generation mode")
	ErrInvalidTimeLimit  = errors.New("time limit must not be negative")
	ErrTooManyWalls      = errors.New("wall density leaves too few free cells")
	ErrAttemptsExhausted = errors.New("no solvable maze within the attempt limit")
)

// ConfigError is returned for every difficulty that cannot produce a maze.
// No partially built maze accompanies it.
type ConfigError struct {
	Field string
	Err   error
}

// [ConfigError] implements [error]
func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
