package config

import "errors"

var (
	// ErrNilPointer is returned when Load receives a nil target.
	ErrNilPointer = errors.New("config.nil_pointer")

	// ErrParsing is returned when environment variables cannot be parsed
	// into the target struct.
	ErrParsing = errors.New("config.parsing_failed")
)
