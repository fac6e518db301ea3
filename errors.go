package wad

import (
	"errors"
	"fmt"
)

var (
	// ErrUnrecognizedFormat is returned when the first four bytes are not IWAD or PWAD.
	ErrUnrecognizedFormat = errors.New("unrecognized archive format")

	// ErrRequiredLumpMissing is returned when a level's lump group does not
	// contain a mandatory lump at the expected position.
	ErrRequiredLumpMissing = errors.New("required lump missing")

	// ErrMalformedLump is returned when a lump's size is not a whole number of records.
	ErrMalformedLump = errors.New("malformed lump")
)

// LumpError records which lump of which level failed to decode.
type LumpError struct {
	Level string
	Name  string
	Err   error
}

func (e *LumpError) Error() string {
	return fmt.Sprintf("%s: %v: %s", e.Level, e.Err, e.Name)
}

func (e *LumpError) Unwrap() error {
	return e.Err
}
