package common

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrNotANumber is returned when console or query input is not a whole number.
var ErrNotANumber = errors.New("not a whole number")

// AtoiDefault converts the provided string to an integer falling back to the default when parsing fails.
func AtoiDefault(value string, def int) int {
	parsed, err := Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

// Atoi parses a trimmed base-10 integer and wraps failures in ErrNotANumber.
func Atoi(value string) (int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, fmt.Errorf("%w: empty input", ErrNotANumber)
	}
	parsed, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNotANumber, trimmed)
	}
	return parsed, nil
}
