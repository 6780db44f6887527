package common

import (
	"errors"
	"strconv"
	"strings"
)

var errNotPositive = errors.New("must be a positive integer")

// ParseOptionalPositiveInt parses a query value. An absent value reports ok=false and no error.
func ParseOptionalPositiveInt(value string) (int, bool, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return 0, false, errNotPositive
	}
	return parsed, true, nil
}
