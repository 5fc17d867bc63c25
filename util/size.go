package util

import (
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/go-errors/errors"
)

// ParseSize parses a byte count. Plain integers are bytes, suffixed values
// such as "4MiB" or "10 MB" are parsed by humanize. An empty string is zero.
func ParseSize(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.ParseUint(s, 10, 64); err == nil {
		return n, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, errors.Errorf("invalid size %q: %v", s, err)
	}
	return n, nil
}
