package util

import (
	"errors"
	"strings"
)

// SanitizePathSegment turns a name into a single object-key segment.
// Separators and whitespace become underscores; traversal is rejected.
func SanitizePathSegment(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", errors.New("invalid path segment")
	}
	s := strings.TrimSpace(name)
	s = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ' ', '\t', '\n', '\r':
			return '_'
		}
		return r
	}, s)
	s = strings.Trim(s, "_")
	if s == "" {
		return "", errors.New("invalid path segment")
	}
	return s, nil
}
