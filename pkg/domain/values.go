package domain

import (
	"strings"
	"unicode/utf8"
)

// ---------------------------------------------------------------------------
// Shared value-object helpers: used across bounded contexts
// ---------------------------------------------------------------------------

const (
	ErrEmptyName   DomainError = "name is empty"
	ErrNameTooLong DomainError = "name is too long"
)

// NoLengthLimit disables the upper bound in ParseName.
const NoLengthLimit = 0

// ParseName trims surrounding Unicode whitespace (full-width space included)
// and rejects an empty result. When maxRunes is positive the trimmed value may
// not exceed that many characters.
func ParseName(raw string, maxRunes int) (string, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", ErrEmptyName
	}
	if maxRunes > 0 && utf8.RuneCountInString(value) > maxRunes {
		return "", ErrNameTooLong
	}
	return value, nil
}

// Strings converts a slice of string-backed identifiers to plain strings.
func Strings[T ~string](ids []T) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}
