package slug

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// ExistsFunc reports whether a slug is already taken, excluding the entity
// being renamed (uuid.Nil for creation).
type ExistsFunc func(slug string, excludeID uuid.UUID) (bool, error)

// Make lowercases the name and collapses every non-alphanumeric run into a
// single hyphen.
func Make(name string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastHyphen = false
		} else if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// Unique derives a slug from name and resolves collisions with a numeric
// suffix (-2, -3, ...). Called explicitly by create/rename services, never
// from model lifecycle hooks.
func Unique(name string, exists ExistsFunc, excludeID uuid.UUID) (string, error) {
	base := Make(name)
	if base == "" {
		base = "untitled"
	}

	candidate := base
	for i := 2; ; i++ {
		taken, err := exists(candidate, excludeID)
		if err != nil {
			return "", fmt.Errorf("slug lookup: %w", err)
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}
