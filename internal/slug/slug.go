// Package slug builds URL-safe organization identifiers.
package slug

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

// Slugify lowercases s, turns whitespace runs into single dashes and drops
// everything outside [a-z0-9-]. Accented letters are dropped, not folded.
func Slugify(s string) string {
	s = strings.ToLower(strings.Join(strings.Fields(s), "-"))

	var b strings.Builder
	b.Grow(len(s))
	lastDash := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		case r == '-':
			if !lastDash && b.Len() > 0 {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// Generate joins the non-empty parts, slugifies them and appends a random
// 6-digit suffix, e.g. "dar-zellij-marrakech-482913".
func Generate(parts ...string) string {
	var nonEmpty []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	base := Slugify(strings.Join(nonEmpty, " "))
	suffix := Suffix()
	if base == "" {
		return suffix
	}
	return base + "-" + suffix
}

// Suffix returns a random decimal string in [100000, 999999].
func Suffix() string {
	return fmt.Sprintf("%06d", 100000+rand.IntN(900000))
}
