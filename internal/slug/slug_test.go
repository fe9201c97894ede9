package slug

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Dar Zellij", "dar-zellij"},
		{"  Café   Clock  ", "caf-clock"},
		{"L'Atelier du Chef!", "latelier-du-chef"},
		{"Pizza -- Napoli", "pizza-napoli"},
		{"Tab\tand\nnewline", "tab-and-newline"},
		{"مطعم", ""},
		{"123 Rue 45", "123-rue-45"},
		{"---", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}

func TestGenerate_Format(t *testing.T) {
	s := Generate("Le Jardin", "Marrakech")
	require.True(t, strings.HasPrefix(s, "le-jardin-marrakech-"), "got %q", s)
	assert.Regexp(t, slugPattern, s)

	suffix := s[strings.LastIndex(s, "-")+1:]
	assert.Len(t, suffix, 6)
	assert.Regexp(t, `^[1-9][0-9]{5}$`, suffix)
}

func TestGenerate_AlphanumericOnly(t *testing.T) {
	inputs := []string{"Chez Ñoño & Fils", "  ", "!!!", "Riad (Fès) — Médina"}
	for _, in := range inputs {
		s := Generate(in)
		assert.Regexp(t, slugPattern, s, "input %q", in)
	}
}

func TestGenerate_EmptyPartsSkipped(t *testing.T) {
	s := Generate("Bistro", "", "  ")
	assert.True(t, strings.HasPrefix(s, "bistro-"), "got %q", s)
	assert.Len(t, s, len("bistro-")+6)

	onlySuffix := Generate("")
	assert.Regexp(t, `^[0-9]{6}$`, onlySuffix)
}

func TestGenerate_Unique(t *testing.T) {
	seen := make(map[string]bool)
	collisions := 0
	for i := 0; i < 200; i++ {
		s := Generate("Same Name")
		if seen[s] {
			collisions++
		}
		seen[s] = true
	}
	// 200 draws from 900000 suffixes: a couple of collisions at most.
	assert.LessOrEqual(t, collisions, 2)
}
