package scapeid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"forage":        "forage",
		"  Forage ":     "forage",
		"default":       "forage",
		"scape_forage":  "forage",
		"Forage Large":  "forage-large",
		"forage_large":  "forage-large",
		"large":         "forage-large",
		"forageSparse":  "forage-sparse",
		"sparse":        "forage-sparse",
		"custom-grid":   "custom-grid",
		"-Custom_Grid-": "custom-grid",
		"":              "",
		"   ":           "",
	}
	for input, want := range cases {
		assert.Equal(t, want, Normalize(input), "input %q", input)
	}
}
