package organizations

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Lupita's Tacos":     "lupita-s-tacos",
		"  My   Business  ":  "my-business",
		"Café Ñoño 24/7":     "caf-o-o-24-7",
		"---":                "",
		"Already-Slugged-99": "already-slugged-99",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestDefaultOrgName(t *testing.T) {
	assert.Equal(t, "maria's Business", defaultOrgName("maria@example.com"))
	assert.Equal(t, "noatsign's Business", defaultOrgName("noatsign"))
	assert.Equal(t, "My Business", defaultOrgName(""))
}

func TestRandomGeneratorsShape(t *testing.T) {
	suffix := randomSuffix(6)
	assert.Len(t, suffix, 6)
	for _, r := range suffix {
		assert.Contains(t, suffixAlphabet, string(r))
	}

	code := randomDigits(6)
	assert.Len(t, code, 6)
	for _, r := range code {
		assert.GreaterOrEqual(t, r, '0')
		assert.LessOrEqual(t, r, '9')
	}
}
