package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"A2 Desi Cow Ghee":      "a2-desi-cow-ghee",
		"  Ghee (500ml)!  ":     "ghee-500ml",
		"Ghee--Pure__Gold":      "ghee-pure-gold",
		"Ключ":                  "",
		"Мёд & Honey 1kg":       "honey-1kg",
		"---":                   "",
	}

	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestSlugCandidate(t *testing.T) {
	assert.Equal(t, "ghee", SlugCandidate("ghee", 0))
	assert.Equal(t, "ghee-2", SlugCandidate("ghee", 2))
}

func TestMergeLines(t *testing.T) {
	merged := MergeLines([]CartLine{
		{ProductID: 2, Quantity: 1},
		{ProductID: 1, Quantity: 3},
		{ProductID: 2, Quantity: 4},
	})

	assert.Equal(t, []CartLine{{ProductID: 2, Quantity: 5}, {ProductID: 1, Quantity: 3}}, merged)
}
