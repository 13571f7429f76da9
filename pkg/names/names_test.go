package names

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "lowercases and strips punctuation",
			input:    "Robert J. Smith",
			expected: "robert j smith",
		},
		{
			name:     "removes generational suffix",
			input:    "Robert J. Smith Jr.",
			expected: "robert j smith",
		},
		{
			name:     "removes esquire suffix",
			input:    "Jane Smith, Esq.",
			expected: "jane smith",
		},
		{
			name:     "folds diacritics",
			input:    "José Álvarez",
			expected: "jose alvarez",
		},
		{
			name:     "apostrophes become separators",
			input:    "O'Brien",
			expected: "o brien",
		},
		{
			name:     "underscores and hyphens become separators",
			input:    "smith_robert-2",
			expected: "smith robert 2",
		},
		{
			name:     "collapses whitespace",
			input:    "  jane   smith  ",
			expected: "jane smith",
		},
		{
			name:     "suffix only when standalone token",
			input:    "Brajravi Srinivasan",
			expected: "brajravi srinivasan",
		},
		{
			name:     "roman numeral suffix",
			input:    "Henry Ford III",
			expected: "henry ford",
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	inputs := []string{
		"Robert J. Smith Jr.",
		"José Álvarez",
		"O'Brien, Esq.",
		"jane smith",
		"",
	}

	for _, input := range inputs {
		once := Normalize(input)
		assert.Equal(t, once, Normalize(once), "input %q", input)
	}
}

func TestStem(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "strips single extension",
			input:    "smith_robert.jpg",
			expected: "smith_robert",
		},
		{
			name:     "strips only the last extension",
			input:    "smith_robert.backup.jpeg",
			expected: "smith_robert.backup",
		},
		{
			name:     "no extension returned unchanged",
			input:    "smith_robert",
			expected: "smith_robert",
		},
		{
			name:     "leading dot returned unchanged",
			input:    ".hidden",
			expected: ".hidden",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Stem(tt.input))
		})
	}
}

func TestNormalizeStem(t *testing.T) {
	assert.Equal(t, "smith robert", NormalizeStem("Smith_Robert.JPG"))
	assert.Equal(t, "jane smith", NormalizeStem("jane smith.png"))
}

func TestVariants(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "three part name",
			input:    "robert j smith",
			expected: []string{"robert j smith", "smith robert j", "robert smith"},
		},
		{
			name:     "two part name",
			input:    "jane smith",
			expected: []string{"jane smith", "smith jane"},
		},
		{
			name:     "single token",
			input:    "cher",
			expected: []string{"cher"},
		},
		{
			name:     "empty string",
			input:    "",
			expected: []string{""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Variants(tt.input))
		})
	}
}

func TestVariantsDeduplicates(t *testing.T) {
	// "smith smith" reversed is itself; no duplicate entry
	variants := Variants("smith smith")
	assert.Equal(t, []string{"smith smith"}, variants)
}
