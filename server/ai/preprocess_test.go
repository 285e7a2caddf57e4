package ai

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPreprocess(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "lowercases and strips punctuation",
			input:    "O Filme, é ÓTIMO!",
			expected: "filme ótimo",
		},
		{
			name:     "removes stopwords",
			input:    "A desert planet saga.",
			expected: "desert planet saga",
		},
		{
			name:     "keeps digits",
			input:    "Blade Runner 2049",
			expected: "blade runner 2049",
		},
		{
			name:     "collapses whitespace",
			input:    "  muito \t bom\n filme ",
			expected: "bom filme",
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
		{
			name:     "stopwords only",
			input:    "de a o para com",
			expected: "",
		},
		{
			name:     "punctuation only",
			input:    "?!... --- ...",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, Preprocess(tt.input))
		})
	}
}

func TestPreprocessIsDeterministic(t *testing.T) {
	input := "Uma resenha sobre um filme de ficção científica!"
	require.Equal(t, Preprocess(input), Preprocess(input))
}
