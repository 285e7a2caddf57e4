package ai

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitTextShortContent(t *testing.T) {
	chunks := SplitText("uma resenha curta", 512, 50)
	require.Equal(t, []string{"uma resenha curta"}, chunks)
}

func TestSplitTextRespectsChunkSize(t *testing.T) {
	content := strings.TrimSpace(strings.Repeat("A linha do tempo avança sem pressa. ", 100))
	chunks := SplitText(content, 200, 20)

	require.Greater(t, len(chunks), 1)
	for i, chunk := range chunks {
		require.LessOrEqual(t, len(chunk), 200, "chunk %d exceeds size", i)
	}
}

func TestSplitTextCoversContent(t *testing.T) {
	content := strings.TrimSpace(strings.Repeat("palavra rara aparece aqui. ", 50))
	chunks := SplitText(content, 150, 10)

	joined := strings.Join(chunks, " ")
	for _, word := range []string{"palavra", "rara", "aparece", "aqui"} {
		require.Contains(t, joined, word)
	}
}

func TestSplitTextOverlapAcrossParagraphs(t *testing.T) {
	p1 := strings.TrimSpace(strings.Repeat("alpha beta gamma ", 10))
	p2 := strings.TrimSpace(strings.Repeat("delta epsilon zeta ", 10))
	content := p1 + "\n\n" + p2

	chunks := SplitText(content, 200, 30)
	require.GreaterOrEqual(t, len(chunks), 2)

	// The second chunk carries the tail of the first one.
	require.Contains(t, chunks[1], "gamma")
	require.Contains(t, chunks[1], "delta")
}

func TestSplitTextEmptyBody(t *testing.T) {
	chunks := SplitText("", 512, 50)
	require.Equal(t, []string{""}, chunks)
}

func TestSplitTextKeepsMultibyteRunesIntact(t *testing.T) {
	content := strings.TrimSpace(strings.Repeat("ação coração não çç ", 60))
	chunks := SplitText(content, 100, 10)

	for i, chunk := range chunks {
		require.True(t, strings.ToValidUTF8(chunk, "") == chunk, "chunk %d contains a split rune", i)
	}
}
