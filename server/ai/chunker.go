package ai

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// DefaultChunkSize is the maximum character count per chunk.
	DefaultChunkSize = 512
	// DefaultChunkOverlap is the character count overlap between chunks.
	DefaultChunkOverlap = 50
)

// SplitText splits a long review body into ordered chunks for embedding.
// Each chunk is at most chunkSize bytes, consecutive chunks overlap by
// roughly chunkOverlap bytes, and together they cover the whole input.
// Paragraph and sentence boundaries are preserved when possible.
func SplitText(content string, chunkSize, chunkOverlap int) []string {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = DefaultChunkOverlap
	}
	if len(content) <= chunkSize {
		return []string{content}
	}

	paragraphs := splitParagraphs(content)

	var chunks []string
	var currentChunk strings.Builder

	for _, para := range paragraphs {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		// If adding this paragraph exceeds chunk size, flush and carry the
		// overlap tail into the next chunk.
		if currentChunk.Len()+len(para) > chunkSize && currentChunk.Len() > 0 {
			chunks = append(chunks, currentChunk.String())

			currentChunk.Reset()
			overlapText := getOverlapText(chunks, chunkOverlap)
			if overlapText != "" {
				currentChunk.WriteString(overlapText)
				currentChunk.WriteString(" ")
			}
		}

		if currentChunk.Len() > 0 {
			currentChunk.WriteString(" ")
		}
		currentChunk.WriteString(para)

		// Force-split paragraphs that are longer than a whole chunk.
		for currentChunk.Len() > chunkSize {
			text := currentChunk.String()
			breakPoint := findBreakPoint(truncateOnRuneBoundary(text, chunkSize))
			chunks = append(chunks, text[:breakPoint])

			remaining := text[breakPoint:]
			currentChunk.Reset()
			currentChunk.WriteString(remaining)
		}
	}

	if currentChunk.Len() > 0 {
		chunks = append(chunks, currentChunk.String())
	}

	return chunks
}

// splitParagraphs splits content on blank lines, joining soft-wrapped
// lines of the same paragraph with spaces.
func splitParagraphs(content string) []string {
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")

	var result []string
	var current strings.Builder

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			if current.Len() > 0 {
				result = append(result, current.String())
				current.Reset()
			}
			continue
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(line)
	}

	if current.Len() > 0 {
		result = append(result, current.String())
	}

	return result
}

// getOverlapText returns the tail of the previous chunk for overlap.
func getOverlapText(chunks []string, overlapSize int) string {
	if len(chunks) == 0 || overlapSize == 0 {
		return ""
	}

	lastChunk := chunks[len(chunks)-1]
	if len(lastChunk) <= overlapSize {
		return lastChunk
	}

	// Try to break at a word boundary.
	overlapText := lastChunk[len(lastChunk)-overlapSize:]
	for !utf8.RuneStart(overlapText[0]) {
		overlapText = overlapText[1:]
	}
	if idx := strings.IndexAny(overlapText, " \t"); idx > 0 {
		return overlapText[idx+1:]
	}

	return overlapText
}

// findBreakPoint finds a good position to split text (sentence or word
// boundary), falling back to the full length.
func findBreakPoint(text string) int {
	for i := len(text) - 1; i >= 0; i-- {
		if text[i] == '.' || text[i] == '!' || text[i] == '?' {
			if i == len(text)-1 || unicode.IsSpace(rune(text[i+1])) {
				return i + 1
			}
		}
	}

	for i := len(text) - 1; i >= len(text)/2; i-- {
		if unicode.IsSpace(rune(text[i])) {
			return i
		}
	}

	return len(text)
}

// truncateOnRuneBoundary cuts text to at most max bytes without splitting
// a multi-byte rune.
func truncateOnRuneBoundary(text string, max int) string {
	if len(text) <= max {
		return text
	}
	for max > 0 && !utf8.RuneStart(text[max]) {
		max--
	}
	return text[:max]
}
