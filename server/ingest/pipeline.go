// Package ingest reads review files, chunks and embeds their text, and
// stores the result. One file is one movie and one transaction: either the
// movie row and its full chunk set land together, or nothing does.
package ingest

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/hrygo/cinesense/server/ai"
	"github.com/hrygo/cinesense/store"
)

// ErrEmptyFile marks a review file with no usable content. In batch mode
// the file is logged and skipped, never aborting the rest of the run.
var ErrEmptyFile = errors.New("review file has no content")

// Embedder turns text into a fixed-dimension vector.
type Embedder interface {
	Embedding(ctx context.Context, text string) ([]float32, error)
}

// Pipeline ingests review files into the store.
type Pipeline struct {
	store        *store.Store
	embedder     Embedder
	chunkSize    int
	chunkOverlap int
}

// New creates an ingestion pipeline.
func New(st *store.Store, embedder Embedder, chunkSize, chunkOverlap int) *Pipeline {
	if chunkSize <= 0 {
		chunkSize = ai.DefaultChunkSize
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = ai.DefaultChunkOverlap
	}
	return &Pipeline{
		store:        st,
		embedder:     embedder,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}
}

// IngestFile processes a single review file. The first line is the title,
// the remaining lines joined with single spaces form the body. Chunks are
// embedded on their preprocessed text but stored verbatim; chunks that
// preprocess to nothing are skipped and contribute no row.
func (p *Pipeline) IngestFile(ctx context.Context, path string) (*store.Movie, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}

	title, body := splitReview(string(raw))
	if title == "" {
		return nil, errors.Wrapf(ErrEmptyFile, "%s", filepath.Base(path))
	}

	slog.Info("processing movie", "title", title, "file", filepath.Base(path))

	chunks := ai.SplitText(body, p.chunkSize, p.chunkOverlap)
	staged := make([]*store.Chunk, 0, len(chunks))
	for i, chunk := range chunks {
		preprocessed := ai.Preprocess(chunk)
		if strings.TrimSpace(preprocessed) == "" {
			continue
		}
		embedding, err := p.embedder.Embedding(ctx, preprocessed)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to embed chunk %d of %q", i+1, title)
		}
		staged = append(staged, &store.Chunk{
			ChunkTexto: chunk,
			ChunkIndex: int32(i + 1),
			Embedding:  embedding,
		})
	}

	movie, err := p.store.ReplaceMovie(ctx, &store.UpsertMovie{
		Titulo:          title,
		ResenhaCompleta: title + "\n" + body,
	}, staged)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to store movie %q", title)
	}

	slog.Info("movie ingested",
		"title", title,
		"movie_id", movie.ID,
		"chunks", len(staged))
	return movie, nil
}

// IngestAll processes every .txt file in the directory. A failure in one
// file is reported and the run continues with the next one.
func (p *Pipeline) IngestAll(ctx context.Context, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return errors.Wrapf(err, "failed to read reviews directory %s", dir)
	}

	var processed, failed int
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		if _, err := p.IngestFile(ctx, filepath.Join(dir, entry.Name())); err != nil {
			failed++
			slog.Error("failed to ingest file", "file", entry.Name(), "error", err)
			continue
		}
		processed++
	}

	slog.Info("ingestion run finished", "processed", processed, "failed", failed)
	return nil
}

// splitReview derives title and body from raw file content: first line is
// the title, the rest becomes the body with line breaks collapsed.
func splitReview(content string) (title, body string) {
	lines := strings.Split(content, "\n")
	if len(lines) == 0 {
		return "", ""
	}

	title = strings.TrimSpace(lines[0])

	parts := make([]string, 0, len(lines)-1)
	for _, line := range lines[1:] {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts = append(parts, line)
	}
	return title, strings.Join(parts, " ")
}
