// Package retrieval implements the similarity query service: embed the
// prompt, rank stored chunks by cosine similarity, reduce to the best
// chunk per movie, and return the top-K.
package retrieval

import (
	"context"
	"sort"

	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"

	"github.com/hrygo/cinesense/store"
)

// ErrEmbedderUnavailable is returned when no embedding model is loaded.
// Callers surface it as a service-unavailable condition.
var ErrEmbedderUnavailable = errors.New("embedding model is not available")

// Embedder turns text into a fixed-dimension vector.
type Embedder interface {
	Embedding(ctx context.Context, text string) ([]float32, error)
}

// Searcher is the slice of the store the query service needs.
type Searcher interface {
	SearchChunks(ctx context.Context, opts *store.SearchChunksOptions) ([]*store.ChunkMatch, error)
}

// Result is one ranked answer. The response contract returns the matching
// chunk text, not the full stored review.
type Result struct {
	Titulo       string  `json:"titulo"`
	ChunkTexto   string  `json:"chunk_texto"`
	Similaridade float64 `json:"similaridade"`
}

// Service answers similarity queries over the ingested corpus.
type Service struct {
	searcher  Searcher
	embedder  Embedder
	threshold float64
	topK      int
	sem       *semaphore.Weighted
}

// New creates a query service. defaultTopK bounds result counts when the
// caller does not ask for a specific K; maxConcurrent bounds in-flight
// queries (acquisition blocks, there is no queue limit).
func New(searcher Searcher, embedder Embedder, threshold float64, defaultTopK int, maxConcurrent int64) *Service {
	if defaultTopK <= 0 {
		defaultTopK = 3
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 8
	}
	return &Service{
		searcher:  searcher,
		embedder:  embedder,
		threshold: threshold,
		topK:      defaultTopK,
		sem:       semaphore.NewWeighted(maxConcurrent),
	}
}

// Query embeds the prompt and returns at most topK results, one per movie,
// ordered by similarity descending, all strictly above the threshold.
//
// The prompt is embedded raw, without the ingestion-time preprocessing
// (see DESIGN.md).
func (s *Service) Query(ctx context.Context, prompt string, topK int) ([]*Result, error) {
	if s.embedder == nil {
		return nil, ErrEmbedderUnavailable
	}
	if topK <= 0 {
		topK = s.topK
	}

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, errors.Wrap(err, "failed to acquire query slot")
	}
	defer s.sem.Release(1)

	vector, err := s.embedder.Embedding(ctx, prompt)
	if err != nil {
		return nil, errors.Wrap(err, "failed to embed prompt")
	}

	matches, err := s.searcher.SearchChunks(ctx, &store.SearchChunksOptions{
		Vector:    vector,
		Threshold: s.threshold,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to search chunks")
	}

	results := reduceBestPerMovie(matches)
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// reduceBestPerMovie keeps only the highest-similarity chunk of each movie
// and re-sorts, since the reduction can disturb the incoming order.
func reduceBestPerMovie(matches []*store.ChunkMatch) []*Result {
	best := make(map[int32]*store.ChunkMatch)
	order := make([]int32, 0, len(matches))
	for _, match := range matches {
		current, seen := best[match.MovieID]
		if !seen {
			best[match.MovieID] = match
			order = append(order, match.MovieID)
			continue
		}
		if match.Similaridade > current.Similaridade {
			best[match.MovieID] = match
		}
	}

	results := make([]*Result, 0, len(order))
	for _, movieID := range order {
		match := best[movieID]
		results = append(results, &Result{
			Titulo:       match.Titulo,
			ChunkTexto:   match.ChunkTexto,
			Similaridade: match.Similaridade,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similaridade > results[j].Similaridade
	})
	return results
}
