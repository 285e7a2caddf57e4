package retrieval

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/cinesense/store"
)

type fakeEmbedder struct {
	vector []float32
	err    error
}

func (f *fakeEmbedder) Embedding(_ context.Context, _ string) ([]float32, error) {
	return f.vector, f.err
}

type fakeSearcher struct {
	matches []*store.ChunkMatch
	err     error
	gotOpts *store.SearchChunksOptions
}

func (f *fakeSearcher) SearchChunks(_ context.Context, opts *store.SearchChunksOptions) ([]*store.ChunkMatch, error) {
	f.gotOpts = opts
	return f.matches, f.err
}

func match(movieID int32, titulo, texto string, sim float64) *store.ChunkMatch {
	return &store.ChunkMatch{MovieID: movieID, Titulo: titulo, ChunkTexto: texto, Similaridade: sim}
}

func TestQueryDeduplicatesPerMovie(t *testing.T) {
	searcher := &fakeSearcher{matches: []*store.ChunkMatch{
		match(1, "Duna", "chunk a", 0.91),
		match(2, "Matrix", "chunk b", 0.85),
		match(1, "Duna", "chunk c", 0.80),
		match(3, "Solaris", "chunk d", 0.70),
	}}
	svc := New(searcher, &fakeEmbedder{vector: []float32{1}}, 0.5, 5, 1)

	results, err := svc.Query(context.Background(), "naves no deserto", 5)
	require.NoError(t, err)
	require.Len(t, results, 3)

	require.Equal(t, "Duna", results[0].Titulo)
	require.Equal(t, "chunk a", results[0].ChunkTexto)
	require.Equal(t, "Matrix", results[1].Titulo)
	require.Equal(t, "Solaris", results[2].Titulo)
}

func TestQueryKeepsBestChunkPerMovie(t *testing.T) {
	// A movie's later, higher-scoring chunk must win even when the input
	// arrives out of order.
	searcher := &fakeSearcher{matches: []*store.ChunkMatch{
		match(1, "Duna", "weak", 0.60),
		match(2, "Matrix", "mid", 0.55),
		match(1, "Duna", "strong", 0.70),
	}}
	svc := New(searcher, &fakeEmbedder{vector: []float32{1}}, 0.5, 5, 1)

	results, err := svc.Query(context.Background(), "x", 5)
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, "strong", results[0].ChunkTexto)
	require.Equal(t, 0.70, results[0].Similaridade)
	require.Equal(t, "Matrix", results[1].Titulo)
}

func TestQueryResortsAfterReduction(t *testing.T) {
	searcher := &fakeSearcher{matches: []*store.ChunkMatch{
		match(1, "Duna", "a", 0.55),
		match(2, "Matrix", "b", 0.90),
	}}
	svc := New(searcher, &fakeEmbedder{vector: []float32{1}}, 0.5, 5, 1)

	results, err := svc.Query(context.Background(), "x", 5)
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, "Matrix", results[0].Titulo)
	require.Equal(t, "Duna", results[1].Titulo)
}

func TestQueryTruncatesToTopK(t *testing.T) {
	searcher := &fakeSearcher{matches: []*store.ChunkMatch{
		match(1, "A", "a", 0.9),
		match(2, "B", "b", 0.8),
		match(3, "C", "c", 0.7),
		match(4, "D", "d", 0.6),
	}}
	svc := New(searcher, &fakeEmbedder{vector: []float32{1}}, 0.5, 3, 1)

	results, err := svc.Query(context.Background(), "x", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// topK <= 0 falls back to the configured default.
	results, err = svc.Query(context.Background(), "x", 0)
	require.NoError(t, err)
	require.Len(t, results, 3)
}

func TestQueryPassesThresholdToStore(t *testing.T) {
	searcher := &fakeSearcher{}
	svc := New(searcher, &fakeEmbedder{vector: []float32{1, 2}}, 0.42, 3, 1)

	_, err := svc.Query(context.Background(), "x", 3)
	require.NoError(t, err)
	require.NotNil(t, searcher.gotOpts)
	require.Equal(t, 0.42, searcher.gotOpts.Threshold)
	require.Equal(t, []float32{1, 2}, searcher.gotOpts.Vector)
}

func TestQueryEmptyWhenNothingQualifies(t *testing.T) {
	svc := New(&fakeSearcher{}, &fakeEmbedder{vector: []float32{1}}, 0.5, 3, 1)

	results, err := svc.Query(context.Background(), "nada relacionado", 3)
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestQueryEmbedderUnavailable(t *testing.T) {
	svc := New(&fakeSearcher{}, nil, 0.5, 3, 1)

	_, err := svc.Query(context.Background(), "x", 3)
	require.ErrorIs(t, err, ErrEmbedderUnavailable)
}

func TestQueryPropagatesStoreError(t *testing.T) {
	searcher := &fakeSearcher{err: errors.New("connection reset")}
	svc := New(searcher, &fakeEmbedder{vector: []float32{1}}, 0.5, 3, 1)

	_, err := svc.Query(context.Background(), "x", 3)
	require.Error(t, err)
	require.Contains(t, err.Error(), "connection reset")
}

func TestQueryPropagatesEmbeddingError(t *testing.T) {
	svc := New(&fakeSearcher{}, &fakeEmbedder{err: errors.New("model offline")}, 0.5, 3, 1)

	_, err := svc.Query(context.Background(), "x", 3)
	require.Error(t, err)
	require.Contains(t, err.Error(), "model offline")
}
