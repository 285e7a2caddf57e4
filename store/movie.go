package store

import "context"

// Movie represents one reviewed movie. The full review text keeps the
// title on its first line, matching the source file format.
type Movie struct {
	ID              int32
	Titulo          string
	ResenhaCompleta string
}

// UpsertMovie is the payload for inserting or updating a movie by title.
type UpsertMovie struct {
	Titulo          string
	ResenhaCompleta string
}

// FindMovie is the find condition for movies.
type FindMovie struct {
	ID     *int32
	Titulo *string
}

// Chunk is a bounded substring of a review with its embedding vector.
// ChunkIndex is 1-based; index 0 was used for a title-only chunk in an
// earlier schema revision and stays reserved.
type Chunk struct {
	ID         int32
	MovieID    int32
	ChunkTexto string
	ChunkIndex int32
	Embedding  []float32
}

// ChunkMatch is a similarity search hit joined to its movie.
type ChunkMatch struct {
	MovieID      int32
	Titulo       string
	ChunkTexto   string
	Similaridade float64
}

// SearchChunksOptions restricts a vector search to chunks whose cosine
// similarity with Vector exceeds Threshold.
type SearchChunksOptions struct {
	Vector    []float32
	Threshold float64
}

// ReplaceMovie upserts the movie and replaces its chunk set in a single
// transaction. Re-ingesting a title never leaves stale chunks behind.
func (s *Store) ReplaceMovie(ctx context.Context, upsert *UpsertMovie, chunks []*Chunk) (*Movie, error) {
	return s.driver.ReplaceMovie(ctx, upsert, chunks)
}

// GetMovie gets a single movie matching the find condition, or nil.
func (s *Store) GetMovie(ctx context.Context, find *FindMovie) (*Movie, error) {
	return s.driver.GetMovie(ctx, find)
}

// ListChunks lists the stored chunks of a movie ordered by chunk index.
func (s *Store) ListChunks(ctx context.Context, movieID int32) ([]*Chunk, error) {
	return s.driver.ListChunks(ctx, movieID)
}

// SearchChunks performs cosine similarity search over all stored chunks.
// Results are ordered by similarity descending and already joined to
// their movies; per-movie deduplication is the caller's concern.
func (s *Store) SearchChunks(ctx context.Context, opts *SearchChunksOptions) ([]*ChunkMatch, error) {
	return s.driver.SearchChunks(ctx, opts)
}
