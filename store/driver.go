package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	IsInitialized(ctx context.Context) (bool, error)

	// Movie model related methods.
	ReplaceMovie(ctx context.Context, upsert *UpsertMovie, chunks []*Chunk) (*Movie, error)
	GetMovie(ctx context.Context, find *FindMovie) (*Movie, error)

	// Chunk model related methods.
	ListChunks(ctx context.Context, movieID int32) ([]*Chunk, error)
	SearchChunks(ctx context.Context, opts *SearchChunksOptions) ([]*ChunkMatch, error)
}
