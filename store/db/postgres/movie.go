package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"

	"github.com/hrygo/cinesense/store"
)

// ReplaceMovie upserts the movie by title and replaces its chunk set in a
// single transaction. The upsert always returns the movie id, so there is
// no fallback lookup path.
func (d *DB) ReplaceMovie(ctx context.Context, upsert *store.UpsertMovie, chunks []*store.Chunk) (*store.Movie, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	movie := &store.Movie{
		Titulo:          upsert.Titulo,
		ResenhaCompleta: upsert.ResenhaCompleta,
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO movies (titulo, resenha_completa)
		VALUES ($1, $2)
		ON CONFLICT (titulo)
		DO UPDATE SET resenha_completa = EXCLUDED.resenha_completa
		RETURNING movie_id
	`, upsert.Titulo, upsert.ResenhaCompleta).Scan(&movie.ID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to upsert movie %q", upsert.Titulo)
	}

	// Full replace, never a partial merge.
	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE movie_id = $1`, movie.ID); err != nil {
		return nil, errors.Wrap(err, "failed to delete previous chunks")
	}

	if len(chunks) > 0 {
		values := make([]string, 0, len(chunks))
		args := make([]any, 0, len(chunks)*4)
		for i, chunk := range chunks {
			values = append(values, fmt.Sprintf("($%d, $%d, $%d, $%d)", i*4+1, i*4+2, i*4+3, i*4+4))
			args = append(args, movie.ID, chunk.ChunkTexto, chunk.ChunkIndex, pgvector.NewVector(chunk.Embedding))
		}
		stmt := `
			INSERT INTO chunks (movie_id, chunk_texto, chunk_index, vetor_embedding)
			VALUES ` + strings.Join(values, ", ") + `
			ON CONFLICT (movie_id, chunk_index) DO NOTHING
		`
		if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
			return nil, errors.Wrap(err, "failed to bulk insert chunks")
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "failed to commit transaction")
	}
	return movie, nil
}

func (d *DB) GetMovie(ctx context.Context, find *store.FindMovie) (*store.Movie, error) {
	where, args := []string{"1 = 1"}, []any{}
	if find.ID != nil {
		where, args = append(where, fmt.Sprintf("movie_id = $%d", len(args)+1)), append(args, *find.ID)
	}
	if find.Titulo != nil {
		where, args = append(where, fmt.Sprintf("titulo = $%d", len(args)+1)), append(args, *find.Titulo)
	}

	query := `
		SELECT movie_id, titulo, resenha_completa
		FROM movies
		WHERE ` + strings.Join(where, " AND ")

	movie := &store.Movie{}
	err := d.db.QueryRowContext(ctx, query, args...).Scan(&movie.ID, &movie.Titulo, &movie.ResenhaCompleta)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to get movie")
	}
	return movie, nil
}

func (d *DB) ListChunks(ctx context.Context, movieID int32) ([]*store.Chunk, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT chunk_id, movie_id, chunk_texto, chunk_index, vetor_embedding
		FROM chunks
		WHERE movie_id = $1
		ORDER BY chunk_index ASC
	`, movieID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list chunks")
	}
	defer rows.Close()

	list := []*store.Chunk{}
	for rows.Next() {
		var chunk store.Chunk
		var vector pgvector.Vector
		if err := rows.Scan(&chunk.ID, &chunk.MovieID, &chunk.ChunkTexto, &chunk.ChunkIndex, &vector); err != nil {
			return nil, errors.Wrap(err, "failed to scan chunk")
		}
		chunk.Embedding = vector.Slice()
		list = append(list, &chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

// SearchChunks performs cosine similarity search using pgvector.
// The <=> operator computes cosine distance, so similarity is 1 - distance
// and ordering by distance ASC yields most similar first.
func (d *DB) SearchChunks(ctx context.Context, opts *store.SearchChunksOptions) ([]*store.ChunkMatch, error) {
	query := `
		SELECT
			m.movie_id, m.titulo, c.chunk_texto,
			1 - (c.vetor_embedding <=> $1) AS similaridade
		FROM chunks c
		JOIN movies m ON c.movie_id = m.movie_id
		WHERE 1 - (c.vetor_embedding <=> $2) > $3
		ORDER BY c.vetor_embedding <=> $4
	`

	vector := pgvector.NewVector(opts.Vector)
	rows, err := d.db.QueryContext(ctx, query, vector, vector, opts.Threshold, vector)
	if err != nil {
		return nil, errors.Wrap(err, "failed to search chunks")
	}
	defer rows.Close()

	matches := []*store.ChunkMatch{}
	for rows.Next() {
		var match store.ChunkMatch
		if err := rows.Scan(&match.MovieID, &match.Titulo, &match.ChunkTexto, &match.Similaridade); err != nil {
			return nil, errors.Wrap(err, "failed to scan chunk match")
		}
		matches = append(matches, &match)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return matches, nil
}
