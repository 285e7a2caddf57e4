package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"math"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/hrygo/cinesense/store"
)

// ReplaceMovie upserts the movie by title and replaces its chunk set in a
// single transaction, mirroring the postgres driver.
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
		VALUES (?, ?)
		ON CONFLICT (titulo)
		DO UPDATE SET resenha_completa = excluded.resenha_completa
		RETURNING movie_id
	`, upsert.Titulo, upsert.ResenhaCompleta).Scan(&movie.ID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to upsert movie %q", upsert.Titulo)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE movie_id = ?`, movie.ID); err != nil {
		return nil, errors.Wrap(err, "failed to delete previous chunks")
	}

	for _, chunk := range chunks {
		vector, err := json.Marshal(chunk.Embedding)
		if err != nil {
			return nil, errors.Wrap(err, "failed to serialize embedding")
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO chunks (movie_id, chunk_texto, chunk_index, vetor_embedding)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (movie_id, chunk_index) DO NOTHING
		`, movie.ID, chunk.ChunkTexto, chunk.ChunkIndex, string(vector))
		if err != nil {
			return nil, errors.Wrap(err, "failed to insert chunk")
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
		where, args = append(where, "movie_id = ?"), append(args, *find.ID)
	}
	if find.Titulo != nil {
		where, args = append(where, "titulo = ?"), append(args, *find.Titulo)
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
		WHERE movie_id = ?
		ORDER BY chunk_index ASC
	`, movieID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list chunks")
	}
	defer rows.Close()

	list := []*store.Chunk{}
	for rows.Next() {
		var chunk store.Chunk
		var vector string
		if err := rows.Scan(&chunk.ID, &chunk.MovieID, &chunk.ChunkTexto, &chunk.ChunkIndex, &vector); err != nil {
			return nil, errors.Wrap(err, "failed to scan chunk")
		}
		if err := json.Unmarshal([]byte(vector), &chunk.Embedding); err != nil {
			return nil, errors.Wrap(err, "failed to deserialize embedding")
		}
		list = append(list, &chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

// SearchChunks computes cosine similarity in Go over all stored chunks.
// Brute force is acceptable here: this driver only serves development and
// test datasets.
func (d *DB) SearchChunks(ctx context.Context, opts *store.SearchChunksOptions) ([]*store.ChunkMatch, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT m.movie_id, m.titulo, c.chunk_texto, c.vetor_embedding
		FROM chunks c
		JOIN movies m ON c.movie_id = m.movie_id
	`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to search chunks")
	}
	defer rows.Close()

	matches := []*store.ChunkMatch{}
	for rows.Next() {
		var match store.ChunkMatch
		var serialized string
		if err := rows.Scan(&match.MovieID, &match.Titulo, &match.ChunkTexto, &serialized); err != nil {
			return nil, errors.Wrap(err, "failed to scan chunk match")
		}
		var embedding []float32
		if err := json.Unmarshal([]byte(serialized), &embedding); err != nil {
			return nil, errors.Wrap(err, "failed to deserialize embedding")
		}
		match.Similaridade = cosineSimilarity(opts.Vector, embedding)
		if match.Similaridade > opts.Threshold {
			matches = append(matches, &match)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similaridade > matches[j].Similaridade
	})
	return matches, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
