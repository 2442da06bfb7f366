package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"
)

// SimilarSociety pairs a society id with its cosine similarity to a query
// embedding.
type SimilarSociety struct {
	SocietyID  int64
	Similarity float64
}

// UpsertSocietyEmbedding stores or replaces the embedding for a society.
func (db *DB) UpsertSocietyEmbedding(ctx context.Context, societyID int64, embedding []float32) error {
	if _, err := db.Pool.Exec(ctx, `
		INSERT INTO society_embeddings (society_id, embedding, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (society_id) DO UPDATE SET
			embedding = EXCLUDED.embedding,
			created_at = NOW()
	`, societyID, pgvector.NewVector(embedding)); err != nil {
		return fmt.Errorf("upsert society embedding: %w", err)
	}

	return nil
}

// GetSocietyEmbeddings returns the stored embeddings for the given
// societies, keyed by society id. Missing rows are simply absent.
func (db *DB) GetSocietyEmbeddings(ctx context.Context, ids []int64) (map[int64][]float32, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT society_id, embedding
		FROM society_embeddings
		WHERE society_id = ANY($1)
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("get society embeddings: %w", err)
	}
	defer rows.Close()

	stored := make(map[int64][]float32, len(ids))

	for rows.Next() {
		var (
			societyID int64
			embedding pgvector.Vector
		)

		if err := rows.Scan(&societyID, &embedding); err != nil {
			return nil, fmt.Errorf("get society embeddings: %w", err)
		}

		stored[societyID] = embedding.Slice()
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get society embeddings: %w", err)
	}

	return stored, nil
}

// FindSimilarSocieties returns up to limit societies whose stored embedding
// is within the cosine distance threshold of the query embedding, nearest first.
func (db *DB) FindSimilarSocieties(ctx context.Context, embedding []float32, threshold float32, limit int) ([]SimilarSociety, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT e.society_id,
		       1 - (e.embedding <=> $1::vector) AS similarity
		FROM society_embeddings e
		JOIN societies s ON s.id = e.society_id
		WHERE s.approved
		  AND (e.embedding <=> $1::vector) < $2
		ORDER BY e.embedding <=> $1::vector
		LIMIT $3
	`, pgvector.NewVector(embedding), float64(1.0-threshold), limit)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("find similar societies: %w", err)
	}
	defer rows.Close()

	var similar []SimilarSociety

	for rows.Next() {
		var s SimilarSociety

		if err := rows.Scan(&s.SocietyID, &s.Similarity); err != nil {
			return nil, fmt.Errorf("find similar societies: %w", err)
		}

		similar = append(similar, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find similar societies: %w", err)
	}

	return similar, nil
}
