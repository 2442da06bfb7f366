package storage

import (
	"context"
	"fmt"

	"github.com/campushub/society-recommender/internal/core/domain"
)

// UpsertFeedbackRow stores explicit survey feedback for a (student, society)
// pair. Last write wins.
func (db *DB) UpsertFeedbackRow(ctx context.Context, row domain.FeedbackRow) error {
	if _, err := db.Pool.Exec(ctx, `
		INSERT INTO recommendation_feedback (student_id, society_id, rating, relevance, comment, is_joined, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (student_id, society_id) DO UPDATE SET
			rating = EXCLUDED.rating,
			relevance = EXCLUDED.relevance,
			comment = EXCLUDED.comment,
			is_joined = EXCLUDED.is_joined,
			updated_at = NOW()
	`, row.StudentID, row.SocietyID, row.Rating, row.Relevance, row.Comment, row.IsJoined); err != nil {
		return fmt.Errorf("upsert feedback row: %w", err)
	}

	return nil
}

// SetFeedbackRating records a rating for a (student, society) pair without
// touching the other survey columns.
func (db *DB) SetFeedbackRating(ctx context.Context, studentID, societyID int64, rating int) error {
	if _, err := db.Pool.Exec(ctx, `
		INSERT INTO recommendation_feedback (student_id, society_id, rating)
		VALUES ($1, $2, $3)
		ON CONFLICT (student_id, society_id) DO UPDATE SET
			rating = EXCLUDED.rating,
			updated_at = NOW()
	`, studentID, societyID, rating); err != nil {
		return fmt.Errorf("set feedback rating: %w", err)
	}

	return nil
}

// SetFeedbackJoined marks a (student, society) pair as joined without
// touching the other survey columns.
func (db *DB) SetFeedbackJoined(ctx context.Context, studentID, societyID int64) error {
	if _, err := db.Pool.Exec(ctx, `
		INSERT INTO recommendation_feedback (student_id, society_id, is_joined)
		VALUES ($1, $2, TRUE)
		ON CONFLICT (student_id, society_id) DO UPDATE SET
			is_joined = TRUE,
			updated_at = NOW()
	`, studentID, societyID); err != nil {
		return fmt.Errorf("set feedback joined: %w", err)
	}

	return nil
}

// GetFeedbackRows returns all survey feedback submitted by a student.
func (db *DB) GetFeedbackRows(ctx context.Context, studentID int64) ([]domain.FeedbackRow, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT student_id, society_id, rating, relevance, comment, is_joined, updated_at
		FROM recommendation_feedback
		WHERE student_id = $1
		ORDER BY updated_at DESC
	`, studentID)
	if err != nil {
		return nil, fmt.Errorf("get feedback rows: %w", err)
	}
	defer rows.Close()

	var feedback []domain.FeedbackRow

	for rows.Next() {
		var row domain.FeedbackRow

		if err := rows.Scan(
			&row.StudentID,
			&row.SocietyID,
			&row.Rating,
			&row.Relevance,
			&row.Comment,
			&row.IsJoined,
			&row.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("get feedback rows: %w", err)
		}

		feedback = append(feedback, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get feedback rows: %w", err)
	}

	return feedback, nil
}
