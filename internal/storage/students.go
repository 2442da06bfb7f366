package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/campushub/society-recommender/internal/core/domain"
	apperrors "github.com/campushub/society-recommender/internal/core/errors"
)

// GetStudent loads a student with their membership and follow sets.
// Returns apperrors.ErrStudentNotFound for unknown ids.
func (db *DB) GetStudent(ctx context.Context, id int64) (domain.Student, error) {
	var student domain.Student

	err := db.Pool.QueryRow(ctx, `
		SELECT id, major
		FROM students
		WHERE id = $1
	`, id).Scan(&student.ID, &student.Major)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Student{}, apperrors.ErrStudentNotFound
		}

		return domain.Student{}, fmt.Errorf("get student: %w", err)
	}

	student.SocietyIDs, err = db.studentSocietyIDs(ctx, id)
	if err != nil {
		return domain.Student{}, err
	}

	student.Following, err = db.studentFollowing(ctx, id)
	if err != nil {
		return domain.Student{}, err
	}

	return student, nil
}

func (db *DB) studentSocietyIDs(ctx context.Context, studentID int64) ([]int64, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT society_id
		FROM society_members
		WHERE student_id = $1
		ORDER BY joined_at, society_id
	`, studentID)
	if err != nil {
		return nil, fmt.Errorf("get student memberships: %w", err)
	}
	defer rows.Close()

	return scanIDs(rows, "get student memberships")
}

func (db *DB) studentFollowing(ctx context.Context, studentID int64) ([]int64, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT followed_id
		FROM student_follows
		WHERE follower_id = $1
		ORDER BY followed_id
	`, studentID)
	if err != nil {
		return nil, fmt.Errorf("get student follows: %w", err)
	}
	defer rows.Close()

	return scanIDs(rows, "get student follows")
}

func scanIDs(rows pgx.Rows, op string) ([]int64, error) {
	var ids []int64

	for rows.Next() {
		var id int64

		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return ids, nil
}
