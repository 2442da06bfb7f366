package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/campushub/society-recommender/internal/core/domain"
)

// ListSocieties returns societies with live member and event counts,
// optionally filtered to approved ones, ordered by id for stable iteration.
func (db *DB) ListSocieties(ctx context.Context, approvedOnly bool) ([]domain.Society, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT s.id, s.name, s.category, s.description, s.tags, s.approved,
		       (SELECT COUNT(*) FROM society_members m WHERE m.society_id = s.id) AS member_count,
		       (SELECT COUNT(*) FROM society_events e WHERE e.society_id = s.id) AS event_count
		FROM societies s
		WHERE NOT $1 OR s.approved
		ORDER BY s.id
	`, approvedOnly)
	if err != nil {
		return nil, fmt.Errorf("list societies: %w", err)
	}
	defer rows.Close()

	return scanSocieties(rows, "list societies")
}

// SocietiesByIDs returns the societies with the given ids, keyed by id.
// Unknown ids are simply absent from the result.
func (db *DB) SocietiesByIDs(ctx context.Context, ids []int64) (map[int64]domain.Society, error) {
	if len(ids) == 0 {
		return map[int64]domain.Society{}, nil
	}

	rows, err := db.Pool.Query(ctx, `
		SELECT s.id, s.name, s.category, s.description, s.tags, s.approved,
		       (SELECT COUNT(*) FROM society_members m WHERE m.society_id = s.id) AS member_count,
		       (SELECT COUNT(*) FROM society_events e WHERE e.society_id = s.id) AS event_count
		FROM societies s
		WHERE s.id = ANY($1)
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("get societies by ids: %w", err)
	}
	defer rows.Close()

	societies, err := scanSocieties(rows, "get societies by ids")
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]domain.Society, len(societies))
	for _, society := range societies {
		byID[society.ID] = society
	}

	return byID, nil
}

// MembershipOverlap returns, per society, how many of the given students are
// members.
func (db *DB) MembershipOverlap(ctx context.Context, studentIDs []int64) (map[int64]int, error) {
	if len(studentIDs) == 0 {
		return map[int64]int{}, nil
	}

	rows, err := db.Pool.Query(ctx, `
		SELECT society_id, COUNT(*) AS members
		FROM society_members
		WHERE student_id = ANY($1)
		GROUP BY society_id
	`, studentIDs)
	if err != nil {
		return nil, fmt.Errorf("membership overlap: %w", err)
	}
	defer rows.Close()

	overlap := make(map[int64]int)

	for rows.Next() {
		var (
			societyID int64
			members   int
		)

		if err := rows.Scan(&societyID, &members); err != nil {
			return nil, fmt.Errorf("membership overlap: %w", err)
		}

		overlap[societyID] = members
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("membership overlap: %w", err)
	}

	return overlap, nil
}

func scanSocieties(rows pgx.Rows, op string) ([]domain.Society, error) {
	var societies []domain.Society

	for rows.Next() {
		var society domain.Society

		if err := rows.Scan(
			&society.ID,
			&society.Name,
			&society.Category,
			&society.Description,
			&society.Tags,
			&society.Approved,
			&society.MemberCount,
			&society.EventCount,
		); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		societies = append(societies, society)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return societies, nil
}
