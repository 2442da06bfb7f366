// Package domain defines the plain data records exchanged between the
// recommendation core and the persistence layer.
//
// The records are capability projections: they carry exactly the fields the
// scoring and ranking code reads, and are constructed once at the storage
// boundary so the core never touches a live database row.
package domain

import "time"

// Society is a read-only projection of a student society.
type Society struct {
	ID          int64
	Name        string
	Category    string
	Description string
	Tags        []string
	MemberCount int
	EventCount  int
	Approved    bool
}

// Student is a read-only projection of a student account.
type Student struct {
	ID         int64
	Major      string
	SocietyIDs []int64
	Following  []int64
}

// HasSparseHistory reports whether the student has too few memberships to
// support similarity-based recommendations.
func (s Student) HasSparseHistory() bool {
	return len(s.SocietyIDs) < MinMembershipsForSimilarity
}

// MinMembershipsForSimilarity is the membership count below which the
// cold-start path takes over.
const MinMembershipsForSimilarity = 2

// FeedbackRow is the explicit, survey-style feedback a student has submitted
// for a society. One row per (student, society) pair, last write wins.
type FeedbackRow struct {
	StudentID int64     `json:"student_id"`
	SocietyID int64     `json:"society_id"`
	Rating    int       `json:"rating"`
	Relevance int       `json:"relevance"`
	Comment   string    `json:"comment"`
	IsJoined  bool      `json:"is_joined"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CandidateSource identifies the strategy that produced a candidate.
type CandidateSource string

// Candidate sources.
const (
	SourceMajor      CandidateSource = "major"
	SourceSocial     CandidateSource = "social"
	SourcePopular    CandidateSource = "popular"
	SourceSimilarity CandidateSource = "similarity"
)

// ScoredSociety pairs a society with its ranking score.
type ScoredSociety struct {
	Society            Society
	Score              float64
	Source             CandidateSource
	FeedbackAdjustment float64
}

// Explanation is a human-readable justification for a recommendation.
type Explanation struct {
	Type            string
	Message         string
	SimilarityScore float64
}

// Explanation types.
const (
	ExplanationPopular    = "popular"
	ExplanationEvents     = "events"
	ExplanationCategory   = "category"
	ExplanationSimilarity = "similarity"
	ExplanationGeneral    = "general"
)
