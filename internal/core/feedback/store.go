// Package feedback converts an append-only log of student interaction events
// into per-student scoring adjustments.
//
// The event log is a single JSON document on disk, separate from the
// DB-backed explicit feedback rows: the log carries implicit signals (views,
// dismissals, joins) alongside ratings, and only this package consumes it.
package feedback

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/araddon/dateparse"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/campushub/society-recommender/internal/platform/observability"
)

// EventType identifies a kind of feedback event.
type EventType string

// Recognized event types. Anything else is rejected at Record time.
const (
	EventRating   EventType = "rating"
	EventJoin     EventType = "join"
	EventView     EventType = "view"
	EventDismiss  EventType = "dismiss"
	EventBookmark EventType = "bookmark"
)

var recognizedTypes = map[EventType]struct{}{
	EventRating:   {},
	EventJoin:     {},
	EventView:     {},
	EventDismiss:  {},
	EventBookmark: {},
}

const storeFilePerm = 0o644

// Event is one row of the feedback log.
type Event struct {
	ID        string            `json:"id"`
	StudentID int64             `json:"student_id"`
	SocietyID int64             `json:"society_id"`
	Type      EventType         `json:"feedback_type"`
	Timestamp time.Time         `json:"-"`
	Value     float64           `json:"value,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`

	// RawTimestamp carries the wire form; external tools have written this
	// field in several formats, so parsing is tolerant (see decodeEvents).
	RawTimestamp string `json:"timestamp"`
}

type document struct {
	UserFeedback []Event `json:"user_feedback"`
	LastUpdated  *string `json:"last_updated"`
}

// Store is the file-backed feedback event log. A missing or corrupt file
// initializes to the empty state without raising.
type Store struct {
	path   string
	logger *zerolog.Logger

	mu  sync.RWMutex
	doc document
}

// NewStore loads (or initializes) the event log at path.
func NewStore(path string, logger *zerolog.Logger) *Store {
	s := &Store{
		path:   path,
		logger: logger,
	}

	s.load()

	return s
}

func (s *Store) load() {
	s.doc = document{UserFeedback: []Event{}}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		s.logger.Warn().Err(err).Str("path", s.path).Msg("corrupt feedback store, starting empty")
		return
	}

	if doc.UserFeedback == nil {
		doc.UserFeedback = []Event{}
	}

	decodeEvents(doc.UserFeedback)

	s.doc = doc
}

// decodeEvents parses the raw timestamps in place, tolerating any layout
// dateparse understands. Unparseable timestamps zero out rather than fail.
func decodeEvents(events []Event) {
	for i := range events {
		if events[i].RawTimestamp == "" {
			continue
		}

		if ts, err := dateparse.ParseAny(events[i].RawTimestamp); err == nil {
			events[i].Timestamp = ts
		}
	}
}

// Record validates and appends an event, persisting the document back to
// disk. Unrecognized event types are rejected and nothing changes. A save
// failure is logged but does not fail the call: the event stays in the
// in-memory log for the lifetime of the process.
func (s *Store) Record(studentID, societyID int64, eventType EventType, value float64, metadata map[string]string) bool {
	if _, ok := recognizedTypes[eventType]; !ok {
		observability.FeedbackRejected.Inc()
		s.logger.Debug().
			Str("feedback_type", string(eventType)).
			Int64("student_id", studentID).
			Msg("rejected unrecognized feedback type")

		return false
	}

	now := time.Now().UTC()
	event := Event{
		ID:           uuid.NewString(),
		StudentID:    studentID,
		SocietyID:    societyID,
		Type:         eventType,
		Timestamp:    now,
		Value:        value,
		Metadata:     metadata,
		RawTimestamp: now.Format(time.RFC3339),
	}

	marker := now.Format(time.RFC3339Nano)

	s.mu.Lock()
	s.doc.UserFeedback = append(s.doc.UserFeedback, event)
	s.doc.LastUpdated = &marker
	s.mu.Unlock()

	observability.FeedbackEvents.WithLabelValues(string(eventType)).Inc()

	if err := s.save(); err != nil {
		observability.Degradations.WithLabelValues("feedback", "store_save_failed").Inc()
		s.logger.Warn().Err(err).Str("path", s.path).Msg("failed to persist feedback store")
	}

	return true
}

func (s *Store) save() error {
	s.mu.RLock()
	data, err := json.Marshal(s.doc)
	s.mu.RUnlock()

	if err != nil {
		return fmt.Errorf("marshal feedback store: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create feedback store directory: %w", err)
	}

	if err := os.WriteFile(s.path, data, storeFilePerm); err != nil {
		return fmt.Errorf("write feedback store: %w", err)
	}

	return nil
}

// EventsFor returns the events recorded for a student, oldest first.
func (s *Store) EventsFor(studentID int64) []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var events []Event

	for _, event := range s.doc.UserFeedback {
		if event.StudentID == studentID {
			events = append(events, event)
		}
	}

	return events
}

// Len returns the total number of stored events.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.doc.UserFeedback)
}

// LastUpdated returns the store's change marker; empty when no event has
// ever been recorded.
func (s *Store) LastUpdated() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.doc.LastUpdated == nil {
		return ""
	}

	return *s.doc.LastUpdated
}
