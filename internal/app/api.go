package app

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/campushub/society-recommender/internal/core/domain"
	"github.com/campushub/society-recommender/internal/core/feedback"
)

const similarSocietiesLimit = 10

// similarityThreshold is the minimum cosine similarity for the
// vector-search endpoint.
const similarityThreshold = 0.5

type societyResponse struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	MemberCount int      `json:"member_count"`
	EventCount  int      `json:"event_count"`
}

type explanationResponse struct {
	Type            string  `json:"type"`
	Message         string  `json:"message"`
	SimilarityScore float64 `json:"similarity_score,omitempty"`
}

type feedbackRequest struct {
	StudentID int64             `json:"student_id"`
	SocietyID int64             `json:"society_id"`
	Type      string            `json:"type"`
	Value     float64           `json:"value"`
	Metadata  map[string]string `json:"metadata"`
}

type surveyRequest struct {
	StudentID int64  `json:"student_id"`
	SocietyID int64  `json:"society_id"`
	Rating    int    `json:"rating"`
	Relevance int    `json:"relevance"`
	Comment   string `json:"comment"`
	IsJoined  bool   `json:"is_joined"`
}

type similarSocietyResponse struct {
	Society    societyResponse `json:"society"`
	Similarity float64         `json:"similarity"`
}

func newAPIHandler(a *App) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/students/{id}/recommendations", a.handleRecommendations)
	mux.HandleFunc("GET /api/students/{id}/explanations/{societyID}", a.handleExplanation)
	mux.HandleFunc("GET /api/students/{id}/adjustments", a.handleAdjustments)
	mux.HandleFunc("GET /api/students/{id}/feedback", a.handleFeedbackRows)
	mux.HandleFunc("POST /api/feedback", a.handleRecordFeedback)
	mux.HandleFunc("POST /api/feedback/survey", a.handleSurvey)
	mux.HandleFunc("GET /api/societies/{id}/similar", a.handleSimilarSocieties)

	return mux
}

func (a *App) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	studentID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}

	societies := a.engine.Recommend(r.Context(), studentID, limit)

	out := make([]societyResponse, 0, len(societies))
	for _, society := range societies {
		out = append(out, toSocietyResponse(society))
	}

	writeJSON(w, out)
}

func (a *App) handleExplanation(w http.ResponseWriter, r *http.Request) {
	studentID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	societyID, ok := pathID(w, r, "societyID")
	if !ok {
		return
	}

	explanation := a.engine.Explanation(r.Context(), studentID, societyID)

	writeJSON(w, explanationResponse{
		Type:            explanation.Type,
		Message:         explanation.Message,
		SimilarityScore: explanation.SimilarityScore,
	})
}

func (a *App) handleAdjustments(w http.ResponseWriter, r *http.Request) {
	studentID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	writeJSON(w, a.engine.PreferenceAdjustments(r.Context(), studentID))
}

func (a *App) handleFeedbackRows(w http.ResponseWriter, r *http.Request) {
	studentID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	rows, err := a.database.GetFeedbackRows(r.Context(), studentID)
	if err != nil {
		a.logger.Error().Err(err).Msg("feedback row fetch failed")
		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	writeJSON(w, rows)
}

func (a *App) handleRecordFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	eventType := feedback.EventType(req.Type)

	recorded := a.engine.RecordFeedback(req.StudentID, req.SocietyID, eventType, req.Value, req.Metadata)
	if !recorded {
		http.Error(w, "unrecognized feedback type", http.StatusBadRequest)
		return
	}

	// Ratings and joins also land in the relational feedback table so the
	// survey endpoint reflects them. Best effort, and only the column the
	// event carries: a mirrored event must not clobber survey answers.
	switch eventType {
	case feedback.EventRating:
		if err := a.database.SetFeedbackRating(r.Context(), req.StudentID, req.SocietyID, int(req.Value)); err != nil {
			a.logger.Warn().Err(err).Int64("student_id", req.StudentID).Msg("feedback rating mirror failed")
		}
	case feedback.EventJoin:
		if err := a.database.SetFeedbackJoined(r.Context(), req.StudentID, req.SocietyID); err != nil {
			a.logger.Warn().Err(err).Int64("student_id", req.StudentID).Msg("feedback join mirror failed")
		}
	}

	w.WriteHeader(http.StatusCreated)
}

func (a *App) handleSurvey(w http.ResponseWriter, r *http.Request) {
	var req surveyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	row := domain.FeedbackRow{
		StudentID: req.StudentID,
		SocietyID: req.SocietyID,
		Rating:    req.Rating,
		Relevance: req.Relevance,
		Comment:   req.Comment,
		IsJoined:  req.IsJoined,
	}

	if err := a.database.UpsertFeedbackRow(r.Context(), row); err != nil {
		a.logger.Error().Err(err).Msg("feedback row upsert failed")
		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	w.WriteHeader(http.StatusCreated)
}

func (a *App) handleSimilarSocieties(w http.ResponseWriter, r *http.Request) {
	societyID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if a.embedder == nil {
		writeJSON(w, []similarSocietyResponse{})
		return
	}

	societies, err := a.database.SocietiesByIDs(r.Context(), []int64{societyID})
	if err != nil {
		a.logger.Error().Err(err).Msg("society fetch failed")
		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	society, found := societies[societyID]
	if !found {
		http.Error(w, "society not found", http.StatusNotFound)
		return
	}

	vector, err := a.embedder.GetEmbedding(r.Context(), societyEmbeddingText(society))
	if err != nil {
		a.logger.Warn().Err(err).Msg("query embedding failed")
		writeJSON(w, []similarSocietyResponse{})

		return
	}

	similar, err := a.database.FindSimilarSocieties(r.Context(), vector, similarityThreshold, similarSocietiesLimit)
	if err != nil {
		a.logger.Error().Err(err).Msg("vector search failed")
		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	ids := make([]int64, 0, len(similar))

	for _, s := range similar {
		if s.SocietyID != societyID {
			ids = append(ids, s.SocietyID)
		}
	}

	matched, err := a.database.SocietiesByIDs(r.Context(), ids)
	if err != nil {
		a.logger.Error().Err(err).Msg("society fetch failed")
		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	out := make([]similarSocietyResponse, 0, len(similar))

	for _, s := range similar {
		match, found := matched[s.SocietyID]
		if !found {
			continue
		}

		out = append(out, similarSocietyResponse{
			Society:    toSocietyResponse(match),
			Similarity: s.Similarity,
		})
	}

	writeJSON(w, out)
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return 0, false
	}

	return id, true
}

func toSocietyResponse(society domain.Society) societyResponse {
	return societyResponse{
		ID:          society.ID,
		Name:        society.Name,
		Category:    society.Category,
		Description: society.Description,
		Tags:        society.Tags,
		MemberCount: society.MemberCount,
		EventCount:  society.EventCount,
	}
}

func societyEmbeddingText(society domain.Society) string {
	parts := []string{society.Name, society.Description, society.Category}
	parts = append(parts, society.Tags...)

	return strings.Join(parts, " ")
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")

	_ = json.NewEncoder(w).Encode(v)
}
