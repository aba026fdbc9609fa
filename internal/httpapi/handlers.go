package httpapi

import (
	"net/http"
	"strconv"

	json "github.com/goccy/go-json"

	"github.com/skillcompass/skillcompass-go/internal/buildinfo"
	"github.com/skillcompass/skillcompass-go/internal/graphstore"
	"github.com/skillcompass/skillcompass-go/internal/taxonomy"
)

const maxSearchLimit = 100

func parseLimit(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	if n > maxSearchLimit {
		return maxSearchLimit
	}
	return n
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Ready(); err != nil {
		writeJSON(w, r, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": err.Error(),
		})
		return
	}
	if err := s.store.Ping(r.Context()); err != nil {
		writeJSON(w, r, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "taxonomy store unreachable",
		})
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var req taxonomy.RecommendationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "malformed request body")
		return
	}

	results, err := s.engine.Recommend(r.Context(), req)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, taxonomy.RecommendResult{
		Count:   len(results),
		Skills:  req.SkillURIs,
		Results: results,
	})
}

func (s *Server) handleSearchOccupations(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, r, http.StatusBadRequest, "query parameter q is required")
		return
	}
	results, err := s.store.SearchOccupations(r.Context(), query, parseLimit(r, 20))
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, taxonomy.OccupationList{Count: len(results), Occupations: results})
}

func (s *Server) handleSkillGap(w http.ResponseWriter, r *http.Request) {
	occupationURI := r.URL.Query().Get("occupation")
	if occupationURI == "" {
		writeError(w, r, http.StatusBadRequest, "query parameter occupation is required")
		return
	}
	skills := r.URL.Query()["skill"]

	view, err := s.engine.SkillGapFor(r.Context(), occupationURI, skills)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, view)
}

func (s *Server) handleSearchSkills(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, r, http.StatusBadRequest, "query parameter q is required")
		return
	}
	results, err := s.store.SearchSkills(r.Context(), query, parseLimit(r, 20))
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, taxonomy.SkillList{Count: len(results), Skills: results})
}

// noteBody is the upsert request payload.
type noteBody struct {
	Text string `json:"text"`
}

// noteDeleted confirms a note removal.
type noteDeleted struct {
	Message       string `json:"message"`
	OccupationURI string `json:"occupationUri"`
	NoteID        string `json:"noteId"`
}

func (s *Server) handleSearchNotes(w http.ResponseWriter, r *http.Request) {
	skip := 0
	if raw := r.URL.Query().Get("skip"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			skip = n
		}
	}
	page, err := s.store.SearchNotes(r.Context(), r.URL.Query().Get("occupation"), parseLimit(r, maxSearchLimit), skip)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, page)
}

func (s *Server) handleUpsertNote(w http.ResponseWriter, r *http.Request) {
	occupationURI := r.URL.Query().Get("occupation")
	noteID := r.URL.Query().Get("id")
	if occupationURI == "" || noteID == "" {
		writeError(w, r, http.StatusBadRequest, "query parameters occupation and id are required")
		return
	}
	var body noteBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, r, http.StatusBadRequest, "malformed request body")
		return
	}
	if body.Text == "" || len(body.Text) > graphstore.MaxNoteTextLen {
		writeError(w, r, http.StatusBadRequest, "note text must be 1-5000 characters")
		return
	}

	note, err := s.store.UpsertNote(r.Context(), occupationURI, noteID, body.Text)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, note)
}

func (s *Server) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	occupationURI := r.URL.Query().Get("occupation")
	noteID := r.URL.Query().Get("id")
	if occupationURI == "" || noteID == "" {
		writeError(w, r, http.StatusBadRequest, "query parameters occupation and id are required")
		return
	}
	if err := s.store.DeleteNote(r.Context(), occupationURI, noteID); err != nil {
		writeEngineError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, noteDeleted{
		Message:       "note deleted",
		OccupationURI: occupationURI,
		NoteID:        noteID,
	})
}

func (s *Server) handleOccupationGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.store.ListOccupationGroups(r.Context())
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]interface{}{"count": len(groups), "groups": groups})
}

func (s *Server) handleSkillGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.store.ListSkillGroups(r.Context())
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]interface{}{"count": len(groups), "groups": groups})
}

func (s *Server) handleSchemes(w http.ResponseWriter, r *http.Request) {
	schemes, err := s.store.ListConceptSchemes(r.Context())
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]interface{}{"count": len(schemes), "schemes": schemes})
}

func (s *Server) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	nodes, err := s.store.NodeCounts(r.Context())
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	edges, err := s.store.RelCounts(r.Context())
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, taxonomy.StatsResult{Nodes: nodes, Edges: edges})
}
