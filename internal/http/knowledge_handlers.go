package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"excelbot-backend-go/internal/knowledge"
	"excelbot-backend-go/internal/services"
	"excelbot-backend-go/internal/store"
)

type SearchResponse struct {
	Items []knowledge.Entry `json:"items"`
	Total int               `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

func (s *Server) SearchFunctions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := store.KnowledgeFilter{
		Kind:     knowledge.KindFunction,
		Category: sanitizeString(strings.TrimSpace(query.Get("category"))),
		Query:    sanitizeString(strings.TrimSpace(query.Get("q"))),
		Page:     parseInt(query.Get("page"), 1),
		Limit:    parseInt(query.Get("limit"), 20),
	}
	items, total, err := s.Knowledge.Find(r.Context(), filter)
	if err != nil {
		s.WriteServiceError(w, err)
		return
	}
	if items == nil {
		items = []knowledge.Entry{}
	}
	WriteJSON(w, http.StatusOK, SearchResponse{
		Items: items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	})
}

func (s *Server) GetFunction(w http.ResponseWriter, r *http.Request) {
	name := sanitizeString(chi.URLParam(r, "name"))
	entry, err := s.Knowledge.GetByName(r.Context(), knowledge.KindFunction, name)
	if err != nil {
		s.WriteServiceError(w, services.FromStore(err, "Function not found", ""))
		return
	}
	WriteJSON(w, http.StatusOK, entry)
}

type VoteRequest struct {
	Helpful bool `json:"helpful"`
}

func (s *Server) VoteFAQ(w http.ResponseWriter, r *http.Request) {
	name := sanitizeString(chi.URLParam(r, "name"))
	var req VoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, services.CodeValidation, "Invalid payload")
		return
	}
	votes, err := s.Knowledge.Vote(r.Context(), name, req.Helpful)
	if err != nil {
		s.WriteServiceError(w, services.FromStore(err, "FAQ entry not found", ""))
		return
	}
	WriteJSON(w, http.StatusOK, map[string]int{"votes": votes})
}

// AdminInsertKnowledge adds one entry; duplicate names answer 409.
func (s *Server) AdminInsertKnowledge(w http.ResponseWriter, r *http.Request) {
	var entry knowledge.Entry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		WriteError(w, http.StatusBadRequest, services.CodeValidation, "Invalid payload")
		return
	}
	entry.Name = sanitizeString(strings.TrimSpace(entry.Name))
	entry.Description = sanitizeString(entry.Description)
	if entry.Name == "" || !knowledge.ValidKind(entry.Kind) {
		WriteError(w, http.StatusBadRequest, services.CodeValidation, "Name and a valid kind are required")
		return
	}
	created, err := s.Knowledge.Insert(r.Context(), entry)
	if err != nil {
		s.WriteServiceError(w, services.FromStore(err, "", "An entry with that name already exists"))
		return
	}
	WriteJSON(w, http.StatusCreated, created)
}

func parseInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return fallback
	}
	return value
}
