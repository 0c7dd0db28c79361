package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/akarpovich/newsbrief/pkg/cache"
	"github.com/akarpovich/newsbrief/pkg/domain"
)

// askRequest is the briefing request payload
type askRequest struct {
	Question string `json:"question"`
}

// askResponse carries the briefing text and its source citations. The pair
// is always displayable: pipeline failures arrive here already converted to
// answer text.
type askResponse struct {
	Answer  string                  `json:"answer"`
	Sources []domain.SourceCitation `json:"sources"`
}

// askHandler produces a news briefing for the posted question
func (s *Server) askHandler(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, r, fmt.Errorf("invalid request body"), http.StatusBadRequest)
		return
	}

	question := strings.TrimSpace(req.Question)
	if question == "" {
		renderError(w, r, fmt.Errorf("question is required"), http.StatusBadRequest)
		return
	}

	answer, sources := s.briefer.Answer(r.Context(), question)
	if sources == nil {
		sources = []domain.SourceCitation{} // keep the JSON array shape
	}

	renderJSON(w, r, http.StatusOK, askResponse{Answer: answer, Sources: sources})
}

// newsHandler returns aggregated articles for a topic query
func (s *Server) newsHandler(w http.ResponseWriter, r *http.Request) {
	topic := strings.TrimSpace(r.URL.Query().Get("topic"))
	if topic == "" {
		topic = "latest news"
	}

	hours := 48
	if hoursStr := r.URL.Query().Get("hours"); hoursStr != "" {
		h, err := strconv.Atoi(hoursStr)
		if err != nil || h <= 0 {
			renderError(w, r, fmt.Errorf("invalid hours value"), http.StatusBadRequest)
			return
		}
		hours = h
	}

	articles := s.news.FetchNews(r.Context(), topic, hours)
	renderJSON(w, r, http.StatusOK, map[string]interface{}{
		"topic":    topic,
		"count":    len(articles),
		"articles": articles,
	})
}

// topicsHandler lists the known topic buckets
func (s *Server) topicsHandler(w http.ResponseWriter, r *http.Request) {
	topics := s.news.Topics()
	names := make([]string, 0, len(topics))
	for _, t := range topics {
		names = append(names, t.String())
	}
	renderJSON(w, r, http.StatusOK, map[string][]string{"topics": names})
}

// cacheClearHandler drops every cached query result
func (s *Server) cacheClearHandler(w http.ResponseWriter, r *http.Request) {
	s.cache.Clear()
	renderJSON(w, r, http.StatusOK, map[string]string{"status": "cache cleared"})
}

// historyHandler returns archived articles for a query key
func (s *Server) historyHandler(w http.ResponseWriter, r *http.Request) {
	if s.historian == nil {
		renderError(w, r, fmt.Errorf("archive is disabled"), http.StatusNotFound)
		return
	}

	query := cache.Key(r.URL.Query().Get("q"))
	if query == "" {
		renderError(w, r, fmt.Errorf("q parameter is required"), http.StatusBadRequest)
		return
	}

	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l <= 0 {
			renderError(w, r, fmt.Errorf("invalid limit value"), http.StatusBadRequest)
			return
		}
		limit = l
	}

	articles, err := s.historian.History(r.Context(), query, limit)
	if err != nil {
		renderError(w, r, err, http.StatusInternalServerError)
		return
	}

	renderJSON(w, r, http.StatusOK, map[string]interface{}{
		"query":    query,
		"count":    len(articles),
		"articles": articles,
	})
}
