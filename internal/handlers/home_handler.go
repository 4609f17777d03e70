package handlers

import (
	"net/http"

	"lumiere/internal/content"
	"lumiere/internal/models"
	"lumiere/internal/service"
	"lumiere/internal/session"
)

// HomeHandler serves the dashboard, profile and top-level navigation
type HomeHandler struct {
	stats   *service.StatsService
	session *session.Session
}

// NewHomeHandler creates a new home handler
func NewHomeHandler(stats *service.StatsService, sess *session.Session) *HomeHandler {
	return &HomeHandler{
		stats:   stats,
		session: sess,
	}
}

type homeResponse struct {
	Stats      models.UserStats `json:"stats"`
	Today      string           `json:"today"`
	DailyQuote models.Quote     `json:"dailyQuote"`
	DailyTopic models.Topic     `json:"dailyTopic"`
	Topics     []models.Topic   `json:"topics"`
}

type profileResponse struct {
	Stats models.UserStats `json:"stats"`
	Level string           `json:"level"`
}

// Home returns the learner's stats together with today's featured content
func (h *HomeHandler) Home(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.Load()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to load stats", err)
		return
	}

	daily := content.Select(h.stats.Now())
	respondJSON(w, http.StatusOK, homeResponse{
		Stats:      stats,
		Today:      h.stats.Today(),
		DailyQuote: daily.Quote,
		DailyTopic: daily.Topic,
		Topics:     content.Topics,
	})
}

// Profile returns the learner's stats and level
func (h *HomeHandler) Profile(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.Load()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to load stats", err)
		return
	}
	respondJSON(w, http.StatusOK, profileResponse{Stats: stats, Level: ProfileLevel})
}

// State returns the current view and lesson
func (h *HomeHandler) State(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.session.Snapshot())
}

// Navigate switches the bottom-navigation view
func (h *HomeHandler) Navigate(w http.ResponseWriter, r *http.Request) {
	view, err := session.ParseView(r.PathValue("view"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Unknown view", "", nil)
		return
	}
	if err := h.session.Navigate(view); err != nil {
		respondWithError(w, http.StatusBadRequest, "View is not reachable from navigation", "", nil)
		return
	}
	respondJSON(w, http.StatusOK, h.session.Snapshot())
}
