package handlers

import (
	"errors"
	"net/http"

	"lumiere/internal/content"
	"lumiere/internal/session"
)

// LessonHandler drives the lesson wizard
type LessonHandler struct {
	session *session.Session
}

// NewLessonHandler creates a new lesson handler
func NewLessonHandler(sess *session.Session) *LessonHandler {
	return &LessonHandler{session: sess}
}

type answerRequest struct {
	Question *int `json:"question"`
	Option   *int `json:"option"`
}

type finishResponse struct {
	session.FinishResult
	View session.View `json:"view"`
}

// SelectTopic opens a lesson and starts generating its content. The
// response is the lesson in its loading state.
func (h *LessonHandler) SelectTopic(w http.ResponseWriter, r *http.Request) {
	topic, ok := content.TopicByID(r.PathValue("topicId"))
	if !ok {
		respondWithError(w, http.StatusNotFound, "Unknown topic", "", nil)
		return
	}

	h.session.SelectTopic(r.Context(), topic)

	snap, err := h.session.Lesson()
	if err != nil {
		respondWithLessonError(w, err)
		return
	}
	respondJSON(w, http.StatusAccepted, snap)
}

// Lesson returns the active lesson
func (h *LessonHandler) Lesson(w http.ResponseWriter, r *http.Request) {
	snap, err := h.session.Lesson()
	if err != nil {
		respondWithLessonError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

// Next moves to the following step
func (h *LessonHandler) Next(w http.ResponseWriter, r *http.Request) {
	snap, err := h.session.Next()
	if err != nil {
		respondWithLessonError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

// GoTo jumps to an unlocked step, given by index or name
func (h *LessonHandler) GoTo(w http.ResponseWriter, r *http.Request) {
	step, err := session.ParseStep(r.PathValue("step"))
	if err != nil {
		respondWithLessonError(w, err)
		return
	}
	snap, err := h.session.GoTo(step)
	if err != nil {
		respondWithLessonError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

// Answer records a quiz answer
func (h *LessonHandler) Answer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := decodeJSON(w, r, &req); err != nil || req.Question == nil || req.Option == nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequestBody, "", nil)
		return
	}

	snap, err := h.session.Answer(*req.Question, *req.Option)
	if err != nil {
		respondWithLessonError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

// Finish credits a completed lesson and returns home
func (h *LessonHandler) Finish(w http.ResponseWriter, r *http.Request) {
	result, err := h.session.FinishLesson()
	if err != nil {
		if errors.Is(err, session.ErrNoLesson) {
			respondWithLessonError(w, err)
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to save progress", "Lesson finish", err)
		return
	}
	respondJSON(w, http.StatusOK, finishResponse{FinishResult: result, View: h.session.View()})
}

// Back abandons the lesson
func (h *LessonHandler) Back(w http.ResponseWriter, r *http.Request) {
	if err := h.session.Back(); err != nil {
		respondWithLessonError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.session.Snapshot())
}

func respondWithLessonError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNoLesson):
		respondWithError(w, http.StatusNotFound, "No active lesson", "", nil)
	case errors.Is(err, session.ErrLessonNotReady),
		errors.Is(err, session.ErrStepLocked),
		errors.Is(err, session.ErrNoNextStep),
		errors.Is(err, session.ErrNotOnQuiz):
		respondWithError(w, http.StatusConflict, err.Error(), "", nil)
	case errors.Is(err, session.ErrInvalidStep),
		errors.Is(err, session.ErrInvalidAnswer):
		respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
	default:
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Lesson request", err)
	}
}
