package handlers

import (
	"errors"
	"net/http"

	"lumiere/internal/models"
	"lumiere/internal/service"
)

// ChatHandler exposes the tutor conversation
type ChatHandler struct {
	chat *service.ChatService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chat *service.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

type chatRequest struct {
	Text string `json:"text"`
}

type transcriptResponse struct {
	Messages []models.ChatMessage `json:"messages"`
	Busy     bool                 `json:"busy"`
}

// Messages returns the transcript
func (h *ChatHandler) Messages(w http.ResponseWriter, r *http.Request) {
	messages, err := h.chat.Messages()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to load chat history", err)
		return
	}
	respondJSON(w, http.StatusOK, transcriptResponse{Messages: messages, Busy: h.chat.Busy()})
}

// Send posts a learner message and waits for the tutor's reply
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequestBody, "", nil)
		return
	}

	reply, err := h.chat.Send(r.Context(), req.Text)
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, reply)
	case errors.Is(err, service.ErrEmptyMessage):
		respondWithError(w, http.StatusBadRequest, "Message is empty", "", nil)
	case errors.Is(err, service.ErrChatBusy), errors.Is(err, service.ErrChatCleared):
		respondWithError(w, http.StatusConflict, err.Error(), "", nil)
	default:
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to save chat history", err)
	}
}

// Clear restarts the conversation
func (h *ChatHandler) Clear(w http.ResponseWriter, r *http.Request) {
	messages, err := h.chat.Clear()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to save chat history", err)
		return
	}
	respondJSON(w, http.StatusOK, transcriptResponse{Messages: messages})
}
