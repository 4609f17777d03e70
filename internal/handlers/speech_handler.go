package handlers

import (
	"errors"
	"net/http"

	"lumiere/internal/audio"
	"lumiere/internal/service"
)

// SpeechHandler synthesizes and serves audio clips
type SpeechHandler struct {
	speech *service.SpeechService
	output *audio.Output
}

// NewSpeechHandler creates a new speech handler
func NewSpeechHandler(speech *service.SpeechService, output *audio.Output) *SpeechHandler {
	return &SpeechHandler{
		speech: speech,
		output: output,
	}
}

type speechRequest struct {
	Text string `json:"text"`
}

type speechResponse struct {
	Clip string `json:"clip"`
}

// Speak returns the URL of a clip for the posted text
func (h *SpeechHandler) Speak(w http.ResponseWriter, r *http.Request) {
	var req speechRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequestBody, "", nil)
		return
	}

	url, err := h.speech.Speak(r.Context(), req.Text)
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, speechResponse{Clip: url})
	case errors.Is(err, service.ErrEmptyText), errors.Is(err, service.ErrTextTooLong):
		respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
	default:
		respondWithError(w, http.StatusBadGateway, "Speech is unavailable", "Speech playback failed", err)
	}
}

// Clip serves a published WAV clip
func (h *SpeechHandler) Clip(w http.ResponseWriter, r *http.Request) {
	clip := r.PathValue("clip")
	path, err := h.output.Path(clip)
	if err != nil || !h.output.Has(clip) {
		respondWithError(w, http.StatusNotFound, ErrNotFound, "", nil)
		return
	}

	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	http.ServeFile(w, r, path)
}
