package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"lumiere/internal/audio"
)

// MaxSpeechRunes bounds the text sent for synthesis. It sits well above the
// longest tutor reply so any chat turn can be played back.
const MaxSpeechRunes = 8000

var (
	ErrEmptyText   = errors.New("text is empty")
	ErrTextTooLong = errors.New("text is too long")
)

// SpeechSynthesizer turns text into raw PCM samples
type SpeechSynthesizer interface {
	SynthesizeSpeech(ctx context.Context, text string) ([]byte, error)
}

// SpeechService synthesizes text once and serves the cached clip afterwards
type SpeechService struct {
	synth     SpeechSynthesizer
	output    *audio.Output
	urlPrefix string
}

// NewSpeechService creates a speech service publishing through output.
// Clip URLs are urlPrefix followed by the clip name.
func NewSpeechService(synth SpeechSynthesizer, output *audio.Output, urlPrefix string) *SpeechService {
	return &SpeechService{synth: synth, output: output, urlPrefix: strings.TrimRight(urlPrefix, "/") + "/"}
}

// Speak returns the URL of a clip speaking text
func (s *SpeechService) Speak(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyText
	}
	if utf8.RuneCountInString(text) > MaxSpeechRunes {
		return "", ErrTextTooLong
	}

	clip := audio.ClipName(text)
	if !s.output.Has(clip) {
		pcm, err := s.synth.SynthesizeSpeech(ctx, text)
		if err != nil {
			return "", fmt.Errorf("speech synthesis failed: %w", err)
		}
		if err := s.output.Publish(clip, pcm); err != nil {
			return "", err
		}
	}
	return s.urlPrefix + clip, nil
}
