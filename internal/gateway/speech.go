package gateway

import (
	"context"

	"google.golang.org/genai"
)

// SynthesizeSpeech returns raw 16-bit mono 24 kHz PCM for text
func (c *Client) SynthesizeSpeech(ctx context.Context, text string) ([]byte, error) {
	model := c.opts.SpeechModel
	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{string(genai.ModalityAudio)},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: c.opts.SpeechVoice},
			},
		},
	}

	resp, err := c.call(ctx, model, func(ctx context.Context) (*genai.GenerateContentResponse, error) {
		return c.genai.Models.GenerateContent(ctx, model, genai.Text(text), config)
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, ErrNoAudio
	}
	for _, p := range resp.Candidates[0].Content.Parts {
		if p != nil && p.InlineData != nil && len(p.InlineData.Data) > 0 {
			return p.InlineData.Data, nil
		}
	}
	return nil, ErrNoAudio
}
