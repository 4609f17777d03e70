// Package gateway talks to Gemini through the genai SDK for lesson
// generation, tutor chat and speech synthesis.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/genai"
)

var (
	ErrNoContent = errors.New("gateway returned no content")
	ErrNoAudio   = errors.New("gateway returned no audio data")
	ErrNoAuth    = errors.New("gateway has no API key or Vertex project configured")
)

const (
	defaultTimeout      = 60 * time.Second
	defaultRetryBackoff = 500 * time.Millisecond

	cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"
)

// Options configures a Client
type Options struct {
	APIKey  string
	BaseURL string

	// When VertexProject is set requests go to Vertex AI and are
	// authorized with OAuth2 bearer tokens instead of the API key.
	VertexProject  string
	VertexLocation string
	VertexBaseURL  string
	TokenSource    oauth2.TokenSource

	LessonModel string
	ChatModel   string
	SpeechModel string
	SpeechVoice string

	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	HTTPClient   *http.Client
}

// Client wraps a genai client with retries and a per-call timeout
type Client struct {
	opts  Options
	genai *genai.Client
}

// New creates a client. In Vertex mode without an explicit TokenSource the
// application default credentials are resolved here. Without any
// credentials the client is still returned and every call fails with
// ErrNoAuth.
func New(ctx context.Context, opts Options) (*Client, error) {
	if opts.VertexLocation == "" {
		opts.VertexLocation = "us-central1"
	}
	if opts.LessonModel == "" {
		opts.LessonModel = "gemini-2.5-flash"
	}
	if opts.ChatModel == "" {
		opts.ChatModel = "gemini-2.5-flash"
	}
	if opts.SpeechModel == "" {
		opts.SpeechModel = "gemini-2.5-flash-preview-tts"
	}
	if opts.SpeechVoice == "" {
		opts.SpeechVoice = "Puck"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = defaultRetryBackoff
	}

	c := &Client{opts: opts}

	var cfg *genai.ClientConfig
	switch {
	case opts.VertexProject != "":
		ts := opts.TokenSource
		if ts == nil {
			var err error
			ts, err = google.DefaultTokenSource(ctx, cloudPlatformScope)
			if err != nil {
				return nil, fmt.Errorf("failed to load application default credentials: %w", err)
			}
		}
		if opts.HTTPClient != nil {
			ctx = context.WithValue(ctx, oauth2.HTTPClient, opts.HTTPClient)
		}
		cfg = &genai.ClientConfig{
			Backend:     genai.BackendVertexAI,
			Project:     opts.VertexProject,
			Location:    opts.VertexLocation,
			HTTPClient:  oauth2.NewClient(ctx, ts),
			HTTPOptions: genai.HTTPOptions{BaseURL: opts.VertexBaseURL},
		}
	case opts.APIKey != "":
		cfg = &genai.ClientConfig{
			Backend:     genai.BackendGeminiAPI,
			APIKey:      opts.APIKey,
			HTTPClient:  opts.HTTPClient,
			HTTPOptions: genai.HTTPOptions{BaseURL: opts.BaseURL},
		}
	default:
		log.Println("Warning: gateway has no API key; generation requests will fail")
		return c, nil
	}

	gc, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	c.genai = gc
	return c, nil
}

// retryable reports whether err is worth another attempt. Rate limits,
// server errors and transport failures are retried.
func retryable(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= 500
	}
	return true
}

// call runs fn under the client timeout, retrying with exponential backoff
func (c *Client) call(ctx context.Context, model string, fn func(ctx context.Context) (*genai.GenerateContentResponse, error)) (*genai.GenerateContentResponse, error) {
	if c.genai == nil {
		return nil, ErrNoAuth
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	var lastErr error
	for attempt := 0; attempt <= c.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			wait := c.opts.RetryBackoff << (attempt - 1)
			log.Printf("gateway: retrying %s in %v (attempt %d): %v", model, wait, attempt+1, lastErr)
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("gateway request cancelled: %w", ctx.Err())
			case <-time.After(wait):
			}
		}

		resp, err := fn(ctx)
		if err == nil {
			return resp, nil
		}
		lastErr = fmt.Errorf("gateway call to %s failed: %w", model, err)
		if !retryable(err) || ctx.Err() != nil {
			return nil, lastErr
		}
	}
	return nil, lastErr
}

// responseText joins the non-thought text parts of the first candidate
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p == nil || p.Thought {
			continue
		}
		b.WriteString(p.Text)
	}
	return b.String()
}
