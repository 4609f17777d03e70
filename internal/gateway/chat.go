package gateway

import (
	"context"
	"fmt"
	"sync"

	"google.golang.org/genai"

	"lumiere/internal/models"
)

const chatTemperature = 0.7

// Turn is one prior exchange replayed into a new chat session
type Turn struct {
	Role models.MessageRole
	Text string
}

// Chat is a conversation that remembers its own turns
type Chat interface {
	Send(ctx context.Context, message string) (string, error)
}

// ChatSession keeps the conversation context for one tutor chat. Sends are
// serialized; the underlying genai chat only records turns the model
// answered with content.
type ChatSession struct {
	client *Client

	mu   sync.Mutex
	chat *genai.Chat
	err  error
}

// StartChat opens a session with a system instruction and optional prior turns
func (c *Client) StartChat(systemInstruction string, history []Turn) Chat {
	s := &ChatSession{client: c}
	if c.genai == nil {
		s.err = ErrNoAuth
		return s
	}

	contents := make([]*genai.Content, 0, len(history))
	for _, t := range history {
		if t.Text == "" || !t.Role.Valid() {
			continue
		}
		contents = append(contents, genai.NewContentFromText(t.Text, genai.Role(t.Role)))
	}

	config := &genai.GenerateContentConfig{Temperature: genai.Ptr[float32](chatTemperature)}
	if systemInstruction != "" {
		config.SystemInstruction = genai.NewContentFromText(systemInstruction, genai.RoleUser)
	}

	chat, err := c.genai.Chats.Create(context.Background(), c.opts.ChatModel, config, contents)
	if err != nil {
		s.err = fmt.Errorf("failed to start chat: %w", err)
		return s
	}
	s.chat = chat
	return s
}

// Send posts message with the accumulated history and returns the reply text
func (s *ChatSession) Send(ctx context.Context, message string) (string, error) {
	if s.err != nil {
		return "", s.err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	resp, err := s.client.call(ctx, s.client.opts.ChatModel, func(ctx context.Context) (*genai.GenerateContentResponse, error) {
		return s.chat.SendMessage(ctx, genai.Part{Text: message})
	})
	if err != nil {
		return "", err
	}
	return responseText(resp), nil
}

// Len reports how many turns the session remembers
func (s *ChatSession) Len() int {
	if s.chat == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.chat.History(true))
}
