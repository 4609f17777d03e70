package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/google/uuid"

	"lumiere/internal/gateway"
	"lumiere/internal/models"
)

var (
	ErrEmptyMessage = errors.New("message is empty")
	ErrChatBusy     = errors.New("a reply is still pending")
	ErrChatCleared  = errors.New("conversation was cleared before the reply arrived")
)

// TutorInstruction is the persona every chat session starts with
const TutorInstruction = "你是一位乐于助人且耐心的法语语言导师，你的学生是中国人。请主要用简单的法语回复，如果概念复杂或用户要求翻译，可以使用中文解释。温和地纠正用户的语法错误。保持对话流畅。"

const (
	apologyText    = "Désolé, j'ai eu un problème de connexion. Réessayons. (抱歉，连接出现问题，请重试。)"
	emptyReplyText = "我没听懂，抱歉。"
	greetingText   = "Bonjour ! Je suis ton professeur de français. Comment ça va aujourd'hui ?"
	greetingZH     = "你好！我是你的法语老师。今天过得怎么样？"
	restartText    = "Bonjour ! Recommençons. De quoi veux-tu parler ?"
	restartZH      = "你好！我们重新开始。你想聊些什么？"
)

// ChatGateway opens tutor conversations
type ChatGateway interface {
	StartChat(systemInstruction string, history []gateway.Turn) gateway.Chat
}

// ChatService owns the transcript and the gateway conversation that
// mirrors it. Both are replaced together on Clear. The in-memory
// transcript only changes after the store accepted the write.
type ChatService struct {
	store   KeyValueStore
	gateway ChatGateway

	mu       sync.Mutex
	loaded   bool
	messages []models.ChatMessage
	session  gateway.Chat
	epoch    uint64
	busy     bool // reply outstanding in the current epoch
}

func NewChatService(store KeyValueStore, gw ChatGateway) *ChatService {
	return &ChatService{store: store, gateway: gw}
}

// Load reads the stored transcript, seeding a greeting when there is none,
// and replays it into a fresh gateway session.
func (s *ChatService) Load() ([]models.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return nil, err
	}
	return s.snapshot(), nil
}

// Messages returns the transcript, loading it on first use
func (s *ChatService) Messages() ([]models.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		if err := s.load(); err != nil {
			return nil, err
		}
	}
	return s.snapshot(), nil
}

// Send records the learner's message and the tutor's reply. Gateway
// failures become an apology turn instead of an error.
func (s *ChatService) Send(ctx context.Context, text string) (models.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.ChatMessage{}, ErrEmptyMessage
	}

	s.mu.Lock()
	if !s.loaded {
		if err := s.load(); err != nil {
			s.mu.Unlock()
			return models.ChatMessage{}, err
		}
	}
	if s.busy {
		s.mu.Unlock()
		return models.ChatMessage{}, ErrChatBusy
	}
	s.busy = true
	epoch := s.epoch
	session := s.session
	if err := s.append(newMessage(models.RoleUser, text, "")); err != nil {
		s.busy = false
		s.mu.Unlock()
		return models.ChatMessage{}, err
	}
	s.mu.Unlock()

	reply, err := session.Send(ctx, text)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch != epoch {
		return models.ChatMessage{}, ErrChatCleared
	}
	s.busy = false

	if err != nil {
		log.Printf("Chat reply failed: %v", err)
		reply = apologyText
	} else if reply == "" {
		reply = emptyReplyText
	}

	msg := newMessage(models.RoleModel, reply, "")
	if err := s.append(msg); err != nil {
		return msg, err
	}
	return msg, nil
}

// Clear resets the transcript to a single greeting and starts the gateway
// conversation over with no history. A reply still pending from before the
// clear is discarded and no longer blocks new messages. When the store
// rejects the reset nothing changes.
func (s *ChatService) Clear() ([]models.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.save([]models.ChatMessage{newMessage(models.RoleModel, restartText, restartZH)}); err != nil {
		return s.snapshot(), err
	}
	s.epoch++
	s.busy = false
	s.loaded = true
	s.session = s.gateway.StartChat(TutorInstruction, nil)
	return s.snapshot(), nil
}

// Busy reports whether a reply is outstanding
func (s *ChatService) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

func (s *ChatService) load() error {
	raw, found, err := s.store.GetValue(ChatHistoryKey)
	if err != nil {
		return fmt.Errorf("failed to load chat history: %w", err)
	}

	var messages []models.ChatMessage
	if found {
		if err := json.Unmarshal([]byte(raw), &messages); err != nil {
			log.Printf("Stored chat history is unreadable, starting over: %v", err)
			messages = nil
		}
	}

	if len(messages) == 0 {
		if err := s.save([]models.ChatMessage{newMessage(models.RoleModel, greetingText, greetingZH)}); err != nil {
			return err
		}
	} else {
		s.messages = messages
	}

	s.session = s.gateway.StartChat(TutorInstruction, toTurns(s.messages))
	s.loaded = true
	return nil
}

func (s *ChatService) append(msg models.ChatMessage) error {
	next := make([]models.ChatMessage, len(s.messages), len(s.messages)+1)
	copy(next, s.messages)
	return s.save(append(next, msg))
}

// save writes the transcript to the store, then adopts it in memory
func (s *ChatService) save(messages []models.ChatMessage) error {
	data, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("failed to encode chat history: %w", err)
	}
	if err := s.store.SetValue(ChatHistoryKey, string(data)); err != nil {
		return fmt.Errorf("failed to save chat history: %w", err)
	}
	s.messages = messages
	return nil
}

func (s *ChatService) snapshot() []models.ChatMessage {
	out := make([]models.ChatMessage, len(s.messages))
	copy(out, s.messages)
	return out
}

func toTurns(messages []models.ChatMessage) []gateway.Turn {
	turns := make([]gateway.Turn, 0, len(messages))
	for _, m := range messages {
		turns = append(turns, gateway.Turn{Role: m.Role, Text: m.Text})
	}
	return turns
}

func newMessage(role models.MessageRole, text, translation string) models.ChatMessage {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return models.ChatMessage{ID: id.String(), Role: role, Text: text, Translation: translation}
}
