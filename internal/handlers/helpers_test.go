package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"lumiere/internal/gateway"
	"lumiere/internal/models"
)

type memoryStore struct {
	mu     sync.Mutex
	values map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: make(map[string]string)}
}

func (m *memoryStore) GetValue(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *memoryStore) SetValue(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

type fakeSource struct{}

func (fakeSource) GenerateLesson(ctx context.Context, title string) (*models.LessonContent, error) {
	return &models.LessonContent{
		Title: title,
		Quiz: []models.QuizQuestion{
			{Question: "Un café ?", Options: []string{"咖啡", "茶"}, CorrectIndex: 0},
			{Question: "Un thé ?", Options: []string{"咖啡", "茶"}, CorrectIndex: 1},
		},
	}, nil
}

type fakeStats struct {
	mu        sync.Mutex
	completed []string
}

func (f *fakeStats) CompleteLesson(completedTopicID, featuredTopicID string) (models.UserStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed = append(f.completed, completedTopicID)
	return models.UserStats{Streak: 1, WordsLearned: 5 * len(f.completed)}, nil
}

type fakeChat struct {
	reply string
}

func (c *fakeChat) Send(ctx context.Context, message string) (string, error) {
	return c.reply, nil
}

type fakeGateway struct {
	reply string
}

func (g *fakeGateway) StartChat(system string, history []gateway.Turn) gateway.Chat {
	return &fakeChat{reply: g.reply}
}

type fakeSynth struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeSynth) SynthesizeSpeech(ctx context.Context, text string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []byte{0, 1, 2, 3}, nil
}

func newRequest(method, target, body string) *http.Request {
	if body == "" {
		return httptest.NewRequest(method, target, nil)
	}
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	if err := json.NewDecoder(strings.NewReader(rec.Body.String())).Decode(dst); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
}
