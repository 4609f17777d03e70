package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"lumiere/internal/models"
)

var (
	cafe   = models.Topic{ID: "cafe", Title: "在咖啡馆"}
	travel = models.Topic{ID: "travel", Title: "旅行"}
)

func testLesson() *models.LessonContent {
	return &models.LessonContent{
		Title: "Au café",
		Quiz: []models.QuizQuestion{
			{Question: "Un café ?", Options: []string{"咖啡", "茶"}, CorrectIndex: 0},
			{Question: "Un thé ?", Options: []string{"咖啡", "茶"}, CorrectIndex: 1},
		},
	}
}

// fakeSource answers immediately unless a gate is set for the topic title
type fakeSource struct {
	mu    sync.Mutex
	err   error
	gates map[string]chan struct{}
	ctxs  []context.Context
}

func (f *fakeSource) GenerateLesson(ctx context.Context, title string) (*models.LessonContent, error) {
	f.mu.Lock()
	f.ctxs = append(f.ctxs, ctx)
	gate := f.gates[title]
	err := f.err
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	l := testLesson()
	l.Title = title
	return l, nil
}

type fakeStats struct {
	calls     int
	completed []string
	featured  []string
	err       error
}

func (f *fakeStats) CompleteLesson(completedTopicID, featuredTopicID string) (models.UserStats, error) {
	f.calls++
	f.completed = append(f.completed, completedTopicID)
	f.featured = append(f.featured, featuredTopicID)
	if f.err != nil {
		return models.UserStats{}, f.err
	}
	return models.UserStats{Streak: 2, WordsLearned: 5 * f.calls}, nil
}

func newTestSession(src *fakeSource, stats *fakeStats) *Session {
	return New(src, stats, func() models.Topic { return travel }, time.Second)
}

func wait(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("lesson fetch did not settle")
	}
}

// readyAtQuiz selects cafe and walks to the quiz step
func readyAtQuiz(t *testing.T, s *Session) {
	t.Helper()
	wait(t, s.SelectTopic(context.Background(), cafe))
	for i := 0; i < 3; i++ {
		if _, err := s.Next(); err != nil {
			t.Fatalf("Next() error = %v", err)
		}
	}
}

func TestInitialState(t *testing.T) {
	s := newTestSession(&fakeSource{}, &fakeStats{})
	snap := s.Snapshot()
	if snap.View != ViewHome || snap.Lesson != nil {
		t.Errorf("initial snapshot = %+v", snap)
	}
}

func TestNavigate(t *testing.T) {
	s := newTestSession(&fakeSource{}, &fakeStats{})

	for _, v := range []View{ViewChat, ViewProfile, ViewHome} {
		if err := s.Navigate(v); err != nil {
			t.Fatalf("Navigate(%s) error = %v", v, err)
		}
		if s.View() != v {
			t.Errorf("View() = %s, want %s", s.View(), v)
		}
	}

	if err := s.Navigate(ViewLesson); !errors.Is(err, ErrInvalidView) {
		t.Errorf("Navigate(LESSON) error = %v, want ErrInvalidView", err)
	}
}

func TestSelectTopicLoadsLesson(t *testing.T) {
	src := &fakeSource{gates: map[string]chan struct{}{cafe.Title: make(chan struct{})}}
	s := newTestSession(src, &fakeStats{})

	done := s.SelectTopic(context.Background(), cafe)
	lesson, err := s.Lesson()
	if err != nil {
		t.Fatalf("Lesson() error = %v", err)
	}
	if s.View() != ViewLesson || lesson.Status != StatusLoading || lesson.Step != StepIntro {
		t.Errorf("while loading: view %s, lesson %+v", s.View(), lesson)
	}
	if _, err := s.Next(); !errors.Is(err, ErrLessonNotReady) {
		t.Errorf("Next() while loading error = %v, want ErrLessonNotReady", err)
	}

	close(src.gates[cafe.Title])
	wait(t, done)

	lesson, _ = s.Lesson()
	if lesson.Status != StatusReady || lesson.Content == nil || lesson.Content.Title != cafe.Title {
		t.Errorf("after load: %+v", lesson)
	}
}

func TestSelectTopicFailure(t *testing.T) {
	s := newTestSession(&fakeSource{err: errors.New("bad key")}, &fakeStats{})

	wait(t, s.SelectTopic(context.Background(), cafe))

	lesson, err := s.Lesson()
	if err != nil {
		t.Fatalf("Lesson() error = %v", err)
	}
	if lesson.Status != StatusFailed || lesson.Error != LoadErrorMessage {
		t.Errorf("failed lesson = %+v", lesson)
	}
	if _, err := s.Next(); !errors.Is(err, ErrLessonNotReady) {
		t.Errorf("Next() on failed lesson error = %v", err)
	}
	if err := s.Back(); err != nil {
		t.Fatalf("Back() error = %v", err)
	}
	if s.View() != ViewHome {
		t.Error("Back() should return home")
	}
}

func TestStaleFetchIsDropped(t *testing.T) {
	src := &fakeSource{gates: map[string]chan struct{}{cafe.Title: make(chan struct{})}}
	s := newTestSession(src, &fakeStats{})

	first := s.SelectTopic(context.Background(), cafe)
	second := s.SelectTopic(context.Background(), travel)
	wait(t, second)
	wait(t, first)

	lesson, _ := s.Lesson()
	if lesson.Topic.ID != travel.ID || lesson.Content.Title != travel.Title {
		t.Errorf("active lesson = %+v, want travel", lesson)
	}

	src.mu.Lock()
	defer src.mu.Unlock()
	if src.ctxs[0].Err() == nil {
		t.Error("superseded fetch should be cancelled")
	}
}

func TestWizardSteps(t *testing.T) {
	s := newTestSession(&fakeSource{}, &fakeStats{})
	wait(t, s.SelectTopic(context.Background(), cafe))

	if _, err := s.GoTo(StepGrammar); !errors.Is(err, ErrStepLocked) {
		t.Errorf("GoTo(GRAMMAR) before unlock error = %v, want ErrStepLocked", err)
	}

	lesson, err := s.Next()
	if err != nil || lesson.Step != StepVocab || lesson.Unlocked != StepVocab {
		t.Fatalf("Next() = %+v, %v", lesson, err)
	}
	lesson, _ = s.Next()
	if lesson.Step != StepGrammar {
		t.Fatalf("step = %s, want GRAMMAR", lesson.Step)
	}

	lesson, err = s.GoTo(StepIntro)
	if err != nil || lesson.Step != StepIntro || lesson.Unlocked != StepGrammar {
		t.Errorf("GoTo(INTRO) = %+v, %v", lesson, err)
	}
	lesson, err = s.GoTo(StepGrammar)
	if err != nil || lesson.Step != StepGrammar {
		t.Errorf("GoTo(GRAMMAR) = %+v, %v", lesson, err)
	}

	if _, err := s.GoTo(Step(7)); !errors.Is(err, ErrInvalidStep) {
		t.Errorf("GoTo(7) error = %v, want ErrInvalidStep", err)
	}

	lesson, _ = s.Next()
	if lesson.Step != StepQuiz || lesson.StepName != "QUIZ" {
		t.Errorf("step = %+v, want QUIZ", lesson)
	}
	if _, err := s.Next(); !errors.Is(err, ErrNoNextStep) {
		t.Errorf("Next() at quiz error = %v, want ErrNoNextStep", err)
	}

	// reselecting starts over at the intro
	wait(t, s.SelectTopic(context.Background(), cafe))
	lesson, _ = s.Lesson()
	if lesson.Step != StepIntro || lesson.Unlocked != StepIntro || len(lesson.Answers) != 0 {
		t.Errorf("fresh lesson = %+v", lesson)
	}
}

func TestAnswerIsOneShot(t *testing.T) {
	s := newTestSession(&fakeSource{}, &fakeStats{})
	wait(t, s.SelectTopic(context.Background(), cafe))

	if _, err := s.Answer(0, 0); !errors.Is(err, ErrNotOnQuiz) {
		t.Errorf("Answer() before quiz error = %v, want ErrNotOnQuiz", err)
	}

	for i := 0; i < 3; i++ {
		s.Next()
	}

	lesson, err := s.Answer(0, 1)
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if lesson.Answers[0] != 1 || lesson.Correct[0] {
		t.Errorf("after wrong answer: answers %v correct %v", lesson.Answers, lesson.Correct)
	}

	lesson, err = s.Answer(0, 0)
	if err != nil {
		t.Fatalf("repeat Answer() error = %v", err)
	}
	if lesson.Answers[0] != 1 {
		t.Error("a recorded answer must not change")
	}

	tests := []struct{ q, o int }{{-1, 0}, {2, 0}, {1, 2}, {1, -1}}
	for _, tt := range tests {
		if _, err := s.Answer(tt.q, tt.o); !errors.Is(err, ErrInvalidAnswer) {
			t.Errorf("Answer(%d, %d) error = %v, want ErrInvalidAnswer", tt.q, tt.o, err)
		}
	}
}

func TestFinishLessonCreditsOnce(t *testing.T) {
	stats := &fakeStats{}
	s := newTestSession(&fakeSource{}, stats)
	readyAtQuiz(t, s)

	s.Answer(0, 0)
	lesson, _ := s.Answer(1, 1)
	if !lesson.Complete {
		t.Fatal("lesson should be complete after answering every question")
	}

	result, err := s.FinishLesson()
	if err != nil {
		t.Fatalf("FinishLesson() error = %v", err)
	}
	if !result.Credited || result.Stats == nil {
		t.Errorf("FinishLesson() = %+v, want credit", result)
	}
	if stats.calls != 1 || stats.completed[0] != "cafe" || stats.featured[0] != "travel" {
		t.Errorf("stats calls = %d completed %v featured %v", stats.calls, stats.completed, stats.featured)
	}
	if s.View() != ViewHome {
		t.Error("FinishLesson() should return home")
	}
	if _, err := s.Lesson(); !errors.Is(err, ErrNoLesson) {
		t.Error("lesson should be cleared after finishing")
	}
	if _, err := s.FinishLesson(); !errors.Is(err, ErrNoLesson) {
		t.Errorf("second FinishLesson() error = %v, want ErrNoLesson", err)
	}
	if stats.calls != 1 {
		t.Errorf("lesson credited %d times, want 1", stats.calls)
	}
}

func TestFinishLessonWithoutAllAnswers(t *testing.T) {
	stats := &fakeStats{}
	s := newTestSession(&fakeSource{}, stats)
	readyAtQuiz(t, s)
	s.Answer(0, 0)

	result, err := s.FinishLesson()
	if err != nil {
		t.Fatalf("FinishLesson() error = %v", err)
	}
	if result.Credited || stats.calls != 0 {
		t.Error("partial quiz must not be credited")
	}
	if s.View() != ViewHome {
		t.Error("FinishLesson() should still return home")
	}
}

func TestFinishLessonStatsError(t *testing.T) {
	stats := &fakeStats{err: errors.New("disk full")}
	s := newTestSession(&fakeSource{}, stats)
	readyAtQuiz(t, s)
	s.Answer(0, 0)
	s.Answer(1, 0)

	if _, err := s.FinishLesson(); err == nil {
		t.Error("stats failure should be reported")
	}
	if s.View() != ViewHome {
		t.Error("FinishLesson() should return home even when stats fail")
	}
}

func TestLeavingLessonDiscardsIt(t *testing.T) {
	stats := &fakeStats{}
	s := newTestSession(&fakeSource{}, stats)
	readyAtQuiz(t, s)
	s.Answer(0, 0)
	s.Answer(1, 1)

	if err := s.Navigate(ViewChat); err != nil {
		t.Fatalf("Navigate() error = %v", err)
	}
	if _, err := s.Lesson(); !errors.Is(err, ErrNoLesson) {
		t.Error("navigating away should discard the lesson")
	}
	if stats.calls != 0 {
		t.Error("abandoned lesson must not be credited")
	}
	if err := s.Back(); !errors.Is(err, ErrNoLesson) {
		t.Errorf("Back() without lesson error = %v, want ErrNoLesson", err)
	}
}

func TestBackCancelsPendingFetch(t *testing.T) {
	src := &fakeSource{gates: map[string]chan struct{}{cafe.Title: make(chan struct{})}}
	s := newTestSession(src, &fakeStats{})

	done := s.SelectTopic(context.Background(), cafe)
	if err := s.Back(); err != nil {
		t.Fatalf("Back() error = %v", err)
	}
	wait(t, done)

	if s.View() != ViewHome {
		t.Errorf("view = %s, want HOME", s.View())
	}
	if _, err := s.Lesson(); !errors.Is(err, ErrNoLesson) {
		t.Error("cancelled fetch must not resurrect the lesson")
	}
}

func TestFetchTimeout(t *testing.T) {
	src := &fakeSource{gates: map[string]chan struct{}{cafe.Title: make(chan struct{})}}
	s := New(src, &fakeStats{}, func() models.Topic { return travel }, 20*time.Millisecond)

	wait(t, s.SelectTopic(context.Background(), cafe))

	lesson, _ := s.Lesson()
	if lesson.Status != StatusFailed {
		t.Errorf("status = %s, want failed after timeout", lesson.Status)
	}
}

func TestRequestContextDoesNotCancelFetch(t *testing.T) {
	src := &fakeSource{}
	s := newTestSession(src, &fakeStats{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	wait(t, s.SelectTopic(ctx, cafe))

	lesson, _ := s.Lesson()
	if lesson.Status != StatusReady {
		t.Errorf("status = %s, want ready", lesson.Status)
	}
}

func TestParseStepAndView(t *testing.T) {
	tests := []struct {
		in      string
		want    Step
		wantErr bool
	}{
		{"0", StepIntro, false},
		{"3", StepQuiz, false},
		{"grammar", StepGrammar, false},
		{"VOCAB", StepVocab, false},
		{"4", 0, true},
		{"outro", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseStep(tt.in)
		if (err != nil) != tt.wantErr || (!tt.wantErr && got != tt.want) {
			t.Errorf("ParseStep(%q) = %v, %v", tt.in, got, err)
		}
	}

	if v, err := ParseView("chat"); err != nil || v != ViewChat {
		t.Errorf("ParseView(chat) = %v, %v", v, err)
	}
	if _, err := ParseView("settings"); !errors.Is(err, ErrInvalidView) {
		t.Errorf("ParseView(settings) error = %v", err)
	}
}
