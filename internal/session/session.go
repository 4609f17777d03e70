// Package session holds the learner's navigation state: the current view
// and, while in a lesson, the four-step wizard with its quiz answers.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"lumiere/internal/models"
)

var (
	ErrInvalidView    = errors.New("invalid view")
	ErrInvalidStep    = errors.New("invalid step")
	ErrStepLocked     = errors.New("step is not unlocked yet")
	ErrNoNextStep     = errors.New("already at the last step")
	ErrNoLesson       = errors.New("no active lesson")
	ErrLessonNotReady = errors.New("lesson is not ready")
	ErrNotOnQuiz      = errors.New("answers are only accepted on the quiz step")
	ErrInvalidAnswer  = errors.New("invalid answer")
)

// LoadErrorMessage is shown when a lesson cannot be generated
const LoadErrorMessage = "无法加载课程。请检查您的 API 密钥。"

const defaultFetchTimeout = 90 * time.Second

// LessonStatus tracks the lesson fetch
type LessonStatus string

const (
	StatusLoading LessonStatus = "loading"
	StatusReady   LessonStatus = "ready"
	StatusFailed  LessonStatus = "failed"
)

// LessonSource generates lesson content for a topic title
type LessonSource interface {
	GenerateLesson(ctx context.Context, topicTitle string) (*models.LessonContent, error)
}

// StatsRecorder credits finished lessons
type StatsRecorder interface {
	CompleteLesson(completedTopicID, featuredTopicID string) (models.UserStats, error)
}

type lesson struct {
	seq      uint64
	topic    models.Topic
	status   LessonStatus
	content  *models.LessonContent
	errMsg   string
	step     Step
	unlocked Step
	answers  map[int]int
	credited bool
	cancel   context.CancelFunc
}

// Session is the single learner's view state. All transitions are
// serialized; gateway calls run without holding the lock.
type Session struct {
	source       LessonSource
	stats        StatsRecorder
	featured     func() models.Topic
	fetchTimeout time.Duration

	mu     sync.Mutex
	view   View
	lesson *lesson
	seq    uint64
}

// New creates a session on the home view. featured reports today's
// daily-challenge topic at the moment a lesson is finished.
func New(source LessonSource, stats StatsRecorder, featured func() models.Topic, fetchTimeout time.Duration) *Session {
	if fetchTimeout <= 0 {
		fetchTimeout = defaultFetchTimeout
	}
	return &Session{
		source:       source,
		stats:        stats,
		featured:     featured,
		fetchTimeout: fetchTimeout,
		view:         ViewHome,
	}
}

// View returns the current top-level view
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// Navigate switches to a bottom-navigation view. Leaving a lesson this way
// discards it without credit.
func (s *Session) Navigate(v View) error {
	if v != ViewHome && v != ViewChat && v != ViewProfile {
		return fmt.Errorf("%w: %s is not reachable from navigation", ErrInvalidView, v)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.discardLesson()
	s.view = v
	return nil
}

// SelectTopic enters a fresh lesson for topic and starts fetching its
// content. The returned channel is closed once the fetch settles.
func (s *Session) SelectTopic(ctx context.Context, topic models.Topic) <-chan struct{} {
	s.mu.Lock()
	s.discardLesson()
	s.seq++
	seq := s.seq

	fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.fetchTimeout)
	s.lesson = &lesson{
		seq:     seq,
		topic:   topic,
		status:  StatusLoading,
		step:    StepIntro,
		answers: make(map[int]int),
		cancel:  cancel,
	}
	s.view = ViewLesson
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer cancel()

		content, err := s.source.GenerateLesson(fetchCtx, topic.Title)

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.lesson == nil || s.lesson.seq != seq {
			log.Printf("Dropping stale lesson result for %s", topic.ID)
			return
		}
		if err != nil {
			log.Printf("Failed to load lesson for %s: %v", topic.ID, err)
			s.lesson.status = StatusFailed
			s.lesson.errMsg = LoadErrorMessage
			return
		}
		s.lesson.status = StatusReady
		s.lesson.content = content
	}()
	return done
}

// Lesson returns the active lesson
func (s *Session) Lesson() (LessonSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lesson == nil {
		return LessonSnapshot{}, ErrNoLesson
	}
	return s.lesson.snapshot(), nil
}

// Next advances the wizard one step and unlocks it
func (s *Session) Next() (LessonSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.readyLesson()
	if err != nil {
		return LessonSnapshot{}, err
	}
	to, ok := nextStep[l.step]
	if !ok {
		return l.snapshot(), ErrNoNextStep
	}
	l.step = to
	if to > l.unlocked {
		l.unlocked = to
	}
	return l.snapshot(), nil
}

// GoTo jumps to any step already unlocked
func (s *Session) GoTo(step Step) (LessonSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.readyLesson()
	if err != nil {
		return LessonSnapshot{}, err
	}
	if !step.Valid() {
		return l.snapshot(), ErrInvalidStep
	}
	if step > l.unlocked {
		return l.snapshot(), ErrStepLocked
	}
	l.step = step
	return l.snapshot(), nil
}

// Answer records the chosen option for a quiz question. A question keeps
// its first answer; later answers are ignored.
func (s *Session) Answer(question, option int) (LessonSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.readyLesson()
	if err != nil {
		return LessonSnapshot{}, err
	}
	if l.step != StepQuiz {
		return l.snapshot(), ErrNotOnQuiz
	}
	if question < 0 || question >= len(l.content.Quiz) {
		return l.snapshot(), fmt.Errorf("%w: no question %d", ErrInvalidAnswer, question)
	}
	if option < 0 || option >= len(l.content.Quiz[question].Options) {
		return l.snapshot(), fmt.Errorf("%w: no option %d", ErrInvalidAnswer, option)
	}
	if _, answered := l.answers[question]; !answered {
		l.answers[question] = option
	}
	return l.snapshot(), nil
}

// FinishResult reports what FinishLesson did
type FinishResult struct {
	Credited bool              `json:"credited"`
	Stats    *models.UserStats `json:"stats,omitempty"`
}

// FinishLesson credits the lesson once when every question is answered and
// always returns home.
func (s *Session) FinishLesson() (FinishResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.lesson
	if l == nil {
		return FinishResult{}, ErrNoLesson
	}

	var result FinishResult
	var err error
	if l.status == StatusReady && l.allAnswered() && !l.credited {
		l.credited = true
		stats, cerr := s.stats.CompleteLesson(l.topic.ID, s.featured().ID)
		if cerr != nil {
			err = fmt.Errorf("failed to record lesson completion: %w", cerr)
		} else {
			result = FinishResult{Credited: true, Stats: &stats}
		}
	}

	s.discardLesson()
	s.view = ViewHome
	return result, err
}

// Back abandons the lesson and returns home
func (s *Session) Back() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lesson == nil {
		return ErrNoLesson
	}
	s.discardLesson()
	s.view = ViewHome
	return nil
}

// Snapshot is the full navigation state
type Snapshot struct {
	View   View            `json:"view"`
	Lesson *LessonSnapshot `json:"lesson,omitempty"`
}

// Snapshot returns the current view and a copy of the active lesson state
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{View: s.view}
	if s.lesson != nil {
		ls := s.lesson.snapshot()
		snap.Lesson = &ls
	}
	return snap
}

func (s *Session) readyLesson() (*lesson, error) {
	if s.lesson == nil {
		return nil, ErrNoLesson
	}
	if s.lesson.status != StatusReady {
		return nil, ErrLessonNotReady
	}
	return s.lesson, nil
}

// discardLesson drops the active lesson and cancels its fetch if pending
func (s *Session) discardLesson() {
	if s.lesson == nil {
		return
	}
	if s.lesson.cancel != nil {
		s.lesson.cancel()
	}
	s.lesson = nil
}

func (l *lesson) allAnswered() bool {
	return l.content != nil && len(l.answers) == len(l.content.Quiz)
}

// LessonSnapshot is a copy of the active lesson safe to hand out
type LessonSnapshot struct {
	Topic    models.Topic          `json:"topic"`
	Status   LessonStatus          `json:"status"`
	Error    string                `json:"error,omitempty"`
	Step     Step                  `json:"step"`
	StepName string                `json:"stepName"`
	Unlocked Step                  `json:"unlocked"`
	Content  *models.LessonContent `json:"content,omitempty"`
	Answers  map[int]int           `json:"answers"`
	Correct  map[int]bool          `json:"correct"`
	Complete bool                  `json:"complete"`
}

func (l *lesson) snapshot() LessonSnapshot {
	snap := LessonSnapshot{
		Topic:    l.topic,
		Status:   l.status,
		Error:    l.errMsg,
		Step:     l.step,
		StepName: l.step.String(),
		Unlocked: l.unlocked,
		Content:  l.content,
		Answers:  make(map[int]int, len(l.answers)),
		Correct:  make(map[int]bool, len(l.answers)),
		Complete: l.allAnswered(),
	}
	for q, opt := range l.answers {
		snap.Answers[q] = opt
		snap.Correct[q] = l.content.Quiz[q].CorrectIndex == opt
	}
	return snap
}
