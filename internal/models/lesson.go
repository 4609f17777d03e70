package models

import (
	"errors"
	"fmt"
)

var ErrInvalidLesson = errors.New("invalid lesson content")

// Topic is a static catalog entry a lesson can be generated for
type Topic struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Emoji       string `json:"emoji"`
	Color       string `json:"color"`
}

// Quote is a French saying with its Chinese rendering
type Quote struct {
	French  string `json:"french"`
	Chinese string `json:"chinese"`
}

type VocabularyItem struct {
	French           string `json:"french"`
	Chinese          string `json:"chinese"`
	Example          string `json:"example"`
	PronunciationTip string `json:"pronunciation_tip,omitempty"`
}

type GrammarPoint struct {
	Rule    string `json:"rule"`
	Example string `json:"example"`
}

type QuizQuestion struct {
	Question     string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
}

// LessonContent is one generated lesson. It lives only as long as the
// active lesson that requested it.
type LessonContent struct {
	Title        string           `json:"title"`
	Level        string           `json:"level"`
	Introduction string           `json:"introduction"`
	Vocabulary   []VocabularyItem `json:"vocabulary"`
	GrammarPoint GrammarPoint     `json:"grammar_point"`
	Quiz         []QuizQuestion   `json:"quiz"`
}

// Validate checks that the quiz can actually be answered
func (l *LessonContent) Validate() error {
	if l.Title == "" {
		return fmt.Errorf("%w: missing title", ErrInvalidLesson)
	}
	for i, q := range l.Quiz {
		if len(q.Options) == 0 {
			return fmt.Errorf("%w: question %d has no options", ErrInvalidLesson, i)
		}
		if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
			return fmt.Errorf("%w: question %d correctIndex %d out of range", ErrInvalidLesson, i, q.CorrectIndex)
		}
	}
	return nil
}
