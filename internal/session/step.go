package session

import (
	"fmt"
	"strconv"
	"strings"
)

// View is a top-level screen
type View string

const (
	ViewHome    View = "HOME"
	ViewLesson  View = "LESSON"
	ViewChat    View = "CHAT"
	ViewProfile View = "PROFILE"
)

// ParseView accepts a view name in any case
func ParseView(s string) (View, error) {
	v := View(strings.ToUpper(strings.TrimSpace(s)))
	switch v {
	case ViewHome, ViewLesson, ViewChat, ViewProfile:
		return v, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidView, s)
}

// Step is a stage of the lesson wizard
type Step int

const (
	StepIntro Step = iota
	StepVocab
	StepGrammar
	StepQuiz
)

var stepNames = [...]string{"INTRO", "VOCAB", "GRAMMAR", "QUIZ"}

// nextStep is the forward edge out of every step that has one
var nextStep = map[Step]Step{
	StepIntro:   StepVocab,
	StepVocab:   StepGrammar,
	StepGrammar: StepQuiz,
}

func (s Step) Valid() bool {
	return s >= StepIntro && s <= StepQuiz
}

func (s Step) String() string {
	if !s.Valid() {
		return "Step(" + strconv.Itoa(int(s)) + ")"
	}
	return stepNames[s]
}

// ParseStep accepts a step index or name
func ParseStep(s string) (Step, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if step := Step(n); step.Valid() {
			return step, nil
		}
		return 0, fmt.Errorf("%w: %q", ErrInvalidStep, s)
	}
	for i, name := range stepNames {
		if strings.EqualFold(name, s) {
			return Step(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidStep, s)
}
