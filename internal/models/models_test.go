package models

import (
	"errors"
	"testing"
)

func TestLessonContentValidate(t *testing.T) {
	valid := func() LessonContent {
		return LessonContent{
			Title: "Au café",
			Quiz: []QuizQuestion{
				{Question: "Un café, s'il vous plaît ?", Options: []string{"咖啡", "茶"}, CorrectIndex: 0},
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*LessonContent)
		wantErr bool
	}{
		{name: "valid lesson", mutate: func(*LessonContent) {}},
		{name: "no quiz is allowed", mutate: func(l *LessonContent) { l.Quiz = nil }},
		{name: "missing title", mutate: func(l *LessonContent) { l.Title = "" }, wantErr: true},
		{name: "no options", mutate: func(l *LessonContent) { l.Quiz[0].Options = nil }, wantErr: true},
		{name: "index too large", mutate: func(l *LessonContent) { l.Quiz[0].CorrectIndex = 2 }, wantErr: true},
		{name: "negative index", mutate: func(l *LessonContent) { l.Quiz[0].CorrectIndex = -1 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lesson := valid()
			tt.mutate(&lesson)
			err := lesson.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidLesson) {
				t.Errorf("Validate() error should wrap ErrInvalidLesson, got %v", err)
			}
		})
	}
}

func TestMessageRoleValid(t *testing.T) {
	for _, r := range []MessageRole{RoleUser, RoleModel} {
		if !r.Valid() {
			t.Errorf("%q should be valid", r)
		}
	}
	if MessageRole("assistant").Valid() {
		t.Error("unknown role should not be valid")
	}
}

func TestDefaultUserStats(t *testing.T) {
	s := DefaultUserStats("2024-01-02")
	want := UserStats{Streak: 1, LastStudyDate: "2024-01-02"}
	if s != want {
		t.Errorf("DefaultUserStats() = %+v, want %+v", s, want)
	}
}
