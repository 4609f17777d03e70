package models

// DateLayout is the calendar-date format used for every stored date
const DateLayout = "2006-01-02"

// UserStats is the learner's persisted progress record
type UserStats struct {
	Streak                  int    `json:"streak"`
	WordsLearned            int    `json:"wordsLearned"`
	LastStudyDate           string `json:"lastStudyDate"`
	DailyChallengeCompleted bool   `json:"dailyChallengeCompleted"`
	LastChallengeDate       string `json:"lastChallengeDate"`
}

// DefaultUserStats returns the first-run record for the given calendar date
func DefaultUserStats(today string) UserStats {
	return UserStats{
		Streak:        1,
		WordsLearned:  0,
		LastStudyDate: today,
	}
}
