package service

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"lumiere/internal/models"
)

// WordsPerLesson is credited for every completed lesson
const WordsPerLesson = 5

// StatsService owns the persisted UserStats record
type StatsService struct {
	store KeyValueStore
	loc   *time.Location
	now   func() time.Time

	mu sync.Mutex
}

// NewStatsService creates a stats service that computes calendar dates in loc
func NewStatsService(store KeyValueStore, loc *time.Location) *StatsService {
	if loc == nil {
		loc = time.Local
	}
	return &StatsService{store: store, loc: loc, now: time.Now}
}

// Today returns the current calendar date in the configured zone
func (s *StatsService) Today() string {
	return CalendarDate(s.now(), s.loc)
}

// Now returns the service clock reading
func (s *StatsService) Now() time.Time {
	return s.now()
}

// Location returns the zone calendar dates are computed in
func (s *StatsService) Location() *time.Location {
	return s.loc
}

// Load returns the stored stats with defaults filled in and the daily
// rollover applied. Any repair is written back before returning.
func (s *StatsService) Load() (models.UserStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(s.Today())
}

// Save replaces the stored record
func (s *StatsService) Save(stats models.UserStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(stats)
}

// CompleteLesson credits one finished lesson and persists the result
func (s *StatsService) CompleteLesson(completedTopicID, featuredTopicID string) (models.UserStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	today := s.Today()
	stats, err := s.load(today)
	if err != nil {
		return stats, err
	}

	stats = ApplyCompletion(stats, today, completedTopicID == featuredTopicID)
	if err := s.write(stats); err != nil {
		return stats, err
	}
	return stats, nil
}

func (s *StatsService) load(today string) (models.UserStats, error) {
	raw, found, err := s.store.GetValue(StatsKey)
	if err != nil {
		return models.DefaultUserStats(today), fmt.Errorf("failed to load stats: %w", err)
	}

	stats := models.DefaultUserStats(today)
	complete := false
	if found {
		stats, complete = MigrateStats([]byte(raw), today)
	}

	stats, rolled := ApplyRollover(stats, today)
	if !found || !complete || rolled {
		if err := s.write(stats); err != nil {
			return stats, err
		}
	}
	return stats, nil
}

func (s *StatsService) write(stats models.UserStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to encode stats: %w", err)
	}
	if err := s.store.SetValue(StatsKey, string(data)); err != nil {
		return fmt.Errorf("failed to save stats: %w", err)
	}
	return nil
}

// CalendarDate formats t as YYYY-MM-DD in loc
func CalendarDate(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(models.DateLayout)
}

// MigrateStats decodes a stored record field by field. Missing, falsy or
// wrongly typed fields take their defaults. The bool reports whether the
// record needed no repair.
func MigrateStats(raw []byte, today string) (models.UserStats, bool) {
	stats := models.DefaultUserStats(today)

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		log.Printf("Stored stats are unreadable, using defaults: %v", err)
		return stats, false
	}

	complete := true
	var streak int
	if decodeField(fields, "streak", &streak) && streak >= 1 {
		stats.Streak = streak
	} else {
		complete = false
	}

	var words int
	if decodeField(fields, "wordsLearned", &words) && words >= 0 {
		stats.WordsLearned = words
	} else {
		complete = false
	}

	var lastStudy string
	if decodeField(fields, "lastStudyDate", &lastStudy) && lastStudy != "" {
		stats.LastStudyDate = lastStudy
	} else {
		complete = false
	}

	var done bool
	if decodeField(fields, "dailyChallengeCompleted", &done) {
		stats.DailyChallengeCompleted = done
	} else {
		complete = false
	}

	var lastChallenge string
	if decodeField(fields, "lastChallengeDate", &lastChallenge) {
		stats.LastChallengeDate = lastChallenge
	} else {
		complete = false
	}

	return stats, complete
}

func decodeField(fields map[string]json.RawMessage, name string, dst interface{}) bool {
	raw, ok := fields[name]
	if !ok || string(raw) == "null" {
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}

// ApplyRollover clears a challenge flag left over from another day. The
// bool reports whether anything changed.
func ApplyRollover(stats models.UserStats, today string) (models.UserStats, bool) {
	if stats.LastChallengeDate == today {
		return stats, false
	}
	stats.DailyChallengeCompleted = false
	stats.LastChallengeDate = today
	return stats, true
}

// ApplyCompletion credits a finished lesson. The streak grows at most once
// per calendar day and the daily challenge stays done once achieved.
func ApplyCompletion(stats models.UserStats, today string, wasFeatured bool) models.UserStats {
	if stats.LastStudyDate != today {
		stats.Streak++
	}
	stats.WordsLearned += WordsPerLesson
	stats.DailyChallengeCompleted = wasFeatured || stats.DailyChallengeCompleted
	stats.LastStudyDate = today
	stats.LastChallengeDate = today
	return stats
}
