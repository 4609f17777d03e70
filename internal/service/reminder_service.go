package service

import (
	"context"
	"log"
	"sync"
	"time"

	"lumiere/internal/content"
	"lumiere/internal/models"
)

// Reminders are never sent at or after this local hour
const quietHourStart = 22

// ReminderSender delivers streak reminders
type ReminderSender interface {
	IsEnabled() bool
	SendStreakReminder(ctx context.Context, toEmail string, stats models.UserStats, daily content.Daily) error
}

// ReminderService e-mails the learner once on days they have not studied yet
type ReminderService struct {
	stats    *StatsService
	sender   ReminderSender
	to       string
	hour     int
	interval time.Duration

	mu       sync.Mutex
	lastSent string
}

func NewReminderService(stats *StatsService, sender ReminderSender, to string, hour int, interval time.Duration) *ReminderService {
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	return &ReminderService{stats: stats, sender: sender, to: to, hour: hour, interval: interval}
}

// Enabled reports whether there is anyone to remind and a way to reach them
func (r *ReminderService) Enabled() bool {
	return r.to != "" && r.sender != nil && r.sender.IsEnabled()
}

// Run checks on every tick until ctx is cancelled
func (r *ReminderService) Run(ctx context.Context) {
	if !r.Enabled() {
		log.Println("Streak reminders disabled")
		return
	}

	log.Printf("Streak reminders enabled: to=%s, after %02d:00, every %v", r.to, r.hour, r.interval)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		if _, err := r.Check(ctx); err != nil {
			log.Printf("Streak reminder failed: %v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Check sends today's reminder when it is due. It reports whether one went out.
func (r *ReminderService) Check(ctx context.Context) (bool, error) {
	if !r.Enabled() {
		return false, nil
	}

	now := r.stats.Now().In(r.stats.Location())
	if now.Hour() < r.hour || now.Hour() >= quietHourStart {
		return false, nil
	}

	today := CalendarDate(now, r.stats.Location())

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lastSent == today {
		return false, nil
	}

	stats, err := r.stats.Load()
	if err != nil {
		return false, err
	}
	if stats.LastStudyDate == today {
		return false, nil
	}

	if err := r.sender.SendStreakReminder(ctx, r.to, stats, content.Select(now)); err != nil {
		return false, err
	}
	r.lastSent = today
	return true, nil
}
