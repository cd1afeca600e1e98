// Package reminder schedules daily spoken reminders.
package reminder

import (
	"errors"
	"fmt"
	"sync"
	"time"

	cronlib "github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var ErrInvalidClock = errors.New("time must be HH:MM")

type entry struct {
	owner string
	label string
	id    cronlib.EntryID
}

// Scheduler runs reminders on a cron loop. Every reminder belongs to an
// owner, usually a conversation, and is dropped with RemoveOwner.
type Scheduler struct {
	cron   *cronlib.Cron
	logger *zap.Logger

	mu      sync.Mutex
	entries []entry
}

// NewScheduler creates and starts a scheduler in the given location
func NewScheduler(loc *time.Location, logger *zap.Logger) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	c := cronlib.New(cronlib.WithLocation(loc))
	c.Start()
	return &Scheduler{cron: c, logger: logger}
}

// ParseClock validates a 24h "HH:MM" time
func ParseClock(clock string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return 0, 0, ErrInvalidClock
	}
	return t.Hour(), t.Minute(), nil
}

// Add schedules notify to run every day at clock on behalf of owner
func (s *Scheduler) Add(owner, label, clock string, notify func(label string)) error {
	hour, minute, err := ParseClock(clock)
	if err != nil {
		return err
	}

	schedule := fmt.Sprintf("%d %d * * *", minute, hour)
	id, err := s.cron.AddFunc(schedule, func() {
		s.logger.Info("Reminder fired", zap.String("owner", owner), zap.String("label", label), zap.String("clock", clock))
		notify(label)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule reminder: %w", err)
	}

	s.mu.Lock()
	s.entries = append(s.entries, entry{owner: owner, label: label, id: id})
	s.mu.Unlock()

	s.logger.Info("Reminder scheduled",
		zap.String("owner", owner),
		zap.String("label", label),
		zap.String("schedule", schedule))
	return nil
}

// RemoveOwner unschedules every reminder of owner and returns how many
// were removed. A job already running is allowed to finish.
func (s *Scheduler) RemoveOwner(owner string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.entries[:0]
	removed := 0
	for _, e := range s.entries {
		if e.owner != owner {
			kept = append(kept, e)
			continue
		}
		s.cron.Remove(e.id)
		removed++
	}
	clear(s.entries[len(kept):])
	s.entries = kept

	if removed > 0 {
		s.logger.Info("Reminders removed", zap.String("owner", owner), zap.Int("count", removed))
	}
	return removed
}

// Stop halts the cron loop and waits for running reminders to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
