package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"personal-calendar/internal/mail"
	"personal-calendar/internal/model"
	"personal-calendar/internal/store"
)

const Subject = "【日程提醒】"

// Scanner periodically looks for events whose start has passed and mails
// their owners. Failed sends stay pending and are retried every cycle.
type Scanner struct {
	repo     store.Reminders
	sender   mail.Sender
	log      *zap.Logger
	schedule cron.Schedule
	now      func() time.Time
}

// New parses spec as a cron schedule ("@every 1m", "*/5 * * * *").
func New(repo store.Reminders, sender mail.Sender, log *zap.Logger, spec string) (*Scanner, error) {
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("reminder schedule %q: %w", spec, err)
	}
	return &Scanner{
		repo:     repo,
		sender:   sender,
		log:      log,
		schedule: sched,
		now:      time.Now,
	}, nil
}

// Run scans immediately and then waits for the next scheduled time after
// each scan completes, until ctx is cancelled.
func (s *Scanner) Run(ctx context.Context) {
	s.log.Info("reminder scanner started")
	for {
		s.cycle(ctx)

		wait := time.Until(s.schedule.Next(s.now()))
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.log.Info("reminder scanner stopping")
			return
		case <-timer.C:
		}
	}
}

// cycle runs one scan and keeps the loop alive whatever happens inside.
func (s *Scanner) cycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("reminder scan panicked", zap.Any("panic", r))
		}
	}()
	if _, err := s.Scan(ctx, s.now()); err != nil {
		s.log.Error("reminder scan failed", zap.Error(err))
	}
}

// Scan sends one reminder per due event and returns how many were marked.
// A failed send does not affect the other events of the same scan.
func (s *Scanner) Scan(ctx context.Context, now time.Time) (int, error) {
	stamp := model.FormatTimestamp(now)

	due, err := s.repo.ListDueReminders(ctx, stamp)
	if err != nil {
		return 0, fmt.Errorf("list due: %w", err)
	}

	sent := 0
	for _, d := range due {
		if ctx.Err() != nil {
			return sent, ctx.Err()
		}
		if err := s.sender.Send(ctx, Subject, Body(d.Title, stamp), d.Email); err != nil {
			s.log.Warn("reminder send failed",
				zap.Error(err), zap.Int64("event_id", d.EventID), zap.String("to", d.Email))
			continue
		}
		if err := s.repo.MarkReminded(ctx, d.EventID); err != nil {
			s.log.Error("mark reminded failed", zap.Error(err), zap.Int64("event_id", d.EventID))
			continue
		}
		sent++
		s.log.Info("reminder sent", zap.Int64("event_id", d.EventID), zap.String("to", d.Email))
	}
	return sent, nil
}

func Body(title, at string) string {
	return fmt.Sprintf("您有一个即将开始的日程:\n\n标题: %s\n时间: %s", title, at)
}
