package scheduler

import (
	"context"
	"fmt"
	"time"

	"clonedirect/internal/domain"
	"go.uber.org/zap"
)

type sessionStore interface {
	DeleteIdle(ctx context.Context, olderThan time.Time) (int64, error)
}

type orderLedger interface {
	ListPendingOlderThan(ctx context.Context, cutoff time.Time) ([]domain.Order, error)
}

type notifier interface {
	NotifyOperator(ctx context.Context, e domain.NotifyOperator) error
}

// Config tunes the two maintenance jobs.
type Config struct {
	IdleThreshold    time.Duration // sessions idle longer than this are reaped
	ReaperInterval   time.Duration
	ReminderInterval time.Duration
	ReminderAge      time.Duration // pending orders older than this get a reminder
}

// Scheduler runs the abandoned-session reaper and the stale-order reminder
// on independent timers. Jobs never touch a live session directly; the
// session store's upsert-on-save makes a reap racing a live turn harmless.
type Scheduler struct {
	sessions sessionStore
	ledger   orderLedger
	notify   notifier
	logger   *zap.Logger
	cfg      Config
	now      func() time.Time
}

func New(sessions sessionStore, ledger orderLedger, notify notifier, logger *zap.Logger, cfg Config) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.IdleThreshold == 0 {
		cfg.IdleThreshold = time.Hour
	}
	if cfg.ReaperInterval == 0 {
		cfg.ReaperInterval = time.Hour
	}
	if cfg.ReminderInterval == 0 {
		cfg.ReminderInterval = 48 * time.Hour
	}
	if cfg.ReminderAge == 0 {
		cfg.ReminderAge = 48 * time.Hour
	}
	return &Scheduler{
		sessions: sessions,
		ledger:   ledger,
		notify:   notify,
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Run blocks until ctx is done, firing both jobs on their intervals.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info("scheduler started",
		zap.Duration("reaper_interval", s.cfg.ReaperInterval),
		zap.Duration("reminder_interval", s.cfg.ReminderInterval))

	reapTicker := time.NewTicker(s.cfg.ReaperInterval)
	defer reapTicker.Stop()
	remindTicker := time.NewTicker(s.cfg.ReminderInterval)
	defer remindTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopping")
			return
		case <-reapTicker.C:
			if _, err := s.ReapIdleSessions(ctx); err != nil {
				s.logger.Error("session reap failed", zap.Error(err))
			}
		case <-remindTicker.C:
			if _, err := s.RemindStaleOrders(ctx); err != nil {
				s.logger.Error("stale-order reminder failed", zap.Error(err))
			}
		}
	}
}

// ReapIdleSessions deletes sessions idle past the threshold and reports how
// many were removed.
func (s *Scheduler) ReapIdleSessions(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.cfg.IdleThreshold)
	removed, err := s.sessions.DeleteIdle(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("reap idle sessions: %w", err)
	}
	if removed > 0 {
		s.logger.Info("reaped idle sessions", zap.Int64("count", removed))
	}
	return removed, nil
}

// RemindStaleOrders sends one operator reminder per pending order older than
// the reminder age. A failed send for one order never blocks the rest; the
// reminder never mutates order status.
func (s *Scheduler) RemindStaleOrders(ctx context.Context) (int, error) {
	stale, err := s.ledger.ListPendingOlderThan(ctx, s.now().Add(-s.cfg.ReminderAge))
	if err != nil {
		return 0, fmt.Errorf("list stale orders: %w", err)
	}

	sent := 0
	for _, o := range stale {
		note := domain.NotifyOperator{
			Text: fmt.Sprintf("Reminder: order #%d from %s is still pending since %s (total %s).",
				o.ID, o.ContactHandle, o.CreatedAt.Format("2006-01-02"), o.Total.StringFixed(2)),
		}
		if err := s.notify.NotifyOperator(ctx, note); err != nil {
			s.logger.Warn("reminder send failed",
				zap.Int64("order_id", o.ID), zap.Error(err))
			continue
		}
		sent++
	}

	if len(stale) > 0 {
		s.logger.Info("stale-order reminders sent",
			zap.Int("stale", len(stale)), zap.Int("sent", sent))
	}
	return sent, nil
}
