package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bnema/claude-voice/internal/domain"
	"github.com/bnema/claude-voice/internal/logging"
	"github.com/bnema/claude-voice/internal/ports"
)

const (
	ContextReminder = "reminder"

	defaultReminderCheckInterval = time.Minute
)

var (
	reminderLog = logging.ForComponent(logging.CompReminder)

	ErrInvalidInterval = errors.New("reminder interval must be a positive number of minutes")
)

type Reminder struct {
	Count   int
	Message string
	At      time.Time
	Result  SendResult
}

type ReminderCheck struct {
	Reminded  bool
	Reminder  Reminder
	Remaining time.Duration
}

type ReminderService struct {
	projects      ports.ProjectConfigStore
	router        *Router
	clock         ports.Clock
	checkInterval time.Duration
}

func NewReminderService(projects ports.ProjectConfigStore, router *Router, clock ports.Clock, checkInterval time.Duration) *ReminderService {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if checkInterval <= 0 {
		checkInterval = defaultReminderCheckInterval
	}
	return &ReminderService{projects: projects, router: router, clock: clock, checkInterval: checkInterval}
}

func (s *ReminderService) Status(ctx context.Context, projectPath string) (domain.ReminderConfig, error) {
	return s.projects.LoadReminder(ctx, projectPath)
}

// Check sends a reminder when one is due and otherwise reports the time left.
func (s *ReminderService) Check(ctx context.Context, projectPath string) (ReminderCheck, error) {
	cfg, err := s.projects.LoadReminder(ctx, projectPath)
	if err != nil {
		return ReminderCheck{}, err
	}

	now := s.clock.Now()
	if !cfg.Due(now) {
		remaining := time.Duration(0)
		if next := cfg.NextAt(); !next.IsZero() && cfg.Enabled {
			remaining = next.Sub(now)
		}
		return ReminderCheck{Remaining: remaining}, nil
	}

	reminder, err := s.send(ctx, projectPath, cfg, "")
	if err != nil {
		return ReminderCheck{}, err
	}
	return ReminderCheck{Reminded: true, Reminder: reminder}, nil
}

// Remind sends immediately, rotating through the configured messages when
// message is empty.
func (s *ReminderService) Remind(ctx context.Context, projectPath string, message string) (Reminder, error) {
	cfg, err := s.projects.LoadReminder(ctx, projectPath)
	if err != nil {
		return Reminder{}, err
	}
	return s.send(ctx, projectPath, cfg, message)
}

func (s *ReminderService) SetEnabled(ctx context.Context, projectPath string, enabled bool) (domain.ReminderConfig, error) {
	return s.update(ctx, projectPath, func(cfg *domain.ReminderConfig) {
		cfg.Enabled = enabled
	})
}

func (s *ReminderService) SetInterval(ctx context.Context, projectPath string, minutes int) (domain.ReminderConfig, error) {
	if minutes <= 0 {
		return domain.ReminderConfig{}, fmt.Errorf("%w: %d", ErrInvalidInterval, minutes)
	}
	return s.update(ctx, projectPath, func(cfg *domain.ReminderConfig) {
		cfg.Interval = time.Duration(minutes) * time.Minute
	})
}

// Run checks every check interval until ctx is done. A disabled reminder
// keeps the loop alive so enabling it later takes effect without a restart.
func (s *ReminderService) Run(ctx context.Context, projectPath string, onRemind func(Reminder)) error {
	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	reminderLog.Info("reminder_loop_started",
		slog.String("project", projectPath),
		slog.Duration("check_interval", s.checkInterval),
	)

	for {
		select {
		case <-ctx.Done():
			reminderLog.Info("reminder_loop_stopped", slog.String("project", projectPath))
			return nil
		case <-ticker.C:
			check, err := s.Check(ctx, projectPath)
			if err != nil {
				reminderLog.Warn("reminder_check_failed", slog.String("error", err.Error()))
				continue
			}
			if check.Reminded && onRemind != nil {
				onRemind(check.Reminder)
			}
		}
	}
}

func (s *ReminderService) send(ctx context.Context, projectPath string, cfg domain.ReminderConfig, message string) (Reminder, error) {
	if message == "" {
		message = cfg.NextMessage()
	}

	now := s.clock.Now()
	cfg.LastReminder = now
	cfg.ReminderCount++
	if err := s.projects.SaveReminder(ctx, projectPath, cfg); err != nil {
		return Reminder{}, fmt.Errorf("save reminder state: %w", err)
	}

	reminder := Reminder{Count: cfg.ReminderCount, Message: message, At: now}
	if s.router != nil {
		text := fmt.Sprintf("Reminder #%d: %s", cfg.ReminderCount, message)
		reminder.Result = s.router.Send(ctx, text, domain.EmotionGentle, ContextReminder)
	}

	reminderLog.Info("reminder_sent",
		slog.String("project", projectPath),
		slog.Int("count", reminder.Count),
	)
	return reminder, nil
}

func (s *ReminderService) update(ctx context.Context, projectPath string, mutate func(*domain.ReminderConfig)) (domain.ReminderConfig, error) {
	cfg, err := s.projects.LoadReminder(ctx, projectPath)
	if err != nil {
		return domain.ReminderConfig{}, err
	}
	mutate(&cfg)
	if err := s.projects.SaveReminder(ctx, projectPath, cfg); err != nil {
		return domain.ReminderConfig{}, fmt.Errorf("save reminder config: %w", err)
	}
	return cfg, nil
}
