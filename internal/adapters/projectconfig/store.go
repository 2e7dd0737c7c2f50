package projectconfig

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bnema/claude-voice/internal/adapters/fsutil"
	"github.com/bnema/claude-voice/internal/domain"
	"github.com/bnema/claude-voice/internal/ports"
)

const (
	VoiceFileName    = ".claude-voice-config.json"
	ReminderFileName = ".claude_voice_reminder.json"

	fileMode = 0o644

	defaultDaemonEndpoint = "file-based"
)

type voiceSchema struct {
	VoiceEnabled   *bool  `json:"voice_enabled"`
	DaemonEndpoint string `json:"daemon_endpoint,omitempty"`
	LastUpdated    string `json:"last_updated,omitempty"`
}

type reminderSchema struct {
	Enabled           *bool    `json:"enabled"`
	IntervalMinutes   *int     `json:"interval_minutes"`
	LastReminder      *string  `json:"last_reminder"`
	ReminderCount     int      `json:"reminder_count"`
	AutoRemindOnStart *bool    `json:"auto_remind_on_start"`
	Messages          []string `json:"messages,omitempty"`
}

// Store keeps per-project documents inside the project directory itself.
type Store struct{}

var _ ports.ProjectConfigStore = (*Store)(nil)

func NewStore() *Store {
	return &Store{}
}

// LoadVoice returns ErrProjectConfigAbsent when the project has no voice
// document; callers treat that as enabled.
func (s *Store) LoadVoice(ctx context.Context, projectPath string) (domain.ProjectVoiceConfig, error) {
	if err := ctx.Err(); err != nil {
		return domain.ProjectVoiceConfig{}, err
	}

	var schema voiceSchema
	found, err := readJSON(filepath.Join(projectPath, VoiceFileName), &schema)
	if err != nil {
		return domain.ProjectVoiceConfig{VoiceEnabled: true}, err
	}
	if !found {
		return domain.ProjectVoiceConfig{VoiceEnabled: true}, domain.ErrProjectConfigAbsent
	}

	cfg := domain.ProjectVoiceConfig{
		VoiceEnabled:   schema.VoiceEnabled == nil || *schema.VoiceEnabled,
		DaemonEndpoint: schema.DaemonEndpoint,
		LastUpdated:    parseTime(schema.LastUpdated),
	}
	return cfg, nil
}

func (s *Store) SaveVoice(ctx context.Context, projectPath string, cfg domain.ProjectVoiceConfig) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	endpoint := cfg.DaemonEndpoint
	if endpoint == "" {
		endpoint = defaultDaemonEndpoint
	}
	enabled := cfg.VoiceEnabled
	schema := voiceSchema{
		VoiceEnabled:   &enabled,
		DaemonEndpoint: endpoint,
		LastUpdated:    formatTime(cfg.LastUpdated),
	}

	return writeJSON(filepath.Join(projectPath, VoiceFileName), schema, ".claude-voice-config-*.tmp")
}

// LoadReminder merges the stored document over the defaults. An absent
// document yields the defaults without error.
func (s *Store) LoadReminder(ctx context.Context, projectPath string) (domain.ReminderConfig, error) {
	cfg := domain.DefaultReminderConfig()
	if err := ctx.Err(); err != nil {
		return cfg, err
	}

	var schema reminderSchema
	found, err := readJSON(filepath.Join(projectPath, ReminderFileName), &schema)
	if err != nil || !found {
		return cfg, err
	}

	if schema.Enabled != nil {
		cfg.Enabled = *schema.Enabled
	}
	if schema.IntervalMinutes != nil && *schema.IntervalMinutes > 0 {
		cfg.Interval = time.Duration(*schema.IntervalMinutes) * time.Minute
	}
	if schema.LastReminder != nil {
		cfg.LastReminder = parseTime(*schema.LastReminder)
	}
	if schema.ReminderCount > 0 {
		cfg.ReminderCount = schema.ReminderCount
	}
	if schema.AutoRemindOnStart != nil {
		cfg.AutoRemindOnStart = *schema.AutoRemindOnStart
	}
	if len(schema.Messages) > 0 {
		cfg.Messages = schema.Messages
	}

	return cfg, nil
}

func (s *Store) SaveReminder(ctx context.Context, projectPath string, cfg domain.ReminderConfig) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	enabled := cfg.Enabled
	auto := cfg.AutoRemindOnStart
	minutes := int(cfg.Interval / time.Minute)
	if minutes <= 0 {
		minutes = int(domain.DefaultReminderInterval / time.Minute)
	}

	schema := reminderSchema{
		Enabled:           &enabled,
		IntervalMinutes:   &minutes,
		ReminderCount:     cfg.ReminderCount,
		AutoRemindOnStart: &auto,
		Messages:          cfg.Messages,
	}
	if !cfg.LastReminder.IsZero() {
		last := formatTime(cfg.LastReminder)
		schema.LastReminder = &last
	}

	return writeJSON(filepath.Join(projectPath, ReminderFileName), schema, ".claude_voice_reminder-*.tmp")
}

func readJSON(path string, target any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(data, target); err != nil {
		return false, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return true, nil
}

func writeJSON(path string, value any, tempPattern string) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := fsutil.WriteFileAtomic(path, data, fileMode, tempPattern); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func parseTime(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	if parsed, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return parsed
	}
	for _, layout := range []string{"2006-01-02T15:04:05.999999999", "2006-01-02T15:04:05"} {
		if parsed, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.Format(time.RFC3339Nano)
}
