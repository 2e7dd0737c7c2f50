package projectconfig

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bnema/claude-voice/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadVoiceAbsentDefaultsToEnabled(t *testing.T) {
	t.Parallel()

	cfg, err := NewStore().LoadVoice(context.Background(), t.TempDir())
	require.ErrorIs(t, err, domain.ErrProjectConfigAbsent)
	assert.True(t, cfg.VoiceEnabled)
}

func TestVoiceRoundTrip(t *testing.T) {
	t.Parallel()

	project := t.TempDir()
	store := NewStore()
	updated := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, store.SaveVoice(context.Background(), project, domain.ProjectVoiceConfig{
		VoiceEnabled: false,
		LastUpdated:  updated,
	}))

	cfg, err := store.LoadVoice(context.Background(), project)
	require.NoError(t, err)
	assert.False(t, cfg.VoiceEnabled)
	assert.Equal(t, defaultDaemonEndpoint, cfg.DaemonEndpoint)
	assert.True(t, cfg.LastUpdated.Equal(updated))
}

func TestLoadVoiceMissingFlagMeansEnabled(t *testing.T) {
	t.Parallel()

	project := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(project, VoiceFileName), []byte(`{"daemon_endpoint":"file-based"}`), 0o644))

	cfg, err := NewStore().LoadVoice(context.Background(), project)
	require.NoError(t, err)
	assert.True(t, cfg.VoiceEnabled)
}

func TestLoadReminderMergesOverDefaults(t *testing.T) {
	t.Parallel()

	project := t.TempDir()
	doc := `{"enabled": false, "interval_minutes": 10, "last_reminder": "2026-03-01T09:00:00", "reminder_count": 3}`
	require.NoError(t, os.WriteFile(filepath.Join(project, ReminderFileName), []byte(doc), 0o644))

	cfg, err := NewStore().LoadReminder(context.Background(), project)
	require.NoError(t, err)
	assert.False(t, cfg.Enabled)
	assert.Equal(t, 10*time.Minute, cfg.Interval)
	assert.Equal(t, 3, cfg.ReminderCount)
	assert.True(t, cfg.AutoRemindOnStart)
	assert.Equal(t, domain.DefaultReminderConfig().Messages, cfg.Messages)
	assert.Equal(t, 9, cfg.LastReminder.Hour())
}

func TestReminderRoundTrip(t *testing.T) {
	t.Parallel()

	project := t.TempDir()
	store := NewStore()

	want := domain.DefaultReminderConfig()
	want.Interval = 45 * time.Minute
	want.ReminderCount = 2
	want.LastReminder = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	want.Messages = []string{"one", "two"}

	require.NoError(t, store.SaveReminder(context.Background(), project, want))

	got, err := store.LoadReminder(context.Background(), project)
	require.NoError(t, err)
	assert.Equal(t, want.Interval, got.Interval)
	assert.Equal(t, want.ReminderCount, got.ReminderCount)
	assert.Equal(t, want.Messages, got.Messages)
	assert.True(t, got.LastReminder.Equal(want.LastReminder))
}

func TestLoadReminderCorruptReturnsDefaultsAndError(t *testing.T) {
	t.Parallel()

	project := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(project, ReminderFileName), []byte(`[`), 0o644))

	cfg, err := NewStore().LoadReminder(context.Background(), project)
	require.Error(t, err)
	assert.Equal(t, domain.DefaultReminderConfig(), cfg)
}
