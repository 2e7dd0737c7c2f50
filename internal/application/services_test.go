package application

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/bnema/claude-voice/internal/adapters/modeconfig"
	"github.com/bnema/claude-voice/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModeServiceSetValidatesAndPersists(t *testing.T) {
	t.Parallel()

	store, err := modeconfig.NewStore(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)
	service := NewModeService(store)

	mode, err := service.Set(context.Background(), " Silent ")
	require.NoError(t, err)
	assert.Equal(t, domain.ModeSilent, mode)
	assert.Equal(t, domain.ModeSilent, service.Current(context.Background()).Mode)

	_, err = service.Set(context.Background(), "party")
	require.ErrorIs(t, err, domain.ErrInvalidMode)
	assert.Equal(t, domain.ModeSilent, service.Current(context.Background()).Mode)
}

func newVoiceFixture(instances ...domain.Instance) (*VoiceService, *memoryRepository, *memoryProjects) {
	repo := newMemoryRepository(instances...)
	projects := newMemoryProjects()
	registry := NewRegistry(repo, pidProber{}, newFixedClock(baseTime), 0)
	return NewVoiceService(registry, projects, newFixedClock(baseTime)), repo, projects
}

func TestVoiceServiceSetByPrefixUpdatesRegistryAndProject(t *testing.T) {
	t.Parallel()

	service, repo, projects := newVoiceFixture(instanceAt("devbox_1_1", 1, "/proj/a", baseTime))

	toggle, err := service.SetByPrefix(context.Background(), "devbox_1", false)
	require.NoError(t, err)
	assert.Equal(t, domain.InstanceID("devbox_1_1"), toggle.Instance.ID)
	assert.False(t, toggle.Instance.VoiceEnabled)
	assert.NoError(t, toggle.ProjectErr)

	assert.False(t, repo.snapshot()["devbox_1_1"].VoiceEnabled)
	cfg, err := projects.LoadVoice(context.Background(), "/proj/a")
	require.NoError(t, err)
	assert.False(t, cfg.VoiceEnabled)
	assert.Equal(t, baseTime, cfg.LastUpdated)
}

func TestVoiceServiceAmbiguousPrefixLeavesRegistryUnchanged(t *testing.T) {
	t.Parallel()

	service, repo, projects := newVoiceFixture(
		instanceAt("devbox_10_1", 10, "/proj/a", baseTime),
		instanceAt("devbox_11_1", 11, "/proj/b", baseTime),
	)
	before := repo.snapshot()

	_, err := service.SetByPrefix(context.Background(), "devbox_1", false)
	require.ErrorIs(t, err, domain.ErrAmbiguousSelection)

	assert.Equal(t, before, repo.snapshot())
	assert.Zero(t, repo.writeCount())
	assert.Empty(t, projects.voice)
}

func TestVoiceServiceNoMatch(t *testing.T) {
	t.Parallel()

	service, repo, _ := newVoiceFixture(instanceAt("devbox_10_1", 10, "/proj/a", baseTime))

	_, err := service.SetByPrefix(context.Background(), "laptop", true)
	require.ErrorIs(t, err, domain.ErrNoMatch)
	assert.Zero(t, repo.writeCount())
}

func TestVoiceServiceProjectWriteFailureIsWarning(t *testing.T) {
	t.Parallel()

	service, repo, projects := newVoiceFixture(instanceAt("devbox_1_1", 1, "/proj/a", baseTime))
	projects.saveErr = errBoom

	toggle, err := service.SetByPrefix(context.Background(), "devbox_1_1", false)
	require.NoError(t, err)
	assert.ErrorIs(t, toggle.ProjectErr, errBoom)
	assert.False(t, repo.snapshot()["devbox_1_1"].VoiceEnabled)
}

func TestVoiceServiceAllowed(t *testing.T) {
	t.Parallel()

	muted := instanceAt("muted", 2, "/proj/muted", baseTime)
	muted.VoiceEnabled = false
	service, _, projects := newVoiceFixture(instanceAt("a", 1, "/proj/a", baseTime), muted)
	projects.voice["/proj/off"] = domain.ProjectVoiceConfig{VoiceEnabled: false}
	projects.voice["/proj/on"] = domain.ProjectVoiceConfig{VoiceEnabled: true}

	assert.True(t, service.Allowed(context.Background(), "/proj/a"), "absent project config means enabled")
	assert.True(t, service.Allowed(context.Background(), "/proj/on"))
	assert.False(t, service.Allowed(context.Background(), "/proj/off"))
	assert.False(t, service.Allowed(context.Background(), "/proj/muted"))
}

func TestClassifyToolResult(t *testing.T) {
	t.Parallel()

	tests := []struct {
		output string
		want   domain.Emotion
		notify bool
	}{
		{output: "Build FAILED with 3 errors", want: domain.EmotionUrgent, notify: true},
		{output: "request timeout after 30s", want: domain.EmotionUrgent, notify: true},
		{output: "❌ lint", want: domain.EmotionUrgent, notify: true},
		{output: "部署失敗", want: domain.EmotionUrgent, notify: true},
		{output: "need help with the migration", want: domain.EmotionGentle, notify: true},
		{output: "請協助確認", want: domain.EmotionGentle, notify: true},
		{output: "help: an error occurred", want: domain.EmotionUrgent, notify: true},
		{output: "all 42 tests passed", notify: false},
		{output: "   ", notify: false},
	}

	for _, tt := range tests {
		emotion, ok := ClassifyToolResult(tt.output)
		assert.Equal(t, tt.notify, ok, tt.output)
		assert.Equal(t, tt.want, emotion, tt.output)
	}
}

func newHookFixture(t *testing.T) (*HookService, *memoryRepository, *recordingSlot, *fixedClock, *memoryProjects) {
	t.Helper()

	clock := newFixedClock(baseTime)
	repo := newMemoryRepository()
	projects := newMemoryProjects()
	registry := NewRegistry(repo, pidProber{}, clock, 0)
	slot := &recordingSlot{}
	router := NewRouter(slot, nil, registry, clock, RouterOptions{})
	voice := NewVoiceService(registry, projects, clock)
	return NewHookService(registry, router, voice, 20), repo, slot, clock, projects
}

func TestHookSessionStartRegistersAndNotifies(t *testing.T) {
	t.Parallel()

	hooks, repo, slot, _, _ := newHookFixture(t)

	id, result := hooks.SessionStart(context.Background(), HookEnv{
		Host:            "devbox",
		ProcessID:       4242,
		ProjectPath:     "/work/alpha",
		TerminalSession: "w0t0p0",
	})
	assert.Equal(t, domain.InstanceID("devbox_4242_1772355600"), id)
	assert.True(t, result.Staged)

	stored := repo.snapshot()[id]
	assert.Equal(t, 4242, stored.ProcessID)
	assert.Equal(t, "w0t0p0", stored.TerminalSession)

	staged := slot.staged()
	require.Len(t, staged, 1)
	assert.Equal(t, "Session started: alpha", staged[0].Message)
	assert.Equal(t, ContextSessionStart, staged[0].Context)
}

func TestHookSessionStartHonorsDisabledProject(t *testing.T) {
	t.Parallel()

	hooks, repo, slot, _, projects := newHookFixture(t)
	projects.voice["/work/quiet"] = domain.ProjectVoiceConfig{VoiceEnabled: false}

	id, result := hooks.SessionStart(context.Background(), HookEnv{Host: "h", ProcessID: 1, ProjectPath: "/work/quiet"})
	assert.NotEmpty(t, id)
	assert.False(t, result.Delivered())
	assert.Len(t, repo.snapshot(), 1)
	assert.Empty(t, slot.staged())
}

func TestHookUserSubmitTouchesExistingOrRegisters(t *testing.T) {
	t.Parallel()

	hooks, repo, _, clock, _ := newHookFixture(t)
	env := HookEnv{Host: "h", ProcessID: 7, ProjectPath: "/work/alpha"}

	first := hooks.UserSubmit(context.Background(), env)
	require.NotEmpty(t, first)
	require.Len(t, repo.snapshot(), 1)

	clock.Advance(5 * time.Minute)
	second := hooks.UserSubmit(context.Background(), env)
	assert.Equal(t, first, second)
	assert.Len(t, repo.snapshot(), 1)
	assert.Equal(t, baseTime.Add(5*time.Minute), repo.snapshot()[first].LastActiveAt)
}

func TestHookToolResultTruncatesAndClassifies(t *testing.T) {
	t.Parallel()

	hooks, _, slot, _, _ := newHookFixture(t)

	_, notified := hooks.ToolResult(context.Background(), HookEnv{ProjectPath: "/p"}, "everything is fine")
	assert.False(t, notified)

	result, notified := hooks.ToolResult(context.Background(), HookEnv{ProjectPath: "/p"}, "error: connection refused by upstream")
	require.True(t, notified)
	assert.True(t, result.Staged)

	staged := slot.staged()
	require.Len(t, staged, 1)
	assert.Equal(t, "Tool result needs attention: error: connection re...", staged[0].Message)
	assert.Equal(t, domain.EmotionUrgent, staged[0].Emotion)
	assert.Equal(t, ContextToolResult, staged[0].Context)
}

func newReminderFixture() (*ReminderService, *memoryProjects, *recordingSlot, *fixedClock) {
	clock := newFixedClock(baseTime)
	projects := newMemoryProjects()
	slot := &recordingSlot{}
	router := NewRouter(slot, nil, nil, clock, RouterOptions{})
	return NewReminderService(projects, router, clock, 5*time.Millisecond), projects, slot, clock
}

func TestReminderCheckSendsWhenDueAndRotatesMessages(t *testing.T) {
	t.Parallel()

	service, projects, slot, clock := newReminderFixture()
	projects.reminders["/p"] = domain.ReminderConfig{
		Enabled:  true,
		Interval: 30 * time.Minute,
		Messages: []string{"first", "second"},
	}

	check, err := service.Check(context.Background(), "/p")
	require.NoError(t, err)
	require.True(t, check.Reminded)
	assert.Equal(t, 1, check.Reminder.Count)
	assert.Equal(t, "first", check.Reminder.Message)

	clock.Advance(10 * time.Minute)
	check, err = service.Check(context.Background(), "/p")
	require.NoError(t, err)
	assert.False(t, check.Reminded)
	assert.Equal(t, 20*time.Minute, check.Remaining)

	clock.Advance(21 * time.Minute)
	check, err = service.Check(context.Background(), "/p")
	require.NoError(t, err)
	require.True(t, check.Reminded)
	assert.Equal(t, "second", check.Reminder.Message)

	staged := slot.staged()
	require.Len(t, staged, 2)
	assert.Equal(t, "Reminder #1: first", staged[0].Message)
	assert.Equal(t, "Reminder #2: second", staged[1].Message)
	assert.Equal(t, ContextReminder, staged[0].Context)
}

func TestReminderDisabledNeverFires(t *testing.T) {
	t.Parallel()

	service, _, slot, _ := newReminderFixture()

	_, err := service.SetEnabled(context.Background(), "/p", false)
	require.NoError(t, err)

	check, err := service.Check(context.Background(), "/p")
	require.NoError(t, err)
	assert.False(t, check.Reminded)
	assert.Empty(t, slot.staged())
}

func TestReminderSetIntervalRejectsNonPositive(t *testing.T) {
	t.Parallel()

	service, projects, _, _ := newReminderFixture()

	_, err := service.SetInterval(context.Background(), "/p", 0)
	require.ErrorIs(t, err, ErrInvalidInterval)

	cfg, err := service.SetInterval(context.Background(), "/p", 45)
	require.NoError(t, err)
	assert.Equal(t, 45*time.Minute, cfg.Interval)
	assert.Equal(t, 45*time.Minute, projects.reminders["/p"].Interval)
}

func TestReminderRunStopsPromptlyOnCancel(t *testing.T) {
	t.Parallel()

	service, _, _, _ := newReminderFixture()
	ctx, cancel := context.WithCancel(context.Background())

	var mu sync.Mutex
	var fired []Reminder
	done := make(chan error, 1)
	go func() {
		done <- service.Run(ctx, "/p", func(reminder Reminder) {
			mu.Lock()
			fired = append(fired, reminder)
			mu.Unlock()
		})
	}()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(fired) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("reminder loop did not stop")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, fired, 1, "fixed clock means the next reminder is never due")
}
