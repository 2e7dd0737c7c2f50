package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bnema/claude-voice/internal/domain"
	"github.com/bnema/claude-voice/internal/ports"
	"github.com/stretchr/testify/mock"
)

type memoryRepository struct {
	mu        sync.Mutex
	instances ports.Instances
	writes    int
	loadErr   error
	updateErr error
}

func newMemoryRepository(instances ...domain.Instance) *memoryRepository {
	repo := &memoryRepository{instances: ports.Instances{}}
	for _, instance := range instances {
		repo.instances[instance.ID] = instance
	}
	return repo
}

func (r *memoryRepository) Load(ctx context.Context) (ports.Instances, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.loadErr != nil {
		return nil, r.loadErr
	}
	return r.copyLocked(), nil
}

func (r *memoryRepository) Update(ctx context.Context, fn func(ports.Instances) (bool, error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.updateErr != nil {
		return r.updateErr
	}

	working := r.copyLocked()
	changed, err := fn(working)
	if err != nil || !changed {
		return err
	}
	r.instances = working
	r.writes++
	return nil
}

func (r *memoryRepository) snapshot() ports.Instances {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.copyLocked()
}

func (r *memoryRepository) writeCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writes
}

func (r *memoryRepository) copyLocked() ports.Instances {
	out := make(ports.Instances, len(r.instances))
	for id, instance := range r.instances {
		out[id] = instance
	}
	return out
}

type pidProber map[int]bool

func (p pidProber) IsRunning(_ context.Context, pid int) bool {
	return p[pid]
}

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFixedClock(now time.Time) *fixedClock {
	return &fixedClock{now: now}
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingSlot struct {
	mu       sync.Mutex
	requests []domain.NotificationRequest
	err      error
}

func (s *recordingSlot) Stage(_ context.Context, request domain.NotificationRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.requests = append(s.requests, request)
	return nil
}

func (s *recordingSlot) staged() []domain.NotificationRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.NotificationRequest(nil), s.requests...)
}

type memoryProjects struct {
	mu        sync.Mutex
	voice     map[string]domain.ProjectVoiceConfig
	reminders map[string]domain.ReminderConfig
	saveErr   error
}

func newMemoryProjects() *memoryProjects {
	return &memoryProjects{
		voice:     map[string]domain.ProjectVoiceConfig{},
		reminders: map[string]domain.ReminderConfig{},
	}
}

func (p *memoryProjects) LoadVoice(_ context.Context, projectPath string) (domain.ProjectVoiceConfig, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cfg, ok := p.voice[projectPath]
	if !ok {
		return domain.ProjectVoiceConfig{VoiceEnabled: true}, domain.ErrProjectConfigAbsent
	}
	return cfg, nil
}

func (p *memoryProjects) SaveVoice(_ context.Context, projectPath string, cfg domain.ProjectVoiceConfig) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.saveErr != nil {
		return p.saveErr
	}
	p.voice[projectPath] = cfg
	return nil
}

func (p *memoryProjects) LoadReminder(_ context.Context, projectPath string) (domain.ReminderConfig, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cfg, ok := p.reminders[projectPath]
	if !ok {
		return domain.DefaultReminderConfig(), nil
	}
	return cfg, nil
}

func (p *memoryProjects) SaveReminder(_ context.Context, projectPath string, cfg domain.ReminderConfig) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.saveErr != nil {
		return p.saveErr
	}
	p.reminders[projectPath] = cfg
	return nil
}

var errBoom = errors.New("boom")

func mockAnyContext() interface{} {
	return mock.Anything
}

func instanceAt(id string, pid int, project string, at time.Time) domain.Instance {
	return domain.Instance{
		ID:           domain.InstanceID(id),
		ProcessID:    pid,
		ProjectPath:  project,
		LastActiveAt: at,
		Status:       domain.InstanceStatusActive,
		VoiceEnabled: true,
		DaemonAware:  true,
	}
}
