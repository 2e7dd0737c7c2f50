package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bnema/claude-voice/internal/domain"
	"github.com/bnema/claude-voice/internal/ports"
)

// VoiceToggle is the result of an enable/disable request. ProjectErr is a
// warning: the registry flag is authoritative and was already written.
type VoiceToggle struct {
	Instance   domain.Instance
	Enabled    bool
	ProjectErr error
}

type VoiceService struct {
	registry *Registry
	projects ports.ProjectConfigStore
	clock    ports.Clock
}

func NewVoiceService(registry *Registry, projects ports.ProjectConfigStore, clock ports.Clock) *VoiceService {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &VoiceService{registry: registry, projects: projects, clock: clock}
}

// SetByPrefix resolves prefix to exactly one record before touching anything;
// an ambiguous or unknown prefix leaves the registry unchanged.
func (s *VoiceService) SetByPrefix(ctx context.Context, prefix string, enabled bool) (VoiceToggle, error) {
	id, err := s.registry.ResolvePrefix(ctx, prefix)
	if err != nil {
		return VoiceToggle{}, err
	}

	outcome := s.registry.SetVoiceEnabled(ctx, id, enabled)
	if outcome.Err != nil {
		return VoiceToggle{}, outcome.Err
	}
	if !outcome.Changed {
		return VoiceToggle{}, fmt.Errorf("%w: %s", domain.ErrInstanceNotFound, id)
	}

	instance, err := s.registry.Get(ctx, id)
	if err != nil {
		return VoiceToggle{}, err
	}

	toggle := VoiceToggle{Instance: instance, Enabled: enabled}
	if strings.TrimSpace(instance.ProjectPath) != "" && s.projects != nil {
		cfg := domain.ProjectVoiceConfig{VoiceEnabled: enabled, LastUpdated: s.clock.Now()}
		if err := s.projects.SaveVoice(ctx, instance.ProjectPath, cfg); err != nil {
			toggle.ProjectErr = err
			registryLog.Warn("project_voice_config_write_failed",
				slog.String("project", instance.ProjectPath),
				slog.String("error", err.Error()),
			)
		}
	}

	return toggle, nil
}

// Allowed reports whether a notification for projectPath should be sent at
// all. An absent project document means enabled; an instance registered for
// the project can still opt out through its own flag.
func (s *VoiceService) Allowed(ctx context.Context, projectPath string) bool {
	if s.projects != nil && strings.TrimSpace(projectPath) != "" {
		cfg, err := s.projects.LoadVoice(ctx, projectPath)
		switch {
		case err == nil:
			if !cfg.VoiceEnabled {
				return false
			}
		case errors.Is(err, domain.ErrProjectConfigAbsent):
		default:
			registryLog.Debug("project_voice_config_unreadable", slog.String("error", err.Error()))
		}
	}

	if instance, ok := s.registry.FindByProject(ctx, projectPath); ok && !instance.VoiceEnabled {
		return false
	}

	return true
}
