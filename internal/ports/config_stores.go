package ports

import (
	"context"

	"github.com/bnema/claude-voice/internal/domain"
)

type ModeStore interface {
	Load(ctx context.Context) (domain.ModeConfig, error)
	SetMode(ctx context.Context, mode domain.Mode) error
}

type ProjectConfigStore interface {
	LoadVoice(ctx context.Context, projectPath string) (domain.ProjectVoiceConfig, error)
	SaveVoice(ctx context.Context, projectPath string, cfg domain.ProjectVoiceConfig) error
	LoadReminder(ctx context.Context, projectPath string) (domain.ReminderConfig, error)
	SaveReminder(ctx context.Context, projectPath string, cfg domain.ReminderConfig) error
}
