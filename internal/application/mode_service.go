package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bnema/claude-voice/internal/domain"
	"github.com/bnema/claude-voice/internal/logging"
	"github.com/bnema/claude-voice/internal/ports"
)

var modeLog = logging.ForComponent(logging.CompDaemon)

type ModeService struct {
	store ports.ModeStore
}

func NewModeService(store ports.ModeStore) *ModeService {
	return &ModeService{store: store}
}

// Current never fails: an unreadable document reads as the defaults.
func (s *ModeService) Current(ctx context.Context) domain.ModeConfig {
	cfg, err := s.store.Load(ctx)
	if err != nil {
		modeLog.Warn("mode_load_failed", slog.String("error", err.Error()))
		return domain.DefaultModeConfig()
	}
	return cfg
}

func (s *ModeService) Set(ctx context.Context, raw string) (domain.Mode, error) {
	mode, err := domain.ParseMode(raw)
	if err != nil {
		return "", err
	}

	if err := s.store.SetMode(ctx, mode); err != nil {
		return "", fmt.Errorf("save mode: %w", err)
	}

	modeLog.Info("mode_changed", slog.String("mode", string(mode)))
	return mode, nil
}
