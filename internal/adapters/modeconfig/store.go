package modeconfig

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bnema/claude-voice/internal/adapters/fsutil"
	"github.com/bnema/claude-voice/internal/domain"
	"github.com/bnema/claude-voice/internal/ports"
)

const (
	fileMode        = 0o600
	tempFilePattern = ".config-*.json.tmp"

	keyMode          = "mode"
	keyAssistantName = "assistant_name"
)

// Store reads and writes the daemon mode document. Keys it does not know
// about belong to the daemon and are written back untouched.
type Store struct {
	path string
	mu   sync.Mutex
}

var _ ports.ModeStore = (*Store)(nil)

func NewStore(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("mode config path is empty")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve mode config path: %w", err)
	}
	return &Store{path: filepath.Clean(absPath)}, nil
}

func (s *Store) Path() string {
	return s.path
}

// Load returns the defaults when the document is absent. An unrecognised mode
// value also falls back to normal.
func (s *Store) Load(ctx context.Context) (domain.ModeConfig, error) {
	if err := ctx.Err(); err != nil {
		return domain.ModeConfig{}, err
	}

	raw, err := s.readRaw()
	if err != nil {
		return domain.DefaultModeConfig(), err
	}

	cfg := domain.DefaultModeConfig()
	if value, ok := raw[keyMode].(string); ok {
		if mode, err := domain.ParseMode(value); err == nil {
			cfg.Mode = mode
		}
	}
	if value, ok := raw[keyAssistantName].(string); ok && strings.TrimSpace(value) != "" {
		cfg.AssistantName = value
	}

	return cfg, nil
}

func (s *Store) SetMode(ctx context.Context, mode domain.Mode) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !mode.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidMode, mode)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.readRaw()
	if err != nil {
		// A corrupt document is replaced rather than blocking the mode switch.
		raw = map[string]any{}
	}

	raw[keyMode] = string(mode)
	if _, ok := raw[keyAssistantName]; !ok {
		raw[keyAssistantName] = domain.DefaultAssistantName
	}

	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("encode mode config: %w", err)
	}

	if err := fsutil.WriteFileAtomic(s.path, data, fileMode, tempFilePattern); err != nil {
		return fmt.Errorf("write mode config: %w", err)
	}

	return nil
}

func (s *Store) readRaw() (map[string]any, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("read mode config: %w", err)
	}

	raw := map[string]any{}
	if len(data) == 0 {
		return raw, nil
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode mode config: %w", err)
	}
	return raw, nil
}
