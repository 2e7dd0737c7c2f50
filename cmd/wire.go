package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bnema/claude-voice/internal/adapters/liveness/ps"
	signalprobe "github.com/bnema/claude-voice/internal/adapters/liveness/signal"
	"github.com/bnema/claude-voice/internal/adapters/modeconfig"
	"github.com/bnema/claude-voice/internal/adapters/projectconfig"
	statusadapter "github.com/bnema/claude-voice/internal/adapters/render/status"
	"github.com/bnema/claude-voice/internal/adapters/repo/jsonfile"
	"github.com/bnema/claude-voice/internal/adapters/speech"
	stagingfile "github.com/bnema/claude-voice/internal/adapters/staging/file"
	"github.com/bnema/claude-voice/internal/application"
	"github.com/bnema/claude-voice/internal/config"
	"github.com/bnema/claude-voice/internal/logging"
	"github.com/bnema/claude-voice/internal/ports"
	"github.com/spf13/viper"
)

const notificationTitle = "Claude Code"

var errNoActiveInstances = errors.New("no active instances")

type app struct {
	cfg            config.Config
	registry       *application.Registry
	selector       *application.Selector
	router         *application.Router
	modes          *application.ModeService
	voice          *application.VoiceService
	hooks          *application.HookService
	reminders      *application.ReminderService
	slot           *stagingfile.Slot
	speech         *speech.Notifier
	statusRenderer func(statusadapter.Overview, statusadapter.RenderOptions) (string, error)
	now            func() time.Time
	hostname       func() (string, error)
	getwd          func() (string, error)
	parentPID      func() int
}

func wireApp() (*app, error) {
	cfg, err := config.Load(viper.New())
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	// A log directory that cannot be created leaves logging discarded.
	_ = logging.Init(logging.Config{
		LogDir: cfg.LogDir(),
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	repo, err := jsonfile.NewInstanceRepository(cfg.RegistryPath(), cfg.LockTimeout)
	if err != nil {
		return nil, fmt.Errorf("wire instance repository: %w", err)
	}

	slot, err := stagingfile.NewSlot(cfg.SlotPath())
	if err != nil {
		return nil, fmt.Errorf("wire staging slot: %w", err)
	}

	modeStore, err := modeconfig.NewStore(cfg.ModePath())
	if err != nil {
		return nil, fmt.Errorf("wire mode store: %w", err)
	}

	clock := ports.SystemClock{}
	projects := projectconfig.NewStore()
	notifier := speech.NewNotifier(cfg.SpeechCommand, notificationTitle)

	registry := application.NewRegistry(repo, newProber(cfg), clock, cfg.Staleness)
	router := application.NewRouter(slot, notifier, registry, clock, application.RouterOptions{
		StageTimeout:    cfg.StageTimeout,
		FallbackTimeout: cfg.FallbackTimeout,
	})
	voice := application.NewVoiceService(registry, projects, clock)

	return &app{
		cfg:            cfg,
		registry:       registry,
		selector:       application.NewSelector(registry),
		router:         router,
		modes:          application.NewModeService(modeStore),
		voice:          voice,
		hooks:          application.NewHookService(registry, router, voice, cfg.DisplayLength),
		reminders:      application.NewReminderService(projects, router, clock, cfg.ReminderCheckInterval),
		slot:           slot,
		speech:         notifier,
		statusRenderer: statusadapter.Render,
		now:            time.Now,
		hostname:       os.Hostname,
		getwd:          os.Getwd,
		parentPID:      os.Getppid,
	}, nil
}

func newProber(cfg config.Config) ports.LivenessProber {
	if cfg.LivenessMethod == config.LivenessMethodSignal {
		return signalprobe.NewProber()
	}
	return ps.NewProber(cfg.LivenessTimeout)
}

// projectDir resolves an explicit --project flag, else the working directory,
// to a clean absolute path. Records are matched against the working
// directory of later hooks, so relative paths must never be stored.
func (a *app) projectDir(flag string) (string, error) {
	wd, err := a.getwd()
	if err != nil {
		return "", fmt.Errorf("resolve working directory: %w", err)
	}
	if flag == "" {
		return filepath.Clean(wd), nil
	}
	if filepath.IsAbs(flag) {
		return filepath.Clean(flag), nil
	}
	return filepath.Join(wd, flag), nil
}
