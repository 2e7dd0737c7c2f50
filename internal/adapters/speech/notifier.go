package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"

	"github.com/bnema/claude-voice/internal/domain"
	"github.com/bnema/claude-voice/internal/logging"
	"github.com/bnema/claude-voice/internal/ports"
)

const (
	CommandAuto        = "auto"
	CommandNone        = "none"
	CommandSay         = "say"
	CommandSpdSay      = "spd-say"
	CommandEspeak      = "espeak"
	CommandNotifySend  = "notify-send"
	notificationTitle  = "Claude"
	defaultWordsPerMin = 175
)

var (
	ErrUnavailable = errors.New("no speech backend available")
	ErrDisabled    = errors.New("speech backend disabled")
)

// autoOrder is tried front to back when the command is "auto".
var autoOrder = []string{CommandSay, CommandSpdSay, CommandEspeak, CommandNotifySend}

var log = logging.ForComponent(logging.CompSpeech)

type runFunc func(ctx context.Context, path string, args ...string) (stdout string, stderr string, err error)

type lookPathFunc func(file string) (string, error)

// Notifier speaks or pops up a message through a local command-line backend.
type Notifier struct {
	command  string
	title    string
	run      runFunc
	lookPath lookPathFunc
}

var _ ports.Notifier = (*Notifier)(nil)

func NewNotifier(command string, title string) *Notifier {
	command = strings.TrimSpace(command)
	if command == "" {
		command = CommandAuto
	}
	if strings.TrimSpace(title) == "" {
		title = notificationTitle
	}
	return &Notifier{command: command, title: title, run: runCommand, lookPath: exec.LookPath}
}

func (n *Notifier) Notify(ctx context.Context, message string, emotion domain.Emotion) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if n.command == CommandNone {
		return ErrDisabled
	}

	name, path, err := n.resolve()
	if err != nil {
		return err
	}

	args := argsFor(name, n.title, message, emotion.OrDefault())
	_, stderr, err := n.run(ctx, path, args...)
	if err != nil {
		if stderr == "" {
			return fmt.Errorf("%s: %w", name, err)
		}
		return fmt.Errorf("%s: %w: %s", name, err, stderr)
	}

	log.Debug("speech_delivered", slog.String("backend", name), slog.String("emotion", string(emotion)))
	return nil
}

// Backend reports which command would be used, or ErrUnavailable.
func (n *Notifier) Backend() (string, error) {
	if n.command == CommandNone {
		return CommandNone, nil
	}
	name, _, err := n.resolve()
	return name, err
}

func (n *Notifier) resolve() (string, string, error) {
	candidates := autoOrder
	if n.command != CommandAuto {
		candidates = []string{n.command}
	}

	for _, candidate := range candidates {
		path, err := n.lookPath(candidate)
		if err == nil {
			return candidate, path, nil
		}
	}

	if n.command != CommandAuto {
		return "", "", fmt.Errorf("%w: %s not found", ErrUnavailable, n.command)
	}
	return "", "", ErrUnavailable
}

func argsFor(name string, title string, message string, emotion domain.Emotion) []string {
	switch name {
	case CommandSay:
		return []string{"-r", strconv.Itoa(wordsPerMinute(emotion)), message}
	case CommandSpdSay:
		return []string{"-w", "-r", strconv.Itoa(spdRate(emotion)), message}
	case CommandEspeak:
		return []string{"-s", strconv.Itoa(wordsPerMinute(emotion)), message}
	case CommandNotifySend:
		return []string{"-u", urgency(emotion), title, message}
	default:
		return []string{message}
	}
}

func wordsPerMinute(emotion domain.Emotion) int {
	switch emotion {
	case domain.EmotionUrgent:
		return 210
	case domain.EmotionExcited:
		return 200
	case domain.EmotionWorried:
		return 160
	case domain.EmotionThinking:
		return 150
	default:
		return defaultWordsPerMin
	}
}

// spdRate maps onto speech-dispatcher's -100..100 scale.
func spdRate(emotion domain.Emotion) int {
	return (wordsPerMinute(emotion) - defaultWordsPerMin) * 2
}

func urgency(emotion domain.Emotion) string {
	switch emotion {
	case domain.EmotionUrgent:
		return "critical"
	case domain.EmotionWorried:
		return "normal"
	default:
		return "low"
	}
}

func runCommand(ctx context.Context, path string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, path, args...)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), strings.TrimSpace(stderr.String()), err
}
