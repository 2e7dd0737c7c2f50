package domain

import (
	"fmt"
	"strings"
)

type Mode string

const (
	ModeNormal Mode = "normal"
	ModeSilent Mode = "silent"
	ModeSleep  Mode = "sleep"
)

const DefaultAssistantName = "Assistant"

func ParseMode(raw string) (Mode, error) {
	mode := Mode(strings.ToLower(strings.TrimSpace(raw)))
	if !mode.Valid() {
		return "", fmt.Errorf("%w: %q (use normal, silent or sleep)", ErrInvalidMode, raw)
	}
	return mode, nil
}

func (m Mode) Valid() bool {
	switch m {
	case ModeNormal, ModeSilent, ModeSleep:
		return true
	default:
		return false
	}
}

func (m Mode) Description() string {
	switch m {
	case ModeNormal:
		return "normal (voice + notification)"
	case ModeSilent:
		return "silent (notification only)"
	case ModeSleep:
		return "sleep (no notification)"
	default:
		return string(m)
	}
}

// Audible reports whether a daemon in this mode vocalizes deliveries.
func (m Mode) Audible() bool {
	return m == ModeNormal
}

type ModeConfig struct {
	Mode          Mode
	AssistantName string
}

func DefaultModeConfig() ModeConfig {
	return ModeConfig{Mode: ModeNormal, AssistantName: DefaultAssistantName}
}
