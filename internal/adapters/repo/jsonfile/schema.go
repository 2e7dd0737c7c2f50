package jsonfile

import (
	"time"

	"github.com/bnema/claude-voice/internal/domain"
)

// instanceSchema is the on-disk record shared with the daemon. Keys match the
// document other tools already read.
type instanceSchema struct {
	PID         int    `json:"pid"`
	ProjectPath string `json:"project_path"`
	Terminal    string `json:"terminal"`
	LastActive  string `json:"last_active"`
	Status      string `json:"status"`
	// Pointers keep "absent" distinguishable so the defaults apply.
	VoiceEnabled *bool `json:"voice_enabled,omitempty"`
	DaemonAware  *bool `json:"daemon_aware,omitempty"`
}

type fileSchema map[string]instanceSchema

// Timestamps written by older tooling carry no zone and are local time.
var legacyTimeLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

func toSchema(instance domain.Instance) instanceSchema {
	voiceEnabled := instance.VoiceEnabled
	daemonAware := instance.DaemonAware

	status := instance.Status
	if status == "" {
		status = domain.InstanceStatusActive
	}

	return instanceSchema{
		PID:          instance.ProcessID,
		ProjectPath:  instance.ProjectPath,
		Terminal:     instance.TerminalSession,
		LastActive:   formatTime(instance.LastActiveAt),
		Status:       string(status),
		VoiceEnabled: &voiceEnabled,
		DaemonAware:  &daemonAware,
	}
}

func fromSchema(id string, entry instanceSchema) domain.Instance {
	return domain.Instance{
		ID:              domain.InstanceID(id),
		ProcessID:       entry.PID,
		ProjectPath:     entry.ProjectPath,
		TerminalSession: entry.Terminal,
		LastActiveAt:    parseTime(entry.LastActive),
		Status:          domain.InstanceStatus(entry.Status),
		VoiceEnabled:    boolOrDefault(entry.VoiceEnabled, true),
		DaemonAware:     boolOrDefault(entry.DaemonAware, true),
	}
}

func boolOrDefault(value *bool, fallback bool) bool {
	if value == nil {
		return fallback
	}
	return *value
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}

	if parsed, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return parsed
	}

	for _, layout := range legacyTimeLayouts {
		if parsed, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return parsed
		}
	}

	return time.Time{}
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}

	return value.Format(time.RFC3339Nano)
}
