package domain

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

type InstanceID string

type InstanceStatus string

const (
	InstanceStatusActive   InstanceStatus = "active"
	InstanceStatusInactive InstanceStatus = "inactive"
)

// DefaultStalenessWindow is the maximum age of LastActiveAt before an instance
// drops out of the active set.
const DefaultStalenessWindow = 30 * time.Minute

type Instance struct {
	ID              InstanceID
	ProcessID       int
	ProjectPath     string
	TerminalSession string
	LastActiveAt    time.Time
	// Status is a cached hint. Liveness is recomputed on every read.
	Status       InstanceStatus
	VoiceEnabled bool
	DaemonAware  bool
}

type InstanceMetadata struct {
	ProcessID       int
	ProjectPath     string
	TerminalSession string
	VoiceEnabled    *bool
	DaemonAware     *bool
}

func NewInstanceID(host string, pid int, at time.Time) InstanceID {
	host = strings.TrimSpace(host)
	if host == "" {
		host = "localhost"
	}
	return InstanceID(fmt.Sprintf("%s_%d_%d", host, pid, at.Unix()))
}

func (id InstanceID) Short(n int) string {
	if n <= 0 || len(id) <= n {
		return string(id)
	}
	return string(id[:n])
}

// ProjectName returns the last element of the project path, or "unknown project".
func (i Instance) ProjectName() string {
	if strings.TrimSpace(i.ProjectPath) == "" {
		return "unknown project"
	}
	name := filepath.Base(filepath.Clean(i.ProjectPath))
	if name == "." || name == string(filepath.Separator) {
		return "unknown project"
	}
	return name
}

func (i Instance) IsFresh(now time.Time, staleness time.Duration) bool {
	if i.LastActiveAt.IsZero() {
		return false
	}
	if staleness <= 0 {
		staleness = DefaultStalenessWindow
	}
	return now.Sub(i.LastActiveAt) <= staleness
}

// Touch advances LastActiveAt and never moves it backwards.
func (i *Instance) Touch(now time.Time) {
	if now.After(i.LastActiveAt) {
		i.LastActiveAt = now
	}
}

// MoreRecentThan orders instances by descending LastActiveAt, then ascending ID.
func (i Instance) MoreRecentThan(other Instance) bool {
	if !i.LastActiveAt.Equal(other.LastActiveAt) {
		return i.LastActiveAt.After(other.LastActiveAt)
	}
	return i.ID < other.ID
}
