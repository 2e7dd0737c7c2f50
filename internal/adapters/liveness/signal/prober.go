//go:build unix

package signal

import (
	"context"
	"errors"

	"github.com/bnema/claude-voice/internal/ports"
	"golang.org/x/sys/unix"
)

// Prober sends signal 0 to the pid. EPERM means the process exists but
// belongs to someone else, which still counts as running.
type Prober struct {
	kill func(pid int, sig unix.Signal) error
}

var _ ports.LivenessProber = (*Prober)(nil)

func NewProber() *Prober {
	return &Prober{kill: unix.Kill}
}

func (p *Prober) IsRunning(ctx context.Context, pid int) bool {
	if pid <= 0 || ctx.Err() != nil {
		return false
	}

	err := p.kill(pid, unix.Signal(0))
	if err == nil {
		return true
	}
	return errors.Is(err, unix.EPERM)
}
